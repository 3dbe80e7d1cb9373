package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/commerce/internal/authz"
	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/storage/memory"
)

var admin = authz.Caller{UserID: "admin-1", Roles: []string{authz.RoleAdmin}}

// catalogStore — срез возможностей in-memory каталога, нужных тестам.
type catalogStore interface {
	domain.StoreProductRepository
	domain.ProductRepository
}

type outboxInspector interface {
	domain.OutboxRepository
	AllPending() []domain.OutboxMessage
}

func newTestManager(t *testing.T) (*Manager, catalogStore, outboxInspector) {
	t.Helper()

	catalog := memory.NewCatalogRepository()
	catalog.AddStore(domain.Store{ID: "store-1", Name: "Main", DefaultCurrency: "USD"})
	catalog.AddStore(domain.Store{ID: "store-2", Name: "Outlet", DefaultCurrency: "USD"})
	catalog.AddProduct(domain.Product{ID: "p-1", Name: "Shirt"})
	catalog.AddVariant(domain.Variant{ID: "v-1", ProductID: "p-1", SKU: "SH-1", PriceMinor: 1000, Currency: "USD"})

	outbox := memory.NewOutboxRepository()
	manager := NewManager(catalog, catalog, catalog, authz.NewGate(catalog), outbox, nil)
	return manager, catalog, outbox
}

func TestManager_LinkAndDuplicate(t *testing.T) {
	manager, catalog, outbox := newTestManager(t)

	require.NoError(t, manager.Link(context.Background(), admin, "store-1", "p-1"))

	linked, err := catalog.Linked("store-1", "p-1")
	require.NoError(t, err)
	assert.True(t, linked)

	err = manager.Link(context.Background(), admin, "store-1", "p-1")
	require.Error(t, err)
	assert.Equal(t, domain.FaultBusiness, domain.AsFault(err).Kind)

	pending := outbox.AllPending()
	require.Len(t, pending, 1)
	assert.Equal(t, "catalog.product_linked", pending[0].EventType)
}

func TestManager_LinkRequiresAdmin(t *testing.T) {
	manager, _, _ := newTestManager(t)

	err := manager.Link(context.Background(), authz.Caller{UserID: "u-1"}, "store-1", "p-1")
	require.Error(t, err)
	assert.Equal(t, domain.FaultAuthorization, domain.AsFault(err).Kind)
}

func TestManager_LinkUnknownStoreOrProduct(t *testing.T) {
	manager, _, _ := newTestManager(t)

	err := manager.Link(context.Background(), admin, "ghost-store", "p-1")
	require.Error(t, err)
	assert.Equal(t, domain.FaultNotFound, domain.AsFault(err).Kind)

	err = manager.Link(context.Background(), admin, "store-1", "ghost-product")
	require.Error(t, err)
	assert.Equal(t, domain.FaultNotFound, domain.AsFault(err).Kind)
}

func TestManager_UnlinkLeavesProductWhileListedElsewhere(t *testing.T) {
	manager, catalog, _ := newTestManager(t)
	require.NoError(t, manager.Link(context.Background(), admin, "store-1", "p-1"))
	require.NoError(t, manager.Link(context.Background(), admin, "store-2", "p-1"))

	purged, err := manager.Unlink(context.Background(), admin, "store-1", "p-1")
	require.NoError(t, err)
	assert.False(t, purged, "product is still listed in store-2")

	_, err = catalog.GetProduct("p-1")
	require.NoError(t, err, "product must survive while a listing remains")
}

func TestManager_UnlinkLastListingPurgesProduct(t *testing.T) {
	manager, catalog, outbox := newTestManager(t)
	require.NoError(t, manager.Link(context.Background(), admin, "store-1", "p-1"))

	purged, err := manager.Unlink(context.Background(), admin, "store-1", "p-1")
	require.NoError(t, err)
	assert.True(t, purged)

	_, err = catalog.GetProduct("p-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProductNotFound))

	var sawPurge bool
	for _, msg := range outbox.AllPending() {
		if msg.EventType == "catalog.product_purged" {
			sawPurge = true
		}
	}
	assert.True(t, sawPurge, "purge must be announced as an event")
}

func TestManager_UnlinkMissingLink(t *testing.T) {
	manager, _, _ := newTestManager(t)

	_, err := manager.Unlink(context.Background(), admin, "store-1", "p-1")
	require.Error(t, err)
	assert.Equal(t, domain.FaultNotFound, domain.AsFault(err).Kind)
}

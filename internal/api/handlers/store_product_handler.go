package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/api/middleware"
	"github.com/vladislavdragonenkov/commerce/internal/service/catalog"
)

// StoreProductHandler обслуживает витрину магазина: привязку и отвязку товаров.
type StoreProductHandler struct {
	catalog *catalog.Manager
	logger  *log.Entry
}

// NewStoreProductHandler создаёт HTTP-обработчик витрины.
func NewStoreProductHandler(manager *catalog.Manager, logger *log.Entry) *StoreProductHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	return &StoreProductHandler{catalog: manager, logger: logger}
}

// Link — PUT /api/platform/stores/{store_id}/products/{product_id}.
func (h *StoreProductHandler) Link(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "store_id")
	productID := chi.URLParam(r, "product_id")

	err := h.catalog.Link(r.Context(), middleware.CallerFrom(r.Context()), storeID, productID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"store_id":   storeID,
		"product_id": productID,
	})
}

// Unlink — DELETE /api/platform/stores/{store_id}/products/{product_id}.
// Если товар после отвязки не выставлен ни в одном магазине, он удаляется
// безвозвратно; ответ сообщает об этом полем product_purged.
func (h *StoreProductHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "store_id")
	productID := chi.URLParam(r, "product_id")

	purged, err := h.catalog.Unlink(r.Context(), middleware.CallerFrom(r.Context()), storeID, productID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"store_id":       storeID,
		"product_id":     productID,
		"product_purged": purged,
	})
}

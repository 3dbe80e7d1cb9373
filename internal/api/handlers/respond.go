package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// orderResponse — представление заказа в ответе API.
type orderResponse struct {
	ID                  string             `json:"id"`
	StoreID             string             `json:"store_id"`
	UserID              string             `json:"user_id,omitempty"`
	Currency            string             `json:"currency"`
	State               string             `json:"state"`
	LineItems           []lineItemResponse `json:"line_items"`
	Coupons             []couponResponse   `json:"coupons"`
	ItemTotalMinor      int64              `json:"item_total_minor"`
	AdjustmentMinor     int64              `json:"adjustment_total_minor"`
	TotalMinor          int64              `json:"total_minor"`
	Email               string             `json:"email,omitempty"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
	ShipAddress         *domain.Address    `json:"ship_address,omitempty"`
	DeliveryMethod      string             `json:"delivery_method,omitempty"`
	ApprovedBy          string             `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time         `json:"approved_at,omitempty"`
	Version             int64              `json:"version"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

type lineItemResponse struct {
	ID         string            `json:"id"`
	VariantID  string            `json:"variant_id"`
	Quantity   int32             `json:"quantity"`
	PriceMinor int64             `json:"price_minor"`
	Options    map[string]string `json:"options,omitempty"`
}

type couponResponse struct {
	Code          string `json:"code"`
	DiscountMinor int64  `json:"discount_minor"`
}

// errorResponse — единый конверт ошибки: сообщение плюс опциональная
// пофайловая карта ошибок валидации.
type errorResponse struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:                  order.ID,
		StoreID:             order.StoreID,
		UserID:              order.UserID,
		Currency:            order.Currency,
		State:               string(order.State),
		LineItems:           make([]lineItemResponse, 0, len(order.Items)),
		Coupons:             make([]couponResponse, 0, len(order.Coupons)),
		ItemTotalMinor:      order.ItemTotalMinor(),
		AdjustmentMinor:     order.AdjustmentTotalMinor(),
		TotalMinor:          order.TotalMinor(),
		Email:               order.Email,
		SpecialInstructions: order.SpecialInstructions,
		ShipAddress:         order.ShipAddress,
		DeliveryMethod:      order.DeliveryMethod,
		ApprovedBy:          order.ApprovedBy,
		ApprovedAt:          order.ApprovedAt,
		Version:             order.Version,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.LineItems = append(resp.LineItems, lineItemResponse{
			ID:         item.ID,
			VariantID:  item.VariantID,
			Quantity:   item.Qty,
			PriceMinor: item.PriceMinor,
			Options:    item.Options,
		})
	}
	for _, coupon := range order.Coupons {
		resp.Coupons = append(resp.Coupons, couponResponse{
			Code:          coupon.Code,
			DiscountMinor: coupon.DiscountMinor,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.WithError(err).Warn("failed to encode response body")
		}
	}
}

func writeOrder(w http.ResponseWriter, status int, order domain.Order) {
	writeJSON(w, status, toOrderResponse(order))
}

// writeFault переводит классифицированную ошибку операции в HTTP-статус.
func writeFault(w http.ResponseWriter, err error) {
	fault := domain.AsFault(err)

	status := http.StatusInternalServerError
	switch fault.Kind {
	case domain.FaultValidation, domain.FaultBusiness:
		status = http.StatusUnprocessableEntity
	case domain.FaultAuthorization:
		status = http.StatusForbidden
	case domain.FaultNotFound:
		status = http.StatusNotFound
	}

	writeJSON(w, status, errorResponse{Error: fault.Error(), Errors: fault.Fields})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

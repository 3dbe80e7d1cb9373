package payment

import (
	"context"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// MockVerifier — конфигурируемая заглушка PaymentVerifier.
// Реальный платёжный провайдер подключается заменой verifier'а при сборке.
type MockVerifier struct {
	Err   error
	Calls int
}

// NewMockVerifier возвращает verifier, считающий любую оплату авторизованной.
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{}
}

// Authorized возвращает заранее настроенный результат и считает вызовы.
func (m *MockVerifier) Authorized(_ context.Context, _ domain.Order) error {
	m.Calls++
	return m.Err
}

var _ domain.PaymentVerifier = (*MockVerifier)(nil)

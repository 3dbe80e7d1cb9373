package domain

import "time"

// Store — магазин платформы, владелец заказов и витрины товаров.
type Store struct {
	ID   string
	Name string
	// DefaultCurrency используется при создании заказа без явной валюты.
	DefaultCurrency string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Product — товар каталога. Товар без единой привязки к магазину считается
// осиротевшим и удаляется (см. StoreProductRepository.Unlink).
type Product struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant — конкретный вариант товара с собственным SKU и ценой.
type Variant struct {
	ID         string
	ProductID  string
	SKU        string
	PriceMinor int64
	Currency   string
}

// StoreProduct — связка «товар P представлен в магазине S».
// Пара (StoreID, ProductID) уникальна: один товар нельзя выставить
// в одном магазине дважды.
type StoreProduct struct {
	StoreID   string
	ProductID string
	CreatedAt time.Time
	// UpdatedAt обновляется при любом касании связки; внешние слои
	// используют его для инвалидации кэшей.
	UpdatedAt time.Time
}

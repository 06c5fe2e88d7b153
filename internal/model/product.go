package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "AVAILABLE"
	ProductStatusReserved  ProductStatus = "RESERVED"
	ProductStatusSold      ProductStatus = "SOLD"
)

type Product struct {
	ID          string                      `gorm:"primaryKey;size:36"`
	Seller      Party                       `gorm:"embedded;embeddedPrefix:seller_"`
	Title       string                      `gorm:"size:120;not null"`
	Description string                      `gorm:"type:text"`
	Price       decimal.Decimal             `gorm:"type:decimal(12,2);not null"`
	Images      datatypes.JSONSlice[string] `gorm:"column:images"`
	Condition   string                      `gorm:"size:32"`
	Status      ProductStatus               `gorm:"size:16;index;not null"`
	SoldAt      *time.Time                  `gorm:"column:sold_at"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) IsAvailable() bool {
	return p.Status == ProductStatusAvailable
}

// Snapshot copies the fields an order keeps for its lifetime.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:        p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Images:    append(datatypes.JSONSlice[string]{}, p.Images...),
		Condition: p.Condition,
	}
}

// ProductSnapshot is embedded in orders; it is never updated after creation.
type ProductSnapshot struct {
	ID        string                      `gorm:"column:id;size:36;index"`
	Title     string                      `gorm:"column:title;size:120"`
	Price     decimal.Decimal             `gorm:"column:price;type:decimal(12,2)"`
	Images    datatypes.JSONSlice[string] `gorm:"column:images"`
	Condition string                      `gorm:"column:condition;size:32"`
}

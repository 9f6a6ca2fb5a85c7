package domain

import (
	"time"

	"github.com/google/uuid"
)

// Catalog domain errors.
var (
	ErrProductNotFound   = &Error{Code: ENOTFOUND, Message: "Produto não encontrado"}
	ErrVariationNotFound = &Error{Code: ENOTFOUND, Message: "Produto não existe"}
)

// Product is a catalog entry. Variations carry the sellable price and stock;
// the product holds the shared presentation data.
type Product struct {
	ID               uuid.UUID
	Name             string
	Slug             string
	ShortDescription string
	LongDescription  string
	ImagePath        string
	CreatedAt        time.Time
}

// Variation is a sellable unit of a product (size, flavor, ...). Prices are
// in centavos; PromoPriceCents of 0 means the variation has no promotion.
type Variation struct {
	ID              uuid.UUID
	ProductID       uuid.UUID
	Name            string
	PriceCents      int64
	PromoPriceCents int64
	Stock           int32
}

// ProductDetail aggregates a product with its variations.
type ProductDetail struct {
	Product    Product
	Variations []Variation
}

// VariationSnapshot is a variation joined with its product's presentation
// fields, as needed to build a cart line in one read.
type VariationSnapshot struct {
	Variation
	ProductName string
	Slug        string
	ImagePath   string
}

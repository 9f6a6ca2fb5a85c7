package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/telemetry"
)

// CatalogReader is the slice of the catalog store the cart and checkout
// services need.
type CatalogReader interface {
	GetVariationSnapshot(ctx context.Context, id uuid.UUID) (*domain.VariationSnapshot, error)
	VariationsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Variation, error)
}

// CartService provides business logic for session cart operations. The cart
// itself lives in the caller's session; the service validates mutations
// against the catalog and keeps line totals consistent.
type CartService interface {
	// AddItem adds one unit of a variation to the cart, or increments the
	// existing line. Returns true when the requested quantity was clamped
	// to the available stock.
	AddItem(ctx context.Context, cart *domain.Cart, variationID uuid.UUID) (bool, error)

	// RemoveItem deletes a variation's line from the cart.
	RemoveItem(ctx context.Context, cart *domain.Cart, variationID string) error

	// Summary computes the cart's display totals with the given shipping fee.
	Summary(cart *domain.Cart, shippingCents int64) *CartSummary
}

// CartSummary aggregates the cart's lines with calculated totals, sorted for
// stable display.
type CartSummary struct {
	Lines         []domain.CartLine
	SubtotalCents int64
	ShippingCents int64
	TotalCents    int64
	TotalQuantity int32
}

type cartService struct {
	catalog CatalogReader
	metrics *telemetry.BusinessMetrics
}

// NewCartService creates a new CartService instance.
func NewCartService(catalog CatalogReader, metrics *telemetry.BusinessMetrics) CartService {
	return &cartService{catalog: catalog, metrics: metrics}
}

// AddItem adds one unit of a variation to the cart. A variation with no stock
// at all is rejected; an increment past the available stock is clamped to it.
func (s *cartService) AddItem(ctx context.Context, cart *domain.Cart, variationID uuid.UUID) (bool, error) {
	snap, err := s.catalog.GetVariationSnapshot(ctx, variationID)
	if err != nil {
		return false, err
	}
	if snap.Stock < 1 {
		return false, domain.ErrOutOfStock
	}

	line, ok := cart.Line(variationID.String())
	if !ok {
		line = domain.CartLine{
			VariationID:   snap.ID,
			VariationName: snap.Name,
			ProductID:     snap.ProductID,
			ProductName:   snap.ProductName,
			Slug:          snap.Slug,
			ImagePath:     snap.ImagePath,
		}
	}

	// Prices refresh on every add so a repriced variation does not keep its
	// stale price in the cart.
	line.UnitPriceCents = snap.PriceCents
	line.UnitPromoCents = snap.PromoPriceCents

	clamped := false
	line.Quantity++
	if line.Quantity > snap.Stock {
		line.Quantity = snap.Stock
		clamped = true
	}
	line.Recalculate()
	cart.SetLine(line)

	if s.metrics != nil {
		s.metrics.CartUpdated.WithLabelValues("add").Inc()
		s.metrics.CartItemsAdded.Inc()
	}
	return clamped, nil
}

// RemoveItem deletes a variation's line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, cart *domain.Cart, variationID string) error {
	if _, ok := cart.Line(variationID); !ok {
		return domain.ErrCartItemNotFound
	}
	cart.RemoveLine(variationID)

	if s.metrics != nil {
		s.metrics.CartUpdated.WithLabelValues("remove").Inc()
	}
	return nil
}

// Summary computes the cart's totals. Lines come out sorted by product name
// then variation name so pages render in a stable order.
func (s *cartService) Summary(cart *domain.Cart, shippingCents int64) *CartSummary {
	lines := make([]domain.CartLine, 0, cart.Len())
	for _, line := range cart.Lines {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductName != lines[j].ProductName {
			return lines[i].ProductName < lines[j].ProductName
		}
		return lines[i].VariationName < lines[j].VariationName
	})

	subtotal := cart.SubtotalCents()
	return &CartSummary{
		Lines:         lines,
		SubtotalCents: subtotal,
		ShippingCents: shippingCents,
		TotalCents:    subtotal + shippingCents,
		TotalQuantity: cart.TotalQuantity(),
	}
}

// reconcileLines clamps every cart line to the live stock in variations,
// removing lines whose variation is gone or out of stock. Returns true when
// anything changed.
func reconcileLines(cart *domain.Cart, variations map[uuid.UUID]domain.Variation) bool {
	adjusted := false
	for key, line := range cart.Lines {
		v, ok := variations[line.VariationID]
		if !ok || v.Stock < 1 {
			cart.RemoveLine(key)
			adjusted = true
			continue
		}
		if line.Quantity > v.Stock {
			line.Quantity = v.Stock
			line.Recalculate()
			cart.SetLine(line)
			adjusted = true
		}
	}
	return adjusted
}

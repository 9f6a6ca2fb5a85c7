package storefront

import (
	"context"
	"net/http"
	"strconv"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/handler"
	"github.com/odmarques/lojinha/internal/shipping"
	"github.com/odmarques/lojinha/internal/telemetry"
)

// productCatalog is the slice of the catalog store the product pages need.
type productCatalog interface {
	ListProducts(ctx context.Context, query string, page, perPage int) ([]domain.Product, int64, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.ProductDetail, error)
}

// productsPerPage is the page size of the product listing.
const productsPerPage = 12

// ProductHandler handles the catalog browsing routes.
type ProductHandler struct {
	catalog productCatalog
	metrics *telemetry.BusinessMetrics
}

// NewProductHandler creates a new product handler.
func NewProductHandler(catalog productCatalog, metrics *telemetry.BusinessMetrics) *ProductHandler {
	return &ProductHandler{catalog: catalog, metrics: metrics}
}

type productView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	ShortDescription string `json:"short_description"`
	ImagePath        string `json:"image_path,omitempty"`
}

type variationView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	PriceDisplay string  `json:"price_display"`
	Promo        float64 `json:"promo,omitempty"`
	PromoDisplay string  `json:"promo_display,omitempty"`
	InStock      bool    `json:"in_stock"`
}

// List handles GET /products?q=&page=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	products, total, err := h.catalog.ListProducts(r.Context(), query, page, productsPerPage)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		filtered := "no"
		if query != "" {
			filtered = "yes"
		}
		h.metrics.ProductSearches.WithLabelValues(filtered).Inc()
	}

	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{
			ID:               p.ID.String(),
			Name:             p.Name,
			Slug:             p.Slug,
			ShortDescription: p.ShortDescription,
			ImagePath:        p.ImagePath,
		}
	}

	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"products":    views,
		"total_count": total,
	})
}

// Detail handles GET /products/{slug}
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetProductBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ProductViews.WithLabelValues(detail.Product.Slug).Inc()
	}

	variations := make([]variationView, len(detail.Variations))
	for i, v := range detail.Variations {
		view := variationView{
			ID:           v.ID.String(),
			Name:         v.Name,
			Price:        brl(v.PriceCents),
			PriceDisplay: domain.FormatBRL(v.PriceCents),
			InStock:      v.Stock > 0,
		}
		if v.PromoPriceCents > 0 {
			view.Promo = brl(v.PromoPriceCents)
			view.PromoDisplay = domain.FormatBRL(v.PromoPriceCents)
		}
		variations[i] = view
	}

	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"product": map[string]any{
			"id":                detail.Product.ID.String(),
			"name":              detail.Product.Name,
			"slug":              detail.Product.Slug,
			"short_description": detail.Product.ShortDescription,
			"long_description":  detail.Product.LongDescription,
			"image_path":        detail.Product.ImagePath,
		},
		"variations":      variations,
		"shipping_cities": shipping.Cities(),
	})
}

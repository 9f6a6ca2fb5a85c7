package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odmarques/lojinha/internal/domain"
)

// CatalogStore reads products and variations from PostgreSQL.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a PostgreSQL-backed catalog store.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// ListProducts returns one page of products, newest first. A non-empty query
// filters on name and descriptions.
func (s *CatalogStore) ListProducts(ctx context.Context, query string, page, perPage int) ([]domain.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	pattern := "%" + query + "%"

	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM products
		 WHERE $1 = '' OR name ILIKE $2 OR short_description ILIKE $2 OR long_description ILIKE $2`,
		query, pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, slug, short_description, long_description, image_path, created_at
		 FROM products
		 WHERE $1 = '' OR name ILIKE $2 OR short_description ILIKE $2 OR long_description ILIKE $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		query, pattern, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.ShortDescription, &p.LongDescription, &p.ImagePath, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read products: %w", err)
	}

	return products, total, nil
}

// GetProductBySlug returns a product and its variations.
func (s *CatalogStore) GetProductBySlug(ctx context.Context, slug string) (*domain.ProductDetail, error) {
	var p domain.Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, slug, short_description, long_description, image_path, created_at
		 FROM products WHERE slug = $1`,
		slug,
	).Scan(&p.ID, &p.Name, &p.Slug, &p.ShortDescription, &p.LongDescription, &p.ImagePath, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, name, price_cents, promo_price_cents, stock
		 FROM variations WHERE product_id = $1
		 ORDER BY price_cents, id`,
		p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list variations: %w", err)
	}
	defer rows.Close()

	detail := &domain.ProductDetail{Product: p}
	for rows.Next() {
		var v domain.Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.PriceCents, &v.PromoPriceCents, &v.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		detail.Variations = append(detail.Variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read variations: %w", err)
	}

	return detail, nil
}

// GetVariationSnapshot returns one variation joined with its product's
// presentation fields, as needed to build a cart line.
func (s *CatalogStore) GetVariationSnapshot(ctx context.Context, id uuid.UUID) (*domain.VariationSnapshot, error) {
	var snap domain.VariationSnapshot
	err := s.pool.QueryRow(ctx,
		`SELECT v.id, v.product_id, v.name, v.price_cents, v.promo_price_cents, v.stock,
		        p.name, p.slug, p.image_path
		 FROM variations v
		 JOIN products p ON p.id = v.product_id
		 WHERE v.id = $1`,
		id,
	).Scan(&snap.ID, &snap.ProductID, &snap.Name, &snap.PriceCents, &snap.PromoPriceCents, &snap.Stock,
		&snap.ProductName, &snap.Slug, &snap.ImagePath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVariationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variation: %w", err)
	}
	return &snap, nil
}

// VariationsByIDs loads current stock and prices for a set of variations in
// one batch. Unknown IDs are simply absent from the result map.
func (s *CatalogStore) VariationsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Variation, error) {
	variations := make(map[uuid.UUID]domain.Variation, len(ids))
	if len(ids) == 0 {
		return variations, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, name, price_cents, promo_price_cents, stock
		 FROM variations WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load variations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.PriceCents, &v.PromoPriceCents, &v.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		variations[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read variations: %w", err)
	}

	return variations, nil
}

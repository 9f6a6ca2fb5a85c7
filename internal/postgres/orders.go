package postgres

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odmarques/lojinha/internal/domain"
)

// ErrNoTransition is returned by Transition when no row matched the expected
// status set; callers re-read the order to tell not-found from stale status.
var ErrNoTransition = errors.New("postgres: order transition matched no rows")

// StockShortageError reports variations whose live stock no longer covers the
// requested quantity, with the quantity still available for each.
type StockShortageError struct {
	Available map[uuid.UUID]int32
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for %d variation(s)", len(e.Available))
}

// OrderStore persists orders and their line-item snapshots.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore creates a PostgreSQL-backed order store.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// CreateOrderParams carries a reconciled cart into a single order insert.
// Item prices and quantities are the cart's frozen snapshot, not live reads.
type CreateOrderParams struct {
	UserID        uuid.UUID
	SessionKey    string
	TotalCents    int64
	ShippingCents int64
	TotalQuantity int32
	Items         []domain.OrderItem
}

// CreateFromCart writes one order and its items in a single transaction.
//
// Two guards run inside the transaction: an advisory lock on the session key
// serializes near-simultaneous reconciliation attempts for the same cart, and
// the requested quantities are re-checked against stock under FOR UPDATE so a
// concurrent sale cannot oversell. A shortage aborts the whole transaction
// and surfaces as *StockShortageError with the available quantities.
func (s *OrderStore) CreateFromCart(ctx context.Context, params CreateOrderParams) (*domain.OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		params.SessionKey,
	); err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}

	ids := make([]uuid.UUID, len(params.Items))
	requested := make(map[uuid.UUID]int32, len(params.Items))
	for i, item := range params.Items {
		ids[i] = item.VariationID
		requested[item.VariationID] = item.Quantity
	}

	rows, err := tx.Query(ctx,
		`SELECT id, stock FROM variations WHERE id = ANY($1) FOR UPDATE`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock variations: %w", err)
	}

	stock := make(map[uuid.UUID]int32, len(ids))
	for rows.Next() {
		var (
			id  uuid.UUID
			qty int32
		)
		if err := rows.Scan(&id, &qty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stock[id] = qty
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stock: %w", err)
	}

	shortage := make(map[uuid.UUID]int32)
	for id, want := range requested {
		have := stock[id] // a deleted variation counts as zero stock
		if have < want {
			shortage[id] = have
		}
	}
	if len(shortage) > 0 {
		return nil, &StockShortageError{Available: shortage}
	}

	order := domain.Order{
		UserID:        params.UserID,
		TotalCents:    params.TotalCents,
		ShippingCents: params.ShippingCents,
		TotalQuantity: params.TotalQuantity,
		Status:        domain.OrderCreated,
	}

	// The random suffix can collide within a day. ON CONFLICT DO NOTHING
	// keeps the transaction alive so the insert can retry with a fresh
	// number; zero returned rows means the number was taken.
	inserted := false
	for attempt := 0; attempt < orderNumberAttempts && !inserted; attempt++ {
		number, err := generateOrderNumber()
		if err != nil {
			return nil, err
		}
		order.Number = number

		err = tx.QueryRow(ctx,
			`INSERT INTO orders (number, user_id, total_cents, shipping_cents, total_quantity, status)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (number) DO NOTHING
			 RETURNING id, created_at`,
			order.Number, order.UserID, order.TotalCents, order.ShippingCents, order.TotalQuantity, order.Status,
		).Scan(&order.ID, &order.CreatedAt)
		switch {
		case err == nil:
			inserted = true
		case errors.Is(err, pgx.ErrNoRows):
			// number collision, regenerate
		default:
			return nil, fmt.Errorf("failed to insert order: %w", err)
		}
	}
	if !inserted {
		return nil, fmt.Errorf("failed to allocate an order number after %d attempts", orderNumberAttempts)
	}

	items := make([]domain.OrderItem, len(params.Items))
	copy(items, params.Items)
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = order.ID
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"id", "order_id", "product_id", "product_name", "variation_id", "variation_name", "image_path", "unit_price_cents", "unit_promo_cents", "quantity"},
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			it := items[i]
			return []any{it.ID, it.OrderID, it.ProductID, it.ProductName, it.VariationID, it.VariationName, it.ImagePath, it.UnitPriceCents, it.UnitPromoCents, it.Quantity}, nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return &domain.OrderDetail{Order: order, Items: items}, nil
}

// GetForUser returns an order scoped to its owner. A wrong owner is
// indistinguishable from a missing order.
func (s *OrderStore) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	err := s.pool.QueryRow(ctx,
		`SELECT id, number, user_id, total_cents, shipping_cents, total_quantity, status, cancel_reason, created_at
		 FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&o.ID, &o.Number, &o.UserID, &o.TotalCents, &o.ShippingCents, &o.TotalQuantity, &o.Status, &o.CancelReason, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// GetDetailForUser returns an order with its items, owner-scoped.
func (s *OrderStore) GetDetailForUser(ctx context.Context, orderID, userID uuid.UUID) (*domain.OrderDetail, error) {
	order, err := s.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, variation_id, variation_name, image_path, unit_price_cents, unit_promo_cents, quantity
		 FROM order_items WHERE order_id = $1
		 ORDER BY product_name, variation_name`,
		order.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	detail := &domain.OrderDetail{Order: *order}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.VariationID, &it.VariationName, &it.ImagePath, &it.UnitPriceCents, &it.UnitPromoCents, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		detail.Items = append(detail.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	return detail, nil
}

// ListForUser returns one page of the user's orders, newest first.
func (s *OrderStore) ListForUser(ctx context.Context, userID uuid.UUID, page, perPage int) (*domain.OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int64
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, number, user_id, total_cents, shipping_cents, total_quantity, status, cancel_reason, created_at
		 FROM orders WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	result := &domain.OrderPage{Page: page, PerPage: perPage, TotalCount: total}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Number, &o.UserID, &o.TotalCents, &o.ShippingCents, &o.TotalQuantity, &o.Status, &o.CancelReason, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result.Orders = append(result.Orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return result, nil
}

// Transition moves an owner-scoped order to a new status only if its current
// status is still one of from (optimistic check: concurrent duplicate
// callbacks become no-ops instead of corrupting state). A non-empty reason is
// stored alongside. Returns ErrNoTransition when nothing matched.
func (s *OrderStore) Transition(ctx context.Context, orderID, userID uuid.UUID, from []domain.OrderStatus, to domain.OrderStatus, reason string) (*domain.Order, error) {
	expected := make([]string, len(from))
	for i, st := range from {
		expected[i] = string(st)
	}

	var o domain.Order
	err := s.pool.QueryRow(ctx,
		`UPDATE orders
		 SET status = $3,
		     cancel_reason = CASE WHEN $4 <> '' THEN $4 ELSE cancel_reason END,
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND status = ANY($5)
		 RETURNING id, number, user_id, total_cents, shipping_cents, total_quantity, status, cancel_reason, created_at`,
		orderID, userID, to, reason, expected,
	).Scan(&o.ID, &o.Number, &o.UserID, &o.TotalCents, &o.ShippingCents, &o.TotalQuantity, &o.Status, &o.CancelReason, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition order: %w", err)
	}
	return &o, nil
}

const (
	orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// orderNumberAttempts bounds the regenerate-on-collision loop.
	orderNumberAttempts = 3
)

// generateOrderNumber builds a human-readable order number: PED-20260828-A3K9.
func generateOrderNumber() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	suffix := make([]byte, 4)
	for i, v := range b {
		suffix[i] = orderNumberAlphabet[int(v)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("PED-%s-%s", time.Now().Format("20060102"), suffix), nil
}

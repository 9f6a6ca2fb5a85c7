package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/postgres"
)

// fakeOrderCreator records the create call and fabricates the persisted order.
type fakeOrderCreator struct {
	lastParams *postgres.CreateOrderParams
	shortage   *postgres.StockShortageError
	created    int
}

func (f *fakeOrderCreator) CreateFromCart(_ context.Context, params postgres.CreateOrderParams) (*domain.OrderDetail, error) {
	f.lastParams = &params
	if f.shortage != nil {
		return nil, f.shortage
	}
	f.created++

	order := domain.Order{
		ID:            uuid.New(),
		Number:        "PED-20260828-TEST",
		UserID:        params.UserID,
		TotalCents:    params.TotalCents,
		ShippingCents: params.ShippingCents,
		TotalQuantity: params.TotalQuantity,
		Status:        domain.OrderCreated,
		CreatedAt:     time.Now(),
	}
	items := make([]domain.OrderItem, len(params.Items))
	copy(items, params.Items)
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = order.ID
	}
	return &domain.OrderDetail{Order: order, Items: items}, nil
}

func checkoutFixture(t *testing.T, stock int32) (*fakeCatalog, *fakeOrderCreator, CheckoutService, *domain.Cart, domain.Variation) {
	t.Helper()

	catalog := newFakeCatalog()
	v := newVariation(1000, 800, stock)
	catalog.add(v, "Café Especial")

	orders := &fakeOrderCreator{}
	svc := NewCheckoutService(catalog, orders, nil, nil)

	carts := NewCartService(catalog, nil)
	cart := domain.NewCart()
	for i := int32(0); i < 3 && i < stock; i++ {
		_, err := carts.AddItem(context.Background(), cart, v.ID)
		require.NoError(t, err)
	}

	return catalog, orders, svc, cart, v
}

func TestReconcile_CreatesOrderFromCartSnapshot(t *testing.T) {
	_, orders, svc, cart, v := checkoutFixture(t, 5)

	userID := uuid.New()
	detail, err := svc.Reconcile(context.Background(), ReconcileParams{
		UserID:        userID,
		SessionToken:  "tok",
		Cart:          cart,
		ShippingCents: 1990,
	})
	require.NoError(t, err)

	// promo 8.00 x 3 + shipping 19.90
	assert.Equal(t, int64(4390), detail.Order.TotalCents)
	assert.Equal(t, int64(1990), detail.Order.ShippingCents)
	assert.Equal(t, int32(3), detail.Order.TotalQuantity)
	assert.Equal(t, domain.OrderCreated, detail.Order.Status)
	assert.Equal(t, userID, detail.Order.UserID)

	// one item, frozen unit prices
	require.Len(t, detail.Items, 1)
	item := detail.Items[0]
	assert.Equal(t, v.ID, item.VariationID)
	assert.Equal(t, int32(3), item.Quantity)
	assert.Equal(t, int64(1000), item.UnitPriceCents)
	assert.Equal(t, int64(800), item.UnitPromoCents)

	assert.True(t, cart.IsEmpty(), "cart clears after the order is saved")
	assert.Equal(t, 1, orders.created)
}

func TestReconcile_AnonymousUser(t *testing.T) {
	_, orders, svc, cart, _ := checkoutFixture(t, 5)

	_, err := svc.Reconcile(context.Background(), ReconcileParams{
		UserID: uuid.Nil,
		Cart:   cart,
	})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, 0, orders.created)
	assert.False(t, cart.IsEmpty(), "cart survives the rejected attempt")
}

func TestReconcile_EmptyCart(t *testing.T) {
	_, orders, svc, _, _ := checkoutFixture(t, 5)

	_, err := svc.Reconcile(context.Background(), ReconcileParams{
		UserID: uuid.New(),
		Cart:   domain.NewCart(),
	})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Equal(t, 0, orders.created)
}

func TestReconcile_ClampsToLiveStock(t *testing.T) {
	catalog, orders, svc, cart, v := checkoutFixture(t, 5)

	// Someone bought most of the stock since the items were added.
	catalog.setStock(v.ID, 1)

	_, err := svc.Reconcile(context.Background(), ReconcileParams{
		UserID:        uuid.New(),
		Cart:          cart,
		ShippingCents: 1990,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, orders.created, "no order on adjustment")

	// The cart was rewritten, not cleared.
	line, ok := cart.Line(v.ID.String())
	require.True(t, ok)
	assert.Equal(t, int32(1), line.Quantity)
	assert.Equal(t, int64(1000), line.LineTotalCents)
	assert.Equal(t, int64(800), line.LinePromoCents)
}

func TestReconcile_DropsVanishedVariation(t *testing.T) {
	catalog, orders, svc, cart, v := checkoutFixture(t, 5)

	catalog.remove(v.ID)

	_, err := svc.Reconcile(context.Background(), ReconcileParams{
		UserID: uuid.New(),
		Cart:   cart,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, orders.created)
}

func TestReconcile_StoreShortageAlsoClamps(t *testing.T) {
	// The plain read said the stock was fine but the locked re-check in the
	// store disagreed: same customer experience as a first-pass adjustment.
	_, orders, svc, cart, v := checkoutFixture(t, 5)
	orders.shortage = &postgres.StockShortageError{
		Available: map[uuid.UUID]int32{v.ID: 2},
	}

	_, err := svc.Reconcile(context.Background(), ReconcileParams{
		UserID: uuid.New(),
		Cart:   cart,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, orders.created)

	line, ok := cart.Line(v.ID.String())
	require.True(t, ok)
	assert.Equal(t, int32(2), line.Quantity)
}

func TestReconcile_StoreShortageToZeroRemovesLine(t *testing.T) {
	_, _, svc, cart, v := checkoutFixture(t, 5)
	orders := &postgres.StockShortageError{Available: map[uuid.UUID]int32{v.ID: 0}}

	fake := &fakeOrderCreator{shortage: orders}
	catalog := newFakeCatalog()
	catalog.add(domain.Variation{ID: v.ID, ProductID: v.ProductID, Name: v.Name, PriceCents: 1000, PromoPriceCents: 800, Stock: 5}, "Café Especial")
	svc = NewCheckoutService(catalog, fake, nil, nil)

	_, err := svc.Reconcile(context.Background(), ReconcileParams{
		UserID: uuid.New(),
		Cart:   cart,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, cart.IsEmpty())
}

func TestReconcile_PassesSessionTokenThrough(t *testing.T) {
	_, orders, svc, cart, _ := checkoutFixture(t, 5)

	_, err := svc.Reconcile(context.Background(), ReconcileParams{
		UserID:       uuid.New(),
		SessionToken: "session-token-1",
		Cart:         cart,
	})
	require.NoError(t, err)
	assert.Equal(t, "session-token-1", orders.lastParams.SessionKey)
}

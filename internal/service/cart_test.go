package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagerhq/tripcart/internal/domain"
	"github.com/voyagerhq/tripcart/internal/repo"
	"github.com/voyagerhq/tripcart/internal/service"
)

// fakeCartRepo is a stateful in-memory CartRepo holding at most one cart.
// Cart tests exercise read-modify-write flows, so a stateful fake reads
// better than per-method function fields here.
type fakeCartRepo struct {
	cart   *domain.Cart
	gone   bool // set true after Delete for "subsequent get returns none" checks
	marked bool // MarkCheckout called successfully
}

func (f *fakeCartRepo) GetByOwnerAndTrip(_ context.Context, ownerID string, tripID uuid.UUID) (domain.Cart, error) {
	if f.cart == nil || f.cart.OwnerID != ownerID || f.cart.TripID != tripID {
		return domain.Cart{}, domain.ErrNotFound
	}
	return *f.cart, nil
}

func (f *fakeCartRepo) Create(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.ID = uuid.New()
	cart.CreatedAt = time.Now().UTC()
	cart.UpdatedAt = cart.CreatedAt
	f.cart = &cart
	f.gone = false
	return cart, nil
}

func (f *fakeCartRepo) UpdateItems(_ context.Context, id uuid.UUID, items []domain.LineItem, total float64) (domain.Cart, error) {
	if f.cart == nil || f.cart.ID != id {
		return domain.Cart{}, domain.ErrNotFound
	}
	f.cart.Items = items
	f.cart.Total = total
	f.cart.UpdatedAt = time.Now().UTC()
	return *f.cart, nil
}

func (f *fakeCartRepo) MarkCheckout(_ context.Context, id uuid.UUID) error {
	if f.cart == nil || f.cart.ID != id || f.cart.Status != domain.CartStatusPending {
		return domain.ErrNotFound
	}
	f.cart.Status = domain.CartStatusCheckout
	f.marked = true
	return nil
}

func (f *fakeCartRepo) Delete(_ context.Context, id uuid.UUID) error {
	if f.cart == nil || f.cart.ID != id {
		return domain.ErrNotFound
	}
	f.cart = nil
	f.gone = true
	return nil
}

// compile-time check: fakeCartRepo must satisfy repo.CartRepo.
var _ repo.CartRepo = (*fakeCartRepo)(nil)

// ---- helpers ---------------------------------------------------------------

// tripExistsRepo answers every GetByID with a generating trip, which is
// all the cart service needs from the trip side.
func tripExistsRepo() *mockTripRepo {
	return &mockTripRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			trip := validTrip()
			trip.ID = id
			trip.Status = domain.TripStatusGenerating
			return trip, nil
		},
	}
}

func newCartService(carts repo.CartRepo) *service.CartService {
	return service.NewCartService(tripExistsRepo(), carts)
}

func intPtr(d int) *int { return &d }

func tourItem(qty int) domain.LineItem {
	return domain.LineItem{
		Type:     "activity",
		Name:     "City Tour",
		Price:    40,
		Currency: "EUR",
		Quantity: qty,
		Day:      intPtr(1),
	}
}

// ---- AddItem tests ---------------------------------------------------------

func TestCartService_AddItem_CreatesCartOnFirstAdd(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "user-1", uuid.New(), tourItem(1))

	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusPending, cart.Status)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 40.0, cart.Total)
	assert.Equal(t, "EUR", cart.Currency)
}

func TestCartService_AddItem_TripMustExist(t *testing.T) {
	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}
	svc := service.NewCartService(trips, &fakeCartRepo{})

	_, err := svc.AddItem(context.Background(), "user-1", uuid.New(), tourItem(1))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartService_AddItem_MergesOnMatchingKey(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(2))
	require.NoError(t, err)

	// Same (name, day, flag) with a different price: quantities merge,
	// the existing item's price wins.
	second := tourItem(3)
	second.Price = 99

	cart, err := svc.AddItem(ctx, "user-1", tripID, second)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "matching merge keys must collapse into one line item")
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 40.0, cart.Items[0].Price, "existing item's price is retained")
	assert.Equal(t, 200.0, cart.Total)
}

func TestCartService_AddItem_ScenarioCityTour(t *testing.T) {
	// Spec scenario: add City Tour day 1 qty 1 at 40 EUR, then qty 2:
	// one line item, quantity 3, total 120 EUR.
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(1))
	require.NoError(t, err)

	cart, err := svc.AddItem(ctx, "user-1", tripID, tourItem(2))

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 120.0, cart.Total)
	assert.Equal(t, "EUR", cart.Currency)
}

func TestCartService_AddItem_DifferentDayAppends(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(1))
	require.NoError(t, err)

	other := tourItem(1)
	other.Day = intPtr(2) // same name, different day — a different item

	cart, err := svc.AddItem(ctx, "user-1", tripID, other)

	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 80.0, cart.Total)
}

func TestCartService_AddItem_SkipLineIsPartOfTheKey(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(1))
	require.NoError(t, err)

	skip := tourItem(1)
	skip.SkipLine = true

	cart, err := svc.AddItem(ctx, "user-1", tripID, skip)

	require.NoError(t, err)
	assert.Len(t, cart.Items, 2, "skip-the-line variant is a distinct line item")
}

func TestCartService_AddItem_TypeAndPriceDoNotSplitTheKey(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(1))
	require.NoError(t, err)

	variant := tourItem(1)
	variant.Type = "tour" // type does not participate in item identity

	cart, err := svc.AddItem(ctx, "user-1", tripID, variant)

	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	svc := newCartService(&fakeCartRepo{})

	item := tourItem(0)

	_, err := svc.AddItem(context.Background(), "user-1", uuid.New(), item)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCartService_AddItem_TotalAlwaysMatchesSum(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	items := []domain.LineItem{
		{Type: "hotel", Name: "Hotel Rivoli", Price: 180, Currency: "EUR", Quantity: 4},
		{Type: "activity", Name: "City Tour", Price: 40, Currency: "EUR", Quantity: 2, Day: intPtr(1)},
		{Type: "flight", Name: "YYZ-CDG", Price: 620.50, Currency: "EUR", Quantity: 2},
	}
	for _, it := range items {
		_, err := svc.AddItem(ctx, "user-1", tripID, it)
		require.NoError(t, err)
	}

	cart, err := svc.Get(ctx, "user-1", tripID)

	require.NoError(t, err)
	assert.InDelta(t, domain.CartTotal(cart.Items), cart.Total, 1e-9,
		"stored total must equal the recomputed sum after every mutation")
	assert.InDelta(t, 180*4+40*2+620.50*2, cart.Total, 1e-9)
}

// ---- RemoveItem tests ------------------------------------------------------

func TestCartService_RemoveItem_LastItemDeletesCart(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(2))
	require.NoError(t, err)

	err = svc.RemoveItem(ctx, "user-1", tripID, "City Tour", intPtr(1), false)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "user-1", tripID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "an empty cart must not persist")
	assert.True(t, carts.gone, "the cart record itself must be deleted")
}

func TestCartService_RemoveItem_Idempotent(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(1))
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, "user-1", tripID, "City Tour", intPtr(1), false))
	// Second removal with the same key: same end state, no error.
	require.NoError(t, svc.RemoveItem(ctx, "user-1", tripID, "City Tour", intPtr(1), false))

	_, err = svc.Get(ctx, "user-1", tripID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartService_RemoveItem_NoCartIsNoop(t *testing.T) {
	svc := newCartService(&fakeCartRepo{})

	err := svc.RemoveItem(context.Background(), "user-1", uuid.New(), "City Tour", nil, false)

	assert.NoError(t, err)
}

func TestCartService_RemoveItem_RecomputesTotal(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(2))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user-1", tripID, domain.LineItem{
		Type: "hotel", Name: "Hotel Rivoli", Price: 180, Currency: "EUR", Quantity: 1,
	})
	require.NoError(t, err)

	err = svc.RemoveItem(ctx, "user-1", tripID, "City Tour", intPtr(1), false)
	require.NoError(t, err)

	cart, err := svc.Get(ctx, "user-1", tripID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 180.0, cart.Total)
}

// ---- SetItemQuantity tests -------------------------------------------------

func TestCartService_SetItemQuantity_Replaces(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(2))
	require.NoError(t, err)

	err = svc.SetItemQuantity(ctx, "user-1", tripID, "City Tour", "activity", intPtr(1), 5)
	require.NoError(t, err)

	cart, err := svc.Get(ctx, "user-1", tripID)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 200.0, cart.Total)
}

func TestCartService_SetItemQuantity_ZeroRemoves(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(2))
	require.NoError(t, err)

	err = svc.SetItemQuantity(ctx, "user-1", tripID, "City Tour", "activity", intPtr(1), 0)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "user-1", tripID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartService_SetItemQuantity_LocatesByNameTypeDay(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(2))
	require.NoError(t, err)

	// Wrong type: nothing located, nothing changed.
	err = svc.SetItemQuantity(ctx, "user-1", tripID, "City Tour", "hotel", intPtr(1), 9)
	require.NoError(t, err)

	cart, err := svc.Get(ctx, "user-1", tripID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartService_SetItemQuantity_NoCartIsNoop(t *testing.T) {
	svc := newCartService(&fakeCartRepo{})

	err := svc.SetItemQuantity(context.Background(), "user-1", uuid.New(), "City Tour", "activity", nil, 3)

	assert.NoError(t, err)
}

// ---- Clear / ItemCount tests -----------------------------------------------

func TestCartService_Clear(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(1))
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "user-1", tripID))

	_, err = svc.Get(ctx, "user-1", tripID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Clearing again is a no-op, not an error.
	assert.NoError(t, svc.Clear(ctx, "user-1", tripID))
}

func TestCartService_ItemCount(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	count, err := svc.ItemCount(ctx, "user-1", tripID)
	require.NoError(t, err)
	assert.Zero(t, count, "no cart means zero items")

	_, err = svc.AddItem(ctx, "user-1", tripID, tourItem(2))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user-1", tripID, domain.LineItem{
		Type: "hotel", Name: "Hotel Rivoli", Price: 180, Currency: "EUR", Quantity: 3,
	})
	require.NoError(t, err)

	count, err = svc.ItemCount(ctx, "user-1", tripID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

// ---- Checkout tests --------------------------------------------------------

func TestCartService_Checkout_NoCartIsSoftFailure(t *testing.T) {
	svc := newCartService(&fakeCartRepo{})

	result, err := svc.Checkout(context.Background(), "user-1", uuid.New())

	require.NoError(t, err, "an empty cart is a business outcome, never an error")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, result.BookingRefs)
}

func TestCartService_Checkout_Success(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(1))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user-1", tripID, domain.LineItem{
		Type: "hotel", Name: "Hotel Rivoli", Price: 180, Currency: "EUR", Quantity: 2,
	})
	require.NoError(t, err)

	result, err := svc.Checkout(ctx, "user-1", tripID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.BookingRefs, 2, "one booking reference per line item")
	assert.True(t, carts.marked, "cart must transition pending -> checkout")
}

func TestCartService_Checkout_AlreadyCheckedOut(t *testing.T) {
	carts := &fakeCartRepo{}
	svc := newCartService(carts)
	ctx := context.Background()
	tripID := uuid.New()

	_, err := svc.AddItem(ctx, "user-1", tripID, tourItem(1))
	require.NoError(t, err)

	first, err := svc.Checkout(ctx, "user-1", tripID)
	require.NoError(t, err)
	require.True(t, first.Success)

	// The transition is irreversible; a second checkout loses the CAS.
	second, err := svc.Checkout(ctx, "user-1", tripID)

	require.NoError(t, err)
	assert.False(t, second.Success)
}

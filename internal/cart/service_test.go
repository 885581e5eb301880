package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-bazaar/internal/catalog"
	"github.com/noah-isme/backend-bazaar/internal/discount"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type stubQueries struct {
	cart  *Cart
	items map[uuid.UUID]*Item
	saved []Cart
}

func newStubQueries() *stubQueries {
	return &stubQueries{items: map[uuid.UUID]*Item{}}
}

func (s *stubQueries) GetCartByUser(_ context.Context, userID uuid.UUID) (Cart, error) {
	if s.cart == nil || s.cart.UserID != userID {
		return Cart{}, pgx.ErrNoRows
	}
	return *s.cart, nil
}

func (s *stubQueries) CreateCart(_ context.Context, userID uuid.UUID, currency string) (Cart, error) {
	c := Cart{ID: uuid.New(), UserID: userID, Currency: currency}
	s.cart = &c
	return c, nil
}

func (s *stubQueries) ListItems(_ context.Context, cartID uuid.UUID) ([]Item, error) {
	var out []Item
	for _, item := range s.items {
		if item.CartID == cartID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubQueries) GetItem(_ context.Context, itemID uuid.UUID) (Item, error) {
	item, ok := s.items[itemID]
	if !ok {
		return Item{}, pgx.ErrNoRows
	}
	return *item, nil
}

func (s *stubQueries) InsertItem(_ context.Context, item Item) (Item, error) {
	copied := item
	s.items[item.ID] = &copied
	return copied, nil
}

func (s *stubQueries) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int32, itemTotal decimal.Decimal) error {
	item, ok := s.items[itemID]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Quantity = quantity
	item.ItemTotal = itemTotal
	return nil
}

func (s *stubQueries) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}

func (s *stubQueries) DeleteItemsByCart(_ context.Context, cartID uuid.UUID) error {
	for id, item := range s.items {
		if item.CartID == cartID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *stubQueries) SaveTotals(_ context.Context, c Cart) error {
	saved := c
	s.cart = &saved
	s.saved = append(s.saved, c)
	return nil
}

type stubCatalog struct {
	products map[uuid.UUID]catalog.Product
	services map[uuid.UUID]catalog.ServiceOffering
}

func (s *stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (s *stubCatalog) GetService(_ context.Context, id uuid.UUID) (catalog.ServiceOffering, error) {
	sv, ok := s.services[id]
	if !ok {
		return catalog.ServiceOffering{}, pgx.ErrNoRows
	}
	return sv, nil
}

type stubPreviewer struct {
	result discount.Result
	err    error
}

func (s *stubPreviewer) Preview(context.Context, string, uuid.UUID, decimal.Decimal) (discount.Result, error) {
	return s.result, s.err
}

func newService(q *stubQueries, cat *stubCatalog) *Service {
	return &Service{
		Q:        q,
		Catalog:  cat,
		Discount: &stubPreviewer{},
		Currency: "USD",
		Now:      func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) },
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	c := Cart{
		Items: []Item{
			{Quantity: 2, UnitPrice: dec("9.99")},
			{Quantity: 1, UnitPrice: dec("0.335")},
		},
		TaxAmount:      dec("1.50"),
		ShippingCost:   dec("4.00"),
		DiscountAmount: dec("2.00"),
	}
	Recalculate(&c)
	first := c
	Recalculate(&c)

	require.True(t, c.Subtotal.Equal(first.Subtotal))
	require.True(t, c.TotalAmount.Equal(first.TotalAmount))
	require.Equal(t, first.ItemCount, c.ItemCount)
	require.True(t, c.Subtotal.Equal(dec("20.32")), "subtotal=%s", c.Subtotal)
	require.True(t, c.TotalAmount.Equal(dec("23.82")), "total=%s", c.TotalAmount)
}

func TestRecalculateIgnoresNegativeDiscount(t *testing.T) {
	c := Cart{
		Items:          []Item{{Quantity: 1, UnitPrice: dec("10.00")}},
		DiscountAmount: dec("-5.00"),
	}
	Recalculate(&c)
	require.True(t, c.TotalAmount.Equal(dec("10.00")), "total=%s", c.TotalAmount)
}

func TestAddItemMergesSameListing(t *testing.T) {
	q := newStubQueries()
	productID := uuid.New()
	cat := &stubCatalog{products: map[uuid.UUID]catalog.Product{
		productID: {ID: productID, StoreID: uuid.New(), Name: "Widget", Price: dec("10.00"), IsActive: true},
	}}
	svc := newService(q, cat)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, &productID, nil, 2)
	require.NoError(t, err)

	// price changes after first add; merged line keeps the original price
	p := cat.products[productID]
	p.Price = dec("99.00")
	cat.products[productID] = p

	c, err := svc.AddItem(context.Background(), userID, &productID, nil, 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	require.Equal(t, int32(5), c.Items[0].Quantity)
	require.True(t, c.Items[0].UnitPrice.Equal(dec("10.00")), "unitPrice=%s", c.Items[0].UnitPrice)
	require.True(t, c.Subtotal.Equal(dec("50.00")), "subtotal=%s", c.Subtotal)
	require.Equal(t, int32(5), c.ItemCount)
}

func TestAddItemUnknownListing(t *testing.T) {
	q := newStubQueries()
	svc := newService(q, &stubCatalog{products: map[uuid.UUID]catalog.Product{}})
	missing := uuid.New()

	_, err := svc.AddItem(context.Background(), uuid.New(), &missing, nil, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	q := newStubQueries()
	productID := uuid.New()
	cat := &stubCatalog{products: map[uuid.UUID]catalog.Product{
		productID: {ID: productID, Name: "Widget", Price: dec("10.00"), IsActive: true},
	}}
	svc := newService(q, cat)
	userID := uuid.New()

	c, err := svc.AddItem(context.Background(), userID, &productID, nil, 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	c, err = svc.UpdateQuantity(context.Background(), userID, c.Items[0].ID, 0)
	require.NoError(t, err)
	require.Empty(t, c.Items)
	require.True(t, c.Subtotal.IsZero())
	require.Equal(t, int32(0), c.ItemCount)
}

func TestRemoveItemOtherUsersLineIsNotFound(t *testing.T) {
	q := newStubQueries()
	productID := uuid.New()
	cat := &stubCatalog{products: map[uuid.UUID]catalog.Product{
		productID: {ID: productID, Name: "Widget", Price: dec("10.00"), IsActive: true},
	}}
	svc := newService(q, cat)
	owner := uuid.New()

	c, err := svc.AddItem(context.Background(), owner, &productID, nil, 1)
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = svc.RemoveItem(context.Background(), stranger, c.Items[0].ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClearZeroesDerivedFields(t *testing.T) {
	q := newStubQueries()
	productID := uuid.New()
	cat := &stubCatalog{products: map[uuid.UUID]catalog.Product{
		productID: {ID: productID, Name: "Widget", Price: dec("10.00"), IsActive: true},
	}}
	svc := newService(q, cat)
	svc.Discount = &stubPreviewer{result: discount.Result{Code: "SAVE", DiscountAmount: dec("2.00"), FinalAmount: dec("18.00")}}
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, &productID, nil, 2)
	require.NoError(t, err)
	_, err = svc.ApplyDiscount(context.Background(), userID, "SAVE")
	require.NoError(t, err)

	c, err := svc.Clear(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, c.Items)
	require.Nil(t, c.DiscountCode)
	require.True(t, c.Subtotal.IsZero())
	require.True(t, c.DiscountAmount.IsZero())
	require.True(t, c.TotalAmount.IsZero())
	require.Equal(t, int32(0), c.ItemCount)
}

func TestApplyDiscountStoresCodeAndAmount(t *testing.T) {
	q := newStubQueries()
	productID := uuid.New()
	cat := &stubCatalog{products: map[uuid.UUID]catalog.Product{
		productID: {ID: productID, Name: "Widget", Price: dec("30.00"), IsActive: true},
	}}
	svc := newService(q, cat)
	svc.Discount = &stubPreviewer{result: discount.Result{Code: "SAVE10", DiscountAmount: dec("6.00"), FinalAmount: dec("54.00")}}
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, &productID, nil, 2)
	require.NoError(t, err)

	c, err := svc.ApplyDiscount(context.Background(), userID, "SAVE10")
	require.NoError(t, err)
	require.NotNil(t, c.DiscountCode)
	require.Equal(t, "SAVE10", *c.DiscountCode)
	require.True(t, c.DiscountAmount.Equal(dec("6.00")))
	require.True(t, c.TotalAmount.Equal(dec("54.00")), "total=%s", c.TotalAmount)
}

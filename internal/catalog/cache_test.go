package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	product Product
	service ServiceOffering
	calls   int
}

func (c *countingSource) GetProduct(context.Context, uuid.UUID) (Product, error) {
	c.calls++
	return c.product, nil
}

func (c *countingSource) GetService(context.Context, uuid.UUID) (ServiceOffering, error) {
	c.calls++
	return c.service, nil
}

func TestCacheReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := &countingSource{product: Product{
		ID:       uuid.New(),
		StoreID:  uuid.New(),
		Name:     "Widget",
		Price:    decimal.RequireFromString("19.99"),
		IsActive: true,
	}}
	cache := &Cache{R: client, Source: src, TTL: time.Minute}

	ctx := context.Background()
	first, err := cache.GetProduct(ctx, src.product.ID)
	require.NoError(t, err)
	second, err := cache.GetProduct(ctx, src.product.ID)
	require.NoError(t, err)

	require.Equal(t, 1, src.calls)
	require.True(t, first.Price.Equal(second.Price))
	require.Equal(t, first.Name, second.Name)
}

func TestCacheInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := &countingSource{product: Product{ID: uuid.New(), IsActive: true, Price: decimal.New(5, 0)}}
	cache := &Cache{R: client, Source: src, TTL: time.Minute}

	ctx := context.Background()
	_, err := cache.GetProduct(ctx, src.product.ID)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, &src.product.ID, nil))

	_, err = cache.GetProduct(ctx, src.product.ID)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestResolveRequiresExactlyOneID(t *testing.T) {
	src := &countingSource{}
	id := uuid.New()

	_, err := Resolve(context.Background(), src, &id, &id)
	require.Error(t, err)

	_, err = Resolve(context.Background(), src, nil, nil)
	require.Error(t, err)
}

func TestResolveInactiveIsNotFound(t *testing.T) {
	id := uuid.New()
	src := &countingSource{product: Product{ID: id, IsActive: false}}

	_, err := Resolve(context.Background(), src, &id, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorline/storefront/internal/domain"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, 24*time.Hour)
	return repo, mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		UserID: "user-001",
		Items: []domain.CartItem{
			{
				MotorID:  "motor-1",
				Name:     "AIR-340",
				Image:    "/images/air-340.jpg",
				Price:    215000,
				Quantity: 2,
			},
		},
		UpdatedAt: now,
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)

	// Set data directly in miniredis.
	require.NoError(t, mr.Set("cart:"+cart.UserID, string(data)))

	got, err := repo.Get(context.Background(), cart.UserID)
	require.NoError(t, err)
	assert.Equal(t, cart.UserID, got.UserID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "motor-1", got.Items[0].MotorID)
	assert.Equal(t, "AIR-340", got.Items[0].Name)
	assert.Equal(t, int64(215000), got.Items[0].Price)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestCartRepository_Get_Missing(t *testing.T) {
	repo, _ := setupTestRedis(t)

	// A user without a stored cart gets an empty one, never an error.
	got, err := repo.Get(context.Background(), "nonexistent-user")
	require.NoError(t, err)
	assert.Equal(t, "nonexistent-user", got.UserID)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

func TestCartRepository_Get_CorruptEntry(t *testing.T) {
	repo, mr := setupTestRedis(t)

	// Corrupted JSON rehydrates as an empty cart.
	require.NoError(t, mr.Set("cart:user-bad", "{{not-valid-json"))

	got, err := repo.Get(context.Background(), "user-bad")
	require.NoError(t, err)
	assert.Equal(t, "user-bad", got.UserID)
	assert.Empty(t, got.Items)
}

func TestCartRepository_Get_NilItems(t *testing.T) {
	repo, mr := setupTestRedis(t)

	// A stored cart with no items array still comes back with a non-nil slice.
	require.NoError(t, mr.Set("cart:user-002", `{"user_id":"user-002"}`))

	got, err := repo.Get(context.Background(), "user-002")
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestCartRepository_Save_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	err := repo.Save(context.Background(), cart)
	require.NoError(t, err)

	// Verify key exists in Redis.
	assert.True(t, mr.Exists("cart:"+cart.UserID))

	// Verify JSON content.
	raw, err := mr.Get("cart:" + cart.UserID)
	require.NoError(t, err)

	var stored domain.Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, cart.UserID, stored.UserID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "motor-1", stored.Items[0].MotorID)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestCartRepository_Save_TTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	err := repo.Save(context.Background(), cart)
	require.NoError(t, err)

	ttl := mr.TTL("cart:" + cart.UserID)
	// TTL should be approximately 24 hours (allow some margin for test execution).
	assert.True(t, ttl > 23*time.Hour, "expected TTL > 23h, got %v", ttl)
	assert.True(t, ttl <= 24*time.Hour, "expected TTL <= 24h, got %v", ttl)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestCartRepository_Delete_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	err := repo.Save(context.Background(), cart)
	require.NoError(t, err)
	assert.True(t, mr.Exists("cart:"+cart.UserID))

	err = repo.Delete(context.Background(), cart.UserID)
	require.NoError(t, err)

	// Verify key was removed.
	assert.False(t, mr.Exists("cart:"+cart.UserID))
}

func TestCartRepository_Delete_NonExistent(t *testing.T) {
	repo, _ := setupTestRedis(t)

	// Deleting a key that doesn't exist should not return an error.
	err := repo.Delete(context.Background(), "nonexistent-user")
	assert.NoError(t, err)
}

package cache_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/cache"
	"github.com/kunalverma25/flash-sale-backend/internal/config"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testProduct struct {
	Name  string `json:"name"`
	Stock int64  `json:"stock"`
}

func setup(t *testing.T) (cache.Cache, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	cfg := &config.CacheConfig{
		DefaultTTL: 10 * time.Minute,
	}

	return cache.NewRedisCache(client, cfg), mock
}

func TestNewRedisCache(t *testing.T) {
	redisCache, _ := setup(t)
	assert.NotNil(t, redisCache, "NewRedisCache should return a non-nil Cache instance")
}

func TestGet(t *testing.T) {
	ctx := t.Context()
	testKey := "product:abc"
	testValue := testProduct{Name: "Flash Widget", Stock: 480}
	jsonData, err := json.Marshal(testValue)
	require.NoError(t, err)

	t.Run("KeyFound", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		var result testProduct

		mock.ExpectGet(testKey).SetVal(string(jsonData))

		// Act
		found, err := redisCache.Get(ctx, testKey, &result)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, testValue, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CacheMiss", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		var result testProduct

		mock.ExpectGet(testKey).SetErr(redis.Nil)

		// Act
		found, err := redisCache.Get(ctx, testKey, &result)

		// Assert
		require.NoError(t, err, "a miss is not an error")
		assert.False(t, found)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		var result testProduct

		mock.ExpectGet(testKey).SetErr(errors.New("connection refused"))

		// Act
		found, err := redisCache.Get(ctx, testKey, &result)

		// Assert
		require.Error(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		var result testProduct

		mock.ExpectGet(testKey).SetVal("not-json")

		// Act
		found, err := redisCache.Get(ctx, testKey, &result)

		// Assert
		require.Error(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSet(t *testing.T) {
	ctx := t.Context()
	testKey := "product:abc"
	testValue := testProduct{Name: "Flash Widget", Stock: 480}
	jsonData, err := json.Marshal(testValue)
	require.NoError(t, err)

	t.Run("ExplicitTTL", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		mock.ExpectSet(testKey, jsonData, time.Minute).SetVal("OK")

		// Act
		err := redisCache.Set(ctx, testKey, testValue, time.Minute)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DefaultTTL", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		mock.ExpectSet(testKey, jsonData, 10*time.Minute).SetVal("OK")

		// Act
		err := redisCache.Set(ctx, testKey, testValue, 0)

		// Assert
		require.NoError(t, err, "zero TTL should fall back to the configured default")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		mock.ExpectSet(testKey, jsonData, time.Minute).SetErr(errors.New("connection refused"))

		// Act
		err := redisCache.Set(ctx, testKey, testValue, time.Minute)

		// Assert
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDelete(t *testing.T) {
	ctx := t.Context()
	testKey := "product:abc"

	t.Run("Success", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		mock.ExpectDel(testKey).SetVal(1)

		// Act
		err := redisCache.Delete(ctx, testKey)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		// Arrange
		redisCache, mock := setup(t)

		mock.ExpectDel(testKey).SetErr(errors.New("connection refused"))

		// Act
		err := redisCache.Delete(ctx, testKey)

		// Assert
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) (*Client, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	t.Cleanup(func() { db.Close() })
	return NewClientWithRedis(db), mock
}

func TestReserveOfferStock(t *testing.T) {
	sha := redis.NewScript(reserveOfferScript).Hash()

	t.Run("grant when stock remains", func(t *testing.T) {
		client, mock := setupTestClient(t)
		mock.ExpectEvalSha(sha, []string{"offer_stock:3"}, 2).SetVal(int64(1))

		result, err := client.ReserveOfferStock(context.Background(), 3, 2)

		require.NoError(t, err)
		assert.Equal(t, GateGranted, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sold out when counter is too low", func(t *testing.T) {
		client, mock := setupTestClient(t)
		mock.ExpectEvalSha(sha, []string{"offer_stock:3"}, 2).SetVal(int64(0))

		result, err := client.ReserveOfferStock(context.Background(), 3, 2)

		require.NoError(t, err)
		assert.Equal(t, GateSoldOut, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("untracked offer falls through to the database", func(t *testing.T) {
		client, mock := setupTestClient(t)
		mock.ExpectEvalSha(sha, []string{"offer_stock:9"}, 1).SetVal(int64(-1))

		result, err := client.ReserveOfferStock(context.Background(), 9, 1)

		require.NoError(t, err)
		assert.Equal(t, GateUntracked, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReleaseOfferStock(t *testing.T) {
	sha := redis.NewScript(releaseOfferScript).Hash()

	client, mock := setupTestClient(t)
	mock.ExpectEvalSha(sha, []string{"offer_stock:3"}, 2).SetVal(int64(1))

	err := client.ReleaseOfferStock(context.Background(), 3, 2)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferStockSeedAndRead(t *testing.T) {
	client, mock := setupTestClient(t)

	mock.ExpectSet("offer_stock:3", 7, time.Duration(0)).SetVal("OK")
	require.NoError(t, client.InitOfferStock(context.Background(), 3, 7))

	mock.ExpectGet("offer_stock:3").SetVal("7")
	remaining, err := client.GetOfferStock(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 7, remaining)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanTokenCache(t *testing.T) {
	client, mock := setupTestClient(t)

	mock.ExpectSet("scan_token:abc", "1", 24*time.Hour).SetVal("OK")
	require.NoError(t, client.CacheScanToken(context.Background(), "abc", 24*time.Hour))

	mock.ExpectExists("scan_token:abc").SetVal(1)
	cached, err := client.IsScanTokenCached(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, cached)

	mock.ExpectExists("scan_token:xyz").SetVal(0)
	cached, err = client.IsScanTokenCached(context.Background(), "xyz")
	require.NoError(t, err)
	assert.False(t, cached)

	assert.NoError(t, mock.ExpectationsWereMet())
}

package app

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-gateway/internal/cfg"
	"github.com/DRSN-tech/catalog-gateway/pkg/closer"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIngest(t *testing.T) {
	cl := closer.NewCloser(0)

	t.Run("nothing configured", func(t *testing.T) {
		got := initIngest(&cfg.Config{Ingest: &cfg.IngestCfg{}, Kafka: &cfg.KafkaCfg{}}, cl, logger.Nop{})
		assert.Nil(t, got)
	})

	t.Run("webhook", func(t *testing.T) {
		got := initIngest(&cfg.Config{
			Ingest: &cfg.IngestCfg{WebhookURL: "http://ingest.local/hook", Timeout: time.Second},
			Kafka:  &cfg.KafkaCfg{},
		}, cl, logger.Nop{})
		assert.NotNil(t, got)
	})
}

func TestInitCache(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		cl := closer.NewCloser(0)
		cache, err := initCache(ctx, &cfg.Config{Redis: &cfg.RedisCfg{}}, cl, logger.Nop{})
		require.NoError(t, err)
		assert.Nil(t, cache)
	})

	t.Run("miniredis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cl := closer.NewCloser(0)

		cache, err := initCache(ctx, &cfg.Config{Redis: &cfg.RedisCfg{
			Addr:       mr.Addr(),
			ProductTTL: time.Minute,
		}}, cl, logger.Nop{})
		require.NoError(t, err)
		require.NotNil(t, cache)

		require.NoError(t, cache.SetDocument(ctx, "chair-1", []byte(`{"product_id":"chair-1"}`)))
		body, err := cache.GetDocument(ctx, "chair-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"product_id":"chair-1"}`, string(body))

		assert.NoError(t, cl.Close(ctx))
	})

	t.Run("unreachable", func(t *testing.T) {
		cl := closer.NewCloser(0)
		_, err := initCache(ctx, &cfg.Config{Redis: &cfg.RedisCfg{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
		}}, cl, logger.Nop{})
		assert.Error(t, err)
		assert.NoError(t, cl.Close(ctx))
	})
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-gateway/internal/cfg"
	"github.com/DRSN-tech/catalog-gateway/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-gateway/pkg/clients"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/jitter"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const (
	documentKeyPrefix = "document:"
	scanBatch         = 200
)

type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.DocumentConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.DocumentConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetDocument возвращает закэшированный документ; на промах и битую запись (nil, nil).
func (c *CacheRepo) GetDocument(ctx context.Context, id string) ([]byte, error) {
	key := c.documentKey(id)

	data, err := c.client.Client.Get(ctx, key).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := c.unmarshalDocumentFromCache(data)
	if err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, nil
	}

	if model.ID != id {
		c.logger.Warnf("Cache ID mismatch: key_id: %s, model_id: %s", id, model.ID)
		if err := c.client.Client.Del(ctx, key).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil // cache miss
	}

	return c.conv.ToDocument(model), nil
}

// SetDocument кэширует документ на ProductTTL с разбросом, чтобы записи не истекали одновременно.
func (c *CacheRepo) SetDocument(ctx context.Context, id string, body []byte) error {
	data, err := c.marshalDocumentForCache(c.conv.ToRedisModel(id, body))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	ttl := jitter.Duration(c.cfg.ProductTTL, jitter.DefaultFactor)
	if err := c.client.Client.Set(ctx, c.documentKey(id), data, ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteDocuments удаляет документы из кэша по ID
func (c *CacheRepo) DeleteDocuments(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.documentKey(id)
	}

	if err := c.client.Client.Del(ctx, keys...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteDocumentsByPrefix удаляет документы, чьи ID начинаются с prefix (SCAN + DEL пачками).
func (c *CacheRepo) DeleteDocumentsByPrefix(ctx context.Context, prefix string) error {
	match := c.documentKey(escapeGlob(prefix)) + "*"

	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	it := c.client.Client.Scan(ctx, 0, match, scanBatch).Iterator()
	for it.Next(ctx) {
		batch = append(batch, it.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return e.Wrap(whereami.WhereAmI(), err)
			}
		}
	}
	if err := it.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := flush(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// marshalDocumentForCache сериализует документ в JSON для кэша
func (c *CacheRepo) marshalDocumentForCache(model *converter.DocumentRedisModel) ([]byte, error) {
	data, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// unmarshalDocumentFromCache десериализует JSON из кэша в модель документа
func (c *CacheRepo) unmarshalDocumentFromCache(data []byte) (*converter.DocumentRedisModel, error) {
	var model converter.DocumentRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

// documentKey возвращает Redis-ключ для одного документа
func (c *CacheRepo) documentKey(id string) string {
	return fmt.Sprintf("%s%s", documentKeyPrefix, id)
}

// escapeGlob экранирует спецсимволы шаблона SCAN MATCH.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch ch {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(ch)
	}

	return b.String()
}

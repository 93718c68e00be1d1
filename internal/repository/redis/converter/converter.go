package converter

import (
	"encoding/json"
	"time"
)

// DocumentConverter переводит документ в модель кэша и обратно.
type DocumentConverter struct{}

func (DocumentConverter) ToRedisModel(id string, body []byte) *DocumentRedisModel {
	return &DocumentRedisModel{
		ID:       id,
		Body:     json.RawMessage(body),
		CachedAt: time.Now().UTC(),
	}
}

func (DocumentConverter) ToDocument(model *DocumentRedisModel) []byte {
	return []byte(model.Body)
}

package converter

import (
	"encoding/json"
	"time"
)

// DocumentRedisModel — документ индекса в кэше вместе с ключом, под которым он был сохранён.
type DocumentRedisModel struct {
	ID       string          `json:"id"`
	Body     json.RawMessage `json:"body"`
	CachedAt time.Time       `json:"cached_at"`
}

// Package jitter размазывает TTL кэша, чтобы записи, положенные одновременно,
// не истекали одной пачкой.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultFactor — доля TTL, на которую может быть увеличена длительность.
const DefaultFactor = 0.2

var (
	rnd   = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndMu sync.Mutex
)

// Duration возвращает значение в диапазоне [d, d*(1+factor)].
func Duration(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 {
		return d
	}

	rndMu.Lock()
	extra := rnd.Float64() * factor * float64(d)
	rndMu.Unlock()

	return d + time.Duration(extra)
}

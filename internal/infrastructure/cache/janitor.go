package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Janitor periodically evicts expired messages from the cache
type Janitor struct {
	cache    *MessageCache
	metrics  *metrics.Metrics
	interval time.Duration
	logger   zerolog.Logger

	done chan struct{}
	wg   sync.WaitGroup
}

// NewJanitor creates a new cache janitor
func NewJanitor(cache *MessageCache, m *metrics.Metrics, interval time.Duration, logger zerolog.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{
		cache:    cache,
		metrics:  m,
		interval: interval,
		logger:   logger.With().Str("component", "cache_janitor").Logger(),
		done:     make(chan struct{}),
	}
}

// Start starts the sweep loop
func (j *Janitor) Start() {
	j.logger.Info().
		Dur("interval", j.interval).
		Dur("retention", j.cache.Retention()).
		Msg("Starting cache janitor")

	j.wg.Add(1)
	go j.run()
}

// Stop gracefully stops the sweep loop
func (j *Janitor) Stop() {
	close(j.done)
	j.wg.Wait()

	j.logger.Info().Msg("Cache janitor stopped")
}

func (j *Janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			evicted, remaining := j.cache.Sweep()
			if j.metrics != nil {
				j.metrics.RecordCacheSweep(evicted, remaining)
			}
		}
	}
}

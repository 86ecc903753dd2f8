// Package jobfit scores how well an interview narrative fits a target role
// and memoizes the score per narrative fingerprint.
package jobfit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spigell/star-interviewer/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Backend persists scores beyond the process lifetime.
type Backend interface {
	LoadScore(ctx context.Context, fingerprint, jobID string) (score int, ok bool, err error)
	SaveScore(ctx context.Context, fingerprint, jobID string, score int) error
}

// ComputeFunc produces a score on a cache miss.
type ComputeFunc func(ctx context.Context) (int, error)

type cacheKey struct {
	fingerprint string
	jobID       string
}

// Cache memoizes scores per (fingerprint, job id). Concurrent misses for the
// same key share one computation. Entries are never evicted; a changed
// narrative simply produces a new fingerprint.
type Cache struct {
	mu      sync.RWMutex
	scores  map[cacheKey]int
	group   singleflight.Group
	backend Backend
	logger  *zap.Logger
}

// NewCache builds a cache. backend may be nil for process-local caching.
func NewCache(backend Backend, log *zap.Logger) *Cache {
	return &Cache{
		scores:  make(map[cacheKey]int),
		backend: backend,
		logger:  logger.WithFields(log),
	}
}

// GetOrCompute returns the cached score for the pair, calling compute at most
// once per key.
func (c *Cache) GetOrCompute(ctx context.Context, fingerprint, jobID string, compute ComputeFunc) (int, error) {
	key := cacheKey{fingerprint: strings.TrimSpace(fingerprint), jobID: strings.TrimSpace(jobID)}
	if key.fingerprint == "" || key.jobID == "" {
		return 0, fmt.Errorf("fingerprint and job id are required")
	}

	if score, ok := c.lookup(key); ok {
		return score, nil
	}

	v, err, shared := c.group.Do(key.fingerprint+"\x00"+key.jobID, func() (any, error) {
		if score, ok := c.lookup(key); ok {
			return score, nil
		}

		log := c.logger.With(zap.String("fingerprint", key.fingerprint), zap.String("job_id", key.jobID))

		if c.backend != nil {
			score, ok, err := c.backend.LoadScore(ctx, key.fingerprint, key.jobID)
			if err != nil {
				log.Warn("loading cached job-fit score", zap.Error(err))
			} else if ok {
				c.store(key, score)
				return score, nil
			}
		}

		score, err := compute(ctx)
		if err != nil {
			return 0, err
		}
		if score < 0 || score > 100 {
			return 0, fmt.Errorf("job-fit score %d is out of range", score)
		}

		c.store(key, score)

		if c.backend != nil {
			if err := c.backend.SaveScore(ctx, key.fingerprint, key.jobID, score); err != nil {
				log.Warn("persisting job-fit score", zap.Error(err))
			}
		}

		log.Debug("job-fit score computed", zap.Int("score", score))

		return score, nil
	})
	if err != nil {
		return 0, err
	}

	if shared {
		c.logger.Debug("job-fit computation shared", zap.String("job_id", key.jobID))
	}

	return v.(int), nil
}

// size reports how many scores are held in memory.
func (c *Cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scores)
}

func (c *Cache) lookup(key cacheKey) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	score, ok := c.scores[key]
	return score, ok
}

func (c *Cache) store(key cacheKey, score int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[key] = score
}

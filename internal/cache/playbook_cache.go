// Package cache provides semantic caching of generated playbooks. Entries are
// keyed by extracted meaning (subject, grade, topic, language) instead of a
// hash of the raw input, so paraphrases of the same classroom problem share a
// cache slot.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// KeyContext identifies a cached playbook by meaning
type KeyContext struct {
	Subject  string
	Grade    string
	Topic    string
	Language string
}

// CachedPlaybook is the envelope stored under each semantic key
type CachedPlaybook struct {
	Text     string    `json:"text"`
	Model    string    `json:"model,omitempty"`
	CachedAt time.Time `json:"cachedAt"`
}

// StatsSnapshot is a point-in-time view of cache counters
type StatsSnapshot struct {
	Enabled         bool    `json:"cacheEnabled"`
	Hits            int64   `json:"cacheHits"`
	Misses          int64   `json:"cacheMisses"`
	SemanticMatches int64   `json:"cacheSemanticMatches"`
	Errors          int64   `json:"cacheErrors"`
	HitRatePercent  float64 `json:"cacheHitRatePercent"`
	TTLSeconds      int     `json:"cacheTtlSeconds"`
	Strategy        string  `json:"cacheStrategy"`
}

type PlaybookCache interface {
	Lookup(ctx context.Context, kc KeyContext) *CachedPlaybook
	Store(ctx context.Context, kc KeyContext, entry *CachedPlaybook) bool
	Stats() StatsSnapshot
}

type semanticCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger

	hits            atomic.Int64
	misses          atomic.Int64
	errors          atomic.Int64
	semanticMatches atomic.Int64
}

// NewPlaybookCache creates the semantic cache layer. A nil store disables
// caching entirely: every lookup misses and every store is a no-op.
func NewPlaybookCache(store Store, ttl time.Duration, logger *zap.Logger) PlaybookCache {
	return &semanticCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Normalize lowers, trims, and collapses spaces and hyphens to underscores.
// Empty values normalize to "general". Idempotent.
func Normalize(value string) string {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" {
		return "general"
	}
	v = strings.ReplaceAll(v, " ", "_")
	v = strings.ReplaceAll(v, "-", "_")
	return v
}

func normalizeGrade(grade string) string {
	if strings.TrimSpace(grade) == "" {
		return "any"
	}
	return Normalize(grade)
}

func semanticKey(subject, grade, topic, language string) string {
	return fmt.Sprintf("playbook:%s:%s:%s:%s", subject, grade, topic, language)
}

// PrimaryKey builds the exact-match key for a context
func PrimaryKey(kc KeyContext) string {
	return semanticKey(Normalize(kc.Subject), normalizeGrade(kc.Grade), Normalize(kc.Topic), Normalize(kc.Language))
}

// LookupKeys returns the ordered key sequence a lookup tries: the primary key,
// then the grade-wildcarded, topic-wildcarded, and fully-wildcarded variants,
// dropping any key equal to an earlier one.
func LookupKeys(kc KeyContext) []string {
	subject := Normalize(kc.Subject)
	grade := normalizeGrade(kc.Grade)
	topic := Normalize(kc.Topic)
	language := Normalize(kc.Language)

	candidates := []string{
		semanticKey(subject, grade, topic, language),
		semanticKey(subject, "any", topic, language),
		semanticKey(subject, grade, "general", language),
		semanticKey(subject, "any", "general", language),
	}

	keys := make([]string, 0, len(candidates))
	for _, k := range candidates {
		seen := false
		for _, prev := range keys {
			if prev == k {
				seen = true
				break
			}
		}
		if !seen {
			keys = append(keys, k)
		}
	}
	return keys
}

// Lookup returns the cached entry for the context, trying broader keys after
// an exact miss. Store failures are counted and degrade to a miss.
func (c *semanticCache) Lookup(ctx context.Context, kc KeyContext) *CachedPlaybook {
	if c.store == nil {
		return nil
	}

	keys := LookupKeys(kc)
	for i, key := range keys {
		data, found, err := c.store.Get(ctx, key)
		if err != nil {
			c.errors.Add(1)
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
			return nil
		}
		if !found {
			continue
		}

		var entry CachedPlaybook
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			c.errors.Add(1)
			c.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
			return nil
		}

		c.hits.Add(1)
		if i > 0 {
			c.semanticMatches.Add(1)
			c.logger.Info("cache hit via broadened key",
				zap.String("key", key),
				zap.String("primaryKey", keys[0]))
		} else {
			c.logger.Info("cache hit", zap.String("key", key))
		}
		return &entry
	}

	c.misses.Add(1)
	c.logger.Info("cache miss", zap.String("key", keys[0]))
	return nil
}

// Store writes the entry under the primary key and, when the topic is
// concrete, under the grade-wildcarded key as well so future grade-agnostic
// queries hit. The broader slot is only filled when empty, never overwritten.
func (c *semanticCache) Store(ctx context.Context, kc KeyContext, entry *CachedPlaybook) bool {
	if c.store == nil {
		return false
	}

	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.errors.Add(1)
		return false
	}

	primary := PrimaryKey(kc)
	if err := c.store.Set(ctx, primary, string(data), c.ttl); err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache write failed", zap.String("key", primary), zap.Error(err))
		return false
	}
	c.logger.Info("cached playbook", zap.String("key", primary), zap.Duration("ttl", c.ttl))

	if Normalize(kc.Topic) != "general" {
		broad := semanticKey(Normalize(kc.Subject), "any", Normalize(kc.Topic), Normalize(kc.Language))
		if broad != primary {
			_, found, err := c.store.Get(ctx, broad)
			if err != nil {
				c.errors.Add(1)
				c.logger.Warn("cache write failed", zap.String("key", broad), zap.Error(err))
				return false
			}
			if !found {
				if err := c.store.Set(ctx, broad, string(data), c.ttl); err != nil {
					c.errors.Add(1)
					c.logger.Warn("cache write failed", zap.String("key", broad), zap.Error(err))
					return false
				}
				c.logger.Info("cached playbook under broadened key", zap.String("key", broad))
			}
		}
	}

	return true
}

// Stats returns a snapshot of the counters
func (c *semanticCache) Stats() StatsSnapshot {
	hits := c.hits.Load()
	misses := c.misses.Load()

	rate := 0.0
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total) * 100
	}

	return StatsSnapshot{
		Enabled:         c.store != nil,
		Hits:            hits,
		Misses:          misses,
		SemanticMatches: c.semanticMatches.Load(),
		Errors:          c.errors.Load(),
		HitRatePercent:  rate,
		TTLSeconds:      int(c.ttl / time.Second),
		Strategy:        "semantic (keyword-based)",
	}
}

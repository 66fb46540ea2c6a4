package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dcmgrade/lorcanaprice/internal/model"
)

// Entry is one cached value with its storage time. TTL of zero means the
// entry never expires.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt time.Time       `json:"storedAt"`
	TTL      time.Duration   `json:"ttl"`
}

// Cache is a file-backed key/value store for price lookups. Entries persist
// across runs so a week-old price does not cost an API call. Safe for
// concurrent use.
type Cache struct {
	path    string
	entries map[string]Entry
	mu      sync.RWMutex
}

// New opens the cache file at path, creating an empty cache when the file
// does not exist. A corrupt file is discarded rather than failing the run.
func New(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]Entry),
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cache: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &c.entries); err != nil {
				c.entries = make(map[string]Entry)
			}
		}
	}

	return c, nil
}

// Get unmarshals the entry for key into target, reporting whether a live
// entry was found. Expired entries are evicted on access.
func (c *Cache) Get(key string, target any) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	if !ok {
		c.mu.RUnlock()
		return false, nil
	}

	if entry.TTL <= 0 || time.Since(entry.StoredAt) <= entry.TTL {
		err := json.Unmarshal(entry.Data, target)
		c.mu.RUnlock()
		if err != nil {
			return false, fmt.Errorf("unmarshal cache entry: %w", err)
		}
		return true, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if e, exists := c.entries[key]; exists && e.TTL > 0 && time.Since(e.StoredAt) > e.TTL {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	return false, nil
}

// Age reports how long ago the entry for key was stored, regardless of
// whether it has expired.
func (c *Cache) Age(key string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return time.Since(entry.StoredAt), true
}

// Put stores value under key and persists the cache to disk.
func (c *Cache) Put(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = Entry{
		Data:     data,
		StoredAt: time.Now(),
		TTL:      ttl,
	}
	c.mu.Unlock()

	return c.save()
}

// Remove deletes the entry for key.
func (c *Cache) Remove(key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return c.save()
}

// Clear drops every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
	return c.save()
}

// Keys returns every live key, for refresh sweeps over the cached set.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k, e := range c.entries {
		if e.TTL > 0 && time.Since(e.StoredAt) > e.TTL {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

func (c *Cache) save() error {
	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	return os.WriteFile(c.path, data, 0644)
}

// BuildKey joins parts into a pipe-delimited cache key.
func BuildKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// LookupKey identifies a search-based price lookup by its attributes.
func LookupKey(attrs model.SearchAttributes) string {
	return BuildKey("lookup",
		strings.ToLower(attrs.CardName),
		strings.ToLower(attrs.SetName),
		CleanKeyPart(attrs.CollectorNumber),
		strings.ToLower(attrs.Variant),
		strconv.FormatBool(attrs.IsFoil))
}

// ProductKey identifies a direct product-id lookup.
func ProductKey(productID string) string {
	return BuildKey("product", productID)
}

// CleanKeyPart strips characters that vary between spellings of the same
// collector number so equivalent lookups share an entry.
func CleanKeyPart(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	return strings.ToLower(s)
}

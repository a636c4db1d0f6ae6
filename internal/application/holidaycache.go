package application

import (
	"context"
	"strings"
	"sync"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// HolidayCache memoizes holiday sets per calendar code. Entries live until
// invalidated by code. It is safe for concurrent use.
type HolidayCache struct {
	store driven.HolidayStore

	mu     sync.RWMutex
	byCode map[string]model.HolidaySet
}

// NewHolidayCache creates an empty cache in front of store.
func NewHolidayCache(store driven.HolidayStore) *HolidayCache {
	return &HolidayCache{
		store:  store,
		byCode: make(map[string]model.HolidaySet),
	}
}

// Get returns the holiday set of every given calendar code, keyed by the
// normalized code. Uncached codes are fetched in a single store call; codes
// with no holidays are cached as empty sets.
func (c *HolidayCache) Get(ctx context.Context, codes []string) (map[string]model.HolidaySet, error) {
	result := make(map[string]model.HolidaySet, len(codes))
	var missing []string

	c.mu.RLock()
	for _, raw := range codes {
		code := normalizeCalendarCode(raw)
		if code == "" {
			continue
		}
		if _, done := result[code]; done {
			continue
		}
		if set, ok := c.byCode[code]; ok {
			result[code] = set
			continue
		}
		result[code] = model.HolidaySet{}
		missing = append(missing, code)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return result, nil
	}

	rows, err := c.store.ListHolidays(ctx, missing)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]string, len(missing))
	for _, row := range rows {
		code := normalizeCalendarCode(row.CalendarCode)
		grouped[code] = append(grouped[code], row.Date)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, code := range missing {
		set := model.NewHolidaySet(grouped[code]...)
		c.byCode[code] = set
		result[code] = set
	}

	return result, nil
}

// Union returns the merged holiday set of the given calendar codes.
func (c *HolidayCache) Union(ctx context.Context, codes []string) (model.HolidaySet, error) {
	sets, err := c.Get(ctx, codes)
	if err != nil {
		return model.HolidaySet{}, err
	}

	all := make([]model.HolidaySet, 0, len(sets))
	for _, set := range sets {
		all = append(all, set)
	}
	return model.HolidaySet{}.Union(all...), nil
}

// Invalidate drops the cached set for code.
func (c *HolidayCache) Invalidate(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byCode, normalizeCalendarCode(code))
}

// InvalidateAll empties the cache.
func (c *HolidayCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCode = make(map[string]model.HolidaySet)
}

func normalizeCalendarCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

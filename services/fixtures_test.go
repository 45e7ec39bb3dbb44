package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-backoffice/cache"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func seedCategory(t *testing.T, db *gorm.DB, code string) models.MenuCategory {
	t.Helper()
	cat := models.MenuCategory{Code: code, Name: "Category " + code, IsActive: true}
	require.NoError(t, db.Create(&cat).Error)
	return cat
}

func seedGroup(t *testing.T, db *gorm.DB, code string, options ...models.ModifierItem) models.ModifierGroup {
	t.Helper()
	group := models.ModifierGroup{Code: code, Name: "Group " + code}
	require.NoError(t, db.Create(&group).Error)
	for i := range options {
		options[i].GroupCode = code
		if options[i].Code == "" {
			options[i].Code = code + "-" + options[i].Name
		}
		require.NoError(t, db.Create(&options[i]).Error)
	}
	return group
}

func seedItem(t *testing.T, db *gorm.DB, code string, categoryCode *string) models.MenuItem {
	t.Helper()
	item := models.MenuItem{Code: code, Name: "Item " + code, CategoryCode: categoryCode, Price: 10, IsActive: true}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedLink(t *testing.T, db *gorm.DB, categoryCode, groupCode string) {
	t.Helper()
	require.NoError(t, db.Create(&models.CategoryModifierLink{CategoryCode: categoryCode, GroupCode: groupCode}).Error)
}

func storedRows(t *testing.T, db *gorm.DB, itemCode string) []models.ItemModifierAssignment {
	t.Helper()
	var rows []models.ItemModifierAssignment
	require.NoError(t, db.Where("item_code = ?", itemCode).Order("position ASC").Find(&rows).Error)
	return rows
}

type rowShape struct {
	GroupCode string
	Position  int
	Inherited bool
}

func shapeOf(rows []models.ItemModifierAssignment) []rowShape {
	out := make([]rowShape, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowShape{GroupCode: r.GroupCode, Position: r.Position, Inherited: r.InheritFromMenuGroup})
	}
	return out
}

type event struct {
	Name string
	Data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *recordingPublisher) Publish(name string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{Name: name, Data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type countingRecorder struct {
	mu    sync.Mutex
	saves map[string]int
	cache map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{saves: map[string]int{}, cache: map[string]int{}}
}

func (r *countingRecorder) ObserveAssignmentSave(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves[result]++
}

func (r *countingRecorder) ObserveProjectionCache(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[result]++
}

// memoryCache is a map-backed ProjectionCache that stores the value itself and keys
// entries on an epoch and a per-item generation like the Redis cache.
type memoryCache struct {
	mu      sync.Mutex
	epoch   int
	gens    map[string]int
	entries map[cache.Slot][]AssignmentView
}

func newMemoryCache() *memoryCache {
	return &memoryCache{gens: map[string]int{}, entries: map[cache.Slot][]AssignmentView{}}
}

func (c *memoryCache) slot(itemCode string) cache.Slot {
	return cache.Slot{ItemCode: itemCode, Version: fmt.Sprintf("%d.%d", c.epoch, c.gens[itemCode])}
}

func (c *memoryCache) Get(_ context.Context, itemCode string, dest interface{}) (cache.Slot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot := c.slot(itemCode)
	v, ok := c.entries[slot]
	if !ok {
		return slot, false, nil
	}
	*dest.(*[]AssignmentView) = v
	return slot, true, nil
}

func (c *memoryCache) Set(_ context.Context, slot cache.Slot, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[slot] = value.([]AssignmentView)
	return nil
}

func (c *memoryCache) InvalidateItem(_ context.Context, itemCode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[itemCode]++
	return nil
}

func (c *memoryCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return nil
}

// interleavedCache runs beforeSet once, between a reader's database load and its
// cache write.
type interleavedCache struct {
	*memoryCache
	beforeSet func()
}

func (c *interleavedCache) Set(ctx context.Context, slot cache.Slot, value interface{}) error {
	if fn := c.beforeSet; fn != nil {
		c.beforeSet = nil
		fn()
	}
	return c.memoryCache.Set(ctx, slot, value)
}

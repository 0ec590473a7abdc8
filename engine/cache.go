// ABOUTME: In-memory state store of enriched engagement view-models
// ABOUTME: Get/Put/Patch by id under a read-write lock, always handing out copies
package engine

import (
	"sort"
	"strings"
	"sync"

	"github.com/harperreed/pursuit/models"
)

// Cache holds one view-model per engagement id.
type Cache struct {
	mu   sync.RWMutex
	byID map[string]*models.EngagementViewModel
}

func NewCache() *Cache {
	return &Cache{byID: make(map[string]*models.EngagementViewModel)}
}

// Get returns a copy of the cached view-model.
func (c *Cache) Get(id string) (*models.EngagementViewModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vm, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return vm.Clone(), true
}

// Put stores a copy of vm, replacing any previous entry.
func (c *Cache) Put(vm *models.EngagementViewModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[vm.ID] = vm.Clone()
}

// Patch applies fn to the cached entry in place and returns a copy of the
// result. It reports false when id is not cached.
func (c *Cache) Patch(id string, fn func(vm *models.EngagementViewModel)) (*models.EngagementViewModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vm, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	fn(vm)
	return vm.Clone(), true
}

func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
}

// Replace swaps the whole cache contents.
func (c *Cache) Replace(vms []*models.EngagementViewModel) {
	next := make(map[string]*models.EngagementViewModel, len(vms))
	for _, vm := range vms {
		next[vm.ID] = vm.Clone()
	}
	c.mu.Lock()
	c.byID = next
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// List returns copies ordered by most recent activity, then company.
func (c *Cache) List() []*models.EngagementViewModel {
	c.mu.RLock()
	out := make([]*models.EngagementViewModel, 0, len(c.byID))
	for _, vm := range c.byID {
		out = append(out, vm.Clone())
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LastActivity.After(out[j].LastActivity)
		}
		return strings.ToLower(out[i].Company) < strings.ToLower(out[j].Company)
	})
	return out
}

package holdings

import (
	"sync"

	"github.com/mbks/GhostfolioSidekick/src/models"
)

// Collection accumulates partial activities per account. Parsers write into
// it but do not own its lifecycle; merging and deduplication by external id
// happen downstream, before any remote write.
type Collection interface {
	AddPartialActivity(accountName string, activities ...models.PartialActivity) error
}

// MemoryCollection is the in-process Collection used for one-shot runs and
// tests. Activities are kept in insertion order per account.
type MemoryCollection struct {
	mu        sync.Mutex
	byAccount map[string][]models.PartialActivity
}

func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{byAccount: make(map[string][]models.PartialActivity)}
}

func (c *MemoryCollection) AddPartialActivity(accountName string, activities ...models.PartialActivity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byAccount[accountName] = append(c.byAccount[accountName], activities...)
	return nil
}

// Activities returns the accumulated activities for an account, in the
// order they were added.
func (c *MemoryCollection) Activities(accountName string) []models.PartialActivity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.PartialActivity, len(c.byAccount[accountName]))
	copy(out, c.byAccount[accountName])
	return out
}

package process

import (
	"sync"

	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/vm/mvm"
)

// ScriptCache memoizes typechecked scripts by script hash. Typechecking is
// deterministic, so a hit is always safe to reuse; eviction is oldest-first
// once the bound is reached. Each entry remembers the gas its typechecking
// consumed, so a hit can charge exactly what a miss would have: metering
// never depends on cache warmth.
type ScriptCache struct {
	mu    sync.Mutex
	limit int
	items map[common.Hash]cacheEntry
	order []common.Hash
}

type cacheEntry struct {
	script    *mvm.TypedScript
	checkCost uint64
}

func NewScriptCache(limit int) *ScriptCache {
	return &ScriptCache{
		limit: limit,
		items: make(map[common.Hash]cacheEntry, limit),
	}
}

// Get returns the cached script and the gas its typechecking consumed.
func (c *ScriptCache) Get(h common.Hash) (*mvm.TypedScript, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[h]
	return e.script, e.checkCost, ok
}

func (c *ScriptCache) Put(ts *mvm.TypedScript, checkCost uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[ts.Hash]; ok {
		return
	}
	if len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[ts.Hash] = cacheEntry{script: ts, checkCost: checkCost}
	c.order = append(c.order, ts.Hash)
}

func (c *ScriptCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

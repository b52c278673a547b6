package costledger

import "sync"

// ledgerCache memoizes built ledgers per batch. The engine is pure, so a
// cached result stays valid until the batch itself is deleted.
type ledgerCache struct {
	mu      sync.RWMutex
	entries map[string][]AnnotatedTransaction
}

func newLedgerCache() *ledgerCache {
	return &ledgerCache{entries: make(map[string][]AnnotatedTransaction)}
}

func (c *ledgerCache) get(batchID string) ([]AnnotatedTransaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[batchID]
	if !ok {
		return nil, false
	}
	return entry, true
}

func (c *ledgerCache) set(batchID string, annotated []AnnotatedTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[batchID] = annotated
}

func (c *ledgerCache) invalidate(batchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, batchID)
}

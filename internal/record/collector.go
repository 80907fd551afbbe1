package record

import (
	"log/slog"
	"sync"
)

// CollectorStats summarizes what a Collector accepted and dropped.
type CollectorStats struct {
	Pages            int
	Records          int
	DuplicateAnchors int
	ReplacedPages    int
}

// Collector accumulates the records of one build. It is passed explicitly
// through the pipeline; nothing about a build lives in package state.
//
// A page added twice under the same ID (two files sharing a canonical URL)
// replaces the earlier one, keeping its original position. Within a page,
// a repeated anchor keeps the first section only, which keeps every
// heading object ID unique.
type Collector struct {
	mu    sync.Mutex
	order []string
	pages map[string][]*SearchRecord
	stats CollectorStats
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{pages: make(map[string][]*SearchRecord)}
}

// Add stores the records of pageID.
func (c *Collector) Add(pageID string, records []*SearchRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	kept := make([]*SearchRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.ObjectID]; dup {
			c.stats.DuplicateAnchors++
			slog.Debug("record_duplicate_anchor_dropped",
				slog.String("page", pageID),
				slog.String("object_id", r.ObjectID))
			continue
		}
		seen[r.ObjectID] = struct{}{}
		kept = append(kept, r)
	}

	if _, exists := c.pages[pageID]; exists {
		c.stats.ReplacedPages++
		slog.Warn("record_page_replaced", slog.String("page", pageID))
	} else {
		c.order = append(c.order, pageID)
	}
	c.pages[pageID] = kept
}

// Records returns every collected record, pages in insertion order.
func (c *Collector) Records() []*SearchRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*SearchRecord
	for _, id := range c.order {
		out = append(out, c.pages[id]...)
	}
	return out
}

// Len returns the number of collected records.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, recs := range c.pages {
		n += len(recs)
	}
	return n
}

// Stats returns a snapshot of the collector counters.
func (c *Collector) Stats() CollectorStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Pages = len(c.order)
	for _, recs := range c.pages {
		s.Records += len(recs)
	}
	return s
}

package record

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rec(id string) *SearchRecord {
	return &SearchRecord{ObjectID: id}
}

func ids(records []*SearchRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ObjectID
	}
	return out
}

func TestCollector_PreservesPageOrder(t *testing.T) {
	c := NewCollector()
	c.Add("b", []*SearchRecord{rec("b"), rec("b#x")})
	c.Add("a", []*SearchRecord{rec("a#y")})

	assert.Equal(t, []string{"b", "b#x", "a#y"}, ids(c.Records()))
	assert.Equal(t, 3, c.Len())
}

func TestCollector_LastPageWins(t *testing.T) {
	c := NewCollector()
	c.Add("a", []*SearchRecord{rec("a"), rec("a#old")})
	c.Add("b", []*SearchRecord{rec("b")})
	c.Add("a", []*SearchRecord{rec("a#new")})

	assert.Equal(t, []string{"a#new", "b"}, ids(c.Records()))

	stats := c.Stats()
	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.ReplacedPages)
}

func TestCollector_DropsDuplicateAnchors(t *testing.T) {
	c := NewCollector()
	first := &SearchRecord{ObjectID: "a#setup", Title: "first"}
	c.Add("a", []*SearchRecord{first, {ObjectID: "a#setup", Title: "second"}, rec("a#usage")})

	records := c.Records()
	assert.Equal(t, []string{"a#setup", "a#usage"}, ids(records))
	assert.Same(t, first, records[0])
	assert.Equal(t, 1, c.Stats().DuplicateAnchors)
}

func TestCollector_ConcurrentAdd(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i)
			c.Add(id, []*SearchRecord{rec(id), rec(id + "#h")})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 40, c.Len())
	assert.Equal(t, 20, c.Stats().Pages)
}

package perf

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is a single timing record.
type Entry struct {
	Kind       EntryKind
	Label      string // "GET /join" or "INSERT users"
	Status     int    // HTTP status, 0 for queries
	DurationMs float64
	At         time.Time
}

// Collector is a fixed-size ring buffer of timings. Writes never block on readers;
// when full the oldest entries are overwritten. Aggregation happens in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int

	requests atomic.Int64
	queries  atomic.Int64
}

// NewCollector creates a collector holding up to size entries. size <= 0 uses DefaultRingSize.
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when the buffer is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()

	if e.Kind == KindQuery {
		c.queries.Add(1)
	} else {
		c.requests.Add(1)
	}
}

// TotalRecorded returns the number of entries ever recorded, of either kind.
func (c *Collector) TotalRecorded() int64 {
	return c.requests.Load() + c.queries.Load()
}

// Snapshot is the aggregate served by the health endpoint.
type Snapshot struct {
	Requests       int64       `json:"requests"`
	Queries        int64       `json:"queries"`
	RequestP50Ms   float64     `json:"requestP50Ms"`
	RequestP95Ms   float64     `json:"requestP95Ms"`
	RequestP99Ms   float64     `json:"requestP99Ms"`
	QueryP95Ms     float64     `json:"queryP95Ms"`
	ServerErrors   int         `json:"serverErrors"`
	SlowestRoutes  []LabelStat `json:"slowestRoutes"`
	SlowestQueries []LabelStat `json:"slowestQueries"`
}

// LabelStat aggregates the timings that share a label.
type LabelStat struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   float64 `json:"maxMs"`
	totalMs float64
}

// Snapshot aggregates entries recorded at or after since, keeping the topN slowest labels
// of each kind.
// POST: percentiles are zero when no entries qualify
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := slices.Clone(c.entries)
	c.mu.Unlock()

	var reqDur, queryDur []float64
	routes := make(map[string]*LabelStat)
	queries := make(map[string]*LabelStat)
	snap := Snapshot{Requests: c.requests.Load(), Queries: c.queries.Load()}

	for _, e := range buf {
		if e.At.IsZero() || e.At.Before(since) {
			continue
		}
		stats := routes
		if e.Kind == KindQuery {
			stats = queries
			queryDur = append(queryDur, e.DurationMs)
		} else {
			reqDur = append(reqDur, e.DurationMs)
			if e.Status >= 500 {
				snap.ServerErrors++
			}
		}
		s, ok := stats[e.Label]
		if !ok {
			s = &LabelStat{Label: e.Label}
			stats[e.Label] = s
		}
		s.Count++
		s.totalMs += e.DurationMs
		s.MaxMs = max(s.MaxMs, e.DurationMs)
	}

	slices.Sort(reqDur)
	slices.Sort(queryDur)
	snap.RequestP50Ms = percentile(reqDur, 50)
	snap.RequestP95Ms = percentile(reqDur, 95)
	snap.RequestP99Ms = percentile(reqDur, 99)
	snap.QueryP95Ms = percentile(queryDur, 95)
	snap.SlowestRoutes = topByAvg(routes, topN)
	snap.SlowestQueries = topByAvg(queries, topN)
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func topByAvg(stats map[string]*LabelStat, n int) []LabelStat {
	list := make([]LabelStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.totalMs / float64(s.Count)
		list = append(list, *s)
	}
	slices.SortFunc(list, func(a, b LabelStat) int {
		switch {
		case a.AvgMs > b.AvgMs:
			return -1
		case a.AvgMs < b.AvgMs:
			return 1
		}
		return 0
	})
	if n >= 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

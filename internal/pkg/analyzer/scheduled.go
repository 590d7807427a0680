package analyzer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/fenwick-net/dpdcore/internal/pkg/conn"
	"github.com/fenwick-net/dpdcore/internal/pkg/reporter"
	"github.com/fenwick-net/dpdcore/internal/pkg/runstate"
	"github.com/fenwick-net/dpdcore/internal/pkg/tag"
)

// scheduledRecord is a single expectation: "when a connection matching
// Index arrives, pre-attach Tag." Held by pointer in both the
// multi-map and the heap so a single Expire pass frees it from both
// (spec.md §3 invariant: present in both views exactly once, until
// expired).
type scheduledRecord struct {
	index      conn.Index
	tag        tag.Tag
	timeoutAbs time.Duration
	heapIdx    int
}

// recordHeap is a min-heap ordered by timeoutAbs, implementing
// container/heap.Interface. Grounded on the original's
// priority_queue<ScheduledAnalyzer*> ordered the same way.
type recordHeap []*scheduledRecord

func (h recordHeap) Len() int            { return len(h) }
func (h recordHeap) Less(i, j int) bool  { return h[i].timeoutAbs < h[j].timeoutAbs }
func (h recordHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}
func (h *recordHeap) Push(x any) {
	r := x.(*scheduledRecord)
	r.heapIdx = len(*h)
	*h = append(*h, r)
}
func (h *recordHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.heapIdx = -1
	*h = old[:n-1]
	return r
}

// ScheduledTable is the time-expiring (ConnIndex -> AnalyzerTag)
// expectation table of spec.md §3/§4.3, kept as a multi-map for lookup
// and a min-heap for expiration, both referencing the same records.
type ScheduledTable struct {
	mu       sync.Mutex
	byIndex  map[conn.Index][]*scheduledRecord
	byExpiry recordHeap
	clock    *runstate.Clock
	reporter reporter.Reporter
}

// NewScheduledTable creates an empty ScheduledTable driven by clock.
func NewScheduledTable(clock *runstate.Clock, r reporter.Reporter) *ScheduledTable {
	if r == nil {
		r = reporter.New()
	}
	return &ScheduledTable{
		byIndex:  make(map[conn.Index][]*scheduledRecord),
		byExpiry: nil,
		clock:    clock,
		reporter: r,
	}
}

// Schedule pre-declares that a connection matching idx should have tag
// pre-attached once it arrives, valid for timeoutRel from now
// (spec.md §4.3). It rejects calls made before network processing has
// begun, and rejects a non-positive timeout, both as a warning-and-noop
// rather than an error.
func (s *ScheduledTable) Schedule(idx conn.Index, t tag.Tag, timeoutRel time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.clock.Started() {
		s.reporter.Warning("cannot schedule analyzers before processing begins; ignored")
		return
	}
	if timeoutRel <= 0 {
		s.reporter.Warning("scheduled analyzer timeout must be positive; ignored")
		return
	}

	s.expireLocked(s.clock.NetworkTime())

	r := &scheduledRecord{
		index:      idx,
		tag:        t,
		timeoutAbs: s.clock.NetworkTime() + timeoutRel,
	}
	s.byIndex[idx] = append(s.byIndex[idx], r)
	heap.Push(&s.byExpiry, r)
}

// Expire drops every record whose timeoutAbs is at or before now,
// removing it from both views (spec.md §4.3, invoked lazily by
// Schedule and on a cadence by the dispatcher).
func (s *ScheduledTable) Expire(now time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(now)
}

func (s *ScheduledTable) expireLocked(now time.Duration) {
	for s.byExpiry.Len() > 0 && s.byExpiry[0].timeoutAbs <= now {
		r := heap.Pop(&s.byExpiry).(*scheduledRecord)
		s.removeFromIndexLocked(r)
	}
}

// removeFromIndexLocked deletes r from its multi-map bucket by pointer
// identity, not key equality, since multiple records can share an
// Index (spec.md §4.3). If the two views have somehow diverged this is
// logged rather than asserted, per the open question in spec.md §9.
func (s *ScheduledTable) removeFromIndexLocked(r *scheduledRecord) {
	bucket := s.byIndex[r.index]
	for i, candidate := range bucket {
		if candidate == r {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			if len(bucket) == 0 {
				delete(s.byIndex, r.index)
			} else {
				s.byIndex[r.index] = bucket
			}
			return
		}
	}
	s.reporter.InternalWarning("expiring scheduled analyzer record absent from index view")
}

// GetScheduled returns the union of tags expected for a connection
// matching idx: every exact-match record unconditionally, plus every
// wildcard-originator record that hasn't yet expired (spec.md §4.3).
// Records are not removed here; they expire on their own schedule.
func (s *ScheduledTable) GetScheduled(idx conn.Index) map[tag.Tag]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.NetworkTime()
	result := make(map[tag.Tag]struct{})

	for _, r := range s.byIndex[idx] {
		result[r.tag] = struct{}{}
	}

	wildcard := idx.Wildcard()
	if wildcard != idx {
		for _, r := range s.byIndex[wildcard] {
			if r.timeoutAbs > now {
				result[r.tag] = struct{}{}
			}
		}
	}

	return result
}

// Len returns the number of live scheduled records, for tests.
func (s *ScheduledTable) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byExpiry.Len()
}

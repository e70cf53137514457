package search

import (
	"sync"
	"time"

	"github.com/poiesic/litscreen/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(topic string, mode Mode)
	AfterRefinement(result *core.RefinementResult)
	AfterTermExtraction(terms Terms)
	AfterQueryEmbedding(dimensions int)
	AfterCorpusLoad(count int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ Mode)                   {}
func (n *noopMonitor) AfterRefinement(_ *core.RefinementResult) {}
func (n *noopMonitor) AfterTermExtraction(_ Terms)              {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)                {}
func (n *noopMonitor) AfterCorpusLoad(_ int)                    {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)            {}

// Phase names recorded by TimingMonitor.
const (
	PhaseRefine = "refine"
	PhaseTerms  = "terms"
	PhaseEmbed  = "embed"
	PhaseLoad   = "load"
	PhaseRank   = "rank"
)

// PhaseTiming is the wall time of one search phase.
type PhaseTiming struct {
	Phase    string
	Duration time.Duration
}

// TimingMonitor records how long each search phase took.
type TimingMonitor struct {
	mu     sync.Mutex
	last   time.Time
	phases []PhaseTiming
	total  time.Duration
	start  time.Time
	now    func() time.Time
}

var _ SearchMonitor = (*TimingMonitor)(nil)

// NewTimingMonitor creates a TimingMonitor.
func NewTimingMonitor() *TimingMonitor {
	return &TimingMonitor{now: time.Now}
}

func (m *TimingMonitor) mark(phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.phases = append(m.phases, PhaseTiming{Phase: phase, Duration: now.Sub(m.last)})
	m.last = now
}

func (m *TimingMonitor) Start(_ string, _ Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = m.now()
	m.last = m.start
	m.phases = nil
	m.total = 0
}

func (m *TimingMonitor) AfterRefinement(_ *core.RefinementResult) { m.mark(PhaseRefine) }
func (m *TimingMonitor) AfterTermExtraction(_ Terms)              { m.mark(PhaseTerms) }
func (m *TimingMonitor) AfterQueryEmbedding(_ int)                { m.mark(PhaseEmbed) }
func (m *TimingMonitor) AfterCorpusLoad(_ int)                    { m.mark(PhaseLoad) }

func (m *TimingMonitor) Finish(_ []*core.SearchResult) {
	m.mark(PhaseRank)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = m.last.Sub(m.start)
}

// Phases returns the recorded phase timings in order.
func (m *TimingMonitor) Phases() []PhaseTiming {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PhaseTiming(nil), m.phases...)
}

// Total returns the time between Start and Finish.
func (m *TimingMonitor) Total() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

package domain

import "fmt"

// Edge is one rising clock edge in simulated time.
type Edge struct {
	Domain int    // index into the scheduler's domains
	Name   string // domain name
	TimeNs int64  // simulated time of the edge
	Cycle  int64  // edge number within the domain, starting at 1
}

// Scheduler produces the merged edge sequence of several clock domains.
//
// Edges are ordered by time; edges at the same instant are ordered by the
// position of their domain in the constructor arguments. The same domains
// always produce the same sequence.
//
// Thread-safety: not safe for concurrent use. The harness drives a
// Scheduler from a single goroutine.
type Scheduler struct {
	domains []Domain
	periods []int64
	clocks  []*Clock
	now     int64
}

// NewScheduler creates a scheduler for the given domains.
func NewScheduler(domains ...Domain) (*Scheduler, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("scheduler: at least one domain is required")
	}
	s := &Scheduler{
		domains: append([]Domain(nil), domains...),
		periods: make([]int64, len(domains)),
		clocks:  make([]*Clock, len(domains)),
	}
	for i, d := range domains {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}
		s.periods[i] = d.PeriodNs()
		s.clocks[i] = NewClock()
	}
	return s, nil
}

// Step returns the next edge and advances simulated time to it.
func (s *Scheduler) Step() Edge {
	best := 0
	bestTime := s.nextTime(0)
	for i := 1; i < len(s.domains); i++ {
		if t := s.nextTime(i); t < bestTime {
			best, bestTime = i, t
		}
	}
	cycle := s.clocks[best].Next()
	s.now = bestTime
	return Edge{
		Domain: best,
		Name:   s.domains[best].Name,
		TimeNs: bestTime,
		Cycle:  cycle,
	}
}

// StepUntil advances until an edge of domain i has been produced, calling
// visit for every edge on the way (including the final one).
func (s *Scheduler) StepUntil(i int, visit func(Edge)) Edge {
	for {
		e := s.Step()
		if visit != nil {
			visit(e)
		}
		if e.Domain == i {
			return e
		}
	}
}

func (s *Scheduler) nextTime(i int) int64 {
	return (s.clocks[i].Current() + 1) * s.periods[i]
}

// Now returns the time of the most recent edge.
func (s *Scheduler) Now() int64 { return s.now }

// Cycles returns the number of edges produced so far for domain i.
func (s *Scheduler) Cycles(i int) int64 { return s.clocks[i].Current() }

// Domains returns the scheduled domains.
func (s *Scheduler) Domains() []Domain { return append([]Domain(nil), s.domains...) }

package growthstats

import (
	"context"
	"sync"
	"time"

	"github.com/talentiq/talentstats/pkg/entities"
)

// fakeSource counts candidate-added events held in memory, with the
// same boundary semantics as the count service: CountUntil is
// inclusive of the instant, CountByHour facets [from, to] into hour
// slots relative to from.
type fakeSource struct {
	mu     sync.Mutex
	entity entities.Entity
	events []time.Time

	countUntilCalls  int
	countByHourCalls int
}

func (s *fakeSource) Entity() entities.Entity { return s.entity }

func (s *fakeSource) CountUntil(_ context.Context, until time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countUntilCalls++

	var n int64
	for _, e := range s.events {
		if !e.After(until) {
			n++
		}
	}
	return n, nil
}

func (s *fakeSource) CountByHour(_ context.Context, from, to time.Time) ([24]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countByHourCalls++

	var facets [24]int64
	for _, e := range s.events {
		if e.Before(from) || e.After(to) {
			continue
		}
		slot := int(e.Sub(from).Hours())
		if slot > 23 {
			slot = 23
		}
		facets[slot]++
	}
	return facets, nil
}

func (s *fakeSource) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countUntilCalls, s.countByHourCalls
}

// oneEventPerDay generates a candidate added at the given UTC hour on
// every day of [first, last].
func oneEventPerDay(first, last time.Time, hour int) []time.Time {
	var events []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		events = append(events, time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC))
	}
	return events
}

// fixedClock returns a clock pinned to the given instant.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

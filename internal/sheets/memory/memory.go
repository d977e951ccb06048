// Package memory keeps published reports in process, for tests and for
// deployments without a spreadsheet.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	ports "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/sheets"
)

var _ ports.Publisher = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	reports  map[string][]core.ClassReport
	stats    []core.StudentStatistics
	publishes int
}

func New() *Store {
	return &Store{reports: map[string][]core.ClassReport{}}
}

func (s *Store) PublishClassReports(_ context.Context, month string, reports []core.ClassReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[month] = append([]core.ClassReport(nil), reports...)
	s.publishes++
	return nil
}

func (s *Store) PublishStatistics(_ context.Context, stats []core.StudentStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append([]core.StudentStatistics(nil), stats...)
	s.publishes++
	return nil
}

// Reports returns the last reports published for month.
func (s *Store) Reports(month string) []core.ClassReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ClassReport(nil), s.reports[month]...)
}

// Months lists the months published so far.
func (s *Store) Months() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reports))
	for m := range s.reports {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Statistics() []core.StudentStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.StudentStatistics(nil), s.stats...)
}

// Publishes counts every publish call.
func (s *Store) Publishes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishes
}

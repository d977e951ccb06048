package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store"
)

type CalendarService struct {
	store store.CalendarStore
}

func NewCalendarService(s store.CalendarStore) *CalendarService {
	return &CalendarService{store: s}
}

func (s *CalendarService) Get(ctx context.Context) (core.CalendarSettings, error) {
	cs, err := s.store.LoadCalendar(ctx)
	if err != nil {
		return core.CalendarSettings{}, fmt.Errorf("load calendar: %w", err)
	}
	if cs.ClosedDates == nil {
		cs.ClosedDates = []string{}
	}
	return cs, nil
}

// Save validates and replaces the settings. Closed dates are de-duplicated
// and sorted, events ordered by date.
func (s *CalendarService) Save(ctx context.Context, cs core.CalendarSettings) (core.CalendarSettings, error) {
	if err := cs.Validate(); err != nil {
		return core.CalendarSettings{}, fmt.Errorf("validate calendar: %w", err)
	}
	seen := make(map[string]bool, len(cs.ClosedDates))
	dates := make([]string, 0, len(cs.ClosedDates))
	for _, d := range cs.ClosedDates {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	cs.ClosedDates = dates
	sort.SliceStable(cs.Events, func(i, j int) bool { return cs.Events[i].Date < cs.Events[j].Date })

	if err := s.store.SaveCalendar(ctx, cs); err != nil {
		return core.CalendarSettings{}, fmt.Errorf("save calendar: %w", err)
	}
	return cs, nil
}

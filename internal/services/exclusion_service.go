package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store"
)

type ExclusionService struct {
	store store.ExclusionStore
}

func NewExclusionService(s store.ExclusionStore) *ExclusionService {
	return &ExclusionService{store: s}
}

// List returns exclusions sorted by student name.
func (s *ExclusionService) List(ctx context.Context) ([]core.Exclusion, error) {
	all, err := s.store.ListExclusions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return normalize.Fold(all[i].StudentName) < normalize.Fold(all[j].StudentName)
	})
	return all, nil
}

// Add stores an exclusion, normalizing its date to DD/MM/YYYY.
func (s *ExclusionService) Add(ctx context.Context, e core.Exclusion) (core.Exclusion, error) {
	if err := e.Validate(); err != nil {
		return core.Exclusion{}, fmt.Errorf("validate exclusion: %w", err)
	}
	day, _ := core.ParseExclusionDate(e.Date)
	e.Date = day.Format(core.ExclusionDateLayout)
	e.Schedule = normalize.Schedule(e.Schedule)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := s.store.AddExclusion(ctx, e); err != nil {
		return core.Exclusion{}, fmt.Errorf("add exclusion: %w", err)
	}
	return e, nil
}

func (s *ExclusionService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteExclusion(ctx, id); err != nil {
		return fmt.Errorf("delete exclusion %s: %w", id, err)
	}
	return nil
}

package store

import (
	"fmt"

	"github.com/fennwick/hearth/internal/model"
	"golang.org/x/sync/errgroup"
)

// Snapshot is a point-in-time copy of a family and its collections.
type Snapshot struct {
	Family  *model.Family
	Kids    []model.Kid
	Chores  []model.Chore
	Rewards []model.Reward
}

// FetchSnapshot loads the family and all three collections. The collection
// reads are independent and fan out concurrently.
func (s *FamilyStore) FetchSnapshot(familyID string) (*Snapshot, error) {
	family, err := s.GetFamilyByID(familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, fmt.Errorf("fetch snapshot: %w", ErrNotFound)
	}

	snap := &Snapshot{Family: family}

	var g errgroup.Group
	g.Go(func() error {
		kids, err := s.ListKids(familyID)
		snap.Kids = kids
		return err
	})
	g.Go(func() error {
		chores, err := s.ListChores(familyID)
		snap.Chores = chores
		return err
	})
	g.Go(func() error {
		rewards, err := s.ListRewards(familyID)
		snap.Rewards = rewards
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	return snap, nil
}

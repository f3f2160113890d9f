// internal/services/owner_index_service.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

const resyncPageSize = 100

// ownerIndexes maps each denormalized field on users to the collection whose
// "user" back-reference is its source of truth.
var ownerIndexes = []struct {
	field      string
	collection models.Collection
}{
	{"products", models.CollectionProducts},
	{"product_files", models.CollectionProductFiles},
}

// OwnerIndexService rebuilds users' owner indexes from the records that point
// back at them. It repairs indexes left stale by failed after-change hooks or
// by deletes, which run no hooks.
type OwnerIndexService struct {
	records store.RecordStore
}

type ResyncReport struct {
	UsersScanned int `json:"usersScanned"`
	UsersUpdated int `json:"usersUpdated"`
	// Added and Removed count index entries across all users.
	Added   int  `json:"added"`
	Removed int  `json:"removed"`
	DryRun  bool `json:"dryRun"`
}

func NewOwnerIndexService(records store.RecordStore) *OwnerIndexService {
	return &OwnerIndexService{records: records}
}

// Resync walks every user. Existing entries that still have a back-reference
// keep their position; missing ones are appended in creation order.
func (s *OwnerIndexService) Resync(ctx context.Context, dryRun bool) (*ResyncReport, error) {
	report := &ResyncReport{DryRun: dryRun}

	for page := 1; ; page++ {
		users, _, err := s.records.Find(ctx, models.CollectionUsers, nil, store.FindOptions{Page: page, Limit: resyncPageSize})
		if err != nil {
			return report, fmt.Errorf("failed to list users: %w", err)
		}

		for _, user := range users {
			report.UsersScanned++
			if err := s.resyncUser(ctx, user, report); err != nil {
				return report, err
			}
		}

		if len(users) < resyncPageSize {
			return report, nil
		}
	}
}

func (s *OwnerIndexService) resyncUser(ctx context.Context, user store.Record, report *ResyncReport) error {
	patch := models.JSONB{}

	for _, idx := range ownerIndexes {
		owned, _, err := s.records.Find(ctx, idx.collection, store.Filter{store.Where("user", store.Equals, user.ID)}, store.FindOptions{})
		if err != nil {
			return fmt.Errorf("failed to list %s of user %s: %w", idx.collection, user.ID, err)
		}

		actual := make(map[string]struct{}, len(owned))
		ordered := make([]string, 0, len(owned))
		for _, rec := range owned {
			actual[rec.ID] = struct{}{}
			ordered = append(ordered, rec.ID)
		}

		current := models.RefsFrom(user.Fields[idx.field])
		indexed := make(map[string]struct{}, len(current))
		kept := make([]string, 0, len(current))
		removed := 0
		for _, id := range current {
			indexed[id] = struct{}{}
			if _, ok := actual[id]; ok {
				kept = append(kept, id)
			} else {
				removed++
			}
		}
		next := models.UniqueAppend(kept, ordered...)
		added := 0
		for _, id := range next {
			if _, ok := indexed[id]; !ok {
				added++
			}
		}

		if added == 0 && removed == 0 && len(next) == len(current) {
			continue
		}
		report.Added += added
		report.Removed += removed
		patch[idx.field] = next
	}

	if len(patch) == 0 {
		return nil
	}

	report.UsersUpdated++
	logrus.WithFields(logrus.Fields{"user": user.ID, "dry_run": report.DryRun}).Info("owner index out of sync")
	if report.DryRun {
		return nil
	}

	if _, err := s.records.Update(ctx, models.CollectionUsers, user.ID, patch); err != nil {
		return fmt.Errorf("failed to update owner index of user %s: %w", user.ID, err)
	}
	return nil
}

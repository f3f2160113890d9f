package hooks

import (
	"context"
	"fmt"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

const ownerField = "user"

// AssignOwner forces the owner field to the acting user on every write,
// whatever the payload says. A trusted actor without an id keeps the
// previous owner, or the one it supplied on create.
func AssignOwner() BeforeChange {
	return func(ctx context.Context, args BeforeChangeArgs) (models.JSONB, error) {
		data := args.Data
		switch {
		case args.Actor.ID != "":
			data[ownerField] = args.Actor.ID
		case args.Actor.Trusted && args.Previous != nil:
			data[ownerField] = models.RefFrom(args.Previous.Fields[ownerField])
		case args.Actor.Trusted:
			data[ownerField] = models.RefFrom(data[ownerField])
		default:
			return nil, access.ErrUnauthorized
		}
		return data, nil
	}
}

// SyncOwnerIndex adds the persisted record's id to indexField on its owning
// user, keeping first-seen order. It is a read-modify-write on the user
// record and is idempotent.
func SyncOwnerIndex(records store.RecordStore, indexField string) AfterChange {
	return func(ctx context.Context, args AfterChangeArgs) error {
		ownerID := models.RefFrom(args.Record.Fields[ownerField])
		if ownerID == "" {
			return nil
		}

		owner, err := records.FindByID(ctx, models.CollectionUsers, ownerID)
		if err != nil {
			return fmt.Errorf("failed to load owner: %w", err)
		}

		current := models.RefsFrom(owner.Fields[indexField])
		next := models.UniqueAppend(current, args.Record.ID)
		if len(next) == len(current) {
			return nil
		}

		if _, err := records.Update(ctx, models.CollectionUsers, ownerID, models.JSONB{indexField: next}); err != nil {
			return fmt.Errorf("failed to update owner index: %w", err)
		}
		return nil
	}
}

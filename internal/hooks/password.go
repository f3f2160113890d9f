package hooks

import (
	"context"
	"fmt"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

const minPasswordLength = 8

// HashPassword replaces a plaintext password in the payload with its bcrypt
// hash. Creating a user requires one.
func HashPassword() BeforeChange {
	return func(ctx context.Context, args BeforeChangeArgs) (models.JSONB, error) {
		data := args.Data
		raw, present := data["password"]
		delete(data, "password")

		password, _ := raw.(string)
		if !present || password == "" {
			if args.Operation == access.OpCreate && data.String("passwordHash") == "" {
				return nil, utils.FieldInvalid("password", "required", "password is required")
			}
			return data, nil
		}
		if len(password) < minPasswordLength {
			return nil, utils.FieldInvalid("password", "min", "password must be at least %d characters", minPasswordLength)
		}

		hash, err := models.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		data["passwordHash"] = hash
		return data, nil
	}
}

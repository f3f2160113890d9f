package collections

import (
	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/hooks"
	"github.com/digitalhippo/hippo-backend/internal/models"
)

func users(deps Deps) Definition {
	var after []hooks.AfterStage
	if deps.Verification != nil {
		after = append(after, hooks.After("sendVerification", hooks.SendVerification(deps.Verification)))
	}

	return Definition{
		Slug: models.CollectionUsers,
		Policy: access.Policy{
			Collection: models.CollectionUsers,
			Read:       adminOr(self),
			Create:     anyone,
			Update:     adminOnly,
			Delete:     adminOnly,
			Fields: map[string]access.FieldRule{
				"role":               {Create: isAdmin, Update: isAdmin},
				"passwordHash":       {Read: never, Create: never, Update: never},
				"products":           systemOnly,
				"product_files":      systemOnly,
				"_verified":          {Create: never, Update: isAdmin},
				"_verificationToken": {Read: never, Create: never, Update: never},
			},
		},
		Hooks: hooks.Pipeline{
			BeforeCreate: []hooks.BeforeStage{
				hooks.Before("hashPassword", hooks.HashPassword()),
				hooks.Before("issueVerificationToken", hooks.IssueVerificationToken()),
			},
			BeforeUpdate: []hooks.BeforeStage{hooks.Before("hashPassword", hooks.HashPassword())},
			AfterCreate:  after,
		},
		Defaults:   models.JSONB{"role": string(models.RoleUser)},
		SortFields: []string{"createdAt", "email"},
		newModel:   func() interface{} { return &models.User{} },
	}
}

func products(deps Deps) Definition {
	adminField := access.FieldRule{Read: isAdmin, Create: isAdmin, Update: isAdmin}
	processorID := access.FieldRule{Read: isAdmin, Create: never, Update: never}

	before := []hooks.BeforeStage{
		hooks.Before("assignOwner", hooks.AssignOwner()),
		hooks.Before("syncPricing", hooks.SyncPricing(deps.Pricing, deps.Currency)),
	}
	after := []hooks.AfterStage{
		hooks.After("syncOwnerIndex", hooks.SyncOwnerIndex(deps.Records, "products")),
	}

	return Definition{
		Slug: models.CollectionProducts,
		Policy: access.Policy{
			Collection: models.CollectionProducts,
			Read:       adminOr(inOwnerIndex),
			Create:     authenticated,
			Update:     adminOr(inOwnerIndex),
			Delete:     adminOr(inOwnerIndex),
			Fields: map[string]access.FieldRule{
				"approvedForSale": adminField,
				"stripeId":        processorID,
				"priceId":         processorID,
			},
		},
		Hooks: hooks.Pipeline{
			BeforeCreate: before,
			BeforeUpdate: before,
			AfterCreate:  after,
			AfterUpdate:  after,
		},
		Defaults:   models.JSONB{"approvedForSale": string(models.ApprovalPending)},
		SortFields: []string{"createdAt", "name", "price"},
		newModel:   func() interface{} { return &models.Product{} },
	}
}

func orders() Definition {
	return Definition{
		Slug: models.CollectionOrders,
		Policy: access.Policy{
			Collection: models.CollectionOrders,
			Read:       adminOr(ownedBy),
			Create:     adminOnly,
			Update:     adminOnly,
			Delete:     adminOnly,
			Fields: map[string]access.FieldRule{
				"_isPaid": {Read: isAdmin, Create: never, Update: never},
			},
		},
		Defaults:   models.JSONB{"_isPaid": false},
		SortFields: []string{"createdAt"},
		newModel:   func() interface{} { return &models.Order{} },
	}
}

func productFiles(deps Deps) Definition {
	return Definition{
		Slug: models.CollectionProductFiles,
		Policy: access.Policy{
			Collection: models.CollectionProductFiles,
			Read:       adminOr(ownedBy),
			Create:     authenticated,
			Update:     adminOr(ownedBy),
			Delete:     adminOr(ownedBy),
			Fields: map[string]access.FieldRule{
				"url":        systemOnly,
				"storageKey": systemOnly,
				"mimeType":   systemOnly,
				"filesize":   systemOnly,
			},
		},
		Hooks: hooks.Pipeline{
			BeforeCreate: []hooks.BeforeStage{hooks.Before("assignOwner", hooks.AssignOwner())},
			BeforeUpdate: []hooks.BeforeStage{hooks.Before("assignOwner", hooks.AssignOwner())},
			AfterCreate:  []hooks.AfterStage{hooks.After("syncOwnerIndex", hooks.SyncOwnerIndex(deps.Records, "product_files"))},
		},
		SortFields: []string{"createdAt", "filename"},
		newModel:   func() interface{} { return &models.ProductFile{} },
	}
}

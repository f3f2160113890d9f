package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

func testApp(records store.RecordStore, cfg *config.Config) *app {
	return &app{
		loadConfig: func() (*config.Config, error) { return cfg, nil },
		openStore: func(*config.Config) (store.RecordStore, func(), error) {
			return records, func() {}, nil
		},
	}
}

func run(t *testing.T, a *app, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := a.rootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestResyncOwnerIndexCommand(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	user, err := records.Create(ctx, models.CollectionUsers, models.JSONB{"email": "a@example.com", "role": "user"})
	require.NoError(t, err)
	product, err := records.Create(ctx, models.CollectionProducts, models.JSONB{"name": "Kit", "user": user.ID})
	require.NoError(t, err)

	a := testApp(records, &config.Config{Database: config.DatabaseConfig{Driver: "memory"}})

	var report services.ResyncReport
	require.NoError(t, json.Unmarshal([]byte(run(t, a, "resync-owner-index", "--dry-run")), &report))
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Added)

	stored, err := records.FindByID(ctx, models.CollectionUsers, user.ID)
	require.NoError(t, err)
	assert.Empty(t, models.RefsFrom(stored.Fields["products"]))

	require.NoError(t, json.Unmarshal([]byte(run(t, a, "resync-owner-index")), &report))
	assert.Equal(t, 1, report.UsersUpdated)

	stored, err = records.FindByID(ctx, models.CollectionUsers, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{product.ID}, models.RefsFrom(stored.Fields["products"]))
}

func TestSeedCommand(t *testing.T) {
	records := store.NewMemoryStore()
	a := testApp(records, &config.Config{Admin: config.AdminConfig{Email: "admin@example.com", Password: "long-enough-pw"}})

	assert.Contains(t, run(t, a, "seed"), "admin admin@example.com created")
	assert.Contains(t, run(t, a, "seed"), "admin not created")
}

func TestMigrateRequiresPostgres(t *testing.T) {
	a := testApp(store.NewMemoryStore(), &config.Config{Database: config.DatabaseConfig{Driver: "memory"}})
	cmd := a.rootCommand()
	cmd.SetArgs([]string{"migrate"})
	assert.Error(t, cmd.Execute())
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/database"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

// app holds the command dependencies so tests can run commands against a
// memory store.
type app struct {
	loadConfig func() (*config.Config, error)
	openStore  func(*config.Config) (store.RecordStore, func(), error)
	verbose    bool
}

func NewRootCommand() *cobra.Command {
	a := &app{
		loadConfig: config.Load,
		openStore:  database.OpenStore,
	}
	return a.rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hippoctl",
		Short:         "Operator tasks for the DigitalHippo backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(a.migrateCmd())
	rootCmd.AddCommand(a.seedCmd())
	rootCmd.AddCommand(a.resyncCmd())
	return rootCmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Database.Driver != "postgres" {
				return errors.New("migrate requires DB_DRIVER=postgres")
			}

			// OpenStore migrates postgres before returning.
			_, closeStore, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			closeStore()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin user from ADMIN_EMAIL and ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, records, closeStore, err := a.open()
			if err != nil {
				return err
			}
			defer closeStore()

			created, err := database.SeedAdmin(cmd.Context(), records, cfg.Admin)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", cfg.Admin.Email)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "admin not created")
			}
			return nil
		},
	}
}

func (a *app) resyncCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "resync-owner-index",
		Short: "Rebuild users' products and product_files lists from ownership",
		Long: `Rebuild every user's owner indexes from the records that reference them.

Indexes drift when an after-change hook fails after its record was saved,
or when a record is deleted. Entries for missing records are dropped and
owned records that are not indexed are appended.

Examples:
  hippoctl resync-owner-index --dry-run
  hippoctl resync-owner-index`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, records, closeStore, err := a.open()
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := services.NewOwnerIndexService(records).Resync(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing them")
	return cmd
}

func (a *app) open() (*config.Config, store.RecordStore, func(), error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	records, closeStore, err := a.openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, records, closeStore, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

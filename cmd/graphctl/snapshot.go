package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coregraph/typegraph/internal/snapshot"
	"github.com/coregraph/typegraph/internal/storage"
	"github.com/coregraph/typegraph/internal/storage/postgres"
)

// exitError carries the process exit code a RunE failure should
// produce, per spec.md §6's "0 success; 1 connection/setup failure;
// 2 validation failure (unless ignored); 3 I/O failure".
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Dump or restore the full graph as a newline-delimited JSON stream",
}

var (
	noPrincipals    bool
	noActions       bool
	noPolicies      bool
	noEntities      bool
	noEntityTypes   bool
	noPropertyTypes bool
	noDataTypes     bool
	noEmbeddings    bool
)

var snapshotDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write an NDJSON snapshot of the store to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := postgres.Open(ctx, dbConfig(cmd))
		if err != nil {
			return &exitError{1, fmt.Errorf("connecting to database: %w", err)}
		}
		defer store.Close()

		opts := snapshot.DumpOptions{
			SkipWebs:          noPrincipals,
			SkipActors:        noPrincipals,
			SkipRoles:         noPrincipals,
			SkipPolicies:      noPolicies,
			SkipEntities:      noEntities,
			SkipEntityTypes:   noEntityTypes,
			SkipPropertyTypes: noPropertyTypes,
			SkipDataTypes:     noDataTypes,
		}
		if err := snapshot.Dump(ctx, store, os.Stdout, opts); err != nil {
			return &exitError{3, fmt.Errorf("dumping snapshot: %w", err)}
		}
		return nil
	},
}

var (
	skipValidation         bool
	ignoreValidationErrors bool
)

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Read an NDJSON snapshot from stdin and restore it into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := postgres.Open(ctx, dbConfig(cmd))
		if err != nil {
			return &exitError{1, fmt.Errorf("connecting to database: %w", err)}
		}
		defer store.Close()

		err = snapshot.Restore(ctx, os.Stdin, store, snapshot.RestoreOptions{
			SkipValidation:         skipValidation,
			IgnoreValidationErrors: ignoreValidationErrors,
		})

		var warning *snapshot.ValidationWarning
		if errors.As(err, &warning) {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warning)
			return nil
		}
		if err == nil {
			return nil
		}

		var storeErr *storage.StoreError
		if errors.As(err, &storeErr) && storeErr.Kind == storage.KindValidation {
			return &exitError{2, err}
		}
		return &exitError{3, fmt.Errorf("restoring snapshot: %w", err)}
	},
}

func init() {
	snapshotDumpCmd.Flags().BoolVar(&noPrincipals, "no-principals", false, "Skip webs, actors and roles")
	snapshotDumpCmd.Flags().BoolVar(&noActions, "no-actions", false, "Accepted for CLI parity; this store keeps no separate action log")
	snapshotDumpCmd.Flags().BoolVar(&noPolicies, "no-policies", false, "Skip authorization policies")
	snapshotDumpCmd.Flags().BoolVar(&noEntities, "no-entities", false, "Skip entities")
	snapshotDumpCmd.Flags().BoolVar(&noEntityTypes, "no-entity-types", false, "Skip entity types")
	snapshotDumpCmd.Flags().BoolVar(&noPropertyTypes, "no-property-types", false, "Skip property types")
	snapshotDumpCmd.Flags().BoolVar(&noDataTypes, "no-data-types", false, "Skip data types")
	snapshotDumpCmd.Flags().BoolVar(&noEmbeddings, "no-embeddings", false, "Accepted for CLI parity; this store computes no embeddings")

	snapshotRestoreCmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "Commit without running post-restore validation")
	snapshotRestoreCmd.Flags().BoolVar(&ignoreValidationErrors, "ignore-validation-errors", false, "Downgrade validation failures to warnings instead of failing")

	snapshotCmd.AddCommand(snapshotDumpCmd, snapshotRestoreCmd)
	rootCmd.AddCommand(snapshotCmd)
}

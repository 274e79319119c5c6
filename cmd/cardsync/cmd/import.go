package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardsync/cardsync/internal/sources"
	"github.com/cardsync/cardsync/pkg/errors"
	"github.com/cardsync/cardsync/pkg/logging"
	"github.com/cardsync/cardsync/pkg/reconcile"
	"github.com/cardsync/cardsync/pkg/sync"
)

// newImportCommand creates the import command.
func newImportCommand(opts *rootOptions) *cobra.Command {
	var (
		mapping        string
		target         string
		policy         string
		dryRun         bool
		nonInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import contact records from a vCard or delimited file",
		Long: `Import parses the given file into canonical contact records, matches
each against the directory's existing records by first email address,
and resolves duplicates according to --policy.

The default policy is skip: nothing is merged or deleted unless asked
for. With --policy ask each duplicate group is resolved interactively.
Merge and overwrite over multiple matches always require an explicit
selection; without one the record is reported as ambiguous and the
batch continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if target == "" {
				target = opts.config.TargetLocation
			}
			if target == "" {
				return errors.NewConfigError("import",
					"target location is required (--target or CARDSYNC_TARGET_LOCATION)", nil)
			}
			if policy == "" {
				policy = opts.config.Policy
			}
			parsedPolicy, err := reconcile.ParsePolicy(policy)
			if err != nil {
				return err
			}
			if parsedPolicy == reconcile.PolicyAsk && nonInteractive {
				return errors.NewConfigError("import",
					"policy \"ask\" needs an interactive terminal", nil)
			}

			source, err := sources.ForFile(args[0], mapping)
			if err != nil {
				return err
			}
			batch, err := source.Read(ctx)
			if err != nil {
				return err
			}
			logging.Ctx(ctx).Info().
				Str("file", args[0]).
				Str("source", string(source.ID())).
				Int("records", len(batch.Records)).
				Int("skipped", len(batch.Skipped)).
				Msg("parsed input")

			client, err := opts.client()
			if err != nil {
				return err
			}

			syncOpts := []sync.Option{
				sync.WithPolicy(parsedPolicy),
				sync.WithDryRun(dryRun),
			}
			if !nonInteractive {
				syncOpts = append(syncOpts, sync.WithChooser(newPromptChooser(cmd.InOrStdin(), cmd.OutOrStdout())))
			}

			syncer, err := sync.NewSyncer(client, target, syncOpts...)
			if err != nil {
				return err
			}

			summary, err := syncer.Run(ctx, batch)
			if summary != nil {
				fmt.Fprintln(cmd.OutOrStdout(), summary.Report())
			}
			if err != nil {
				return err
			}
			if summary.HasFailures() {
				return fmt.Errorf("%d of %d records were not imported",
					summary.Failed+summary.Excluded, len(batch.Records)+summary.Excluded)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mapping, "mapping", "m", "", "column mapping file for delimited input")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target location display name")
	cmd.Flags().StringVarP(&policy, "policy", "p", "", "duplicate policy: skip, merge, overwrite, create, consolidate, ask")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the plan without executing it")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; ambiguous records fail instead")
	return cmd
}

// Package cmd builds the cardsync command tree.
package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cardsync/cardsync/cmd/cardsync/app"
	"github.com/cardsync/cardsync/internal/directory/remote"
	"github.com/cardsync/cardsync/pkg/directory"
	"github.com/cardsync/cardsync/pkg/errors"
)

// rootOptions carries the persistent flags and the loaded config down
// to the subcommands.
type rootOptions struct {
	configFile string
	verbose    bool
	quiet      bool
	baseURL    string
	token      string

	config *app.Config
}

// client builds the directory client from the resolved configuration.
func (o *rootOptions) client() (directory.Client, error) {
	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = o.config.BaseURL
	}
	token := o.token
	if token == "" {
		token = o.config.Token
	}
	if baseURL == "" {
		return nil, errors.NewConfigError("cardsync",
			"directory base URL is required (--base-url or CARDSYNC_BASE_URL)", nil)
	}
	return remote.NewClient(baseURL, remote.WithToken(token))
}

// NewRootCommand creates the cardsync root command.
func NewRootCommand(version, commit, date string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "cardsync",
		Short: "Reconcile contact records into a directory service",
		Long: `cardsync imports contact records from vCard and delimited files,
matches them against the records already present in a directory
service, and resolves duplicates by policy: skip, merge, overwrite,
create, or consolidate scattered duplicates into one location.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config, err := app.LoadConfig(opts.configFile)
			if err != nil {
				return err
			}
			opts.config = config

			switch {
			case opts.quiet:
				zerolog.SetGlobalLevel(zerolog.ErrorLevel)
			case opts.verbose:
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ~/.cardsync.yaml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")
	flags.StringVar(&opts.baseURL, "base-url", "", "directory service base URL")
	flags.StringVar(&opts.token, "token", "", "directory service bearer token")

	root.AddCommand(newImportCommand(opts))
	root.AddCommand(newLocationsCommand(opts))
	return root
}

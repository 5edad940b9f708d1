package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mars-alien/NoteTakingApp/internal/client"
	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
)

// rootOptions are the persistent flags. Empty values leave the environment
// and the config file in charge.
type rootOptions struct {
	configPath string
	address    string
	dbPath     string
	engine     string
	logFile    string

	app *client.App
}

func (o *rootOptions) overlay() *config.StructuredConfig {
	return &config.StructuredConfig{
		App:          config.App{LogFile: o.logFile},
		Adapter:      config.Adapter{HTTPAddress: o.address},
		Storage:      config.Storage{Engine: o.engine, DB: config.DB{DSN: o.dbPath}},
		JSONFilePath: o.configPath,
	}
}

// open loads the configuration and wires the device. It runs before every
// command except version.
func (o *rootOptions) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.GetClientConfig(o.overlay())
	if err != nil {
		return fmt.Errorf("error getting configs: %w", err)
	}

	log := logger.NewClientLogger("notes-client", cfg.App.LogFile)
	cmd.SetContext(log.WithContext(cmd.Context()))

	o.app, err = client.NewApp(cmd.Context(), cfg, nil, log)
	if err != nil {
		return fmt.Errorf("init client app error: %w", err)
	}
	return nil
}

func (o *rootOptions) close(*cobra.Command, []string) error {
	if o.app == nil {
		return nil
	}
	return o.app.Close()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "notes",
		Short: "Offline-first notes with background sync",
		Long: `notes keeps your notes in a local store and synchronizes them with
the notes server whenever it is reachable. Edits never wait for the network.`,
		SilenceUsage:       true,
		PersistentPreRunE:  opts.open,
		PersistentPostRunE: opts.close,
	}
	root.SetContext(context.Background())

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (JSON or YAML)")
	flags.StringVarP(&opts.address, "address", "a", "", "notes server address")
	flags.StringVar(&opts.dbPath, "db", "", "local store file")
	flags.StringVar(&opts.engine, "engine", "", "local store engine: sqlite or bolt")
	flags.StringVar(&opts.logFile, "log-file", "", "log file")

	root.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newCreateCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newSyncCmd(opts),
		newStatusCmd(opts),
		newRunCmd(opts),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// no local store needed
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), buildInfo())
		},
	}
}

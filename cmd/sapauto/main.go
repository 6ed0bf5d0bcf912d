package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sapauto/sapauto/internal/automator"
	"github.com/sapauto/sapauto/internal/config"
	"github.com/sapauto/sapauto/internal/logging"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sapauto",
		Short:         "SAP GUI login automation",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "sapauto.toml",
		"path to the connection config file")

	root.AddCommand(
		newLoginCommand(&configPath),
		newDoctorCommand(&configPath),
	)
	return root
}

// newLoginCommand performs the full round trip: connect, log in, drain any
// remaining popups, and close the connection on every exit path.
func newLoginCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Connect to the configured SAP system, log in, and close the connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			runLog, err := logging.New("sapauto", logging.WithDirectory(cfg.LogDirectory))
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			defer func() {
				if closeErr := runLog.Close(); closeErr != nil {
					fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", closeErr)
				}
			}()

			runID := uuid.NewString()
			logger := runLog.Logger.With("run_id", runID)
			logger.Info("starting login run", "config", cfg.Redacted())

			auto, err := automator.New(*cfg, logger)
			if err != nil {
				return err
			}
			defer auto.CloseConnection()

			session, err := auto.InitializeConnection()
			if err != nil {
				return err
			}
			for auto.CheckMessageBox(session) {
			}

			logger.Info("login run complete")
			cmd.Printf("logged in to %s, log file: %s\n", cfg.System, runLog.Path())
			return nil
		},
	}
}

// newDoctorCommand validates the local setup without touching the GUI.
func newDoctorCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate the config file and the SAP executable path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}
			cmd.Printf("config ok: %s\n", cfg.Redacted())

			if _, err := os.Stat(cfg.ExePath); err != nil {
				return fmt.Errorf("sap executable not found at %q: %w", cfg.ExePath, err)
			}
			cmd.Printf("executable ok: %s\n", cfg.ExePath)
			return nil
		},
	}
}

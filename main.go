package main

import (
	"fmt"
	"os"

	"github.com/nconklindev/leadmap/internal/config"
	"github.com/nconklindev/leadmap/internal/logging"
	"github.com/nconklindev/leadmap/internal/ui"
	"github.com/nconklindev/leadmap/internal/upload"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "leadmap",
		Short: "Import lead spreadsheets with automatic column mapping",
		Long: `leadmap reads a CSV or XLSX file of leads, works out which column holds
the name, email, phones, status and team, and writes a normalized copy.

Run without arguments to pick a file and review the mapping interactively.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runTUI,
	}
	root.SetVersionTemplate(fmt.Sprintf("leadmap %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file (default $LEADMAP_CONFIG)")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "log at debug level")

	root.AddCommand(a.newMapCmd(), a.newExportCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// uploader returns nil when uploads are disabled.
func (a *app) uploader(force bool) *upload.Client {
	if !a.cfg.API.Upload && !force {
		return nil
	}
	return upload.NewClient(a.cfg.API.BaseURL, upload.StaticToken(a.cfg.API.Token), a.cfg.API.Timeout, a.logger)
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	opts := ui.Options{Config: a.cfg, Logger: a.logger}
	if up := a.uploader(false); up != nil {
		opts.Uploader = up
	}

	p := tea.NewProgram(ui.InitialModel(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

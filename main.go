package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nconklindev/leadbook/internal/config"
	"github.com/nconklindev/leadbook/internal/converter"
	"github.com/nconklindev/leadbook/internal/leads"
	"github.com/nconklindev/leadbook/internal/logging"
	"github.com/nconklindev/leadbook/internal/store"
	"github.com/nconklindev/leadbook/internal/types"
	"github.com/nconklindev/leadbook/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var (
		flags       globalFlags
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "leadbook",
		Short: "Track sales leads in a spreadsheet-backed pipeline",
		Long: `Leadbook keeps a sales pipeline in an Excel workbook.

Run without arguments to open the board. Subcommands import, export
and summarize the workbook without the interactive interface.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			return runTUI(flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print version information")

	cmd.AddCommand(
		importCmd(&flags),
		exportCmd(&flags),
		copyCmd(&flags),
		templateCmd(&flags),
		statsCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				printVersion()
			},
		},
	)

	return cmd
}

func printVersion() {
	fmt.Printf("leadbook %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.NewLoader(nil).Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	return cfg, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, *store.FileStore, error) {
	if cfg.Storage.Backend == config.BackendMemory {
		return store.NewMemoryStore(), nil, nil
	}
	fs, err := store.NewFileStore(cfg.Storage.DataDir, cfg.Storage.ExportDir, logger)
	if err != nil {
		return nil, nil, err
	}
	return fs, fs, nil
}

func runTUI(flags globalFlags) error {
	cfg, err := loadConfig(&flags)
	if err != nil {
		return err
	}

	logger, logFile, err := logging.SetupFile(cfg.Logging.Level, cfg.Logging.Format, cfg.LogFile())
	if err != nil {
		return err
	}
	defer logFile.Close()

	s, fs, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := ui.Options{
		Store:     s,
		ExportDir: cfg.Storage.ExportDir,
		Logger:    logger,
	}
	if fs != nil && cfg.Storage.Watch {
		w, err := store.NewWatcher(fs, cfg.Storage.WatchDebounce, logger)
		if err != nil {
			// The board still works without live reload.
			logger.Warn("File watching disabled", slog.String("error", err.Error()))
		} else {
			defer w.Close()
			go w.Run(ctx)
			opts.Watcher = w
		}
	}

	logger.Info("Starting leadbook", slog.String("version", version), slog.String("location", s.Location()))

	p := tea.NewProgram(ui.InitialModel(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// cliSetup loads config, logs to stderr and opens the store for a subcommand.
func cliSetup(flags *globalFlags) (*config.Config, store.Store, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	s, _, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func importCmd(flags *globalFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import leads from an XLSX or CSV file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := cliSetup(flags)
			if err != nil {
				return err
			}

			res, err := converter.ImportFile(args[0])
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			if err := converter.Verify(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Read %d leads with %d errors from %s\n", len(res.Leads), len(res.Errors), res.Source)
			if dryRun {
				return nil
			}

			all, err := s.Load()
			if err != nil {
				return err
			}
			saved, err := s.Save(leads.Merge(all, res.Leads))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", saved.Path)
			if saved.BackupPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", saved.BackupPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without saving")
	return cmd
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the database as " + converter.DatabaseFile,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := cliSetup(flags)
			if err != nil {
				return err
			}
			all, err := s.Load()
			if err != nil {
				return err
			}
			art, err := converter.Export(all)
			if err != nil {
				return err
			}
			return writeArtifact(cmd, orDefault(out, cfg.Storage.ExportDir), art)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output folder (default: export_dir)")
	return cmd
}

func copyCmd(flags *globalFlags) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Write a dated export copy of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := cliSetup(flags)
			if err != nil {
				return err
			}
			all, err := s.Load()
			if err != nil {
				return err
			}
			art, err := converter.ExportCopy(all)
			if err != nil {
				return err
			}
			return writeArtifact(cmd, orDefault(dir, cfg.Storage.ExportDir), art)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output folder (default: export_dir)")
	return cmd
}

func templateCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty import template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

			art, err := converter.Template()
			if err != nil {
				return err
			}
			return writeArtifact(cmd, orDefault(out, cfg.Storage.ExportDir), art)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output folder (default: export_dir)")
	return cmd
}

func statsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print pipeline totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := cliSetup(flags)
			if err != nil {
				return err
			}
			all, err := s.Load()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			sum := leads.Summarize(all)
			fmt.Fprintf(w, "Total leads:    %d\n", sum.Total)
			fmt.Fprintf(w, "In progress:    %d\n", sum.InProgress)
			fmt.Fprintf(w, "Completed:      %d\n", sum.Completed)
			fmt.Fprintf(w, "Pipeline value: %s\n", leads.FormatValue(sum.PipelineValue))
			fmt.Fprintf(w, "Conversion:     %d%%\n", sum.ConversionRate)
			for _, share := range leads.Shares(all) {
				fmt.Fprintf(w, "  %-10s %4d  %5.1f%%\n", share.Status, share.Count, share.Percent)
			}
			return nil
		},
	}
}

func writeArtifact(cmd *cobra.Command, dir string, art *types.Artifact) error {
	if dir == "" {
		return errors.New("no output folder configured")
	}
	path, err := store.WriteArtifact(dir, art)
	if err != nil {
		return fmt.Errorf("writing %s: %w", art.Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

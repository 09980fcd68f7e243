package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/customeros/mailsort/config"
	"github.com/customeros/mailsort/dto"
	"github.com/customeros/mailsort/internal/database"
	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/repository"
	"github.com/customeros/mailsort/server"
	"github.com/customeros/mailsort/services"
	"github.com/customeros/mailsort/services/events"
	"github.com/customeros/mailsort/services/folders"
	"github.com/customeros/mailsort/services/rules"
)

// bootstrap loads configuration and the application logger.
func bootstrap() (*config.Config, logger.Logger, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, errors.Wrap(err, "config initialization failed")
	}
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()
	return cfg, appLogger, nil
}

// openDatabase connects when run history is configured and returns nil
// otherwise.
func openDatabase(cfg *config.Config, log logger.Logger) (*gorm.DB, error) {
	if !cfg.DatabaseConfig.Enabled() {
		log.Info("Run history database not configured, keeping history in memory")
		return nil, nil
	}
	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return nil, err
	}
	if err = repository.MigrateMailsortDB(cfg.DatabaseConfig, db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the control API and the scheduler",
		Action: func(c *cli.Context) error {
			cfg, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			defer appLogger.Sync()

			db, err := openDatabase(cfg, appLogger)
			if err != nil {
				return err
			}

			srv, err := server.NewServer(cfg, appLogger, db)
			if err != nil {
				return errors.Wrap(err, "server setup failed")
			}
			if err = srv.Run(); err != nil {
				return errors.Wrap(err, "server startup failed")
			}
			appLogger.Info("Shutdown complete")
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "classify the configured folders once",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "report actions without changing the mailbox"},
			&cli.IntFlag{Name: "max-messages", Usage: "only process the most recent N messages per folder"},
			&cli.StringSliceFlag{Name: "folder", Usage: "folder to scan instead of the configured ones"},
		},
		Action: func(c *cli.Context) error {
			cfg, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			defer appLogger.Sync()

			snapshot, err := cfg.Snapshot()
			if err != nil {
				return err
			}
			snapshot = applyRunFlags(c, snapshot)

			db, err := openDatabase(cfg, appLogger)
			if err != nil {
				return err
			}
			feed := events.NewChannelSink(progressBuffer)
			svcs, err := services.InitServices(cfg, appLogger, db, feed)
			if err != nil {
				return err
			}
			defer svcs.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			done := make(chan struct{})
			printed := make(chan struct{})
			go func() {
				defer close(printed)
				printProgress(os.Stdout, feed.Updates, done)
			}()

			report, err := svcs.Runner.Run(ctx, snapshot, enum.RunTriggerCLI)
			close(done)
			<-printed
			printReport(report)
			return err
		},
	}
}

func applyRunFlags(c *cli.Context, snapshot models.Snapshot) models.Snapshot {
	options := snapshot.Options
	if c.IsSet("dry-run") {
		options.DryRun = c.Bool("dry-run")
	}
	if c.IsSet("max-messages") {
		options.MaxMessages = c.Int("max-messages")
	}
	if folderList := c.StringSlice("folder"); len(folderList) > 0 {
		options.FoldersToScan = folderList
		options.IncludeInbox = false
	}
	return models.NewSnapshot(options, snapshot.AccountAddress, snapshot.Rules, snapshot.Chains)
}

const progressBuffer = 64

// printProgress writes one line per progress update until done is closed.
func printProgress(w io.Writer, updates <-chan dto.ProgressUpdate, done <-chan struct{}) {
	for {
		select {
		case update := <-updates:
			fmt.Fprintf(w, "[%s] %d/%d processed, %d errors\n", update.Folder, update.Processed, update.Total, update.Stats.Errors)
		case <-done:
			return
		}
	}
}

func printReport(report models.SessionReport) {
	fmt.Printf("Run %s %s in %s\n", report.RunID, report.Status, report.Duration())
	fmt.Printf("  folders:        %s\n", strings.Join(report.Folders, ", "))
	fmt.Printf("  processed:      %d/%d\n", report.Stats.Processed, report.Stats.Total)
	fmt.Printf("  cc moved:       %d\n", report.Stats.CCMoved)
	fmt.Printf("  rules applied:  %d\n", report.Stats.RulesApplied)
	fmt.Printf("  chains applied: %d\n", report.Stats.ChainsApplied)
	fmt.Printf("  errors:         %d\n", report.Stats.Errors)
	if report.Error != "" {
		fmt.Printf("  error:          %s\n", report.Error)
	}
}

func foldersCommand() *cli.Command {
	return &cli.Command{
		Name:  "folders",
		Usage: "list the folders of the configured account",
		Action: func(c *cli.Context) error {
			cfg, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			defer appLogger.Sync()

			svcs, err := services.InitServices(cfg, appLogger, nil)
			if err != nil {
				return err
			}
			defer svcs.Close()

			mailbox, err := svcs.Dialer(c.Context)
			if err != nil {
				return err
			}
			defer mailbox.Close()

			catalog, err := folders.Discover(c.Context, mailbox)
			if err != nil {
				return err
			}
			fmt.Printf("%d folders, hierarchy convention: %s\n", catalog.Len(), catalog.Convention())
			for _, folder := range catalog.Folders() {
				fmt.Printf("  %s\n", folder.Name)
			}
			return nil
		},
	}
}

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "validate, export and import rule definitions",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "check the configured rules, chains and profile",
				Action: func(c *cli.Context) error {
					cfg, err := config.InitConfig()
					if err != nil {
						return err
					}
					snapshot, err := cfg.Snapshot()
					if err != nil {
						return err
					}
					fmt.Printf("OK: %d rules, %d chains\n", len(snapshot.Rules), len(snapshot.Chains))
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "print the configured rules or chains as JSON",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "chains", Usage: "export chains instead of rules"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.InitConfig()
					if err != nil {
						return err
					}
					_, ruleList, chainList, err := cfg.ClassifierConfig.LoadDefinitions()
					if err != nil {
						return err
					}
					if c.Bool("chains") {
						return rules.ExportChains(os.Stdout, chainList)
					}
					return rules.ExportRules(os.Stdout, ruleList)
				},
			},
			{
				Name:      "import",
				Usage:     "merge rules from a JSON file into the rules file",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("expected exactly one rules file to import")
					}
					cfg, err := config.InitConfig()
					if err != nil {
						return err
					}
					return importRules(cfg.ClassifierConfig.RulesFile, c.Args().First())
				},
			},
		},
	}
}

func importRules(rulesFile, importFile string) error {
	imported, err := rules.LoadRulesFile(importFile)
	if err != nil {
		return err
	}
	var existing []models.Rule
	if _, statErr := os.Stat(rulesFile); statErr == nil {
		if existing, err = rules.LoadRulesFile(rulesFile); err != nil {
			return err
		}
	}

	merged := rules.MergeRules(existing, imported)
	if err = rules.Validate(merged, nil); err != nil {
		return err
	}
	if err = rules.SaveRulesFile(rulesFile, merged); err != nil {
		return err
	}
	fmt.Printf("Imported %d rules into %s (%d total)\n", len(imported), rulesFile, len(merged))
	return nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the run history tables",
		Action: func(c *cli.Context) error {
			cfg, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			defer appLogger.Sync()

			if !cfg.DatabaseConfig.Enabled() {
				return errors.New("MAILSORT_POSTGRES_HOST is not set")
			}
			if _, err = openDatabase(cfg, appLogger); err != nil {
				return err
			}
			appLogger.Info("Database migration completed successfully")
			return nil
		},
	}
}


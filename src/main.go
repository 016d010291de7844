package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"resourcedb/src/auth"
	"resourcedb/src/directors"
	"resourcedb/src/engine"
	"resourcedb/src/server"
	"resourcedb/src/settings"
	"resourcedb/src/shell"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time
var Version = "0.2.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "resourcedb",
		Short: "A minimal document store of JSON resources grouped into collections",
		Long: color.CyanString(`resourcedb - a minimal document store

Resources are JSON documents stored one file each under
<datadir>/<collection>/<id>, queried by attribute and segment paths.

Without a subcommand resourcedb starts the interactive shell.`),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runShell,
	}

	settings.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the command language over TCP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:     "exec <command>",
		Short:   "Run a single command and print its result",
		Example: `  resourcedb exec "select count from Patient"`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runExec,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the storage root and the Result collection",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	})

	return rootCmd
}

// app is everything a subcommand needs once the configuration is read.
type app struct {
	args    *settings.Arguments
	logger  *zap.SugaredLogger
	service *directors.StoreService
}

func (r *app) Close() {
	if err := r.service.Close(); err != nil {
		r.logger.Warnw("Error closing journal", "error", err)
	}
	r.logger.Sync()
}

// loadArguments reads and validates the configuration for cmd.
func loadArguments(cmd *cobra.Command) (*settings.Arguments, error) {
	args, err := settings.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(args); err != nil {
		return nil, err
	}
	return args, nil
}

// buildLogger follows the debug/production split. Console output goes to
// console, plus a timestamped file when a log directory is configured.
func buildLogger(args *settings.Arguments, console string) (*zap.Logger, error) {
	var config zap.Config
	if args.Debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		if !args.Verbose {
			config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
	}

	config.OutputPaths = nil
	if args.PrintToScreen || args.LogDir == "" {
		config.OutputPaths = append(config.OutputPaths, console)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	if logFile := args.LogFilePath(timestamp); logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		config.OutputPaths = append(config.OutputPaths, logFile)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func openApp(cmd *cobra.Command, console string) (*app, error) {
	args, err := loadArguments(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := buildLogger(args, console)
	if err != nil {
		return nil, err
	}
	sugar := logger.Sugar()
	zap.ReplaceGlobals(logger)

	if args.Verbose {
		sugar.Infow("resourcedb starting",
			"datadir", args.DataDir,
			"logdir", args.LogDir,
			"journaldir", args.JournalDir,
			"results", args.NumberOfResults,
			"sort", args.SortStrategy)
	}

	var journal *engine.Journal
	if path := args.JournalFilePath(); path != "" {
		if err := os.MkdirAll(args.JournalDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		if journal, err = engine.NewJournal(path); err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	service, err := directors.Open(args, journal, sugar)
	if err != nil {
		if journal != nil {
			journal.Close()
		}
		return nil, err
	}

	return &app{args: args, logger: sugar, service: service}, nil
}

func runShell(cmd *cobra.Command, _ []string) error {
	rt, err := openApp(cmd, "stderr")
	if err != nil {
		return err
	}
	defer rt.Close()

	return shell.NewShell(rt.service, cmd.InOrStdin(), cmd.OutOrStdout(), rt.logger).Run()
}

func runExec(cmd *cobra.Command, commandArgs []string) error {
	rt, err := openApp(cmd, "stderr")
	if err != nil {
		return err
	}
	defer rt.Close()

	resp, err := rt.service.Execute(strings.Join(commandArgs, " "))
	if err != nil {
		return err
	}
	for _, row := range resp.Result {
		fmt.Fprintln(cmd.OutOrStdout(), row)
	}
	return nil
}

// loadUsers hashes the configured users into a fresh store.
func loadUsers(users map[string]string) (*auth.UserStore, error) {
	store := auth.NewUserStore(auth.DefaultHashParams)
	factory := auth.NewUserFactory()
	for username, password := range users {
		if err := store.AddUser(*factory.NewUserStruct(username, password)); err != nil {
			return nil, fmt.Errorf("failed to add user %s: %w", username, err)
		}
	}
	return store, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := openApp(cmd, "stdout")
	if err != nil {
		return err
	}
	defer rt.Close()

	var users server.Authenticator
	if rt.args.AuthEnabled {
		store, err := loadUsers(rt.args.Users)
		if err != nil {
			return err
		}
		users = store
		rt.logger.Infow("Authentication enabled", "users", len(store.ListUsers()))
	}

	srv, err := server.NewServer(rt.args.Host, rt.args.Port, rt.service, users, rt.args.AuthEnabled, rt.logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)

	<-shutdownSignal
	fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down server...")

	if err := srv.Stop(); err != nil {
		rt.logger.Warnw("Error stopping server", "error", err)
	}
	return nil
}

// runInit creates the storage root with its Result collection so that the
// other commands can open it.
func runInit(cmd *cobra.Command, _ []string) error {
	args, err := settings.Load(cmd.Flags())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(args.DataDir, engine.ResultCollection), 0755); err != nil {
		return fmt.Errorf("could not create data directory: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialised %s\n", args.DataDir)
	return nil
}

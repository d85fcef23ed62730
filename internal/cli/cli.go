// Package cli implements syncctl, the command line front end of the sync
// engine. Commands open the same ledger and provider as the daemon.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/journalsync/internal/app"
	"github.com/iudanet/journalsync/internal/backup"
	"github.com/iudanet/journalsync/internal/cli/iocli"
	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/engine"
	"github.com/iudanet/journalsync/internal/models"
)

// skipApp marks commands that run without opening the application.
const skipApp = "skip-app"

// Service is the application surface used by the commands.
type Service interface {
	RegisterFile(ctx context.Context, req engine.RegisterRequest) (*models.SyncEntry, error)
	UnregisterFile(ctx context.Context, localPath string, deleteRemote bool) error
	SyncFile(ctx context.Context, localPath string) (*engine.SyncResult, error)
	SyncAll(ctx context.Context, dataTypes ...string) (*engine.BatchResult, error)
	GetSyncStatus(ctx context.Context, localPath string) (*engine.StatusReport, error)
	GetSyncLogs(ctx context.Context, limit, offset int) ([]*models.SyncLogRecord, error)
	ResolveConflict(ctx context.Context, localPath string, resolution models.Resolution) (*models.SyncEntry, error)
	GetConfig(ctx context.Context) (config.EngineConfig, error)
	UpdateConfig(ctx context.Context, values map[string]string) (config.EngineConfig, error)
	GetDataTypes(ctx context.Context) ([]*models.DataTypeConfig, error)
	UpdateDataType(ctx context.Context, name string, upd engine.DataTypeUpdate) (*models.DataTypeConfig, error)
	CreateBackup(ctx context.Context) (*models.BackupRecord, error)
	ListBackups(ctx context.Context, limit, offset int) ([]*models.BackupRecord, error)
	RestoreBackup(ctx context.Context, archivePath, targetFolder string) (*backup.RestoreResult, error)
	CleanupOldBackups(ctx context.Context) (*backup.CleanupResult, error)
	Unlock(ctx context.Context, passphrase string) error
	NeedsKey() bool
	Close() error
}

// Opener opens the application for a command.
type Opener func(ctx context.Context, s *config.Settings, logger *slog.Logger) (Service, error)

// OpenApp is the Opener used by syncctl.
func OpenApp(ctx context.Context, s *config.Settings, logger *slog.Logger) (Service, error) {
	a, err := app.Open(ctx, s, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// VersionInfo is set at build time.
type VersionInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Cli holds the state shared by all commands of one invocation.
type Cli struct {
	io      iocli.IO
	open    Opener
	svc     Service
	version VersionInfo

	passphraseFile string
	jsonOutput     bool
	verbose        bool
}

// New creates the CLI.
func New(io iocli.IO, open Opener, version VersionInfo) *Cli {
	return &Cli{
		io:      io,
		open:    open,
		version: version,
	}
}

// Execute runs the command line args and releases the application.
func (c *Cli) Execute(ctx context.Context, args []string) error {
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(c.io)
	root.SetErr(c.io)

	err := root.ExecuteContext(ctx)
	if c.svc != nil {
		if closeErr := c.svc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		c.svc = nil
	}
	return err
}

func (c *Cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "syncctl",
		Short: "Manage file synchronization and backups of the trading journal",
		Long: `syncctl registers journal files for synchronization with a remote
storage provider, runs syncs, resolves conflicts and manages backups.

Settings are read from JOURNALSYNC_* environment variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.openApp,
	}

	root.PersistentFlags().StringVar(&c.passphraseFile, "passphrase-file", "",
		"file containing the backup passphrase (JOURNALSYNC_BACKUP_PASSPHRASE takes precedence)")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "print JSON instead of text")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log informational messages")

	root.AddGroup(
		&cobra.Group{ID: "files", Title: "File Commands:"},
		&cobra.Group{ID: "backup", Title: "Backup Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	root.SetHelpCommandGroupID("system")
	root.SetCompletionCommandGroupID("system")

	root.AddCommand(
		c.registerCommand(),
		c.unregisterCommand(),
		c.syncCommand(),
		c.statusCommand(),
		c.logsCommand(),
		c.resolveCommand(),
		c.configCommand(),
		c.dataTypesCommand(),
		c.backupCommand(),
		c.versionCommand(),
	)
	return root
}

func (c *Cli) openApp(cmd *cobra.Command, _ []string) error {
	for p := cmd; p != nil; p = p.Parent() {
		if p.Annotations[skipApp] == "true" || p.Name() == "help" || p.Name() == "completion" {
			return nil
		}
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if !c.verbose {
		settings.LogLevel = max(settings.LogLevel, slog.LevelWarn)
	}
	logger := config.SetupLogger(settings)

	svc, err := c.open(cmd.Context(), settings, logger)
	if err != nil {
		return err
	}
	c.svc = svc
	return nil
}

// ensureKey unlocks the backup key when encryption needs one.
func (c *Cli) ensureKey(ctx context.Context) error {
	if !c.svc.NeedsKey() {
		return nil
	}
	return c.unlock(ctx)
}

// unlock reads the passphrase from --passphrase-file or an interactive
// prompt. The environment variable is applied when the application opens.
func (c *Cli) unlock(ctx context.Context) error {
	passphrase, err := c.readPassphrase()
	if err != nil {
		return fmt.Errorf("failed to get backup passphrase: %w", err)
	}
	return c.svc.Unlock(ctx, passphrase)
}

func (c *Cli) readPassphrase() (string, error) {
	if c.passphraseFile != "" {
		content, err := os.ReadFile(c.passphraseFile)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase file: %w", err)
		}
		passphrase := strings.TrimRight(string(content), "\r\n")
		if passphrase == "" {
			return "", fmt.Errorf("passphrase file is empty")
		}
		return passphrase, nil
	}

	passphrase, err := c.io.ReadPassword("Backup passphrase: ")
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", fmt.Errorf("passphrase cannot be empty")
	}
	return passphrase, nil
}

// output prints v as JSON with --json, otherwise calls text.
func (c *Cli) output(v any, text func()) error {
	if !c.jsonOutput {
		text()
		return nil
	}
	enc := json.NewEncoder(c.io)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *Cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		GroupID:     "system",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.output(c.version, func() {
				c.io.Println("syncctl")
				c.io.Printf("Version:    %s\n", c.version.Version)
				c.io.Printf("Build Date: %s\n", c.version.BuildDate)
				c.io.Printf("Git Commit: %s\n", c.version.GitCommit)
			})
		},
	}
}

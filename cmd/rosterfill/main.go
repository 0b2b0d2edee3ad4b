package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/rosterfill/internal/cli"
	"github.com/julianstephens/rosterfill/internal/cli/backups"
	"github.com/julianstephens/rosterfill/internal/cli/runs"
	"github.com/julianstephens/rosterfill/internal/cli/system"
	"github.com/julianstephens/rosterfill/internal/config"
	"github.com/julianstephens/rosterfill/internal/constants"
	"github.com/julianstephens/rosterfill/internal/errors"
	"github.com/julianstephens/rosterfill/internal/keyring"
	"github.com/julianstephens/rosterfill/internal/logger"
	"github.com/julianstephens/rosterfill/internal/pipeline"
)

var CLI struct {
	Version  kong.VersionFlag
	DB       string `name:"db" help:"SQLite file path or PostgreSQL connection string. For PostgreSQL, keep passwords out of the flag: use ${env}, .pgpass, or the OS keyring." default:"${default_db}"`
	Settings string `help:"Pipeline settings file (YAML). Defaults to settings.yaml next to the database."`
	Debug    bool   `help:"Log debug output to stderr."`
	Verbose  bool   `help:"Keep run summaries in the log file."`

	Init     system.InitCmd    `cmd:"" help:"Initialize rosterfill storage."`
	Migrate  system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Seed     system.SeedCmd    `cmd:"" help:"Load a roster fixture into the database."`
	Run      runs.RunCmd       `cmd:"" help:"Autofill a roster: load, solve, validate, write and report."`
	Validate runs.ValidateCmd  `cmd:"" help:"Check the chains currently stored for a roster."`
	Report   runs.ReportCmd    `cmd:"" help:"Report coverage for a roster as stored."`
	Runs     struct {
		List runs.ListCmd `cmd:"" help:"List recorded autofill runs." default:"1"`
	} `cmd:"" help:"Inspect autofill run history."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the database connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Report whether the OS keyring is usable."`
	} `cmd:"" help:"Manage the database connection string in the OS keyring."`
}

// commands that open or bypass the database themselves.
var noPreload = map[string]bool{
	"init":    true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Staff roster autofill: assigns open requirements to available employees."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":    constants.Version,
			"default_db": constants.DefaultConfigPath,
			"env":        constants.EnvDBConnection,
		},
	)

	connStr, src := keyring.Resolve(CLI.DB, constants.DefaultConfigPath, os.Getenv(constants.EnvDBConnection))
	if !keyring.IsPostgres(connStr) {
		connStr = expandHome(connStr)
	}
	configDir := configDirFor(connStr)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, Verbose: CLI.Verbose, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("resolved database connection", "source", src, "db", keyring.MaskPassword(connStr))

	store, err := cli.NewStore(connStr, src)
	if err != nil {
		errors.Fatal(err)
	}

	settingsPath := CLI.Settings
	if settingsPath == "" {
		settingsPath = config.DefaultPath(configDir)
	} else {
		settingsPath = expandHome(settingsPath)
	}

	base, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Store:        store,
		Source:       src,
		SettingsPath: settingsPath,
		Gate:         pipeline.NewGate(),
		Base:         base,
	}

	if !noPreload[topCommand(kctx)] {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}
	defer store.Close()

	if err := kctx.Run(appCtx); err != nil {
		store.Close()
		stop()
		errors.Fatal(err)
	}
}

func topCommand(kctx *kong.Context) string {
	fields := strings.Fields(kctx.Command())
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// configDirFor is the directory holding logs and settings: beside the
// SQLite file, or the default config directory for PostgreSQL.
func configDirFor(connStr string) string {
	if keyring.IsPostgres(connStr) {
		return filepath.Dir(expandHome(constants.DefaultConfigPath))
	}
	return filepath.Dir(connStr)
}

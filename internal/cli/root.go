package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/rosterfill/internal/backup"
	"github.com/julianstephens/rosterfill/internal/config"
	"github.com/julianstephens/rosterfill/internal/keyring"
	"github.com/julianstephens/rosterfill/internal/logger"
	"github.com/julianstephens/rosterfill/internal/pipeline"
	"github.com/julianstephens/rosterfill/internal/storage"
	"github.com/julianstephens/rosterfill/internal/storage/postgres"
	"github.com/julianstephens/rosterfill/internal/storage/sqlite"
)

// Context is handed to every command's Run method.
type Context struct {
	Store storage.Provider
	// Source records where the connection string came from.
	Source       keyring.Source
	SettingsPath string
	Gate         *pipeline.Gate

	// Base is cancelled on SIGINT/SIGTERM.
	Base context.Context
	Out  io.Writer
	In   io.Reader
	Now  func() time.Time
}

// NewStore picks the back-end for connStr. Passwords embedded in a
// connection string given on the command line are refused; the keyring
// and the environment are the places for credentials.
func NewStore(connStr string, src keyring.Source) (storage.Provider, error) {
	if !keyring.IsPostgres(connStr) {
		return sqlite.NewStore(connStr), nil
	}
	if _, err := postgres.ValidateConnString(connStr); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) || src == keyring.SourceFlag {
			return nil, err
		}
	}
	return postgres.New(connStr), nil
}

func (c *Context) Context() context.Context {
	if c.Base == nil {
		return context.Background()
	}
	return c.Base
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Stdin() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

// Clock returns the injected clock or time.Now.
func (c *Context) Clock() func() time.Time {
	if c.Now == nil {
		return time.Now
	}
	return c.Now
}

// SQLitePath returns the database file, or "" for PostgreSQL.
func (c *Context) SQLitePath() string {
	if s, ok := c.Store.(*sqlite.Store); ok {
		return s.GetConfigPath()
	}
	return ""
}

// Settings loads the pipeline settings file; a missing file yields defaults.
func (c *Context) Settings() (config.Settings, error) {
	if c.SettingsPath == "" {
		return config.Default(), nil
	}
	return config.Load(c.SettingsPath)
}

// Deps assembles pipeline dependencies for rosterID. SQLite databases are
// backed up before the write phase unless the settings turn that off.
func (c *Context) Deps(settings config.Settings, rosterID string) pipeline.Deps {
	deps := pipeline.Deps{
		Store:    c.Store,
		Now:      c.Clock(),
		Settings: settings,
	}
	if path := c.SQLitePath(); path != "" && settings.BackupBeforeWrite {
		deps.BeforeWrite = backup.NewManager(path).WithClock(c.Clock()).BeforeWrite(rosterID)
	}
	return deps
}

// RunPipeline runs one pass through the context's gate.
func (c *Context) RunPipeline(ctx context.Context, rosterID string, opts pipeline.Options) (pipeline.Result, error) {
	settings, err := c.Settings()
	if err != nil {
		return pipeline.Result{}, err
	}
	if c.Gate == nil {
		c.Gate = pipeline.NewGate()
	}
	res, shared := c.Gate.Run(ctx, c.Deps(settings, rosterID), rosterID, opts)
	if shared {
		logger.Info("joined in-flight run", "roster", rosterID, "run_id", res.RunID)
	}
	return res, nil
}

// WriteJSON writes v as indented JSON to path, or to Stdout when path is "-".
func (c *Context) WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = c.Stdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ctoth/mixkit/internal/config"
	"github.com/ctoth/mixkit/internal/fs"
	"github.com/ctoth/mixkit/internal/soundpack"
	"github.com/ctoth/mixkit/internal/tracking"
	"github.com/ctoth/mixkit/mixer"
)

const Version = "0.4.0"

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	fsys             afero.Fs
	fsFactory        fs.Factory
	configManager    *config.ConfigManager
	cfg              *config.Config
	terminalDetector TerminalDetector
	trackingDB       *sql.DB           // Optional tracking database
	journal          *tracking.Journal // Set when tracking is enabled
	backend          *mixer.Backend
	resolver         *soundpack.Resolver
}

// soundExtensions are tried, in order, for sound names given without one
var soundExtensions = []string{".wav", ".ogg", ".flac", ".mp3", ".aiff", ".mid"}

type cliContextKey struct{}

// NewCLI creates a new CLI instance operating on the OS filesystem
func NewCLI() *CLI {
	factory := fs.NewDefaultFactory()
	return newCLI(factory, factory.Production())
}

// NewCLIWithFilesystem creates a CLI that reads configuration and audio
// files through fsys
func NewCLIWithFilesystem(fsys afero.Fs) *CLI {
	return newCLI(fs.NewDefaultFactory(), fsys)
}

func newCLI(factory fs.Factory, fsys afero.Fs) *CLI {
	slog.Debug("creating new CLI instance")

	c := &CLI{
		fsys:      fsys,
		fsFactory: factory,
	}

	rootCmd := &cobra.Command{
		Use:           "mixkit",
		Short:         "Multi-channel audio mixer",
		Long:          "mixkit loads sound effects and music tracks and mixes them onto a shared audio device.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.prepare(cmd)
		},
	}
	rootCmd.SetVersionTemplate("mixkit version {{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("driver", "", "Output driver (auto, malgo, oto, null)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("soundfont", "", "SoundFont used to render MIDI")

	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newPlayCommand())
	rootCmd.AddCommand(newMusicCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newConfigCommand())

	c.rootCmd = rootCmd
	return c
}

// contextWithCLI stores CLI instance in context for command handlers
func contextWithCLI(ctx context.Context, cli *CLI) context.Context {
	return context.WithValue(ctx, cliContextKey{}, cli)
}

// cliFromContext extracts CLI instance from context
func cliFromContext(ctx context.Context) *CLI {
	if cli, ok := ctx.Value(cliContextKey{}).(*CLI); ok {
		return cli
	}
	return nil
}

// prepare loads configuration and sets up logging and tracking before any
// subcommand runs
func (c *CLI) prepare(cmd *cobra.Command) error {
	if c.configManager == nil {
		c.configManager = config.NewConfigManagerWithFilesystem(c.fsys)
	}

	cfg, err := loadAndValidateConfig(cmd, c)
	if err != nil {
		return err
	}
	c.cfg = cfg

	setupLogging(c.configManager, cfg, cmd.ErrOrStderr())
	c.initializeTracking(cfg)
	return nil
}

// loadAndValidateConfig loads configuration from flags and files, applies overrides, and validates
func loadAndValidateConfig(cmd *cobra.Command, cli *CLI) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	driverFlag, _ := cmd.Flags().GetString("driver")
	logLevelFlag, _ := cmd.Flags().GetString("log-level")
	soundFontFlag, _ := cmd.Flags().GetString("soundfont")

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = cli.configManager.LoadFromFile(configFile)
	} else {
		cfg, err = cli.configManager.LoadConfig()
	}
	if err != nil {
		slog.Error("config load failed", "file", configFile, "error", err)
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	cfg = cli.configManager.ApplyEnvironmentOverrides(cfg)

	if driverFlag != "" {
		cfg.Driver = driverFlag
		slog.Debug("driver override applied", "value", driverFlag)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
		slog.Debug("log level override applied", "value", logLevelFlag)
	}
	if soundFontFlag != "" {
		cfg.SoundFont = soundFontFlag
		slog.Debug("soundfont override applied", "value", soundFontFlag)
	}

	if err := cli.configManager.ValidateConfig(cfg); err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Run executes the CLI with the given arguments and I/O streams
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	defer c.shutdown()

	c.rootCmd.SetArgs(args[1:]) // Skip program name
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	if err := c.rootCmd.ExecuteContext(contextWithCLI(context.Background(), c)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		slog.Debug("command failed", "error", err)
		return 1
	}

	return 0
}

// shutdown releases the audio backend and the tracking database
func (c *CLI) shutdown() {
	if c.backend != nil {
		if err := c.backend.Close(); err != nil {
			slog.Error("error closing audio backend", "error", err)
		}
		c.backend = nil
	}
	if c.trackingDB != nil {
		if err := c.trackingDB.Close(); err != nil {
			slog.Error("error closing tracking database", "error", err)
		}
		c.trackingDB = nil
	}
}

// openMixer brings up the audio backend and returns a mixer that reports
// every operation to the log and, when enabled, the playback journal
func (c *CLI) openMixer() (*mixer.Mixer, error) {
	if c.backend == nil {
		backendCfg := c.configManager.ToBackendConfig(c.cfg)
		backendCfg.Fs = c.fsFactory.ReadOnly(c.fsys)
		c.backend = mixer.NewBackend(backendCfg)
	}

	opts := []mixer.Option{mixer.WithObserver(tracking.NewSlogObserver(slog.Default()))}
	if c.journal != nil {
		opts = append(opts, mixer.WithObserver(c.journal))
	}

	return c.backend.NewMixer(opts...)
}

// resolveSound maps a command line argument to a file through the
// configured sound names and search path. Unresolved names are returned
// unchanged so loading reports the missing file.
func (c *CLI) resolveSound(name string) (string, error) {
	if c.resolver == nil {
		c.resolver = soundpack.NewResolver(c.fsys,
			soundpack.NewJSONMapper("config", c.cfg.Sounds),
			soundpack.NewDirectoryMapper("sound path", c.configManager.SoundSearchPaths(c.cfg), soundExtensions...),
		)
	}

	path, err := c.resolver.Resolve(name)
	if soundpack.IsFileNotFoundError(err) {
		slog.Debug("sound name not resolved, loading as given", "name", name, "error", err)
		return name, nil
	}
	return path, err
}

// setupLogging configures slog. Stderr receives records at the configured
// level; the rotating log file, when enabled, receives everything.
func setupLogging(cm *config.ConfigManager, cfg *config.Config, stderrWriter io.Writer) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderrWriter, &slog.HandlerOptions{Level: level}),
	}

	if cfg.FileLogging != nil && cfg.FileLogging.Enabled {
		logFilePath := cm.ResolveLogFilePath(cfg.FileLogging.Filename)

		logDir := filepath.Dir(logFilePath)
		if err := cm.Filesystem().MkdirAll(logDir, 0755); err != nil {
			slog.Error("failed to create log directory", "path", logDir, "error", err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   logFilePath,
				MaxSize:    cfg.FileLogging.MaxSizeMB,
				MaxBackups: cfg.FileLogging.MaxBackups,
				MaxAge:     cfg.FileLogging.MaxAgeDays,
				Compress:   cfg.FileLogging.Compress,
			}
			handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}))
		}
	}

	slog.SetDefault(slog.New(NewMultiLevelHandler(handlers...)))

	slog.Debug("logging setup completed",
		"level", level.String(),
		"handlers", len(handlers),
		"file_enabled", cfg.FileLogging != nil && cfg.FileLogging.Enabled)
}

// initializeTracking opens the playback journal if enabled in configuration.
// Failures leave tracking off.
func (c *CLI) initializeTracking(cfg *config.Config) {
	if c.trackingDB != nil {
		return
	}

	if cfg.Tracking == nil || !cfg.Tracking.Enabled {
		slog.Debug("playback tracking disabled")
		return
	}

	dbPath := c.configManager.ResolveDatabasePath(cfg.Tracking)
	db, err := tracking.NewDatabase(dbPath)
	if err != nil {
		slog.Error("failed to initialize tracking database, continuing without tracking",
			"path", dbPath, "error", err)
		return
	}

	c.trackingDB = db
	c.journal = tracking.NewJournal(db, tracking.NewRunID())
	slog.Debug("tracking database initialized", "path", dbPath, "run_id", c.journal.RunID())
}

package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/wmtb/internal/clients/ledger"
	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/interfaces"
	"github.com/bobmcallan/wmtb/internal/services/conversation"
	ledgersvc "github.com/bobmcallan/wmtb/internal/services/ledger"
	"github.com/bobmcallan/wmtb/internal/services/parser"
	"github.com/bobmcallan/wmtb/internal/services/rules"
	"github.com/bobmcallan/wmtb/internal/services/session"
	"github.com/bobmcallan/wmtb/internal/storage/sqlite"
)

// App holds the initialized reference Ledger Service. It is the shared core
// used by cmd/wmtb-server and the server tests.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Store         interfaces.TransactionStore
	LedgerService interfaces.LedgerService
	StartupTime   time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, WMTB_CONFIG,
// wmtb.toml next to the binary, then config/wmtb.toml for development.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("WMTB_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "wmtb.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/wmtb.toml"
		}
	}
	return configPath
}

// LoadConfig loads version info and configuration for either binary.
func LoadConfig(configPath string) (*common.Config, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config, nil
}

// NewApp loads configuration and opens the reference Ledger Service.
// configPath may be empty, in which case ResolveConfigPath applies.
func NewApp(configPath string) (*App, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) && config.IsProduction() {
		config.Storage.Path = filepath.Join(getBinaryDir(), config.Storage.Path)
	}

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig opens storage and builds services from an existing config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	store, err := sqlite.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:        config,
		Logger:        logger,
		Store:         store,
		LedgerService: ledgersvc.NewService(store, parser.New(), logger),
		StartupTime:   startupStart,
	}

	logger.Info().
		Str("storage", config.Storage.Path).
		Dur("elapsed", time.Since(startupStart)).
		Msg("Ledger Service initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}

// Client bundles what the terminal client needs: a session controller
// bound to the configured user and the local rules.
type Client struct {
	Config  *common.Config
	Logger  *common.Logger
	Session *session.Controller
	Rules   *rules.Service
}

// NewClient wires a Ledger Service client into a session controller.
func NewClient(config *common.Config, logger *common.Logger) *Client {
	ledgerClient := ledger.NewClientFromConfig(config.Ledger, logger)

	format := conversation.Format{
		Currency: config.Display.Currency,
		Location: config.Display.Location(),
	}

	return &Client{
		Config: config,
		Logger: logger,
		Session: session.New(ledgerClient, config.Ledger.UserID,
			session.WithFormat(format),
			session.WithLogger(logger),
		),
		Rules: rules.NewService(logger),
	}
}

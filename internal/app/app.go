package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/account"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/funding"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/investment"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/notify"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/plan"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/report"
	"github.com/Giftedmindbenjamin/surbminer/internal/services/sweep"
	"github.com/Giftedmindbenjamin/surbminer/internal/storage"
)

// App holds the storage backend and every ledger service.
// It is the shared core used by cmd/surbminer-server and cmd/surbminer-sweep.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Storage           interfaces.StorageManager
	Notifier          *notify.Dispatcher
	PlanService       interfaces.PlanService
	InvestmentService interfaces.InvestmentService
	FundingService    interfaces.FundingService
	AccountService    interfaces.AccountService
	ReportService     interfaces.ReportService
	SweepService      interfaces.SweepService
	StartupTime       time.Time

	schedulerCancel context.CancelFunc
	schedulerDone   chan struct{}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, SURBMINER_CONFIG,
// surbminer.toml next to the binary, then config/surbminer.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("SURBMINER_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "surbminer.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/surbminer.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes storage and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative SQLite path to binary directory
	if config.Storage.SQLitePath != "" && !filepath.IsAbs(config.Storage.SQLitePath) {
		config.Storage.SQLitePath = filepath.Join(getBinaryDir(), config.Storage.SQLitePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	if config.IsProduction() {
		if missing := config.ValidateRequired(); len(missing) > 0 {
			return nil, fmt.Errorf("refusing to start in production, settings need attention: %v", missing)
		}
	}

	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig builds the App from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	notifier := notify.NewFromConfig(config.Notify, logger)

	planService := plan.NewService(storageManager, logger)
	investmentService := investment.NewService(storageManager, planService, logger)
	fundingService := funding.NewService(storageManager, config.Funding.Wallets, notifier, logger)
	accountService := account.NewService(storageManager, logger)
	reportService := report.NewService(storageManager, logger)
	sweepService := sweep.NewService(investmentService, accountService, notifier, logger)

	a := &App{
		Config:            config,
		Logger:            logger,
		Storage:           storageManager,
		Notifier:          notifier,
		PlanService:       planService,
		InvestmentService: investmentService,
		FundingService:    fundingService,
		AccountService:    accountService,
		ReportService:     reportService,
		SweepService:      sweepService,
		StartupTime:       startupStart,
	}

	if err := a.seedPlans(context.Background()); err != nil {
		a.Close()
		return nil, err
	}

	if config.Auth.Breakglass && !config.Auth.Disabled {
		issueBreakglassToken(config, logger)
	}

	logger.Info().
		Str("backend", storageManager.Backend()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// seedPlans loads [[plans]] from the config, or the built-in catalog when
// none are configured.
func (a *App) seedPlans(ctx context.Context) error {
	var plans []*models.Plan
	if len(a.Config.Plans) > 0 {
		var err error
		plans, err = plan.PlansFromConfig(a.Config.Plans)
		if err != nil {
			return fmt.Errorf("invalid plan configuration: %w", err)
		}
	} else {
		plans = plan.DefaultPlans()
	}

	if _, err := a.PlanService.Seed(ctx, plans); err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}
	return nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close storage.
func (a *App) Close() {
	a.StopSweepScheduler()
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}

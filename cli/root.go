// Package cli provides the command-line interface and HTTP server
// lifecycle for the sprint intelligence service. It orchestrates
// configuration loading, dependency wiring (tracker client, repositories,
// sync engine, webhook pipeline, analytics bridge, RBAC gate), and
// graceful startup/shutdown of the HTTP server and background workers.
package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scullers68/sprintintel/api"
	"github.com/scullers68/sprintintel/audit"
	"github.com/scullers68/sprintintel/bridge"
	"github.com/scullers68/sprintintel/config"
	"github.com/scullers68/sprintintel/fieldmap"
	"github.com/scullers68/sprintintel/portfolio"
	"github.com/scullers68/sprintintel/rbac"
	"github.com/scullers68/sprintintel/repository"
	"github.com/scullers68/sprintintel/security"
	"github.com/scullers68/sprintintel/sync"
	"github.com/scullers68/sprintintel/trackerclient"
	"github.com/scullers68/sprintintel/webhook"
)

// cfgFile holds the path to the configuration file specified via
// command-line flag.
var cfgFile string

// RootCmd is the sprintd entry point.
var RootCmd = &cobra.Command{
	Use:   "sprintd",
	Short: "sprint intelligence tracker-sync and analytics service",
	Long: `sprintd synchronizes sprint and issue data from an external issue
tracker, ingests its webhook events, and serves velocity/forecast/burndown
analytics and portfolio health roll-ups across multiple projects sharing a
meta-board.`,
	Run: runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "run schema migrations and exit",
	Run: func(cmd *cobra.Command, args []string) {
		d, err := wire()
		if err != nil {
			log.Fatalf("failed to initialize service: %v", err)
		}
		fmt.Println("migrations applied")
		_ = d
	},
}

var syncOnceCmd = &cobra.Command{
	Use:   "sync-once [boardID]",
	Short: "run a single full sync of a board and exit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d, err := wire()
		if err != nil {
			log.Fatalf("failed to initialize service: %v", err)
		}
		var boardID int64
		if _, err := fmt.Sscanf(args[0], "%d", &boardID); err != nil {
			log.Fatalf("invalid boardID %q: %v", args[0], err)
		}
		sprints, history, err := d.syncEngine.SyncSprintsBidirectional(context.Background(), boardID, false, "")
		if err != nil {
			log.Fatalf("sync failed: %v", err)
		}
		fmt.Printf("synced %d sprint(s), batch %s, status %s\n", len(sprints), history.BatchID, history.Status)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.sprintintel.yaml)")
	RootCmd.PersistentFlags().String("port", "", "HTTP server port")
	RootCmd.PersistentFlags().String("database-dsn", "", "PostgreSQL connection string")
	RootCmd.PersistentFlags().String("tracker-base-url", "", "issue tracker base URL")
	RootCmd.PersistentFlags().String("tracker-token", "", "issue tracker API token")
	RootCmd.PersistentFlags().String("redis-url", "", "Redis connection URL for the webhook queue")
	RootCmd.PersistentFlags().String("webhook-secret", "", "shared secret for webhook signature validation")

	viper.BindPFlag("port", RootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("database_dsn", RootCmd.PersistentFlags().Lookup("database-dsn"))
	viper.BindPFlag("tracker.base_url", RootCmd.PersistentFlags().Lookup("tracker-base-url"))
	viper.BindPFlag("tracker.token", RootCmd.PersistentFlags().Lookup("tracker-token"))
	viper.BindPFlag("webhook.redis_url", RootCmd.PersistentFlags().Lookup("redis-url"))
	viper.BindPFlag("webhook.secret", RootCmd.PersistentFlags().Lookup("webhook-secret"))

	RootCmd.AddCommand(migrateCmd, syncOnceCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sprintintel")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// deps bundles every wired dependency the server and one-shot commands
// share.
type deps struct {
	cfg         config.SprintIntelConfig
	db          *repository.DB
	logger      *logrus.Logger
	tracker     *trackerclient.Client
	syncEngine  *sync.Engine
	resolver    *sync.ConflictResolver
	mapper      *fieldmap.Mapper
	ingestor    *webhook.Ingestor
	pool        *webhook.Pool
	aggregator  *portfolio.Aggregator
	issueBridge *bridge.IssueProvider
	auditLog    *audit.Log
	authGate    echo.MiddlewareFunc
	rbacGate    echo.MiddlewareFunc
}

func wire() (*deps, error) {
	cfg := config.LoadSprintIntelConfig("SPRINTINTEL")
	if override := viper.GetString("database_dsn"); override != "" {
		cfg.Database = override
	}
	if override := viper.GetString("tracker.base_url"); override != "" {
		cfg.Tracker.BaseURL = override
	}
	if override := viper.GetString("tracker.token"); override != "" {
		cfg.Tracker.Token = override
	}
	if override := viper.GetString("webhook.redis_url"); override != "" {
		cfg.Webhook.RedisURL = override
	}
	if override := viper.GetString("webhook.secret"); override != "" {
		cfg.Webhook.Secret = override
	}
	if override := viper.GetString("port"); override != "" {
		fmt.Sscanf(override, "%d", &cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.StandardLogger()
	switch cfg.Service.LogFormat {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Service.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	db, err := repository.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		return nil, err
	}

	tracker := trackerclient.New(trackerclient.Config{
		BaseURL:         cfg.Tracker.BaseURL,
		AuthMethod:      trackerclient.AuthMethod(cfg.Tracker.AuthMethod),
		Email:           cfg.Tracker.Email,
		Username:        cfg.Tracker.Username,
		Password:        cfg.Tracker.Password,
		Token:           cfg.Tracker.Token,
		RateLimitN:      cfg.RateLimit.RequestsPerWindow,
		RateLimitWindow: cfg.RateLimit.Window,
		MaxRetries:      cfg.Tracker.MaxRetries,
		RetryBaseDelay:  cfg.Tracker.RetryDelay,
		Timeout:         cfg.Tracker.Timeout,
		Logger:          logger,
	})

	auditRepo := repository.NewAuditRepository(db)
	auditLog := audit.New(auditRepo)

	syncRepo := repository.NewSyncRepository(db)
	syncEngine := sync.New(syncRepo, tracker, logger)
	resolver := sync.NewConflictResolver(syncRepo)

	fieldMapRepo := repository.NewFieldMapRepository(db)
	mapper := fieldmap.New(fieldMapRepo)

	cacheRepo := repository.NewCacheRepository(db)
	dispatcher := bridge.NewWebhookDispatcher(syncEngine, cacheRepo, auditLog)

	webhookRepo := repository.NewWebhookRepository(db)
	queue, err := webhook.NewQueue(context.Background(), webhook.QueueConfig{
		RedisURL:  cfg.Webhook.RedisURL,
		KeyPrefix: cfg.Webhook.KeyPrefix,
		QueueName: cfg.Webhook.QueueName,
	})
	if err != nil {
		return nil, err
	}
	ingestor := webhook.NewIngestor(webhook.IngestorConfig{
		Store:    webhookRepo,
		Queue:    queue,
		AuditLog: auditLog,
		Secret:   cfg.Webhook.Secret,
		Logger:   logger,
	})
	pool := webhook.NewPool(webhookRepo, queue, dispatcher, webhook.PoolConfig{Size: cfg.Webhook.WorkerCount}, logger)

	portfolioRepo := repository.NewPortfolioRepository(db)
	issueBridge := bridge.New(portfolioRepo.SprintRepository, tracker, mapper, 0)
	aggregator := portfolio.New(portfolioRepo, issueBridge)

	permissionMap := rbac.NewPermissionMap(defaultPermissionRules())
	rbacGate := rbac.Gate(permissionMap, auditLog)

	jwtSvc := security.NewJWTService(cfg.Auth.JWTSecret)
	rolesRepo := repository.NewRBACRepository(db)
	authGate := api.JWTAuthMiddleware(jwtSvc, rolesRepo)

	return &deps{
		cfg:         cfg,
		db:          db,
		logger:      logger,
		tracker:     tracker,
		syncEngine:  syncEngine,
		resolver:    resolver,
		mapper:      mapper,
		ingestor:    ingestor,
		pool:        pool,
		aggregator:  aggregator,
		issueBridge: issueBridge,
		auditLog:    auditLog,
		authGate:    authGate,
		rbacGate:    rbacGate,
	}, nil
}

// defaultPermissionRules is the built-in path/method permission map
// (section 4.10); deployments needing a different surface can swap this
// for a database-backed rule source without touching the gate itself.
func defaultPermissionRules() []rbac.Rule {
	return []rbac.Rule{
		{PathPattern: "/api/sync/*", Method: http.MethodPost, Permission: "sync:write"},
		{PathPattern: "/api/conflicts/*", Method: http.MethodPost, Permission: "sync:write"},
		{PathPattern: "/api/portfolio/*", Method: http.MethodGet, Permission: "portfolio:read"},
		{PathPattern: "/api/analytics/*", Method: http.MethodGet, Permission: "analytics:read"},
	}
}

func runServe(cmd *cobra.Command, args []string) {
	d, err := wire()
	if err != nil {
		log.Fatalf("failed to initialize service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.pool.Start(ctx)
	go runPeriodicTasks(ctx, d)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.RegisterRoutes(e, api.Handlers{
		SyncEngine: d.syncEngine,
		Resolver:   d.resolver,
		Ingestor:   d.ingestor,
		Mapper:     d.mapper,
		Aggregator: d.aggregator,
		Analytics:  d.issueBridge,
		AuditLog:   d.auditLog,
		Tracker:    d.tracker,
	}, d.authGate, d.rbacGate)

	go func() {
		addr := fmt.Sprintf(":%d", d.cfg.Server.Port)
		d.logger.WithField("addr", addr).Info("starting sprintd HTTP server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	d.logger.Info("shutting down sprintd")
	d.pool.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}

// runPeriodicTasks runs the webhook worker's periodic maintenance (section
// 4.6) on fixed intervals until ctx is cancelled.
func runPeriodicTasks(ctx context.Context, d *deps) {
	retryTicker := time.NewTicker(10 * time.Minute)
	cleanupTicker := time.NewTicker(24 * time.Hour)
	defer retryTicker.Stop()
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-retryTicker.C:
			if n, err := d.pool.RetryFailed(ctx); err != nil {
				d.logger.WithError(err).Warn("retry-failed sweep failed")
			} else if n > 0 {
				d.logger.WithField("count", n).Info("re-enqueued failed webhook events")
			}
		case <-cleanupTicker.C:
			if n, err := d.pool.Cleanup(ctx); err != nil {
				d.logger.WithError(err).Warn("webhook event cleanup failed")
			} else if n > 0 {
				d.logger.WithField("count", n).Info("deleted terminal webhook events past retention")
			}
		}
	}
}

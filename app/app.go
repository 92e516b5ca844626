package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"domatrend/api"
	"domatrend/cache"
	"domatrend/config"
	"domatrend/database"
	"domatrend/database/domains"
	"domatrend/database/events"
	"domatrend/database/insights"
	"domatrend/database/scores"
	"domatrend/database/usage"
	"domatrend/doma"
	"domatrend/llm"
	"domatrend/realtime"
	"domatrend/scorer"
	"domatrend/trends"
)

// App represents the main application
type App struct {
	config *config.Config
	db     *database.Database
	redis  *cache.RedisClient

	eventRepo   *events.Repository
	domainRepo  *domains.Repository
	scoreRepo   *scores.Repository
	insightRepo *insights.Repository
	usageRepo   *usage.Repository

	registry  *doma.Client
	provider  *trends.Provider
	scorer    *scorer.Scorer
	broker    *realtime.Broker
	poller    *Poller
	refresher *StaleRefresher
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
	}
}

// Start starts the application
func (a *App) Start() error {
	// 1. Database Connection
	fmt.Println("🗄️  Connecting to database...")

	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}

	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	if err := a.db.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	a.eventRepo = events.NewRepository(a.db.DB())
	a.domainRepo = domains.NewRepository(a.db.DB())
	a.scoreRepo = scores.NewRepository(a.db.DB())
	a.insightRepo = insights.NewRepository(a.db.DB())
	a.usageRepo = usage.NewRepository(a.db.DB())

	// 2. Redis Connection
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)

	var metricsCache trends.Cache
	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Falling back to in-memory metrics cache.")
		metricsCache = cache.NewMemoryMetricsCache()
	} else {
		a.redis = redisClient
		metricsCache = cache.NewSearchCache(redisClient)
	}

	// 3. Registry client and search-trend provider
	a.registry = doma.NewClient(
		a.config.Doma.BaseURL,
		a.config.Doma.APIKey,
		time.Duration(a.config.Doma.RequestTimeoutMs)*time.Millisecond,
	)
	a.provider = trends.NewProvider(a.config.SerpAPI, a.config.Scoring.TrendAnalysisDays, metricsCache, a.usageRepo)

	// 4. LLM insight analyzer if enabled
	var generator scorer.InsightGenerator
	if a.config.LLM.Enabled {
		llmClient := llm.NewClient(a.config.LLM.Endpoint, a.config.LLM.APIKey, a.config.LLM.Model)
		analyzer := llm.NewAnalyzer(
			llmClient,
			true,
			a.config.LLM.MaxTokens,
			a.config.LLM.Temperature,
			time.Duration(a.config.LLM.TimeoutMs)*time.Millisecond,
		)
		generator = analyzer
		log.Printf("✅ AI Insights ENABLED (Model: %s)", a.config.LLM.Model)
	} else {
		log.Println("ℹ️  AI Insights DISABLED")
	}

	// 5. Realtime Broker
	a.broker = realtime.NewBroker()
	go a.broker.Run()

	// 6. Trend Scorer
	a.scorer = scorer.New(scorer.Options{
		Events:        a.eventRepo,
		Domains:       a.domainRepo,
		Scores:        a.scoreRepo,
		Insights:      a.insightRepo,
		Registry:      a.registry,
		Search:        a.provider,
		Generator:     generator,
		DecodeInsight: insights.Decode,
		EncodeInsight: insights.Encode,
		Broker:        a.broker,
		Freshness:     time.Duration(a.config.Scoring.FreshnessHours) * time.Hour,
		InsightTTL:    time.Duration(a.config.Scoring.InsightTTLHours) * time.Hour,
	})

	// 7. Background workers
	a.poller = NewPoller(
		a.registry,
		a.eventRepo,
		a.scorer,
		time.Duration(a.config.Doma.PollIntervalSecs)*time.Second,
		a.config.Doma.MaxEventsPerPoll,
	)
	go a.poller.Start()

	a.refresher = NewStaleRefresher(
		a.scoreRepo,
		a.scorer,
		time.Duration(a.config.Scoring.StaleCheckMinutes)*time.Minute,
		time.Duration(a.config.Scoring.FreshnessHours)*time.Hour,
		a.config.Scoring.StaleBatchLimit,
	)
	go a.refresher.Start()

	// 8. Start API Server
	apiServer := api.NewServer(a.eventRepo, a.domainRepo, a.scoreRepo, a.usageRepo, a.broker, a.scorer)
	apiServer.SetPoller(a.poller)

	go func() {
		if err := apiServer.Start(a.config.Port); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	// 9. Wait for interrupt and perform graceful shutdown
	return a.gracefulShutdown()
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown() error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	shutdownComplete := make(chan struct{})
	go func() {
		if a.poller != nil {
			fmt.Println("🔄 Stopping registry poller...")
			a.poller.Stop()
		}
		if a.refresher != nil {
			fmt.Println("🔄 Stopping stale score refresher...")
			a.refresher.Stop()
		}
		if a.broker != nil {
			fmt.Println("📡 Stopping realtime broker...")
			a.broker.Stop()
		}

		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				fmt.Println("✅ Database connection closed")
			}
		}

		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				fmt.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/quarry-platform/quarry-dashboard/internal/analytics"
	"github.com/quarry-platform/quarry-dashboard/internal/config"
	"github.com/quarry-platform/quarry-dashboard/internal/credentials"
	"github.com/quarry-platform/quarry-dashboard/internal/db"
	"github.com/quarry-platform/quarry-dashboard/internal/dispatch"
	"github.com/quarry-platform/quarry-dashboard/internal/events"
	"github.com/quarry-platform/quarry-dashboard/internal/metrics"
	"github.com/quarry-platform/quarry-dashboard/internal/models"
	"github.com/quarry-platform/quarry-dashboard/internal/refresher"
	"github.com/quarry-platform/quarry-dashboard/internal/server"
	"github.com/quarry-platform/quarry-dashboard/internal/session"
	"github.com/quarry-platform/quarry-dashboard/internal/transport"
)

func main() {
	// Logging setup
	slog.SetDefault(jsonLogger)
	// Load configuration
	ch := config.NewConfigHandler()
	dashboardConfig, err := ch.Config()
	if err != nil {
		slog.Error("loading the configuration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("loaded config", "config", dashboardConfig)
	// Set log level to "debug" if activated
	if dashboardConfig.DebugMode {
		logLevel.Set(slog.LevelDebug)
	}
	// The log level follows config file edits without a restart
	ch.HandleChanges(func(updated config.Config, err error) {
		if err != nil {
			slog.Error("reloading the configuration failed", "error", err)
			return
		}
		if updated.DebugMode {
			logLevel.Set(slog.LevelDebug)
		} else {
			logLevel.Set(slog.LevelInfo)
		}
	})
	ch.Watch()
	// Setup
	e := echo.New()
	e.Pre(middleware.RequestID(), middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	// The banner and the port do not respect the logger formatting we set below so we remove them
	// the port will be logged further down when the server starts.
	e.HideBanner = true
	e.HidePort = true
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	// Version endpoint
	buildInfo, ok := debug.ReadBuildInfo()
	version := ""
	if ok && buildInfo != nil {
		version = buildInfo.Main.Version
	}
	e.GET("/version", func(c echo.Context) error {
		return c.String(http.StatusOK, version)
	})
	// Initialize the db adapter. The real redis client is built here so the
	// event stream publisher can share it with the storage adapter.
	dbOptions := []db.RedisAdapterOption{}
	var streamClient redis.UniversalClient
	if dashboardConfig.Redis.Type == config.DBTypeRedis {
		streamClient = db.NewRedisClient(dashboardConfig.Redis)
		dbOptions = append(dbOptions, db.WithRedisClient(streamClient))
	} else {
		dbOptions = append(dbOptions, db.WithRedisConfig(dashboardConfig.Redis))
	}
	if dashboardConfig.Redis.EncryptionKey != "" {
		slog.Info("redis encryption is enabled")
		dbOptions = append(dbOptions, db.WithEncryption(string(dashboardConfig.Redis.EncryptionKey)))
	}
	var dbAdapter config.DBAdapter
	dbAdapter, err = db.NewRedisAdapter(dbOptions...)
	if err != nil {
		slog.Error("DB adapter initialization failed", "error", err)
		os.Exit(1)
	}
	// Initialize the credential store
	credentialStore, err := credentials.NewStore(credentials.WithCredentialRepository(dbAdapter))
	if err != nil {
		slog.Error("credential store initialization failed", "error", err)
		os.Exit(1)
	}
	// Initialize the backend transport
	transportOptions := []transport.TransportOption{transport.WithBaseURL(dashboardConfig.Backend.BaseURL)}
	if dashboardConfig.Backend.RequestTimeout > 0 {
		transportOptions = append(transportOptions, transport.WithDefaultTimeout(dashboardConfig.Backend.RequestTimeout))
	}
	backendTransport, err := transport.NewTransport(transportOptions...)
	if err != nil {
		slog.Error("transport initialization failed", "error", err)
		os.Exit(1)
	}
	// Initialize the session lifecycle event publisher
	var eventPublisher models.LifecycleEventPublisher = models.DummyLifecycleEventPublisher{}
	if dashboardConfig.Events.Enabled {
		if streamClient == nil {
			slog.Warn("event publishing needs a real redis, events stay disabled")
		} else {
			redisPublisher, err := redisstream.NewPublisher(
				redisstream.PublisherConfig{Client: streamClient},
				watermill.NewStdLogger(false, dashboardConfig.DebugMode),
			)
			if err != nil {
				slog.Error("event publisher initialization failed", "error", err)
				os.Exit(1)
			}
			eventPublisher, err = events.NewWatermillPublisher(events.WithMessagePublisher(redisPublisher))
			if err != nil {
				slog.Error("event publisher initialization failed", "error", err)
				os.Exit(1)
			}
		}
	}
	// Initialize the product metrics client
	var metricsClient models.MetricsClient = models.DummyMetricsClient{}
	if dashboardConfig.Monitoring.Posthog.Enabled {
		instanceID, err := models.NewRandomGenerator(16).ID()
		if err != nil {
			slog.Error("metrics instance ID generation failed", "error", err)
			os.Exit(1)
		}
		posthogClient, err := metrics.NewPosthogClient(
			dashboardConfig.Monitoring.Posthog.ApiKey.PlainText(),
			dashboardConfig.Monitoring.Posthog.Host,
			dashboardConfig.Monitoring.Posthog.Environment,
			instanceID,
		)
		if err != nil {
			slog.Error("metrics client initialization failed", "error", err)
			os.Exit(1)
		}
		metricsClient = posthogClient
	}
	// Initialize the renewal machinery, one coordinator for the whole process
	authClient, err := analytics.NewAuthClient(analytics.WithRenewalTransport(backendTransport))
	if err != nil {
		slog.Error("auth client initialization failed", "error", err)
		os.Exit(1)
	}
	expiryHook := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := eventPublisher.PublishSessionExpired(ctx, "credential renewal failed"); err != nil {
			slog.Error("publishing the session expired event failed", "error", err)
		}
		if err := metricsClient.SessionExpired(); err != nil {
			slog.Error("recording the session expired metric failed", "error", err)
		}
	}
	coordinatorOptions := []session.CoordinatorOption{
		session.WithCredentialStore(credentialStore),
		session.WithRenewer(authClient),
		session.WithExpiryHook(expiryHook),
	}
	if dashboardConfig.Renewal.Cooldown > 0 {
		coordinatorOptions = append(coordinatorOptions, session.WithCooldown(dashboardConfig.Renewal.Cooldown))
	}
	coordinator, err := session.NewCoordinator(coordinatorOptions...)
	if err != nil {
		slog.Error("renewal coordinator initialization failed", "error", err)
		os.Exit(1)
	}
	// Both dispatcher flavors share the coordinator and the transport
	dispatcherOptions := []dispatch.DispatcherOption{
		dispatch.WithTransport(backendTransport),
		dispatch.WithAccessReader(credentialStore),
		dispatch.WithRenewalCoordinator(coordinator),
	}
	dispatcher, err := dispatch.NewDispatcher(dispatcherOptions...)
	if err != nil {
		slog.Error("dispatcher initialization failed", "error", err)
		os.Exit(1)
	}
	rawDispatcher, err := dispatch.NewRawDispatcher(dispatcherOptions...)
	if err != nil {
		slog.Error("raw dispatcher initialization failed", "error", err)
		os.Exit(1)
	}
	// Initialize the analytics client
	clientOptions := []analytics.ClientOption{analytics.WithCaller(dispatcher), analytics.WithRawCaller(rawDispatcher)}
	if dashboardConfig.Backend.UploadTimeout > 0 {
		clientOptions = append(clientOptions, analytics.WithUploadTimeout(dashboardConfig.Backend.UploadTimeout))
	}
	analyticsClient, err := analytics.NewClient(clientOptions...)
	if err != nil {
		slog.Error("analytics client initialization failed", "error", err)
		os.Exit(1)
	}
	// Initialize the dashboard server
	dashboardServer, err := server.NewDashboardServer(
		server.WithAnalyticsClient(analyticsClient),
		server.WithViewRepository(dbAdapter),
		server.WithCredentialWriter(credentialStore),
		server.WithEventPublisher(eventPublisher),
		server.WithMetricsClient(metricsClient),
	)
	if err != nil {
		slog.Error("dashboard handlers initialization failed", "error", err)
		os.Exit(1)
	}
	dashboardServer.RegisterHandlers(e, commonMiddlewares...)
	// Log in with the service account when no pair is stored yet
	if dashboardConfig.Backend.Bootstrap.Enabled {
		err := bootstrapLogin(analyticsClient, credentialStore, eventPublisher, dashboardConfig.Backend.Bootstrap)
		if err != nil {
			slog.Error("bootstrap login failed", "error", err)
			os.Exit(1)
		}
	}
	// Renew the pair ahead of its expiry
	refresherOptions := []refresher.RefresherOption{
		refresher.WithCredentialSource(credentialStore),
		refresher.WithRenewalCoordinator(coordinator),
	}
	if dashboardConfig.Renewal.CheckInterval > 0 {
		refresherOptions = append(refresherOptions, refresher.WithCheckInterval(dashboardConfig.Renewal.CheckInterval))
	}
	if dashboardConfig.Renewal.ExpiryMargin > 0 {
		refresherOptions = append(refresherOptions, refresher.WithExpiryMargin(dashboardConfig.Renewal.ExpiryMargin))
	}
	pairRefresher, err := refresher.NewRefresher(refresherOptions...)
	if err != nil {
		slog.Error("refresher initialization failed", "error", err)
		os.Exit(1)
	}
	err = pairRefresher.Start(context.Background())
	if err != nil {
		slog.Error("starting the refresher failed", "error", err)
		os.Exit(1)
	}
	// Rate limiting
	if dashboardConfig.Server.RateLimits.Enabled {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(dashboardConfig.Server.RateLimits.Rate),
					Burst:     dashboardConfig.Server.RateLimits.Burst,
					ExpiresIn: 3 * time.Minute,
				}),
		),
		)
	}
	// CORS
	if len(dashboardConfig.Server.AllowOrigin) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: dashboardConfig.Server.AllowOrigin}))
	}
	// Sentry
	if dashboardConfig.Monitoring.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              string(dashboardConfig.Monitoring.Sentry.Dsn),
			TracesSampleRate: dashboardConfig.Monitoring.Sentry.SampleRate,
			Environment:      dashboardConfig.Monitoring.Sentry.Environment,
		})
		if err != nil {
			slog.Error("sentry initialization failed", "error", err)
		}
		e.Use(sentryecho.New(sentryecho.Options{}))
	}
	// Prometheus
	if dashboardConfig.Monitoring.Prometheus.Enabled {
		e.Use(echoprometheus.NewMiddleware("dashboard"))
		go func() {
			promMetrics := echo.New()
			promMetrics.HideBanner = true
			promMetrics.HidePort = true
			promMetrics.GET("/metrics", echoprometheus.NewHandler())
			err := promMetrics.Start(fmt.Sprintf(":%d", dashboardConfig.Monitoring.Prometheus.Port))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("prometheus server failed to start", "error", err)
				os.Exit(1)
			}
		}()
	}
	// Start server
	address := fmt.Sprintf("%s:%d", dashboardConfig.Server.Host, dashboardConfig.Server.Port)
	slog.Info("starting the server on address " + address)
	go func() {
		err := e.Start(address)
		if err != nil && err != http.ErrServerClosed {
			slog.Error("shutting down the server gracefuly failed", "error", err)
			os.Exit(1)
		}
	}()
	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("received signal to shut down the server")
	pairRefresher.Stop()
	metricsClient.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("shutting down the server gracefully failed", "error", err)
		os.Exit(1)
	}
}

// bootstrapLogin logs in with the configured service account unless a pair is
// already stored, a restart must not invalidate the sessions of the other
// replicas.
func bootstrapLogin(
	client *analytics.Client,
	store *credentials.Store,
	publisher models.LifecycleEventPublisher,
	bootstrap config.BootstrapConfig,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	hasAccess, err := store.HasAccess(ctx)
	if err != nil {
		return err
	}
	if hasAccess {
		slog.Info("a credential pair is already stored, skipping the bootstrap login")
		return nil
	}
	pair, err := client.Login(ctx, &analytics.LoginRequest{
		Email:    bootstrap.Email,
		Password: bootstrap.Password.PlainText(),
	})
	if err != nil {
		return err
	}
	if err := store.Set(ctx, pair.AccessCredential, pair.RenewalCredential); err != nil {
		return err
	}
	if err := publisher.PublishServiceLogin(ctx, credentials.DefaultSetID); err != nil {
		slog.Warn("publishing the bootstrap login event failed", "error", err)
	}
	slog.Info("bootstrap login succeeded")
	return nil
}

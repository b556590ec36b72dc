package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storeops/picking-service/pkg/cloudevents"
	"github.com/storeops/picking-service/pkg/errors"
	"github.com/storeops/picking-service/pkg/kafka"
	"github.com/storeops/picking-service/pkg/logging"
	"github.com/storeops/picking-service/pkg/metrics"
	"github.com/storeops/picking-service/pkg/middleware"
	"github.com/storeops/picking-service/pkg/mongodb"
	"github.com/storeops/picking-service/pkg/resilience"
	"github.com/storeops/picking-service/pkg/tracing"

	"github.com/storeops/picking-service/internal/application"
	mongoRepo "github.com/storeops/picking-service/internal/infrastructure/mongodb"
	"github.com/storeops/picking-service/internal/infrastructure/sheets"
)

const serviceName = "picking-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting picking-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB with instrumentation and a circuit breaker
	mongoClient, err := mongodb.NewProductionClient(ctx, config.MongoDB, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Google Sheets backend
	sheetsService, err := sheets.NewService(ctx, config.Sheets)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize sheets client")
		os.Exit(1)
	}
	orderSource := sheets.NewOrderSource(sheetsService, config.Sheets, m, logger)
	statusSink := sheets.NewStatusSink(sheetsService, config.Sheets, m, logger)
	logger.Info("Sheets backend initialized", "sheet", config.Sheets.SheetName)

	// Circuit breaker guarding status writes to the sheet
	sinkBreaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("status-sink"), logger.Logger)

	// Initialize Kafka producer with instrumentation and a circuit breaker
	kafkaProducer := kafka.NewProducer(config.Kafka)
	instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
	producer := kafka.NewCircuitBreakerProducer(instrumentedProducer, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourcePicking)

	// Initialize repositories with instrumented client
	repo := mongoRepo.NewOrderRepository(mongoClient)

	// Initialize application service
	pickingService := application.NewPickingApplicationService(
		repo,
		orderSource,
		statusSink,
		sinkBreaker,
		application.NewSessionRegistry(),
		producer,
		eventFactory,
		kafka.Topics.PickingEvents,
		m,
		logger,
	)

	// Setup Gin router with middleware
	router := gin.New()

	// Apply standard middleware (includes recovery, request ID, correlation, logging, error handling)
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddlewareWithConfig(m, middleware.DefaultMetricsConfig(serviceName)))

	// Add tracing middleware
	router.Use(middleware.Tracing(serviceName))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	api := router.Group("/api/v1")
	{
		orders := api.Group("/orders")
		{
			orders.GET("", listOrdersHandler(pickingService, logger))
			// Static routes before wildcard
			orders.POST("/refresh", refreshOrdersHandler(pickingService, logger))
			orders.GET("/:orderNumber", getOrderHandler(pickingService, logger))
			orders.POST("/:orderNumber/session", openSessionHandler(pickingService, logger))
		}

		sessions := api.Group("/sessions")
		{
			sessions.GET("/:sessionId", getSessionHandler(pickingService, logger))
			sessions.POST("/:sessionId/scan", scanHandler(pickingService, logger))
			sessions.POST("/:sessionId/confirm", confirmSessionHandler(pickingService, logger))
			sessions.DELETE("/:sessionId", closeSessionHandler(pickingService, logger))
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
	Sheets     sheets.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "picking"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
		Sheets: sheets.Config{
			SpreadsheetID: getEnv("SPREADSHEET_ID", ""),
			ClientEmail:   getEnv("GOOGLE_CLIENT_EMAIL", ""),
			PrivateKey:    getEnv("GOOGLE_PRIVATE_KEY", ""),
			SheetName:     getEnv("ORDERS_SHEET_NAME", sheets.DefaultSheetName),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HTTP Handlers
func listOrdersHandler(service *application.PickingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		status := c.Query("status")
		platform := c.Query("platform")
		search := c.Query("search")
		limitStr := c.Query("limit")

		// Default limit is 50, max is 500
		limit := 50
		if limitStr != "" {
			if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
				limit = parsedLimit
				if limit > 500 {
					limit = 500
				}
			}
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"status":   status,
			"platform": platform,
			"limit":    limit,
		})

		query := application.ListOrdersQuery{
			Status:   status,
			Platform: platform,
			Search:   search,
			Limit:    limit,
		}

		orders, err := service.ListOrders(c.Request.Context(), query)
		if err != nil {
			responder.RespondInternalError(err)
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func refreshOrdersHandler(service *application.PickingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		result, err := service.RefreshOrders(c.Request.Context())
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func getOrderHandler(service *application.PickingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		orderNumber := c.Param("orderNumber")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.number": orderNumber,
		})

		query := application.GetOrderQuery{OrderNumber: orderNumber}

		order, err := service.GetOrder(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

func openSessionHandler(service *application.PickingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		orderNumber := c.Param("orderNumber")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"order.number": orderNumber,
		})

		cmd := application.OpenSessionCommand{OrderNumber: orderNumber}

		session, err := service.OpenSession(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusCreated, session)
	}
}

func getSessionHandler(service *application.PickingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessionID := c.Param("sessionId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"session.id": sessionID,
		})

		query := application.GetSessionQuery{SessionID: sessionID}

		session, err := service.GetSession(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

func scanHandler(service *application.PickingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessionID := c.Param("sessionId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"session.id": sessionID,
		})

		// The barcode is deliberately unvalidated: empty input resolves to
		// an "ignored" outcome and anything else the order doesn't contain
		// resolves to "unmatched". Only malformed JSON is a request error.
		var req struct {
			Barcode string `json:"barcode"`
		}

		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.ScanCommand{
			SessionID: sessionID,
			Barcode:   req.Barcode,
		}

		result, err := service.Scan(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"scan.outcome": result.Outcome,
		})

		c.JSON(http.StatusOK, result)
	}
}

func confirmSessionHandler(service *application.PickingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessionID := c.Param("sessionId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"session.id": sessionID,
		})

		cmd := application.ConfirmSessionCommand{SessionID: sessionID}

		session, err := service.ConfirmSession(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

func closeSessionHandler(service *application.PickingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessionID := c.Param("sessionId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"session.id": sessionID,
		})

		cmd := application.CloseSessionCommand{SessionID: sessionID}

		if err := service.CloseSession(c.Request.Context(), cmd); err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.Status(http.StatusNoContent)
	}
}

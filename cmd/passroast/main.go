package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"passroast-server/pkg/analyzer"
	"passroast-server/pkg/audit"
	"passroast-server/pkg/config"
	"passroast-server/pkg/events"
	"passroast-server/pkg/hibp"
	http_server "passroast-server/pkg/http"
	"passroast-server/pkg/messaging"
	"passroast-server/pkg/metrics"
	"passroast-server/pkg/roast"
	"passroast-server/pkg/version"
)

var (
	logger      = logrus.New()
	appConfig   *config.Config
	amqpClient  *messaging.AMQPClient
	httpServer  *http_server.Server
	wsHub       *http_server.EventHub
	dispatcher  *events.Dispatcher
	auditLogger *audit.Logger

	// Context for graceful shutdown
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

func main() {
	// Set up logger with basic configuration (will be updated after config is loaded)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetOutput(os.Stdout)

	// Initialize the root context for graceful shutdown
	rootCtx, rootCancel = context.WithCancel(context.Background())
	defer rootCancel()

	// Initialize everything
	if err := initialize(); err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}

	// Start HTTP server for health checks and the analysis API
	if appConfig.HTTP.Enabled {
		httpServer.Start()
		logger.Info("HTTP server started")
	} else {
		logger.Info("HTTP server is disabled by configuration")
	}

	// Graceful shutdown handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Received shutdown signal, cleaning up...")

	// Create a context with timeout for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Cancel the root context to signal shutdown to all goroutines
	rootCancel()

	// Shutdown HTTP server first
	if httpServer != nil {
		logger.Debug("Shutting down HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error shutting down HTTP server")
		} else {
			logger.Info("HTTP server shut down successfully")
		}
	}

	// Disconnect from AMQP
	if amqpClient != nil {
		logger.Debug("Disconnecting from AMQP server...")
		amqpClient.Disconnect()
	}

	// Shut down WebSocket hub if active
	if wsHub != nil {
		logger.Debug("Shutting down WebSocket hub...")
		// The hub shuts down through context cancellation, give connections
		// a moment to close gracefully
		time.Sleep(500 * time.Millisecond)
		logger.Info("WebSocket hub shut down")
	}

	// Close the audit log last so events from in-flight analyses still land
	if auditLogger != nil {
		if err := auditLogger.Close(); err != nil {
			logger.WithError(err).Error("Error closing audit log")
		}
	}

	logger.Info("Application shut down gracefully")
}

// initialize loads configuration and initializes all components
func initialize() error {
	var err error

	appConfig, err = config.Load(logger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Apply logging configuration
	if err := appConfig.ApplyLogging(logger); err != nil {
		return fmt.Errorf("failed to apply logging configuration: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"version":   version.Version,
		"log_level": logger.GetLevel().String(),
	}).Info("Starting passroast server")

	// Initialize metrics system
	metrics.StartMetrics(logger, appConfig.HTTP.EnableMetrics)

	// Load dictionary wordlists
	lexicon, err := analyzer.NewLexicon(logger, appConfig.Analysis.WordlistDir)
	if err != nil {
		return fmt.Errorf("failed to load wordlists: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"words":     lexicon.TotalWords(),
		"languages": len(lexicon.Languages()),
	}).Info("Dictionary lexicon loaded")

	matcher := analyzer.NewMatcher(lexicon, appConfig.Analysis.FuzzyMinRatio, appConfig.Analysis.FuzzyLengthTolerance)

	// Initialize the breach oracle
	var oracle analyzer.Oracle
	if appConfig.HIBP.Enabled {
		oracle = hibp.NewClient(logger, appConfig.HIBP)
		logger.WithField("base_url", appConfig.HIBP.BaseURL).Info("HIBP breach oracle initialized")
	} else {
		logger.Warn("Breach oracle disabled, analyses will not include breach data")
	}

	engine := analyzer.NewEngine(logger, lexicon, matcher, oracle)

	// Initialize roast generation
	var roastManager *roast.Manager
	if appConfig.Roast.Enabled {
		roastManager = roast.NewManager(logger, appConfig.Roast.Provider)
		provider := roast.NewOpenAIProvider(logger, appConfig.Roast)
		if err := roastManager.RegisterProvider(provider); err != nil {
			logger.WithError(err).Warn("Roast provider unavailable, continuing with canned roasts")
		}
	} else {
		logger.Debug("Roast generation disabled")
	}

	// Event dispatcher fans sanitized analysis events out to listeners
	dispatcher = events.NewDispatcher(logger)

	// Audit log listener
	if appConfig.Audit.Enabled() {
		auditLogger, err = audit.NewLogger(logger, appConfig.Audit.LogPath)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		dispatcher.AddListener(auditLogger)
		logger.WithField("path", appConfig.Audit.LogPath).Info("Audit logging enabled")
	}

	// AMQP publishing listener
	if appConfig.Messaging.Enabled() {
		initAMQP()
	} else {
		logger.Warn("AMQP not configured, analysis events will not be sent to message queue")
	}

	// Initialize HTTP server
	httpServer = http_server.NewServer(logger, &appConfig.HTTP)
	httpServer.SetLexicon(lexicon)
	if oracle != nil {
		httpServer.SetOracle(oracle)
	}
	if roastManager != nil {
		httpServer.SetRoastManager(roastManager)
	}
	if amqpClient != nil {
		httpServer.SetAMQPClient(amqpClient)
	}

	// Create the WebSocket event hub and start it in a goroutine
	wsHub = http_server.NewEventHub(logger, appConfig.HTTP.CORSOrigins)
	go wsHub.Run(rootCtx)
	httpServer.SetEventHub(wsHub)
	dispatcher.AddListener(wsHub)

	// Register the analysis API
	if appConfig.HTTP.EnableAPI {
		analyzeHandler := http_server.NewAnalyzeHandler(logger, engine, roastManager, dispatcher, appConfig.Analysis.MaxPasswordLength)
		analyzeHandler.RegisterHandlers(httpServer)
	} else {
		logger.Info("Analysis API is disabled by configuration")
	}

	return nil
}

// initAMQP connects the AMQP client in a separate goroutine with a timeout so
// a slow broker cannot block server startup
func initAMQP() {
	logger.Info("Initializing AMQP client")

	amqpConnectChan := make(chan struct {
		client *messaging.AMQPClient
		err    error
	}, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.WithField("recover", r).Error("Recovered from panic in AMQP initialization")
				amqpConnectChan <- struct {
					client *messaging.AMQPClient
					err    error
				}{nil, fmt.Errorf("panic during AMQP initialization: %v", r)}
			}
		}()

		client := messaging.NewAMQPClient(logger, messaging.AMQPConfig{
			URL:       appConfig.Messaging.AMQPUrl,
			QueueName: appConfig.Messaging.AMQPQueueName,
		})
		err := client.Connect()
		amqpConnectChan <- struct {
			client *messaging.AMQPClient
			err    error
		}{client, err}
	}()

	// Wait for AMQP connection with timeout
	select {
	case result := <-amqpConnectChan:
		if result.err != nil {
			logger.WithError(result.err).Warn("Failed to connect to AMQP server, continuing without AMQP")
		} else {
			amqpClient = result.client
			dispatcher.AddListener(amqpClient)
			logger.Info("AMQP client initialized successfully")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("AMQP initialization timed out after 5 seconds, continuing without AMQP")
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	_ "github.com/sbilibin2017/gw-transactions/docs"
	"github.com/sbilibin2017/gw-transactions/internal/facades"
	"github.com/sbilibin2017/gw-transactions/internal/handlers"
	healthcheck "github.com/sbilibin2017/gw-transactions/internal/health"
	"github.com/sbilibin2017/gw-transactions/internal/jwt"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
	"github.com/sbilibin2017/gw-transactions/internal/middlewares"
	"github.com/sbilibin2017/gw-transactions/internal/rabbitmq"
	"github.com/sbilibin2017/gw-transactions/internal/repositories"
	"github.com/sbilibin2017/gw-transactions/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds everything the service reads from the environment.
type config struct {
	AppHost  string
	AppPort  string
	GRPCPort string
	LogLevel string
	LogFile  string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisExp          time.Duration

	RabbitMQURL         string
	RabbitMQDialTimeout time.Duration
	ValidationTimeout   time.Duration
	BalanceTimeout      time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecretKey string
	JWTExp       time.Duration

	HealthInterval time.Duration
}

// @title gw-transactions API
// @version 1.0.0
// @description Microservice recording transfers between users
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the
// application, storage, broker, logging and JWT configuration.
func parseConfig(path string) (*config, error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	var err error
	getInt := func(key, defaultValue string) int {
		if err != nil {
			return 0
		}
		var n int
		if n, err = strconv.Atoi(getEnv(key, defaultValue)); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return n
	}
	getSeconds := func(key, defaultValue string) time.Duration {
		return time.Duration(getInt(key, defaultValue)) * time.Second
	}

	cfg := &config{
		// Application config
		AppHost:  getEnv("APP_HOST", "localhost"),
		AppPort:  getEnv("APP_PORT", "8080"),
		GRPCPort: getEnv("GRPC_PORT", "50052"),
		LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		LogFile:  getEnv("APP_LOG_FILE", ""),

		// PostgreSQL config
		PGHost:         getEnv("POSTGRES_HOST", "localhost"),
		PGPort:         getInt("POSTGRES_PORT", "5432"),
		PGUser:         getEnv("POSTGRES_USER", "user"),
		PGPassword:     getEnv("POSTGRES_PASSWORD", "password"),
		PGDB:           getEnv("POSTGRES_DB", "database"),
		PGMaxOpenConns: getInt("POSTGRES_MAX_OPEN_CONNS", "16"),
		PGMaxIdleConns: getInt("POSTGRES_MAX_IDLE_CONNS", "8"),

		// Redis config
		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		RedisPort:         getInt("REDIS_PORT", "6379"),
		RedisDB:           getInt("REDIS_DB", "0"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisPoolSize:     getInt("REDIS_POOL_SIZE", "10"),
		RedisMinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", "2"),
		RedisExp:          getSeconds("REDIS_EXP_SECOND", "60"),

		// RabbitMQ config
		RabbitMQURL:         getEnv("RABBITMQ_URL", "amqp://localhost"),
		RabbitMQDialTimeout: getSeconds("RABBITMQ_DIAL_TIMEOUT_SECOND", "5"),
		ValidationTimeout:   getSeconds("RABBITMQ_VALIDATION_TIMEOUT_SECOND", "5"),
		BalanceTimeout:      getSeconds("RABBITMQ_BALANCE_TIMEOUT_SECOND", "10"),

		// Kafka config
		KafkaTopic: getEnv("KAFKA_TOPIC", "transactions"),

		// JWT config
		JWTSecretKey: getEnv("JWT_SECRET_KEY", "my_super_secret_key"),
		JWTExp:       getSeconds("JWT_EXP_SECOND", "3600"),

		HealthInterval: getSeconds("HEALTH_INTERVAL_SECOND", "15"),
	}
	if err != nil {
		return nil, err
	}

	for _, broker := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
		}
	}

	return cfg, nil
}

// run initializes the logger, database, Redis, RabbitMQ, Kafka, the HTTP
// server and the gRPC health server, then blocks until shutdown.
func run(ctx context.Context, cfg *config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infow("logger initialized", "level", cfg.LogLevel, "file", cfg.LogFile)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	logger.Log.Infow("connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := repositories.Migrate(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("PostgreSQL migration failed: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		db.Close()
		return fmt.Errorf("Redis connection error: %w", err)
	}

	// RabbitMQ connects lazily on the first call or health check
	conns := rabbitmq.NewConnectionManager(cfg.RabbitMQURL, rabbitmq.WithDialTimeout(cfg.RabbitMQDialTimeout))
	rpcClient := rabbitmq.NewClient(conns)
	gateway := facades.NewUserGatewayFacade(rpcClient,
		facades.WithValidationTimeout(cfg.ValidationTimeout),
		facades.WithBalanceTimeout(cfg.BalanceTimeout),
	)
	logger.Log.Infow("RabbitMQ gateway configured",
		"url", rabbitmq.SanitizeURL(cfg.RabbitMQURL),
		"dial_timeout", cfg.RabbitMQDialTimeout,
		"validation_timeout", cfg.ValidationTimeout,
		"balance_timeout", cfg.BalanceTimeout,
	)

	// Kafka audit stream is optional
	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
		logger.Log.Infow("Kafka writer configured", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Initialize JWT
	tokener := jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey), jwt.WithExpiration(cfg.JWTExp))

	// Initialize repositories
	writeRepo := repositories.NewTransactionWriteRepository(db)
	readRepo := repositories.NewTransactionReadRepository(db)
	cacheRepo := repositories.NewTransactionCacheRepository(rdb, cfg.RedisExp)

	// Initialize services
	transactionService := services.NewTransactionService(gateway, writeRepo, readRepo, cacheRepo, kafkaWriter)

	// Initialize handlers
	createHandler := handlers.NewCreateTransactionHandler(transactionService)
	findHandler := handlers.NewFindTransactionHandler(transactionService)
	listHandler := handlers.NewListUserTransactionsHandler(transactionService)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(tokener))
			handlers.RegisterCreateTransactionHandler(r, createHandler)
			handlers.RegisterFindTransactionHandler(r, findHandler)
			handlers.RegisterListUserTransactionsHandler(r, listHandler)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler: r,
	}

	// gRPC health server
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reporter := healthcheck.NewReporter(healthServer,
		healthcheck.WithInterval(cfg.HealthInterval),
		healthcheck.WithCheck("postgres", healthcheck.PostgresCheck(db)),
		healthcheck.WithCheck("redis", healthcheck.RedisCheck(rdb)),
		healthcheck.WithCheck("rabbitmq", healthcheck.RabbitMQCheck(conns)),
	)

	grpcLis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.AppHost, cfg.GRPCPort))
	if err != nil {
		rdb.Close()
		db.Close()
		return fmt.Errorf("gRPC listen failed: %w", err)
	}

	// Graceful shutdown
	errChan := make(chan error, 2)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go reporter.Run(ctxShutdown)

	go func() {
		logger.Log.Infow("gRPC health server listening", "addr", grpcLis.Addr().String())
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server failed: %w", err)
		}
	}()

	go func() {
		logger.Log.Infow("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("shutdown signal received, stopping servers")
	case runErr = <-errChan:
		logger.Log.Errorw("server failed, shutting down", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}
	grpcServer.GracefulStop()

	if err := conns.Close(); err != nil {
		logger.Log.Errorw("RabbitMQ shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Log.Errorw("Kafka writer shutdown error", "error", err)
		}
	}
	if err := rdb.Close(); err != nil {
		logger.Log.Errorw("Redis shutdown error", "error", err)
	}
	if err := db.Close(); err != nil {
		logger.Log.Errorw("PostgreSQL shutdown error", "error", err)
	}

	logger.Log.Info("service stopped gracefully")
	return runErr
}

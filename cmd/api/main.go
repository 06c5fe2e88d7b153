package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shinyyama/unimart-backend/internal/config"
	"github.com/shinyyama/unimart-backend/internal/db"
	"github.com/shinyyama/unimart-backend/internal/events"
	appmw "github.com/shinyyama/unimart-backend/internal/middleware"
	"github.com/shinyyama/unimart-backend/internal/notify"
	"github.com/shinyyama/unimart-backend/internal/otp"
	"github.com/shinyyama/unimart-backend/internal/repository"
	"github.com/shinyyama/unimart-backend/internal/server"
	"github.com/shinyyama/unimart-backend/internal/service"
	"github.com/sirupsen/logrus"
)

// Set via -ldflags at build time.
var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		store repository.Store
		ping  func(context.Context) error
	)
	switch cfg.DBDriver {
	case config.DriverMemory:
		logger.Warn("DB_DRIVER=memory: data is lost on restart")
		store = repository.NewMemoryStore()
	default:
		conn, err := db.Connect(cfg)
		if err != nil {
			logger.WithError(err).Fatal("db connect")
		}
		if err := db.Migrate(conn); err != nil {
			logger.WithError(err).Fatal("auto migrate")
		}
		store = repository.NewGormStore(conn)
		ping = db.Ping(conn)
	}

	engine, err := otp.NewEngine(cfg.OTPLength, cfg.OTPHashed)
	if err != nil {
		logger.WithError(err).Fatal("otp engine")
	}

	var limiter otp.AttemptLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		limiter = otp.NewRedisLimiter(rdb, cfg.OTPMaxAttempts, otp.DefaultAttemptWindow)
	} else {
		limiter = otp.NewMemoryLimiter(cfg.OTPMaxAttempts)
	}

	notifications := service.NewNotificationService(store.Notifications(), logger)
	notifiers := notify.Multi{notify.NewInbox(notifications)}

	var prod *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaClientID, 1024, logger.WithField("component", "kafka"))
		prod.Start(ctx)
		notifiers = append(notifiers, notify.NewKafka(prod, cfg.KafkaClientID))
	}

	var auth appmw.Authenticator
	if cfg.FirebaseProjectID != "" {
		fa, err := appmw.NewFirebaseAuth(ctx, cfg.FirebaseProjectID)
		if err != nil {
			logger.WithError(err).Fatal("init firebase auth")
		}
		auth = fa
	} else {
		logger.Warn("FIREBASE_PROJECT_ID not set: trusting " + appmw.HeaderDevUser + " headers")
		auth = appmw.DevAuth{}
	}

	if cfg.OTPEcho {
		logger.Warn("OTP_ECHO is on: delivery codes are returned to the seller")
	}

	orders := service.NewOrderStore(store.Orders(), engine, service.WithOTPTTL(cfg.OTPTTL))
	coord := service.NewDeliveryCoordinator(store, orders, limiter, notifiers, logger, service.WithOTPEcho(cfg.OTPEcho))

	srv := server.New(server.Deps{
		Coordinator:   coord,
		Chat:          service.NewChatService(store),
		Products:      service.NewProductService(store.Products()),
		Notifications: notifications,
		Auth:          auth,
		Log:           logger,
		CORSOrigins:   cfg.CORSOrigins,
		Ping:          ping,
	}, gitSHA, buildTime)

	go func() {
		if err := srv.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if prod != nil {
		prod.Close()
		cancel()
		prod.WaitClosed()
	}
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("invalid log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

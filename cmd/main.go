package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	httpapi "github.com/thisissairam/vidoo-backend/internal/api/http"
	"github.com/thisissairam/vidoo-backend/internal/config"
	"github.com/thisissairam/vidoo-backend/internal/repository"
	"github.com/thisissairam/vidoo-backend/internal/repository/model"
	"github.com/thisissairam/vidoo-backend/internal/service"
	"github.com/thisissairam/vidoo-backend/internal/signaling"
	"github.com/thisissairam/vidoo-backend/lib/logger/sl"
	"github.com/thisissairam/vidoo-backend/lib/logger/slogpretty"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	var userRepo repository.UserRepository
	if cfg.Database.DSN != "" {
		db, err := connectDatabase(cfg.Database)
		if err != nil {
			log.Error("failed to connect database", sl.Err(err))
			os.Exit(1)
		}
		userRepo = repository.NewPostgresUserRepository(db)
	} else {
		log.Warn("no database dsn configured, user records are in-memory")
		userRepo = repository.NewInMemoryUserRepository()
	}

	registry := signaling.NewRegistry()
	directory := signaling.NewDirectory()
	history := signaling.NewHistoryStore(cfg.Signaling.ChatHistoryLimit)

	signalService := service.NewSignalService(registry, directory, history, log)
	userService := service.NewUserService(userRepo, log)

	userController := httpapi.NewUserController(userService)
	callController := httpapi.NewCallController(signalService, registry, cfg.WebRTC.STUNServers, cfg.Signaling.ClientBuffer, log)

	router := httpapi.SetupRouter(userController, callController, cfg.HTTP.AllowedOrigins)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", sl.Err(err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&model.User{})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

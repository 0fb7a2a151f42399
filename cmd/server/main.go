package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/nace129/booktable/internal/config"
	"github.com/nace129/booktable/internal/database"
	"github.com/nace129/booktable/internal/handler"
	"github.com/nace129/booktable/internal/middleware"
	"github.com/nace129/booktable/internal/queue"
	"github.com/nace129/booktable/internal/repository"
	"github.com/nace129/booktable/internal/router"
	"github.com/nace129/booktable/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connect failed")
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.MigrationsPath); err != nil {
		logrus.WithError(err).Fatal("database migration failed")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logrus.Warn("redis unavailable; rate limiting and search cache disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	reservations := repository.NewReservationRepo(db)
	reviews := repository.NewReviewRepo(db)

	// Services.
	engine := service.NewAvailabilityEngine(reservations)
	notifier := service.NewEmailNotifier(cfg.AMQPURL)
	bookings := service.NewBookingService(restaurants, reservations, users, engine, notifier)
	directory := service.NewRestaurantService(restaurants, engine)
	aggregator := service.NewRatingAggregator(reviews, restaurants)
	reviewSvc := service.NewReviewService(reviews, reservations, restaurants, aggregator)
	adminSvc := service.NewAdminService(users, reservations, restaurants)
	sweeper := service.NewStatusSweeper(restaurants, reservations)

	// Background workers.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)
	go func() {
		if err := queue.StartEmailConsumer(cfg.AMQPURL); err != nil {
			logrus.WithError(err).Error("email consumer stopped")
		}
	}()

	// HTTP layer.
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	restaurantHandler := handler.NewRestaurantHandler(directory, rdb, config.LoadSearchCacheConfig())
	reservationHandler := handler.NewReservationHandler(bookings)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)

	router.RegisterRoutes(e, restaurantHandler, reviewHandler)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterCustomer(e, reservationHandler, reviewHandler, cfg.JWTSecret)
	router.RegisterManager(e, restaurantHandler, reservationHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, restaurantHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("server starting")
	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

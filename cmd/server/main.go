package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/flavorshare/backend/internal/config"
	"github.com/flavorshare/backend/internal/es"
	"github.com/flavorshare/backend/internal/handlers"
	"github.com/flavorshare/backend/internal/logging"
	authmw "github.com/flavorshare/backend/internal/middleware/auth"
	loggingmw "github.com/flavorshare/backend/internal/middleware/logging"
	"github.com/flavorshare/backend/internal/mykafka"
	"github.com/flavorshare/backend/internal/tokens"
	httpserver "github.com/flavorshare/backend/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	issuer := tokens.NewIssuer([]byte(configuration.JWT_SECRET))

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		searchHandler = handlers.NewSearchHandler(esClient, "recipes")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:   &handlers.AuthHandler{DB: db, Tokens: issuer, Producer: prod},
		UserHandler:   &handlers.UserHandler{DB: db},
		RecipeHandler: &handlers.RecipeHandler{DB: db, Producer: prod},
		ReviewHandler: &handlers.ReviewHandler{DB: db, Producer: prod},
		LikeHandler:   &handlers.LikeHandler{DB: db, Producer: prod},
		SearchHandler: searchHandler,
		Auth:          authmw.NewSimpleAuth(issuer),
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}

// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/paircade/couples-tournament/internal/auth"
	"github.com/paircade/couples-tournament/internal/cache"
	"github.com/paircade/couples-tournament/internal/database"
	"github.com/paircade/couples-tournament/internal/handlers"
	"github.com/paircade/couples-tournament/internal/middleware"
	"github.com/paircade/couples-tournament/internal/questions"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		logger.Fatalf("auth init failed: %v", err)
	}

	// Postgres and Redis are optional: without them the server still runs,
	// just without result persistence or action history.
	if err := database.ConnectDB(); err != nil {
		logger.Warnf("running without result persistence: %v", err)
	}
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("running without action history: %v", err)
	}

	bank := questions.DefaultBank()
	if path := os.Getenv("QUESTION_BANK"); path != "" {
		loaded, err := questions.LoadBank(path)
		if err != nil {
			logger.Fatalf("failed to load question bank %s: %v", path, err)
		}
		bank = loaded
		logger.Infof("Loaded %d questions from %s", bank.Len(), path)
	}

	srv := handlers.NewGameServer(logger, bank)
	if sec := os.Getenv("ANSWER_TIME_LIMIT_SEC"); sec != "" {
		if n, err := strconv.Atoi(sec); err == nil && n > 0 {
			srv.AnswerTimeLimit = time.Duration(n) * time.Second
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HealthHandler)
	mux.Handle("/rooms", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.RoomListHandler(srv),
	)))
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, srv),
	)))

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}).Handler(mux)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		logger.Infof("Running on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("shutdown error: %v", err)
	}
	if database.Enabled() {
		database.DB.Close()
	}
}

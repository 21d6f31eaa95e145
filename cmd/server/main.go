// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/thanwa/malaengsab/internal/auth"
	"github.com/thanwa/malaengsab/internal/cache"
	"github.com/thanwa/malaengsab/internal/handlers"
	"github.com/thanwa/malaengsab/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, relying on environment variables.")
	}

	auth.Init()

	// The action journal is best effort. The server runs without Redis.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("Redis unavailable, action journal disabled: %v", err)
	}

	srv := handlers.NewServer(logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(handlers.RoomWSHandler(logger, srv)))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Infof("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}

// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/unomesh/unomesh/internal/auth"
	"github.com/unomesh/unomesh/internal/cache"
	"github.com/unomesh/unomesh/internal/database"
	"github.com/unomesh/unomesh/internal/handlers"
	"github.com/unomesh/unomesh/internal/middleware"
)

func main() {
	privPath := os.Getenv("AUTH_PRIVATE_KEY_FILE")
	pubPath := os.Getenv("AUTH_PUBLIC_KEY_FILE")
	if privPath != "" && pubPath != "" {
		if err := auth.InitFromPath(privPath, pubPath); err != nil {
			log.Fatalf("failed to load auth keys: %v", err)
		}
	} else {
		auth.Init()
	}

	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, room event log disabled: %v", err)
	}

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	srv := handlers.NewServer()

	// room endpoints
	mux.Handle("/room/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.CreateRoomHandler(srv),
	)))

	// room ws
	mux.Handle("/room/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.RoomWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

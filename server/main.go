package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	store := newSessionStore()
	go store.sweepLoop()

	r := chi.NewRouter()
	r.Get("/ws", store.handleWS)
	r.Get("/api/rooms", store.handleRooms)
	r.Get("/api/scores", store.handleScores)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("tile-match session server listening")
	if err := http.ListenAndServe(":"+port, withCORS(r)); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/pixeliz-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Deps struct {
	Clients   ws.Clients
	Game      ws.Game
	Snapshots SnapshotSource
	WS        ws.Options
	PublicURL string
	Origins   []string
	Logger    *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := d.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
	}).Handler)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Clients, d.Game, d.WS, d.Logger))
	r.Get("/api/snapshot", Snapshot(d.Snapshots))
	r.Get("/qr", QR(d.PublicURL))
	return r
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/config"
	"github.com/DoyleJ11/pixeliz-backend/internal/content"
	"github.com/DoyleJ11/pixeliz-backend/internal/httpapi"
	"github.com/DoyleJ11/pixeliz-backend/internal/hub"
	"github.com/DoyleJ11/pixeliz-backend/internal/imaging"
	"github.com/DoyleJ11/pixeliz-backend/internal/lobby"
	"github.com/DoyleJ11/pixeliz-backend/internal/logging"
	"github.com/DoyleJ11/pixeliz-backend/internal/relay"
	"github.com/DoyleJ11/pixeliz-backend/internal/ws"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pixeliz",
		Short: "Multiplayer guessing game where a pixelated image sharpens until someone names it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	config.Register(cmd.Flags(), cfg)
	config.BindEnv(cmd.Flags())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := buildProvider(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	var mirror hub.Mirror
	if cfg.NATSURL != "" {
		rcfg := relay.DefaultConfig()
		rcfg.URL = cfg.NATSURL
		rcfg.SubjectPrefix = cfg.NATSSubject
		pub, err := relay.Connect(rcfg, log)
		if err != nil {
			log.Warn("event relay disabled", zap.Error(err))
		} else {
			defer pub.Close()
			mirror = pub
		}
	}

	h := hub.NewHub(ctx, log, mirror)
	lb := lobby.NewLobby(ctx, lobby.Config{
		Schedule: cfg.ParsedSchedule(),
		Timing: lobby.Timing{
			Shimmer:      cfg.ShimmerInterval,
			HintDelay:    cfg.HintDelay,
			CooldownWon:  cfg.CooldownWon,
			CooldownLost: cfg.CooldownLost,
			LoadTimeout:  lobby.DefaultTiming().LoadTimeout,
		},
		Provider: provider,
		Decoder: imaging.NewDecoder(imaging.Options{
			MaxSide: cfg.ImageMaxSide,
			Timeout: cfg.ImageTimeout,
			Logger:  log,
		}),
		Broadcaster: h,
		Logger:      log,
	})

	wsOpts := ws.DefaultOptions()
	wsOpts.OriginPatterns = originPatterns(cfg.AllowedOrigins)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Clients:   h,
			Game:      lb,
			Snapshots: lb,
			WS:        wsOpts,
			PublicURL: cfg.PublicURL,
			Origins:   cfg.AllowedOrigins,
			Logger:    log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("sourceMode", cfg.SourceMode),
			zap.Stringer("schedule", cfg.ParsedSchedule()),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildProvider assembles the source tiers for the configured mode.
func buildProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (lobby.Provider, func(), error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, closeAll, fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opt)
		closers = append(closers, func() { _ = rdb.Close() })
	}

	catalogs := []content.Source{
		content.NewMoviesSource("", nil),
		content.NewPokemonSource("", 0, log),
	}
	if rdb != nil {
		for i, src := range catalogs {
			catalogs[i] = content.NewCached(src, rdb, cfg.CatalogTTL, log)
		}
	}

	var tiers [][]content.Source
	switch cfg.SourceMode {
	case config.SourceFile:
		tiers = [][]content.Source{{content.NewFileSource(cfg.RoundsFile)}}

	case config.SourceDB:
		db, err := content.OpenStore(cfg.DatabaseURL)
		if err != nil {
			return nil, closeAll, err
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		store := content.NewStoreSource(db, log)
		if cfg.DBMigrate {
			if err := store.Migrate(ctx); err != nil {
				return nil, closeAll, fmt.Errorf("migrate game_images: %w", err)
			}
		}
		tiers = [][]content.Source{{store}, catalogs}

	default:
		tiers = [][]content.Source{catalogs}
	}

	return content.NewLoader(log, nil, tiers...), closeAll, nil
}

// originPatterns turns configured origins into host patterns for the
// websocket origin check.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			o = u.Host
		}
		out = append(out, o)
	}
	return out
}

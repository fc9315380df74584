package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/openmusic-api/internal/authz"
	"github.com/iliyamo/openmusic-api/internal/cache"
	"github.com/iliyamo/openmusic-api/internal/config"
	"github.com/iliyamo/openmusic-api/internal/database"
	"github.com/iliyamo/openmusic-api/internal/handler"
	"github.com/iliyamo/openmusic-api/internal/repository"
	"github.com/iliyamo/openmusic-api/internal/router"
	"github.com/iliyamo/openmusic-api/internal/service"
	"github.com/iliyamo/openmusic-api/internal/storage"
)

func main() {
	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.OpenFromConfig(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	var c cache.Cache = cache.Noop{}
	if cacheCfg.Enabled && rdb != nil {
		rc := cache.NewRedisCache(rdb, cacheCfg.Prefix)
		if cacheCfg.FlushOnStart {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := rc.Clear(ctx); err != nil {
				log.Printf("cache: flush on start: %v", err)
			}
			cancel()
		}
		c = rc
	} else {
		log.Printf("cache: disabled (enabled=%t, redis=%t)", cacheCfg.Enabled, rdb != nil)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	albums := repository.NewAlbumRepo(db)
	songs := repository.NewSongRepo(db)
	playlists := repository.NewPlaylistRepo(db)
	collabs := repository.NewCollaborationRepo(db)
	playlistSongs := repository.NewPlaylistSongRepo(db)
	activities := repository.NewActivityRepo(db)
	likes := repository.NewAlbumLikeRepo(db)

	covers, err := storage.NewCoverStore(cfg.CoverUploadPath, cfg.CoverMaxBytes)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	az := authz.NewEngine(playlists, collabs)
	opts := service.CacheOptions{TTL: cacheCfg.TTL}

	authSvc := service.NewAuthService(users, tokens, service.AuthConfig{
		AccessSecret:   cfg.AccessTokenSecret,
		RefreshSecret:  cfg.RefreshTokenSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	})
	playlistSvc := service.NewPlaylistService(service.PlaylistDeps{
		Playlists:      playlists,
		Collaborations: collabs,
		Songs:          songs,
		PlaylistSongs:  playlistSongs,
		Activities:     activities,
		Users:          users,
		Authz:          az,
		Cache:          c,
		CacheOptions:   opts,
		Exports:        service.NewExportPublisher(cfg.RabbitMQURL, cfg.ExportQueue),
	})
	collabSvc := service.NewCollaborationService(playlists, collabs, users, az, c)
	songSvc := service.NewSongService(songs, albums, playlistSongs, c, opts)
	albumSvc := service.NewAlbumService(albums, songs, likes, covers, c, opts, cfg.PublicBaseURL)

	probes := map[string]handler.Pinger{"db": db.PingContext}
	if rdb != nil {
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	router.Register(e, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Albums:    handler.NewAlbumHandler(albumSvc, az),
		Songs:     handler.NewSongHandler(songSvc),
		Playlists: handler.NewPlaylistHandler(playlistSvc, collabSvc, az),
		Health:    handler.Health(probes),
	}, router.Options{
		Verify:    authSvc.VerifyAccess,
		RateLimit: rlCfg,
		Redis:     rdb,
		CoverDir:  covers.Dir(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Printf("server stopped")
}

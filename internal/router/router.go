package router // package router registers the HTTP routes of the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/openmusic-api/internal/config"
	"github.com/iliyamo/openmusic-api/internal/handler"
	"github.com/iliyamo/openmusic-api/internal/middleware"
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Albums    *handler.AlbumHandler
	Songs     *handler.SongHandler
	Playlists *handler.PlaylistHandler
	Health    echo.HandlerFunc
}

// Options carries what the middleware chain needs.
type Options struct {
	Verify    middleware.VerifyFunc
	RateLimit config.RateLimitConfig
	Redis     *redis.Client // nil disables rate limiting
	CoverDir  string        // served under /albums/covers
}

// Register mounts every route on e.
func Register(e *echo.Echo, h Handlers, o Options) {
	e.GET("/healthz", h.Health)

	auth := middleware.JWTAuth(o.Verify)
	writes := middleware.NewTokenBucket(o.RateLimit, o.Redis, "write")

	RegisterAuth(e, h.Auth, middleware.NewTokenBucket(o.RateLimit, o.Redis, "auth"))
	RegisterCatalog(e, h.Albums, h.Songs, auth, writes, o.CoverDir)
	RegisterPlaylists(e, h.Playlists, auth, writes)
}

// RegisterAuth mounts registration and the token endpoints.  None of them
// take an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	e.POST("/users", a.Register, limit)

	g := e.Group("/authentications", limit)
	g.POST("", a.Login)
	g.PUT("", a.Refresh)
	g.DELETE("", a.Logout)
}

// RegisterCatalog mounts albums and songs.  Reads and catalog edits are
// public; likes need a user.
func RegisterCatalog(e *echo.Echo, a *handler.AlbumHandler, s *handler.SongHandler, auth, writes echo.MiddlewareFunc, coverDir string) {
	albums := e.Group("/albums")
	albums.POST("", a.Create)
	albums.GET("/:id", a.Get)
	albums.PUT("/:id", a.Update)
	albums.DELETE("/:id", a.Delete)
	albums.POST("/:id/covers", a.UploadCover)
	albums.GET("/:id/likes", a.Likes)
	albums.POST("/:id/likes", a.Like, auth, writes)
	albums.DELETE("/:id/likes", a.Unlike, auth, writes)
	if coverDir != "" {
		e.Static("/albums/covers", coverDir)
	}

	songs := e.Group("/songs")
	songs.POST("", s.Create)
	songs.GET("", s.List)
	songs.GET("/:id", s.Get)
	songs.PUT("/:id", s.Update)
	songs.DELETE("/:id", s.Delete)
}

// RegisterPlaylists mounts playlists, collaborations and exports.  All of
// them require a valid access token; writes are rate limited per user.
func RegisterPlaylists(e *echo.Echo, p *handler.PlaylistHandler, auth, writes echo.MiddlewareFunc) {
	g := e.Group("/playlists", auth)
	g.POST("", p.Create, writes)
	g.GET("", p.List)
	g.DELETE("/:id", p.Delete, writes)
	g.POST("/:id/songs", p.AddSong, writes)
	g.GET("/:id/songs", p.Songs)
	g.DELETE("/:id/songs", p.RemoveSong, writes)
	g.GET("/:id/activities", p.Activities)

	c := e.Group("/collaborations", auth, writes)
	c.POST("", p.AddCollaborator)
	c.DELETE("", p.RemoveCollaborator)

	e.POST("/export/playlist/:id", p.Export, auth, writes)
}

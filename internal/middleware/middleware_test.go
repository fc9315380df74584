package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/config"
	"github.com/iliyamo/openmusic-api/internal/utils"
)

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func verifier(secret string) VerifyFunc {
	return func(raw string) (*utils.Claims, error) { return utils.ParseToken(secret, raw) }
}

func TestJWTAuth_SetsIdentity(t *testing.T) {
	at, err := utils.NewAccessToken("secret", "user-1", "alice", 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+at.Token)
	c := e.NewContext(req, httptest.NewRecorder())

	var gotID, gotName string
	h := JWTAuth(verifier("secret"))(func(c echo.Context) error {
		gotID, _ = UserID(c)
		gotName = Username(c)
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, "user-1", gotID)
	assert.Equal(t, "alice", gotName)
}

func TestJWTAuth_Rejects(t *testing.T) {
	at, err := utils.NewAccessToken("other", "user-1", "alice", 5)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"wrong secret": "Bearer " + at.Token,
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set(echo.HeaderAuthorization, header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			err := JWTAuth(verifier("secret"))(ok)(c)
			assert.True(t, apperror.Is(err, apperror.ErrUnauthorized))
			_, has := UserID(c)
			assert.False(t, has)
		})
	}
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "user",
		Prefix:         "rl",
	}
	e := echo.New()
	e.POST("/playlists", ok, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetIdentity(c, "user-1", "alice")
			return next(c)
		}
	}, NewTokenBucket(cfg, rdb, "write"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/playlists", nil))
		codes = append(codes, rec.Code)
		if i == 2 {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), `"status":"fail"`)
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	assert.True(t, mr.Exists("rl:write:user:user-1"))
}

func TestTokenBucket_RefillsWholeIntervals(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	b := tokenBucket{rdb: rdb, cfg: config.RateLimitConfig{
		Capacity: 2, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute,
	}}
	ctx := context.Background()
	t0 := time.UnixMilli(1_700_000_000_000)

	for i, want := range []int64{1, 0} {
		res, err := b.take(ctx, "bucket", t0)
		require.NoError(t, err)
		assert.True(t, res.allowed, "take %d", i)
		assert.Equal(t, want, res.remaining)
	}

	res, err := b.take(ctx, "bucket", t0.Add(400*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, res.allowed)
	assert.Equal(t, 600*time.Millisecond, res.retry)

	// 1.5 intervals refill one token; the half interval carries over.
	res, err = b.take(ctx, "bucket", t0.Add(1500*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, res.allowed)
	assert.Equal(t, int64(0), res.remaining)
	assert.Equal(t, "1700000001000", mr.HGet("bucket", "at"))

	res, err = b.take(ctx, "bucket", t0.Add(10*time.Second))
	require.NoError(t, err)
	assert.True(t, res.allowed)
	assert.Equal(t, int64(1), res.remaining)
	assert.True(t, mr.TTL("bucket") > 0)
}

func TestTokenBucket_DisabledOrNoRedisPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/", ok, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, "write"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTokenBucket_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	e := echo.New()
	e.GET("/", ok, NewTokenBucket(cfg, rdb, "write"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBuildRateKeyDefaultsToAnon(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/songs")

	key := buildRateKey(config.RateLimitConfig{Prefix: "rl"}, "auth", c)
	assert.Equal(t, "rl:auth:ip:10.0.0.1:user:anon:route:GET /songs", key)
}

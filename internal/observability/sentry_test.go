package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/quantsim-go/internal/config"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (r *eventRecorder) record(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	// Drop the event so nothing is sent
	return nil
}

func (r *eventRecorder) all() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.events...)
}

func bindRecorder(t *testing.T) *eventRecorder {
	t.Helper()
	rec := &eventRecorder{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:        "https://public@127.0.0.1:1/1",
		BeforeSend: rec.record,
	})
	require.NoError(t, err)

	hub := sentry.CurrentHub()
	previous := hub.Client()
	hub.BindClient(client)
	t.Cleanup(func() { hub.BindClient(previous) })
	return rec
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(Middleware())
	router.GET("/probe", handlers...)
	return router
}

func TestInitSentry_Disabled(t *testing.T) {
	enabled, err := InitSentry(config.SentryConfig{Enabled: true}, "1.0.0", "test")
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = InitSentry(config.SentryConfig{DSN: "https://public@127.0.0.1:1/1"}, "1.0.0", "test")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestInitSentry_InvalidDSN(t *testing.T) {
	enabled, err := InitSentry(config.SentryConfig{Enabled: true, DSN: "::not a dsn"}, "1.0.0", "test")
	assert.Error(t, err)
	assert.False(t, enabled)
}

func TestMiddleware_ReportsServerErrors(t *testing.T) {
	rec := bindRecorder(t)
	router := newRouter(func(c *gin.Context) {
		_ = c.Error(errors.New("engine exploded"))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	events := rec.all()
	require.Len(t, events, 1)
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "engine exploded", events[0].Exception[0].Value)
	assert.Equal(t, "/probe", events[0].Tags["route"])
	assert.Equal(t, "GET", events[0].Tags["method"])
}

func TestMiddleware_IgnoresClientErrors(t *testing.T) {
	rec := bindRecorder(t)
	router := newRouter(func(c *gin.Context) {
		_ = c.Error(errors.New("bad input"))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rec.all())
}

func TestMiddleware_ReportsPanics(t *testing.T) {
	rec := bindRecorder(t)
	router := newRouter(func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, rec.all(), 1)
}

func TestMiddleware_HubOnContext(t *testing.T) {
	bindRecorder(t)
	var found bool
	router := newRouter(func(c *gin.Context) {
		found = sentry.GetHubFromContext(c.Request.Context()) != nil
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))
	assert.True(t, found)
}

func TestCaptureException(t *testing.T) {
	rec := bindRecorder(t)

	CaptureException(context.Background(), nil)
	assert.Empty(t, rec.all())

	CaptureException(context.Background(), errors.New("global hub"))
	hub := sentry.CurrentHub().Clone()
	CaptureException(sentry.SetHubOnContext(context.Background(), hub), errors.New("context hub"))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, "global hub", events[0].Exception[0].Value)
	assert.Equal(t, "context hub", events[1].Exception[0].Value)
}

func TestFlush_NoClientDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	Flush(ctx)
}

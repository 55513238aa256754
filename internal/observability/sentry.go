package observability

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/irfndi/quantsim-go/internal/config"
)

// InitSentry configures the Sentry SDK using application config. It
// reports whether reporting is active.
func InitSentry(cfg config.SentryConfig, fallbackRelease string, fallbackEnv string) (bool, error) {
	if !cfg.Enabled || cfg.DSN == "" {
		return false, nil
	}

	release := cfg.Release
	if release == "" {
		release = fallbackRelease
	}

	environment := cfg.Environment
	if environment == "" {
		environment = fallbackEnv
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Tags == nil {
				event.Tags = map[string]string{}
			}
			event.Tags["go_version"] = runtime.Version()
			return event
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, nil
}

// Flush drains buffered Sentry events within the provided context deadline.
func Flush(ctx context.Context) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout < 0 {
			timeout = 0
		}
	}
	sentry.Flush(timeout)
}

// CaptureException sends an exception to Sentry, using the hub in context when available.
func CaptureException(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// Middleware attaches a request-scoped hub to every request. Panics are
// reported and re-raised for gin.Recovery; handler errors recorded with
// c.Error are reported when the response status is 5xx.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		ctx := sentry.SetHubOnContext(c.Request.Context(), hub)
		c.Request = c.Request.WithContext(ctx)

		defer func() {
			if r := recover(); r != nil {
				hub.RecoverWithContext(ctx, r)
				panic(r)
			}
		}()

		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		if err := c.Errors.Last(); err != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("route", c.FullPath())
				scope.SetTag("method", c.Request.Method)
				hub.CaptureException(err.Err)
			})
		}
	}
}

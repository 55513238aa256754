package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/quantsim-go/internal/telemetry"
)

// isProbePath reports whether path is a health, readiness or liveness probe.
func isProbePath(path string) bool {
	return path == "/health" || path == "/ready" || path == "/live"
}

// TelemetryMiddleware annotates the request span with simulation-specific
// attributes and its final status. When otelgin has already started a
// server span it is reused; otherwise a new one is started from the
// incoming trace headers. Probe endpoints are not traced.
func TelemetryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProbePath(c.Request.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("http.client_ip", c.ClientIP()),
			attribute.String("http.user_agent", c.Request.UserAgent()),
		}
		if requestID := c.GetString(RequestIDKey); requestID != "" {
			attrs = append(attrs, attribute.String("http.request_id", requestID))
		}

		span := trace.SpanFromContext(c.Request.Context())
		if !span.SpanContext().IsValid() {
			ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
			ctx, span = telemetry.GetHTTPTracer().Start(ctx,
				fmt.Sprintf("HTTP %s %s", c.Request.Method, route),
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()
			c.Request = c.Request.WithContext(ctx)
		}
		span.SetAttributes(attrs...)

		start := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.Int64("http.response.time_ms", time.Since(start).Milliseconds()),
			attribute.Int64("http.response.size_bytes", int64(c.Writer.Size())),
		)
		if clientID := c.GetString(ClientIDKey); clientID != "" {
			span.SetAttributes(attribute.String("enduser.id", clientID))
		}

		switch {
		case len(c.Errors) > 0:
			// Handler errors attached with c.Error carry the engine message
			span.RecordError(c.Errors.Last().Err)
			span.SetStatus(codes.Error, c.Errors.Last().Error())
		case statusCode >= 400:
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}

// AddSpanAttribute adds an attribute to the current span
func AddSpanAttribute(c *gin.Context, key string, value interface{}) {
	span := trace.SpanFromContext(c.Request.Context())
	if span.IsRecording() {
		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(key, v))
		case int:
			span.SetAttributes(attribute.Int(key, v))
		case int64:
			span.SetAttributes(attribute.Int64(key, v))
		case uint32:
			span.SetAttributes(attribute.Int64(key, int64(v)))
		case float64:
			span.SetAttributes(attribute.Float64(key, v))
		case bool:
			span.SetAttributes(attribute.Bool(key, v))
		default:
			span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", value)))
		}
	}
}

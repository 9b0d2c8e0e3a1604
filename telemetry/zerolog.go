// Package telemetry adapts the SDK's TelemetryHooks to zerolog and Prometheus.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	sdk "github.com/cad/ovpm/sdk/go"
)

// ZerologHooks forwards SDK log entries to logger. Info entries are logged at
// debug level so a default CLI run stays quiet; errors stay errors.
func ZerologHooks(logger zerolog.Logger) sdk.TelemetryHooks {
	return sdk.TelemetryHooks{
		OnLogEntry: func(_ context.Context, entry sdk.LogEntry) {
			var ev *zerolog.Event
			switch entry.Level {
			case sdk.LogLevelError:
				ev = logger.Error()
			default:
				ev = logger.Debug()
			}
			ev.Fields(entry.Fields).Msg(entry.Message)
		},
		OnHTTPResponse: func(_ context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration) {
			ev := logger.Trace().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Dur("latency", latency)
			if resp != nil {
				ev = ev.Int("status", resp.StatusCode)
			}
			if err != nil {
				ev = ev.Err(err)
			}
			ev.Msg("http_response")
		},
	}
}

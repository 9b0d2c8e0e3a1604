package sdk

import (
	"context"
	"net/http"
	"time"
)

// MetricRequestLatency is emitted once per dispatched call with endpoint,
// method and status labels. The value is fractional milliseconds. Status is
// "0" when no complete response arrived.
const MetricRequestLatency = "sdk_http_request_latency_ms"

// TelemetryHooks expose observability callbacks without forcing dependencies on the caller.
// The client itself never logs; every hook is optional.
type TelemetryHooks struct {
	// OnHTTPRequest fires before the HTTP request is sent.
	OnHTTPRequest func(ctx context.Context, req *http.Request)
	// OnHTTPResponse fires after the request completes (even when err != nil).
	OnHTTPResponse func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration)
	// OnLogEntry allows callers to capture SDK log events (info/errors).
	OnLogEntry func(ctx context.Context, entry LogEntry)
	// OnMetric records lightweight counters/gauges for observability dashboards.
	OnMetric func(ctx context.Context, metric Metric)
}

// LogLevel encodes the severity for log hooks.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

// LogEntry captures structured log details for SDK consumers.
type LogEntry struct {
	Level   LogLevel
	Message string
	Fields  map[string]any
}

// Metric represents a single observability datapoint.
type Metric struct {
	Name   string
	Value  float64
	Labels map[string]string
}

func (t TelemetryHooks) log(ctx context.Context, level LogLevel, msg string, fields map[string]any) {
	if t.OnLogEntry == nil {
		return
	}
	t.OnLogEntry(ctx, LogEntry{Level: level, Message: msg, Fields: fields})
}

func (t TelemetryHooks) metric(ctx context.Context, name string, value float64, labels map[string]string) {
	if t.OnMetric == nil {
		return
	}
	t.OnMetric(ctx, Metric{Name: name, Value: value, Labels: labels})
}

// CombineTelemetry fans every hook out to all of the given hook sets in order.
func CombineTelemetry(sets ...TelemetryHooks) TelemetryHooks {
	var out TelemetryHooks
	for _, s := range sets {
		s := s
		if s.OnHTTPRequest != nil {
			prev := out.OnHTTPRequest
			out.OnHTTPRequest = func(ctx context.Context, req *http.Request) {
				if prev != nil {
					prev(ctx, req)
				}
				s.OnHTTPRequest(ctx, req)
			}
		}
		if s.OnHTTPResponse != nil {
			prev := out.OnHTTPResponse
			out.OnHTTPResponse = func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration) {
				if prev != nil {
					prev(ctx, req, resp, err, latency)
				}
				s.OnHTTPResponse(ctx, req, resp, err, latency)
			}
		}
		if s.OnLogEntry != nil {
			prev := out.OnLogEntry
			out.OnLogEntry = func(ctx context.Context, entry LogEntry) {
				if prev != nil {
					prev(ctx, entry)
				}
				s.OnLogEntry(ctx, entry)
			}
		}
		if s.OnMetric != nil {
			prev := out.OnMetric
			out.OnMetric = func(ctx context.Context, m Metric) {
				if prev != nil {
					prev(ctx, m)
				}
				s.OnMetric(ctx, m)
			}
		}
	}
	return out
}

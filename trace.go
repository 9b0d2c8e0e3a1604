package sdk

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/cad/ovpm/sdk/go/headers"
)

// injectTraceparent propagates the caller's span as a W3C traceparent header.
func injectTraceparent(ctx context.Context, req *http.Request) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	flags := "00"
	if sc.IsSampled() {
		flags = "01"
	}
	req.Header.Set(headers.Traceparent, fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), flags))
}

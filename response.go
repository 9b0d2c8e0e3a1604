package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a successful (2xx) reply to a call. The body has already been
// read and the connection released.
type Response struct {
	Endpoint   string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil {
		return fmt.Errorf("sdk: nil response")
	}
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("sdk: %s: decode response: %w", r.Endpoint, err)
	}
	return nil
}

// Package testutil provides helpers for SDK tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// RecordedRequest is a request as seen by the RecordingServer.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into a generic map.
func (r RecordedRequest) JSON() (map[string]any, error) {
	out := map[string]any{}
	if len(r.Body) == 0 {
		return out, nil
	}
	err := json.Unmarshal(r.Body, &out)
	return out, err
}

// Reply is a canned response keyed by request path.
type Reply struct {
	Status int
	Body   any
	Delay  time.Duration
}

// RecordingServer is an httptest server that records every request and
// answers with per-path canned replies (200 {} when none is configured).
type RecordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	replies  map[string]Reply
	requests []RecordedRequest
}

// NewRecordingServer starts a server. Call Close when done.
func NewRecordingServer() *RecordingServer {
	s := &RecordingServer{replies: map[string]Reply{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Reply configures the response for path.
func (s *RecordingServer) Reply(path string, reply Reply) *RecordingServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[path] = reply
	return s
}

// Requests returns a copy of the recorded requests.
func (s *RecordingServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Last returns the most recent request.
func (s *RecordingServer) Last() (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *RecordingServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	reply, ok := s.replies[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		reply = Reply{Status: http.StatusOK, Body: map[string]any{}}
	}
	if reply.Delay > 0 {
		time.Sleep(reply.Delay)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch b := reply.Body.(type) {
	case nil:
	case []byte:
		_, _ = w.Write(b)
	case string:
		_, _ = w.Write([]byte(b))
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}

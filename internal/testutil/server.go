package testutil

import (
	"net/http/httptest"
	"testing"
)

// ServerInstance represents a running HTTP test server.
type ServerInstance struct {
	BaseURL string
	Backend *FakeBackend
	Close   func()
}

// StartBackend launches an httptest server for a fake backend.
// A nil backend starts a fresh one.
func StartBackend(t testing.TB, backend *FakeBackend) *ServerInstance {
	t.Helper()
	if backend == nil {
		backend = NewFakeBackend()
	}
	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)
	return &ServerInstance{
		BaseURL: server.URL,
		Backend: backend,
		Close:   server.Close,
	}
}

package tester

import "context"

// Backend is the client-facing API of the remote test runner.
type Backend interface {
	SystemPrompt(ctx context.Context) (string, error)
	DefaultModel(ctx context.Context) (string, error)
	Config(ctx context.Context) (ServerConfig, error)
	Health(ctx context.Context) (Health, error)
	Submit(ctx context.Context, req TestRequest) (SubmitResponse, error)
	Results(ctx context.Context, sessionID string) (ResultsResponse, error)
	Sessions(ctx context.Context) ([]SessionSummary, error)
	Delete(ctx context.Context, sessionID string) error
}

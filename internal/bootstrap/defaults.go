package bootstrap

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/Laisky/zap"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const (
	// FallbackSystemPrompt is shown when the backend cannot supply one.
	FallbackSystemPrompt = "默认系统提示词"
	// FallbackModel is used when the backend cannot supply a default model.
	FallbackModel = "qwen3-coder-plus"

	// DefaultTTL bounds how long fetched defaults are reused.
	DefaultTTL = 5 * time.Minute

	keySystemPrompt = "system_prompt"
	keyDefaultModel = "default_model"
)

// Source is the subset of the backend serving bootstrap values.
type Source interface {
	SystemPrompt(ctx context.Context) (string, error)
	DefaultModel(ctx context.Context) (string, error)
}

// Defaults holds the values the client starts from.
type Defaults struct {
	SystemPrompt string
	DefaultModel string
	// Fallback lists which fields fell back to built-in values.
	Fallback []string
}

// ModelFallback reports whether DefaultModel is the built-in fallback.
func (d Defaults) ModelFallback() bool {
	return slices.Contains(d.Fallback, keyDefaultModel)
}

// Loader fetches defaults once per TTL.
type Loader struct {
	source Source
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewLoader builds a loader. A zero ttl uses DefaultTTL.
func NewLoader(source Source, ttl time.Duration, logger *zap.Logger) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Load fetches the system prompt and default model concurrently. It never
// fails: a fetch error substitutes the fallback value and is logged.
// Fallback values are not cached so the next call retries.
func (l *Loader) Load(ctx context.Context) Defaults {
	var prompt, model string
	var promptErr, modelErr error

	// No shared context: one failed fetch must not cancel the other.
	var group errgroup.Group
	group.Go(func() error {
		prompt, promptErr = l.fetch(ctx, keySystemPrompt, l.source.SystemPrompt)
		return promptErr
	})
	group.Go(func() error {
		model, modelErr = l.fetch(ctx, keyDefaultModel, l.source.DefaultModel)
		return modelErr
	})
	if err := group.Wait(); err != nil {
		l.logger.Debug("bootstrap fetch incomplete", zap.Error(err))
	}

	defaults := Defaults{SystemPrompt: prompt, DefaultModel: model}
	if promptErr != nil || strings.TrimSpace(prompt) == "" {
		if promptErr != nil {
			l.logger.Warn("system prompt unavailable, using fallback", zap.Error(promptErr))
		}
		defaults.SystemPrompt = FallbackSystemPrompt
		defaults.Fallback = append(defaults.Fallback, keySystemPrompt)
	}
	if modelErr != nil || strings.TrimSpace(model) == "" {
		if modelErr != nil {
			l.logger.Warn("default model unavailable, using fallback", zap.Error(modelErr))
		}
		defaults.DefaultModel = FallbackModel
		defaults.Fallback = append(defaults.Fallback, keyDefaultModel)
	}
	return defaults
}

// Invalidate drops cached values.
func (l *Loader) Invalidate() {
	l.cache.Flush()
}

func (l *Loader) fetch(ctx context.Context, key string, get func(context.Context) (string, error)) (string, error) {
	if cached, ok := l.cache.Get(key); ok {
		if value, ok := cached.(string); ok {
			return value, nil
		}
	}
	value, err := get(ctx)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value != "" {
		l.cache.SetDefault(key, value)
	}
	return value, nil
}

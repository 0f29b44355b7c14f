// Package tools exposes callable functions to the chat model: a registry,
// OpenAPI-discovered HTTP tools and the openFDA drug lookup.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/llm"
)

// DefaultRetryInterval is how long a failed source waits before it is loaded again.
const DefaultRetryInterval = time.Minute

// Tool is one function the model may call.
type Tool interface {
	Spec() llm.ToolSpec
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Source produces tools lazily, e.g. from a remote OpenAPI document.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Tool, error)
}

type sourceState struct {
	src       Source
	loaded    bool
	lastTried time.Time
}

// Registry maps tool names to tools. It is safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	tools         map[string]Tool
	order         []string
	sources       []*sourceState
	retryInterval time.Duration
	nowFunc       func() time.Time
	logger        *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:         make(map[string]Tool),
		retryInterval: DefaultRetryInterval,
		nowFunc:       time.Now,
		logger:        logger,
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	name := t.Spec().Name
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// AddSource registers a lazy source; it is loaded on the next Refresh.
func (r *Registry) AddSource(src Source) {
	r.mu.Lock()
	r.sources = append(r.sources, &sourceState{src: src})
	r.mu.Unlock()
}

// Refresh loads every source that has not loaded yet. Failed sources are
// retried at most once per retry interval; their errors are logged.
func (r *Registry) Refresh(ctx context.Context) {
	r.mu.Lock()
	now := r.nowFunc()
	var due []*sourceState
	for _, s := range r.sources {
		if s.loaded || (!s.lastTried.IsZero() && now.Sub(s.lastTried) < r.retryInterval) {
			continue
		}
		s.lastTried = now
		due = append(due, s)
	}
	r.mu.Unlock()

	for _, s := range due {
		loaded, err := s.src.Load(ctx)
		if err != nil {
			r.logger.Warn("load tool source", zap.String("source", s.src.Name()), zap.Error(err))
			continue
		}
		added := 0
		for _, t := range loaded {
			if err := r.Register(t); err != nil {
				r.logger.Debug("skip tool", zap.String("source", s.src.Name()), zap.Error(err))
				continue
			}
			added++
		}
		r.mu.Lock()
		s.loaded = true
		r.mu.Unlock()
		r.logger.Info("tool source loaded", zap.String("source", s.src.Name()), zap.Int("tools", added))
	}
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Specs returns tool declarations in registration order.
func (r *Registry) Specs() []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Spec())
	}
	return out
}

// Names returns the registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := append([]string(nil), r.order...)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Call runs a tool with the raw JSON arguments produced by the model and
// returns the JSON text handed back to the model. Failures never escape:
// they become {"error": "..."} payloads.
func (r *Registry) Call(ctx context.Context, name, rawArgs string) string {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return errorPayload("Unknown function name: " + name)
	}

	args := map[string]any{}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return errorPayload("invalid arguments: " + err.Error())
		}
	}

	start := r.nowFunc()
	result, err := t.Call(ctx, args)
	if err != nil {
		r.logger.Warn("tool call failed", zap.String("tool", name), zap.Error(err))
		return errorPayload(err.Error())
	}
	data, err := json.Marshal(result)
	if err != nil {
		return errorPayload("encode result: " + err.Error())
	}
	r.logger.Debug("tool call", zap.String("tool", name), zap.Duration("took", r.nowFunc().Sub(start)))
	return string(data)
}

func errorPayload(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}

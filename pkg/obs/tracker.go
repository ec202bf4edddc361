// Package obs provides the observability sink for interview sessions:
// traces, generations, spans and scores, plus per-session token metrics.
// The sink degrades to no-ops when tracing is disabled, so callers never
// guard their instrumentation.
package obs

import "context"

// Tracker creates traces and flushes buffered events to the backend
type Tracker interface {
	// StartTrace opens a trace for one session
	StartTrace(name, sessionID string, metadata map[string]any) Trace
	// Flush delivers all buffered events; blocks until done or ctx expires
	Flush(ctx context.Context) error
}

// Trace is one session-scoped trace
type Trace interface {
	// ID returns the trace identifier
	ID() string
	// StartGeneration opens a generation (one LM invocation) on the trace
	StartGeneration(name, model string, input any) Generation
	// Span records an instantaneous unit of work on the trace
	Span(name string, input, output any)
	// Score attaches a numeric score to the trace
	Score(name string, value float64, comment string)
}

// Generation is one in-flight LM invocation being measured
type Generation interface {
	// End closes the generation with its output and usage. Level is
	// "DEFAULT" for success or "ERROR" with a status message.
	End(output string, usage *TokenUsage, level, statusMessage string)
}

// NoopTracker discards everything. Used when tracing is disabled.
type NoopTracker struct{}

// StartTrace returns a trace that discards everything
func (NoopTracker) StartTrace(name, sessionID string, metadata map[string]any) Trace {
	return noopTrace{}
}

// Flush does nothing
func (NoopTracker) Flush(ctx context.Context) error { return nil }

type noopTrace struct{}

func (noopTrace) ID() string { return "" }

func (noopTrace) StartGeneration(name, model string, input any) Generation {
	return noopGeneration{}
}

func (noopTrace) Span(name string, input, output any) {}

func (noopTrace) Score(name string, value float64, comment string) {}

type noopGeneration struct{}

func (noopGeneration) End(output string, usage *TokenUsage, level, statusMessage string) {}

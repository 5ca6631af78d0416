// Package telemetry collects hierarchical operation timings.
//
// A Collector travels through context, so loading files and calculating
// currencies can be timed without changing any function signatures. When no
// collector is attached every call is a no-op.
//
// Example usage:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	root := collector.Start("gains export.csv")
//	ctx = telemetry.WithRootTimer(ctx, root)
//
//	timer := telemetry.StartTimer(ctx, "loader.load export.csv")
//	// ... work ...
//	timer.End()
//
//	root.End()
//	collector.Report(os.Stderr, nil)
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/capgains/output"
)

type (
	collectorKey struct{}
	rootTimerKey struct{}
)

// Collector collects timings and reports them.
type Collector interface {
	// Start begins timing an operation nested under the most recently
	// started, still running operation.
	Start(name string) Timer

	// Report writes the collected timings to w. Styles are optional.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation.
type Timer interface {
	// End stops the timer.
	End()

	// Child creates a timer nested under this one. Children may be created
	// and ended from different goroutines.
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, collector)
}

// FromContext returns the collector in ctx, or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey{}).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// WithRootTimer stores the timer new operations should nest under.
func WithRootTimer(ctx context.Context, timer Timer) context.Context {
	return context.WithValue(ctx, rootTimerKey{}, timer)
}

// StartTimer starts timing an operation. It nests under the root timer of
// ctx when there is one, which keeps concurrent operations side by side
// instead of nesting them into each other.
func StartTimer(ctx context.Context, name string) Timer {
	if root, ok := ctx.Value(rootTimerKey{}).(Timer); ok {
		return root.Child(name)
	}
	return FromContext(ctx).Start(name)
}

package telemetry

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestNoOpCollector(t *testing.T) {
	collector := noOpCollector{}

	timer := collector.Start("gains")
	timer.Child("loader.load").End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}

func TestFromContext(t *testing.T) {
	t.Run("Returns no-op when missing", func(t *testing.T) {
		collector := FromContext(context.Background())
		_, ok := collector.(noOpCollector)
		assert.True(t, ok, "expected noOpCollector, got %T", collector)
	})

	t.Run("Returns attached collector", func(t *testing.T) {
		collector := NewTimingCollector()
		ctx := WithCollector(context.Background(), collector)

		retrieved, ok := FromContext(ctx).(*TimingCollector)
		assert.True(t, ok)
		assert.True(t, retrieved == collector, "expected the attached collector")
	})
}

func TestStartTimer(t *testing.T) {
	t.Run("Nests under root timer", func(t *testing.T) {
		collector := NewTimingCollector()
		ctx := WithCollector(context.Background(), collector)

		root := collector.Start("gains export.csv")
		ctx = WithRootTimer(ctx, root)

		load := StartTimer(ctx, "loader.load export.csv")
		load.End()
		calc := StartTimer(ctx, "ledger.calculate BTC")
		calc.End()
		root.End()

		var buf bytes.Buffer
		collector.Report(&buf, nil)
		out := buf.String()

		assert.Contains(t, out, "gains export.csv: ")
		assert.Contains(t, out, "├─ loader.load export.csv: ")
		assert.Contains(t, out, "└─ ledger.calculate BTC: ")
	})

	t.Run("Safe for concurrent children", func(t *testing.T) {
		collector := NewTimingCollector()
		root := collector.Start("gains")
		ctx := WithRootTimer(WithCollector(context.Background(), collector), root)

		var wg sync.WaitGroup
		for _, currency := range []string{"BTC", "ETH", "XRP", "LTC"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				StartTimer(ctx, "ledger.calculate "+currency).End()
			}()
		}
		wg.Wait()
		root.End()

		var buf bytes.Buffer
		collector.Report(&buf, nil)
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Equal(t, 5, len(lines))
	})

	t.Run("No-op without collector", func(t *testing.T) {
		timer := StartTimer(context.Background(), "anything")
		_, ok := timer.(noOpTimer)
		assert.True(t, ok)
	})
}

func TestTimingCollectorHierarchical(t *testing.T) {
	collector := NewTimingCollector()

	root := collector.Start("Total")
	child := root.Child("Child")
	time.Sleep(5 * time.Millisecond)
	child.End()
	child2 := root.Child("Child 2")
	child2.End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	out := buf.String()

	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "├─ Child: ")
	assert.Contains(t, out, "└─ Child 2: ")
}

func TestTimingCollectorDeepNesting(t *testing.T) {
	collector := NewTimingCollector()

	t1 := collector.Start("Level 1")
	t2 := t1.Child("Level 2")
	t3 := t2.Child("Level 3")
	t3.End()
	t2.End()
	t1.End()

	var buf bytes.Buffer
	collector.Report(&buf, nil)

	assert.Contains(t, buf.String(), "   └─ Level 3: ")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{1 * time.Millisecond, "1ms"},
		{100 * time.Millisecond, "100ms"},
		{999 * time.Millisecond, "999ms"},
		{1 * time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.duration))
	}
}

func TestTimingCollectorEmptyReport(t *testing.T) {
	collector := NewTimingCollector()

	var buf bytes.Buffer
	collector.Report(&buf, nil)
	assert.Equal(t, 0, buf.Len())
}

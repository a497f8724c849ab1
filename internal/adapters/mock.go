package adapters

import (
	"context"
	"fmt"
	"log"
	"time"
)

// MockAnchorWriter returns anchor_prefix||batch_id without touching any
// real ledger; cmd/kwon-server always wires it into the batcher, which
// the tool server's anchor tools also use. No setting selects another
// AnchorWriter.
type MockAnchorWriter struct {
	Prefix string
}

func (m *MockAnchorWriter) Anchor(ctx context.Context, batchID, chain string) (string, time.Time, error) {
	return m.Prefix + batchID, time.Now().UTC(), nil
}

// LogNotifier logs notifications instead of sending them; idempotency is
// trivially satisfied since logging has no external side effect to
// duplicate.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.New(log.Writer(), "[Notifier] ", log.LstdFlags)}
}

func (n *LogNotifier) NotifyHumanReview(ctx context.Context, taskID, period, reportURL string, summary map[string]interface{}) error {
	n.logger.Printf("human review requested: task=%s period=%s report=%s", taskID, period, reportURL)
	return nil
}

func (n *LogNotifier) NotifyDecision(ctx context.Context, taskID, period, decision, comment, reportPath string) error {
	n.logger.Printf("decision recorded: task=%s period=%s decision=%s report=%s", taskID, period, decision, reportPath)
	return nil
}

// StaticMetricSource returns a fixed MonthlyMetrics value regardless of
// period; placeholder for the real DART/disclosure data contract §9
// leaves unfinalized.
type StaticMetricSource struct {
	Metrics MonthlyMetrics
}

func (s *StaticMetricSource) LoadMetrics(ctx context.Context, period string) (*MonthlyMetrics, error) {
	if period == "" {
		return nil, fmt.Errorf("static metric source: period is required")
	}
	m := s.Metrics
	return &m, nil
}

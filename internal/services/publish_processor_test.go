package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

func TestDefaultPublishProcessorConfig(t *testing.T) {
	config := DefaultPublishProcessorConfig()

	if config.PollInterval != 10*time.Second {
		t.Errorf("expected PollInterval 10s, got %v", config.PollInterval)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
}

func TestNewPublishProcessor_ZeroConfig(t *testing.T) {
	p := NewPublishProcessor(nil, nil, PublishProcessorConfig{})
	if p.config != DefaultPublishProcessorConfig() {
		t.Errorf("zero config should fall back to defaults, got %+v", p.config)
	}
	if p.IsRunning() {
		t.Error("processor should not be running initially")
	}
}

func TestPublishProcessor_FlushCollapsesMonths(t *testing.T) {
	reports := &fakeMonthReporter{}
	pub := &fakeReportPublisher{}
	p := NewPublishProcessor(reports, pub, DefaultPublishProcessorConfig())

	p.Enqueue("2026-03")
	p.Enqueue("2026-03")
	p.Enqueue("2026-02")
	p.Flush(context.Background())

	if len(pub.months) != 2 || pub.months[0] != "2026-02" || pub.months[1] != "2026-03" {
		t.Errorf("published months = %v", pub.months)
	}
	if len(p.Pending()) != 0 {
		t.Errorf("nothing should remain pending, got %v", p.Pending())
	}
}

func TestPublishProcessor_RetriesThenDrops(t *testing.T) {
	reports := &fakeMonthReporter{err: errors.New("storage down")}
	pub := &fakeReportPublisher{}
	config := DefaultPublishProcessorConfig()
	config.MaxRetries = 2
	p := NewPublishProcessor(reports, pub, config)

	p.Enqueue("2026-03")
	p.Flush(context.Background())
	if len(p.Pending()) != 1 {
		t.Fatalf("month should stay pending after the first failure")
	}
	p.Flush(context.Background())
	if len(p.Pending()) != 0 {
		t.Errorf("month should be dropped after max retries, got %v", p.Pending())
	}
	if len(reports.calls) != 2 || len(pub.months) != 0 {
		t.Errorf("calls=%v published=%v", reports.calls, pub.months)
	}
}

// reenqueueReporter marks its month again while the reports are being built,
// the way a snapshot saved mid-publish does.
type reenqueueReporter struct {
	fakeMonthReporter
	processor *PublishProcessor
	once      bool
}

func (r *reenqueueReporter) ClassReports(ctx context.Context, month string) ([]core.ClassReport, error) {
	if !r.once {
		r.once = true
		r.processor.Enqueue(month)
	}
	return r.fakeMonthReporter.ClassReports(ctx, month)
}

func TestPublishProcessor_EnqueueDuringPublishKeepsMonth(t *testing.T) {
	reports := &reenqueueReporter{}
	pub := &fakeReportPublisher{}
	p := NewPublishProcessor(reports, pub, DefaultPublishProcessorConfig())
	reports.processor = p

	p.Enqueue("2026-02")
	p.Flush(context.Background())

	if got := p.Pending(); len(got) != 1 || got[0] != "2026-02" {
		t.Fatalf("month marked during publish should stay pending, got %v", got)
	}

	p.Flush(context.Background())
	if got := p.Pending(); len(got) != 0 {
		t.Errorf("second flush should settle the month, got %v", got)
	}
	if len(pub.months) != 2 {
		t.Errorf("month should be published twice, got %v", pub.months)
	}
}

func TestPublishProcessor_StartTwice(t *testing.T) {
	p := NewPublishProcessor(&fakeMonthReporter{}, &fakeReportPublisher{}, PublishProcessorConfig{PollInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should not be running after Stop")
	}
}

func TestPublishProcessor_StopFlushesPending(t *testing.T) {
	pub := &fakeReportPublisher{}
	p := NewPublishProcessor(&fakeMonthReporter{}, pub, PublishProcessorConfig{PollInterval: time.Hour})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Enqueue("2026-05")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(pub.months) != 1 || pub.months[0] != "2026-05" {
		t.Errorf("Stop should flush pending months, got %v", pub.months)
	}
}

func TestPublishProcessor_StopNotRunning(t *testing.T) {
	p := NewPublishProcessor(nil, nil, DefaultPublishProcessorConfig())
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle processor should be a no-op, got %v", err)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/sheets"
)

// PublishProcessorConfig holds configuration for the publish processor
type PublishProcessorConfig struct {
	// PollInterval is how often pending months are flushed (default: 10s).
	// Bursts of snapshots for one month collapse into a single publication.
	PollInterval time.Duration

	// MaxRetries is the number of failed flushes after which a month is
	// dropped until the next snapshot marks it again (default: 3)
	MaxRetries int
}

// DefaultPublishProcessorConfig returns sensible defaults
func DefaultPublishProcessorConfig() PublishProcessorConfig {
	return PublishProcessorConfig{
		PollInterval: 10 * time.Second,
		MaxRetries:   3,
	}
}

// MonthReporter builds the class reports of a month.
type MonthReporter interface {
	ClassReports(ctx context.Context, month string) ([]core.ClassReport, error)
}

// pendingMonth tracks one month awaiting publication. gen grows on every
// Enqueue so a flush can tell whether the month was marked again while it
// was being published.
type pendingMonth struct {
	attempts int
	gen      uint64
}

// PublishProcessor republishes the reports of every month touched by a new
// snapshot.
type PublishProcessor struct {
	reports   MonthReporter
	publisher sheets.ReportPublisher
	config    PublishProcessorConfig

	pendingMu sync.Mutex
	pending   map[string]*pendingMonth

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPublishProcessor(reports MonthReporter, publisher sheets.ReportPublisher, config PublishProcessorConfig) *PublishProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPublishProcessorConfig().PollInterval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultPublishProcessorConfig().MaxRetries
	}
	return &PublishProcessor{
		reports:   reports,
		publisher: publisher,
		config:    config,
		pending:   make(map[string]*pendingMonth),
	}
}

// Enqueue marks month for publication on the next flush.
func (p *PublishProcessor) Enqueue(month string) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	if pm, ok := p.pending[month]; ok {
		pm.gen++
		return
	}
	p.pending[month] = &pendingMonth{}
}

// Pending lists the months waiting for publication.
func (p *PublishProcessor) Pending() []string {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	out := make([]string, 0, len(p.pending))
	for m := range p.pending {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Start begins the processing loop. Returns an error if already running.
func (p *PublishProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("publish processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Publish processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop flushes what is pending and waits for the loop to end.
func (p *PublishProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Publish processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Publish processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *PublishProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PublishProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			p.Flush(context.WithoutCancel(ctx))
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}

// Flush publishes every pending month once.
func (p *PublishProcessor) Flush(ctx context.Context) {
	for _, month := range p.Pending() {
		if ctx.Err() != nil {
			return
		}
		gen := p.generation(month)
		err := p.publishMonth(ctx, month)
		if err == nil {
			p.settle(month, gen)
			continue
		}
		p.handleFailure(ctx, month, err)
	}
}

func (p *PublishProcessor) generation(month string) uint64 {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	if pm, ok := p.pending[month]; ok {
		return pm.gen
	}
	return 0
}

// settle clears month after a successful publish unless it was enqueued
// again in the meantime, in which case it stays for the next flush.
func (p *PublishProcessor) settle(month string, gen uint64) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	pm, ok := p.pending[month]
	if !ok {
		return
	}
	if pm.gen != gen {
		pm.attempts = 0
		return
	}
	delete(p.pending, month)
}

func (p *PublishProcessor) publishMonth(ctx context.Context, month string) error {
	reports, err := p.reports.ClassReports(ctx, month)
	if err != nil {
		return fmt.Errorf("build reports: %w", err)
	}
	if err := p.publisher.PublishClassReports(ctx, month, reports); err != nil {
		return fmt.Errorf("publish reports: %w", err)
	}
	slog.InfoContext(ctx, "Published month reports",
		applog.FieldMonth, month,
		applog.FieldCount, len(reports))
	return nil
}

func (p *PublishProcessor) handleFailure(ctx context.Context, month string, err error) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	pm, ok := p.pending[month]
	if !ok {
		return
	}
	pm.attempts++
	attempts := pm.attempts

	slog.WarnContext(ctx, "Month publication failed",
		applog.FieldMonth, month,
		"attempt", attempts,
		"error", err)

	if attempts >= p.config.MaxRetries {
		delete(p.pending, month)
		slog.ErrorContext(ctx, "Month publication dropped after max retries",
			applog.FieldMonth, month,
			"attempts", attempts)
	}
}

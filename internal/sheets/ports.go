package sheets

import (
	"context"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportPublisher replaces the published attendance of a month.
	ReportPublisher interface {
		PublishClassReports(ctx context.Context, month string, reports []core.ClassReport) error
	}

	// StatisticsPublisher replaces the published student statistics.
	StatisticsPublisher interface {
		PublishStatistics(ctx context.Context, stats []core.StudentStatistics) error
	}

	Publisher interface {
		ReportPublisher
		StatisticsPublisher
	}
)

package ports

import (
	"context"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
)

// DashboardCatalog is the read-only view of the remote dashboard
// metadata service. Implementations own the transport handle and must
// be safe for concurrent use; Close releases it for graceful shutdown.
type DashboardCatalog interface {
	ListDashboards(ctx context.Context) ([]domain.DashboardRecord, error)
	SearchDashboards(ctx context.Context, keywords []string) ([]domain.DashboardRecord, error)
	GetDashboard(ctx context.Context, uid string) (*domain.DashboardRecord, error)
	Close()
}

// IntentModel generates constrained text completions for query
// classification.
type IntentModel interface {
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// TurnEventPublisher notifies downstream consumers that a turn
// completed. Publishing is fire-and-forget and never affects the turn
// outcome.
type TurnEventPublisher interface {
	PublishTurnCompleted(ctx context.Context, result domain.TurnResult) error
}

package ports

import (
	"context"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
)

// ChatAssistant is the inbound contract for one orchestrated turn:
// raw user text in, exactly one formatted response out.
type ChatAssistant interface {
	Answer(ctx context.Context, sessionID, rawText string) (*domain.TurnResult, error)
}

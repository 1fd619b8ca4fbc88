package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
	"github.com/dashwise/dashboard-assistant/internal/core/ports"
)

type turnState string

const (
	stateStart      turnState = "start"
	stateClassified turnState = "classified"
	stateInvoking   turnState = "invoking"
	stateFormatting turnState = "formatting"
	stateRejecting  turnState = "rejecting"
	stateTerminal   turnState = "terminal"
)

// AssistantUseCase orchestrates one user turn: classification, at most
// maxRounds catalog invocations, and deterministic formatting. Every
// path ends in exactly one terminal formatted response.
type AssistantUseCase struct {
	classifier *Classifier
	catalog    ports.DashboardCatalog
	formatter  *Formatter
	events     ports.TurnEventPublisher
	logger     *slog.Logger
	limits     domain.TurnLimits
}

func NewAssistantUseCase(
	classifier *Classifier,
	catalog ports.DashboardCatalog,
	formatter *Formatter,
	events ports.TurnEventPublisher,
	logger *slog.Logger,
	limits domain.TurnLimits,
) *AssistantUseCase {
	if limits.MaxRounds <= 0 {
		limits.MaxRounds = 1
	}
	if limits.TurnTimeout <= 0 {
		limits.TurnTimeout = 20 * time.Second
	}
	if limits.ClassifierTimeout <= 0 {
		limits.ClassifierTimeout = 10 * time.Second
	}
	if limits.CatalogTimeout <= 0 {
		limits.CatalogTimeout = 8 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AssistantUseCase{
		classifier: classifier,
		catalog:    catalog,
		formatter:  formatter,
		events:     events,
		logger:     logger,
		limits:     limits,
	}
}

// agentTurn is the orchestration state for one query. It is created
// and destroyed entirely within one Answer call and never shared.
type agentTurn struct {
	state       turnState
	round       int
	maxRounds   int
	invocations []domain.ToolInvocation
}

func (t *agentTurn) record(inv domain.ToolInvocation) {
	t.invocations = append(t.invocations, inv)
}

func (uc *AssistantUseCase) Answer(ctx context.Context, sessionID, rawText string) (*domain.TurnResult, error) {
	start := time.Now()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	turnCtx, cancel := context.WithTimeout(ctx, uc.limits.TurnTimeout)
	defer cancel()

	turn := &agentTurn{state: stateStart, maxRounds: uc.limits.MaxRounds}
	result := &domain.TurnResult{SessionID: sessionID}

	defer func() {
		turn.state = stateTerminal
		result.Rounds = turn.round
		result.Invocations = turn.invocations
		result.Duration = time.Since(start)
		uc.logger.Info("turn_completed",
			"session_id", sessionID,
			"intent", string(result.Intent),
			"rounds", result.Rounds,
			"failure_kind", result.FailureKind,
			"duration_ms", float64(result.Duration.Microseconds())/1000.0,
		)
		uc.publishTurn(*result)
	}()

	classifyCtx, classifyCancel := context.WithTimeout(turnCtx, uc.limits.ClassifierTimeout)
	query, classifyErr := uc.classifier.Classify(classifyCtx, rawText)
	classifyCancel()
	turn.state = stateClassified
	result.Intent = query.Intent

	if classifyErr != nil {
		// A parsing failure renders like an out-of-scope refusal but is
		// logged under its own kind.
		uc.logger.Warn("classifier_failed",
			"session_id", sessionID,
			"kind", domain.ErrorKind(classifyErr),
			"error", classifyErr,
		)
		result.FailureKind = domain.ErrorKind(classifyErr)
		result.Response = uc.formatter.FormatError(classifyErr)
		return result, nil
	}

	if expired(turnCtx) {
		return uc.timeoutOutcome(result), nil
	}

	switch query.Intent {
	case domain.IntentInvalid, domain.IntentUnsupported:
		// No catalog I/O for out-of-scope or invalid input.
		turn.state = stateRejecting
		result.Response = uc.formatter.FormatRejection(query)
		return result, nil
	}

	turn.state = stateInvoking
	var invocation domain.ToolInvocation
	if turn.round < turn.maxRounds {
		// A single catalog call resolves every supported intent, so
		// the round budget is a ceiling rather than a driver.
		turn.round++
		invocation = uc.invokeCatalog(turnCtx, query)
		turn.record(invocation)
	}

	turn.state = stateFormatting
	if expired(turnCtx) && invocation.Err == nil {
		return uc.timeoutOutcome(result), nil
	}
	if invocation.Err != nil {
		uc.logger.Warn("catalog_call_failed",
			"session_id", sessionID,
			"operation", string(invocation.Operation),
			"kind", domain.ErrorKind(invocation.Err),
			"error", invocation.Err,
		)
		result.FailureKind = domain.ErrorKind(invocation.Err)
		result.Response = uc.formatter.FormatError(invocation.Err)
		return result, nil
	}

	if query.Intent == domain.IntentGetInfo {
		var record *domain.DashboardRecord
		if len(invocation.Records) > 0 {
			record = &invocation.Records[0]
		}
		result.Response = uc.formatter.FormatDashboard(record)
		return result, nil
	}
	result.Response = uc.formatter.FormatRecords(invocation.Records)
	return result, nil
}

// invokeCatalog issues exactly one fail-fast catalog call with its own
// hard deadline, kept shorter than the turn deadline so there is always
// budget left to format a timeout message.
func (uc *AssistantUseCase) invokeCatalog(ctx context.Context, query domain.Query) domain.ToolInvocation {
	callCtx, cancel := context.WithTimeout(ctx, uc.limits.CatalogTimeout)
	defer cancel()

	switch query.Intent {
	case domain.IntentSearch:
		records, err := uc.catalog.SearchDashboards(callCtx, query.FilterTerms)
		return domain.ToolInvocation{
			Operation: domain.OperationSearch,
			Arguments: query.FilterTerms,
			Records:   records,
			Err:       err,
		}
	case domain.IntentGetInfo:
		record, err := uc.catalog.GetDashboard(callCtx, query.TargetID)
		inv := domain.ToolInvocation{
			Operation: domain.OperationGet,
			Arguments: []string{query.TargetID},
			Err:       err,
		}
		if record != nil {
			inv.Records = []domain.DashboardRecord{*record}
		}
		return inv
	default:
		records, err := uc.catalog.ListDashboards(callCtx)
		return domain.ToolInvocation{
			Operation: domain.OperationList,
			Records:   records,
			Err:       err,
		}
	}
}

func (uc *AssistantUseCase) timeoutOutcome(result *domain.TurnResult) *domain.TurnResult {
	result.FailureKind = domain.ErrorKind(domain.ErrTimeout)
	result.Response = uc.formatter.FormatError(domain.ErrTimeout)
	return result
}

// publishTurn emits the turn event off the request path: a slow or
// unreachable broker must never delay the user's response.
func (uc *AssistantUseCase) publishTurn(result domain.TurnResult) {
	if uc.events == nil {
		return
	}
	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := uc.events.PublishTurnCompleted(publishCtx, result); err != nil {
			uc.logger.Warn("turn_event_publish_failed", "session_id", result.SessionID, "error", err)
		}
	}()
}

func expired(ctx context.Context) bool {
	return ctx.Err() != nil
}

package usecase

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
)

type fakeCatalog struct {
	records     []domain.DashboardRecord
	err         error
	listCalls   int
	searchCalls int
	getCalls    int
	lastTerms   []string
	lastUID     string
	closed      bool
}

func (f *fakeCatalog) ListDashboards(_ context.Context) ([]domain.DashboardRecord, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.DashboardRecord(nil), f.records...), nil
}

func (f *fakeCatalog) SearchDashboards(_ context.Context, keywords []string) ([]domain.DashboardRecord, error) {
	f.searchCalls++
	f.lastTerms = append([]string(nil), keywords...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.DashboardRecord, 0)
	for _, record := range f.records {
		for _, keyword := range keywords {
			if strings.Contains(strings.ToLower(record.Title), strings.ToLower(keyword)) {
				out = append(out, record)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetDashboard(_ context.Context, uid string) (*domain.DashboardRecord, error) {
	f.getCalls++
	f.lastUID = uid
	if f.err != nil {
		return nil, f.err
	}
	for _, record := range f.records {
		if record.UID == uid {
			out := record
			return &out, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get dashboard", domain.ErrNotFound)
}

func (f *fakeCatalog) Close() { f.closed = true }

func (f *fakeCatalog) totalCalls() int {
	return f.listCalls + f.searchCalls + f.getCalls
}

type fakeTurnPublisher struct {
	mu     sync.Mutex
	events []domain.TurnResult
	signal chan struct{}
}

func newFakeTurnPublisher() *fakeTurnPublisher {
	return &fakeTurnPublisher{signal: make(chan struct{}, 16)}
}

func (f *fakeTurnPublisher) PublishTurnCompleted(_ context.Context, result domain.TurnResult) error {
	f.mu.Lock()
	f.events = append(f.events, result)
	f.mu.Unlock()
	f.signal <- struct{}{}
	return nil
}

// awaitEvents blocks until n events have been published. Publishing
// happens off the request path, so tests must not inspect the slice
// directly after Answer returns.
func (f *fakeTurnPublisher) awaitEvents(t *testing.T, n int) []domain.TurnResult {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		f.mu.Lock()
		out := append([]domain.TurnResult(nil), f.events...)
		f.mu.Unlock()
		if len(out) >= n {
			return out
		}
		select {
		case <-f.signal:
		case <-deadline:
			t.Fatalf("timed out waiting for %d published events, have %d", n, len(out))
		}
	}
}

func newTestAssistant(model *fakeIntentModel, catalog *fakeCatalog, publisher *fakeTurnPublisher) *AssistantUseCase {
	uc := NewAssistantUseCase(
		NewClassifier(model),
		catalog,
		NewFormatter(20),
		nil,
		nil,
		domain.TurnLimits{},
	)
	if publisher != nil {
		uc.events = publisher
	}
	return uc
}

func TestAnswerListRendersNumberedCatalogOrder(t *testing.T) {
	catalog := &fakeCatalog{records: []domain.DashboardRecord{
		{UID: "a", Title: "API Latency"},
		{UID: "b", Title: "Node Overview"},
		{UID: "c", Title: "Billing Funnel"},
	}}
	uc := newTestAssistant(&fakeIntentModel{response: "LIST"}, catalog, nil)

	result, err := uc.Answer(context.Background(), "s-1", "Show me all dashboards")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	lines := strings.Split(result.Response, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 entries, got %d: %q", len(lines), result.Response)
	}
	if !strings.HasPrefix(lines[0], "1. API Latency") || !strings.HasPrefix(lines[2], "3. Billing Funnel") {
		t.Fatalf("entries out of catalog order: %q", result.Response)
	}
	if result.Rounds != 1 {
		t.Fatalf("expected 1 round, got %d", result.Rounds)
	}
}

func TestAnswerEmptyCatalogRendersCanonicalMessage(t *testing.T) {
	uc := newTestAssistant(&fakeIntentModel{response: "LIST"}, &fakeCatalog{}, nil)

	result, err := uc.Answer(context.Background(), "s-1", "Show me all dashboards")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Response != "No dashboards found." {
		t.Fatalf("response = %q", result.Response)
	}
}

func TestAnswerSearchPassesFilterTerms(t *testing.T) {
	catalog := &fakeCatalog{records: []domain.DashboardRecord{
		{UID: "a", Title: "Prod API"},
		{UID: "b", Title: "Staging API"},
	}}
	uc := newTestAssistant(&fakeIntentModel{response: "SEARCH: prod"}, catalog, nil)

	result, err := uc.Answer(context.Background(), "s-1", "Find dashboards with prod in the name")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Intent != domain.IntentSearch {
		t.Fatalf("intent = %q, want search", result.Intent)
	}
	if !reflect.DeepEqual(catalog.lastTerms, []string{"prod"}) {
		t.Fatalf("search terms = %#v", catalog.lastTerms)
	}
	if !strings.Contains(result.Response, "Prod API") || strings.Contains(result.Response, "Staging API") {
		t.Fatalf("expected only matching records, got %q", result.Response)
	}
}

func TestAnswerGetInfoRendersDetailView(t *testing.T) {
	catalog := &fakeCatalog{records: []domain.DashboardRecord{
		{UID: "node-overview", Title: "Node Overview", Folder: "Infra"},
	}}
	uc := newTestAssistant(&fakeIntentModel{response: "INFO: node-overview"}, catalog, nil)

	result, err := uc.Answer(context.Background(), "s-1", "Tell me about the node overview dashboard")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if catalog.getCalls != 1 || catalog.lastUID != "node-overview" {
		t.Fatalf("expected one get call for node-overview, got calls=%d uid=%q", catalog.getCalls, catalog.lastUID)
	}
	if !strings.Contains(result.Response, "Dashboard: Node Overview") {
		t.Fatalf("response = %q", result.Response)
	}
}

func TestAnswerUnsupportedSkipsCatalog(t *testing.T) {
	catalog := &fakeCatalog{records: []domain.DashboardRecord{{UID: "a", Title: "API"}}}
	uc := newTestAssistant(&fakeIntentModel{response: "OUT_OF_SCOPE: metric analysis"}, catalog, nil)

	result, err := uc.Answer(context.Background(), "s-1", "Analyze anomalies in my CPU metrics")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if catalog.totalCalls() != 0 {
		t.Fatalf("expected no catalog calls for unsupported intent, got %d", catalog.totalCalls())
	}
	if !strings.Contains(result.Response, "I can only list or search dashboards.") {
		t.Fatalf("response = %q", result.Response)
	}
	if result.Rounds != 0 {
		t.Fatalf("expected 0 rounds, got %d", result.Rounds)
	}
}

func TestAnswerEmptyInputSkipsModelAndCatalog(t *testing.T) {
	model := &fakeIntentModel{response: "LIST"}
	catalog := &fakeCatalog{}
	uc := newTestAssistant(model, catalog, nil)

	result, err := uc.Answer(context.Background(), "s-1", "")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Intent != domain.IntentInvalid {
		t.Fatalf("intent = %q, want invalid", result.Intent)
	}
	if model.calls != 0 || catalog.totalCalls() != 0 {
		t.Fatalf("expected no external calls, model=%d catalog=%d", model.calls, catalog.totalCalls())
	}
	if !strings.Contains(result.Response, "Please provide a query.") {
		t.Fatalf("response = %q", result.Response)
	}
}

func TestAnswerConnectionFailureRendersPlainLanguage(t *testing.T) {
	catalog := &fakeCatalog{err: domain.WrapError(domain.ErrConnection, "list dashboards", errInternalDetail)}
	uc := newTestAssistant(&fakeIntentModel{response: "LIST"}, catalog, nil)

	result, err := uc.Answer(context.Background(), "s-1", "Show me all dashboards")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.FailureKind != "connection" {
		t.Fatalf("failure kind = %q", result.FailureKind)
	}
	if !strings.Contains(result.Response, "could not reach the dashboard catalog") {
		t.Fatalf("response = %q", result.Response)
	}
	if strings.Contains(result.Response, "10.0.0.12") {
		t.Fatalf("response leaks transport detail: %q", result.Response)
	}
}

func TestAnswerClassifierFailureLogsParsingKind(t *testing.T) {
	catalog := &fakeCatalog{}
	uc := newTestAssistant(&fakeIntentModel{err: context.DeadlineExceeded}, catalog, nil)

	result, err := uc.Answer(context.Background(), "s-1", "show dashboards")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.FailureKind != "parsing" {
		t.Fatalf("failure kind = %q", result.FailureKind)
	}
	if result.Response != "I can only list or search dashboards." {
		t.Fatalf("response = %q", result.Response)
	}
	if catalog.totalCalls() != 0 {
		t.Fatalf("expected no catalog calls after classifier failure")
	}
}

func TestAnswerRoundsNeverExceedMaxAndAlwaysTerminal(t *testing.T) {
	inputs := []string{"Show me all dashboards", "Find prod dashboards", "Analyze my metrics", ""}
	responses := []string{"LIST", "SEARCH: prod", "OUT_OF_SCOPE: analysis", "LIST"}
	publisher := newFakeTurnPublisher()

	for i, input := range inputs {
		catalog := &fakeCatalog{}
		uc := newTestAssistant(&fakeIntentModel{response: responses[i]}, catalog, publisher)
		result, err := uc.Answer(context.Background(), "s-1", input)
		if err != nil {
			t.Fatalf("Answer(%q) error = %v", input, err)
		}
		if result.Rounds > 1 {
			t.Fatalf("Answer(%q) rounds = %d, exceeds max", input, result.Rounds)
		}
		if result.Response == "" {
			t.Fatalf("Answer(%q) produced empty terminal response", input)
		}
	}
	events := publisher.awaitEvents(t, len(inputs))
	if len(events) != len(inputs) {
		t.Fatalf("expected exactly one published event per turn, got %d", len(events))
	}
}

func TestAnswerExpiredTurnDeadlineProducesTimeoutOutcome(t *testing.T) {
	catalog := &fakeCatalog{records: []domain.DashboardRecord{{UID: "a", Title: "API Latency"}}}
	uc := newTestAssistant(&fakeIntentModel{response: "LIST"}, catalog, nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Millisecond))
	defer cancel()

	result, err := uc.Answer(ctx, "s-1", "Show me all dashboards")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.FailureKind != "timeout" {
		t.Fatalf("failure kind = %q, want timeout", result.FailureKind)
	}
	if !strings.Contains(result.Response, "took too long") {
		t.Fatalf("response = %q", result.Response)
	}
	if catalog.totalCalls() != 0 {
		t.Fatalf("expected no catalog calls past the turn deadline, got %d", catalog.totalCalls())
	}
	if result.Rounds != 0 {
		t.Fatalf("rounds = %d, want 0", result.Rounds)
	}
}

func TestAnswerRoundBudgetIsCeilingNotDriver(t *testing.T) {
	catalog := &fakeCatalog{records: []domain.DashboardRecord{{UID: "a", Title: "API Latency"}}}
	uc := NewAssistantUseCase(
		NewClassifier(&fakeIntentModel{response: "LIST"}),
		catalog,
		NewFormatter(20),
		nil,
		nil,
		domain.TurnLimits{MaxRounds: 3},
	)

	result, err := uc.Answer(context.Background(), "s-1", "Show me all dashboards")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if catalog.totalCalls() != 1 || result.Rounds != 1 {
		t.Fatalf("expected one completed round under budget 3, calls=%d rounds=%d", catalog.totalCalls(), result.Rounds)
	}
}

// blockingTurnPublisher holds every publish until released. If the turn
// waited for the publisher, Answer would never return here.
type blockingTurnPublisher struct {
	release chan struct{}
}

func (p *blockingTurnPublisher) PublishTurnCompleted(_ context.Context, _ domain.TurnResult) error {
	<-p.release
	return nil
}

func TestAnswerDoesNotWaitForTurnEventPublish(t *testing.T) {
	publisher := &blockingTurnPublisher{release: make(chan struct{})}
	uc := newTestAssistant(&fakeIntentModel{response: "LIST"}, &fakeCatalog{}, nil)
	uc.events = publisher
	defer close(publisher.release)

	result, err := uc.Answer(context.Background(), "s-1", "Show me all dashboards")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Response == "" {
		t.Fatalf("expected terminal response while publish is still pending")
	}
}

func TestAnswerListIsIdempotentAgainstUnchangedCatalog(t *testing.T) {
	catalog := &fakeCatalog{records: []domain.DashboardRecord{
		{UID: "a", Title: "API Latency"},
		{UID: "b", Title: "Node Overview"},
	}}
	uc := newTestAssistant(&fakeIntentModel{response: "LIST"}, catalog, nil)

	first, err := uc.Answer(context.Background(), "s-1", "Show me all dashboards")
	if err != nil {
		t.Fatalf("first Answer() error = %v", err)
	}
	second, err := uc.Answer(context.Background(), "s-1", "Show me all dashboards")
	if err != nil {
		t.Fatalf("second Answer() error = %v", err)
	}
	if first.Response != second.Response {
		t.Fatalf("idempotence violated:\nfirst:  %q\nsecond: %q", first.Response, second.Response)
	}
}

func TestAnswerGeneratesSessionIDWhenMissing(t *testing.T) {
	uc := newTestAssistant(&fakeIntentModel{response: "LIST"}, &fakeCatalog{}, nil)

	result, err := uc.Answer(context.Background(), "", "Show me all dashboards")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.SessionID == "" {
		t.Fatalf("expected generated session id")
	}
}

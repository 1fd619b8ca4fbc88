package grafana

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
	"github.com/dashwise/dashboard-assistant/internal/infrastructure/resilience"
)

type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "grafana status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("grafana %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("grafana %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func newStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

// mapCatalogError converts transport failures into the typed taxonomy.
// Errors already carrying a domain kind pass through unchanged.
func mapCatalogError(operation string, err error) error {
	if err == nil {
		return nil
	}

	for _, kind := range []error{
		domain.ErrValidation, domain.ErrData, domain.ErrAuth,
		domain.ErrNotFound, domain.ErrTimeout, domain.ErrConnection,
	} {
		if domain.IsKind(err, kind) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrConnection, operation, err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.WrapError(domain.ErrAuth, operation, err)
		case http.StatusNotFound:
			return domain.WrapError(domain.ErrNotFound, operation, err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return domain.WrapError(domain.ErrTimeout, operation, err)
		default:
			return domain.WrapError(domain.ErrConnection, operation, err)
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrConnection, operation, err)
	}

	return domain.WrapError(domain.ErrConnection, operation, err)
}

// classifyCatalogError decides what the circuit breaker counts as a
// remote failure. Caller-side cancellation and plain 4xx responses do
// not trip the breaker.
func classifyCatalogError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{RecordFailure: false}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 && statusErr.StatusCode != http.StatusTooManyRequests {
			return resilience.ErrorClassification{RecordFailure: false}
		}
		return resilience.ErrorClassification{RecordFailure: true}
	}

	return resilience.ErrorClassification{RecordFailure: true}
}

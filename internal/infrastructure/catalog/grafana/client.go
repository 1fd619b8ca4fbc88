package grafana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
	"github.com/dashwise/dashboard-assistant/internal/infrastructure/resilience"
)

// Client wraps the Grafana HTTP API as a read-only dashboard catalog.
// The transport handle is created once and reused across calls; callers
// bound each call with their own context deadline. Calls are fail-fast:
// the first error is surfaced immediately, with an optional circuit
// breaker refusing calls early while the remote stays unhealthy.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	CallTimeout time.Duration
	Executor    *resilience.Executor
}

func New(baseURL, apiKey string) *Client {
	return NewWithOptions(baseURL, apiKey, Options{})
}

func NewWithOptions(baseURL, apiKey string, options Options) *Client {
	callTimeout := options.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 8 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: callTimeout},
		executor:   options.Executor,
	}
}

// Close releases the reusable transport handle.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

type searchHit struct {
	UID         string   `json:"uid"`
	Title       string   `json:"title"`
	FolderTitle string   `json:"folderTitle"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
}

type dashboardByUID struct {
	Dashboard struct {
		UID   string   `json:"uid"`
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	} `json:"dashboard"`
	Meta struct {
		FolderTitle string    `json:"folderTitle"`
		URL         string    `json:"url"`
		Updated     time.Time `json:"updated"`
	} `json:"meta"`
}

func (c *Client) ListDashboards(ctx context.Context) ([]domain.DashboardRecord, error) {
	return c.fetchSearch(ctx, "list dashboards")
}

// SearchDashboards matches keywords case-insensitively as substrings of
// title, folder, and tags, OR-ed across keywords. Matching is done
// locally over the search result so the policy does not depend on
// incidental remote behavior.
func (c *Client) SearchDashboards(ctx context.Context, keywords []string) ([]domain.DashboardRecord, error) {
	if len(keywords) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "search dashboards", fmt.Errorf("at least one keyword is required"))
	}

	records, err := c.fetchSearch(ctx, "search dashboards")
	if err != nil {
		return nil, err
	}

	lowered := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			lowered = append(lowered, keyword)
		}
	}

	out := make([]domain.DashboardRecord, 0, len(records))
	for _, record := range records {
		if matchesAny(record, lowered) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (c *Client) GetDashboard(ctx context.Context, uid string) (*domain.DashboardRecord, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, domain.WrapError(domain.ErrValidation, "get dashboard", fmt.Errorf("dashboard identifier is required"))
	}

	record, err := c.fetchByUID(ctx, uid)
	if err == nil {
		return record, nil
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		return nil, err
	}

	// The classifier may hand over a display name instead of a uid.
	records, listErr := c.fetchSearch(ctx, "get dashboard")
	if listErr != nil {
		return nil, listErr
	}
	for _, candidate := range records {
		if strings.EqualFold(candidate.Title, uid) || strings.EqualFold(candidate.UID, uid) {
			return c.fetchByUID(ctx, candidate.UID)
		}
	}
	return nil, err
}

func (c *Client) fetchSearch(ctx context.Context, operation string) ([]domain.DashboardRecord, error) {
	query := url.Values{"type": []string{"dash-db"}}
	var hits []searchHit
	if err := c.getJSON(ctx, operation, "/api/search?"+query.Encode(), &hits); err != nil {
		return nil, err
	}

	records := make([]domain.DashboardRecord, 0, len(hits))
	for _, hit := range hits {
		if hit.Type != "" && hit.Type != "dash-db" {
			continue
		}
		if hit.UID == "" || hit.Title == "" {
			return nil, domain.WrapError(domain.ErrData, operation, fmt.Errorf("search hit missing uid or title"))
		}
		records = append(records, domain.DashboardRecord{
			UID:    hit.UID,
			Title:  hit.Title,
			Folder: hit.FolderTitle,
			Tags:   hit.Tags,
			URL:    hit.URL,
		})
	}
	return records, nil
}

func (c *Client) fetchByUID(ctx context.Context, uid string) (*domain.DashboardRecord, error) {
	var payload dashboardByUID
	if err := c.getJSON(ctx, "get dashboard", "/api/dashboards/uid/"+url.PathEscape(uid), &payload); err != nil {
		return nil, err
	}
	if payload.Dashboard.UID == "" || payload.Dashboard.Title == "" {
		return nil, domain.WrapError(domain.ErrData, "get dashboard", fmt.Errorf("dashboard payload missing uid or title"))
	}
	return &domain.DashboardRecord{
		UID:       payload.Dashboard.UID,
		Title:     payload.Dashboard.Title,
		Folder:    payload.Meta.FolderTitle,
		Tags:      payload.Dashboard.Tags,
		UpdatedAt: payload.Meta.Updated,
		URL:       payload.Meta.URL,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, operation, path string, out any) error {
	call := func(callCtx context.Context) error {
		req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return newStatusError(operation, resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.WrapError(domain.ErrData, operation, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "grafana."+strings.ReplaceAll(operation, " ", "_"), call, classifyCatalogError)
	} else {
		err = call(ctx)
	}
	return mapCatalogError(operation, err)
}

func matchesAny(record domain.DashboardRecord, keywords []string) bool {
	haystacks := make([]string, 0, 2+len(record.Tags))
	haystacks = append(haystacks, strings.ToLower(record.Title), strings.ToLower(record.Folder))
	for _, tag := range record.Tags {
		haystacks = append(haystacks, strings.ToLower(tag))
	}

	for _, keyword := range keywords {
		for _, haystack := range haystacks {
			if haystack != "" && strings.Contains(haystack, keyword) {
				return true
			}
		}
	}
	return false
}

// Package tracker is the REST client for the external issue tracker. It is
// the only place that knows the tracker's wire formats; the engine consumes
// it through narrow per-service interfaces.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/staffdesk/backend/internal/config"
	"github.com/staffdesk/backend/internal/models"
)

const maxUserResults = 100

// Client talks to the tracker REST API with a bounded per-request timeout.
type Client struct {
	baseURL      string
	clientKey    string
	sharedSecret string
	httpClient   *http.Client
	now          func() time.Time
}

// NewClient builds a tracker client from configuration.
func NewClient(cfg config.TrackerConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientKey:    cfg.ClientKey,
		sharedSecret: cfg.SharedSecret,
		httpClient:   &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

// --- identity directory ---

type userRecord struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	AccountType string `json:"accountType"`
	Active      bool   `json:"active"`
}

// ListActiveAgents returns the active human accounts of the tenant. Bot and
// app accounts are filtered out.
func (c *Client) ListActiveAgents(ctx context.Context) ([]models.Identity, error) {
	q := url.Values{}
	q.Set("query", "")
	q.Set("maxResults", fmt.Sprint(maxUserResults))

	var users []userRecord
	if err := c.getJSON(ctx, "/rest/api/3/users/search", q, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]models.Identity, 0, len(users))
	for _, u := range users {
		if u.AccountType != "atlassian" || !u.Active {
			continue
		}
		out = append(out, models.Identity{ID: u.AccountID, DisplayName: u.DisplayName})
	}
	return out, nil
}

// --- work-item queries ---

type searchResponse struct {
	Issues []issueRecord `json:"issues"`
}

type issueRecord struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Summary              string        `json:"summary"`
	Assignee             *userRecord   `json:"assignee"`
	TimeOriginalEstimate *int64        `json:"timeoriginalestimate"`
	TimeTracking         *timeTracking `json:"timetracking"`
}

type timeTracking struct {
	TimeSpentSeconds int64 `json:"timeSpentSeconds"`
}

// SearchOpenItems returns every unresolved item of the project with assignee
// and original-estimate populated.
func (c *Client) SearchOpenItems(ctx context.Context, projectKey string) ([]models.WorkItem, error) {
	jql := fmt.Sprintf("project = %q AND resolution = Unresolved", projectKey)
	return c.searchItems(ctx, jql)
}

// SearchAssignedOpenItems returns the project's unresolved items assigned to
// one agent.
func (c *Client) SearchAssignedOpenItems(ctx context.Context, projectKey, agentID string) ([]models.WorkItem, error) {
	jql := fmt.Sprintf("project = %q AND assignee = %q AND resolution = Unresolved", projectKey, agentID)
	return c.searchItems(ctx, jql)
}

func (c *Client) searchItems(ctx context.Context, jql string) ([]models.WorkItem, error) {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("fields", "summary,assignee,timeoriginalestimate")

	var resp searchResponse
	if err := c.getJSON(ctx, "/rest/api/3/search/jql", q, &resp); err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}

	items := make([]models.WorkItem, 0, len(resp.Issues))
	for _, is := range resp.Issues {
		item := models.WorkItem{ID: is.ID, Key: is.Key, Summary: is.Fields.Summary}
		if is.Fields.Assignee != nil {
			item.AssigneeID = is.Fields.Assignee.AccountID
		}
		if is.Fields.TimeOriginalEstimate != nil {
			item.EstimateSeconds = *is.Fields.TimeOriginalEstimate
		}
		items = append(items, item)
	}
	return items, nil
}

// GetItemAreas re-reads one item and extracts the values of its multi-select
// area field. A missing or empty field yields an empty slice.
func (c *Client) GetItemAreas(ctx context.Context, itemID, areaFieldID string) ([]string, error) {
	q := url.Values{}
	q.Set("fields", areaFieldID)

	var raw struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := c.getJSON(ctx, "/rest/api/3/issue/"+itemID, q, &raw); err != nil {
		return nil, fmt.Errorf("read item %s: %w", itemID, err)
	}

	fieldVal, ok := raw.Fields[areaFieldID]
	if !ok || string(fieldVal) == "null" {
		return nil, nil
	}
	var options []struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(fieldVal, &options); err != nil {
		return nil, fmt.Errorf("decode area field of item %s: %w", itemID, err)
	}
	areas := make([]string, 0, len(options))
	for _, o := range options {
		areas = append(areas, o.Value)
	}
	return areas, nil
}

// GetItemCosting reads the assignee and total time spent of one item.
func (c *Client) GetItemCosting(ctx context.Context, itemID string) (assigneeID string, timeSpentSeconds int64, err error) {
	q := url.Values{}
	q.Set("fields", "assignee,timetracking")

	var raw struct {
		Fields issueFields `json:"fields"`
	}
	if err := c.getJSON(ctx, "/rest/api/3/issue/"+itemID, q, &raw); err != nil {
		return "", 0, fmt.Errorf("read item %s: %w", itemID, err)
	}
	if raw.Fields.Assignee != nil {
		assigneeID = raw.Fields.Assignee.AccountID
	}
	if raw.Fields.TimeTracking != nil {
		timeSpentSeconds = raw.Fields.TimeTracking.TimeSpentSeconds
	}
	return assigneeID, timeSpentSeconds, nil
}

// --- work-item mutations ---

// SetAssignee assigns the item to the given agent.
func (c *Client) SetAssignee(ctx context.Context, itemID, agentID string) error {
	body := map[string]any{
		"fields": map[string]any{
			"assignee": map[string]string{"accountId": agentID},
		},
	}
	if err := c.putJSON(ctx, "/rest/api/3/issue/"+itemID, body); err != nil {
		return fmt.Errorf("set assignee on %s: %w", itemID, err)
	}
	return nil
}

// SetNumberField writes a numeric custom field value on the item.
func (c *Client) SetNumberField(ctx context.Context, itemID, fieldID string, value float64) error {
	body := map[string]any{
		"fields": map[string]any{fieldID: value},
	}
	if err := c.putJSON(ctx, "/rest/api/3/issue/"+itemID, body); err != nil {
		return fmt.Errorf("set field %s on %s: %w", fieldID, itemID, err)
	}
	return nil
}

// --- SLA ---

type slaResponse struct {
	Values []struct {
		Name         string `json:"name"`
		OngoingCycle *struct {
			RemainingTime struct {
				Millis int64 `json:"millis"`
			} `json:"remainingTime"`
		} `json:"ongoingCycle"`
	} `json:"values"`
}

// GetRequiredEffortHours derives the effort a new item is expected to consume:
// half of the remaining time of the ongoing "Time to resolution" SLA cycle.
// Returns 0 when the item has no such cycle.
func (c *Client) GetRequiredEffortHours(ctx context.Context, itemID string) (float64, error) {
	var resp slaResponse
	if err := c.getJSON(ctx, "/rest/servicedeskapi/request/"+itemID+"/sla", nil, &resp); err != nil {
		return 0, fmt.Errorf("read sla of %s: %w", itemID, err)
	}
	for _, v := range resp.Values {
		if !strings.Contains(v.Name, "Time to resolution") || v.OngoingCycle == nil {
			continue
		}
		seconds := float64(v.OngoingCycle.RemainingTime.Millis) / 1000 / 2
		return seconds / 3600, nil
	}
	return 0, nil
}

// --- custom field contexts (area option sync) ---

// FieldContext is one applicability context of a tracker custom field.
type FieldContext struct {
	ID              string   `json:"id"`
	IsGlobalContext bool     `json:"isGlobalContext"`
	ProjectIDs      []string `json:"projectIds"`
}

// GetProjectID resolves a project key to its numeric id.
func (c *Client) GetProjectID(ctx context.Context, projectKey string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.getJSON(ctx, "/rest/api/3/project/"+projectKey, nil, &resp); err != nil {
		return "", fmt.Errorf("read project %s: %w", projectKey, err)
	}
	return resp.ID, nil
}

// ListFieldContexts returns the contexts of a custom field.
func (c *Client) ListFieldContexts(ctx context.Context, fieldID string) ([]FieldContext, error) {
	var resp struct {
		Values []FieldContext `json:"values"`
	}
	if err := c.getJSON(ctx, "/rest/api/3/field/"+fieldID+"/context", nil, &resp); err != nil {
		return nil, fmt.Errorf("list contexts of %s: %w", fieldID, err)
	}
	return resp.Values, nil
}

// ListContextOptions returns the option values already present in a context.
func (c *Client) ListContextOptions(ctx context.Context, fieldID, contextID string) ([]string, error) {
	var resp struct {
		Values []struct {
			Value string `json:"value"`
		} `json:"values"`
	}
	path := "/rest/api/3/field/" + fieldID + "/context/" + contextID + "/option"
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list options of %s: %w", fieldID, err)
	}
	out := make([]string, 0, len(resp.Values))
	for _, v := range resp.Values {
		out = append(out, v.Value)
	}
	return out, nil
}

// AddContextOption creates a new option value in a field context.
func (c *Client) AddContextOption(ctx context.Context, fieldID, contextID, value string) error {
	body := map[string]any{
		"options": []map[string]string{{"value": value}},
	}
	path := "/rest/api/3/field/" + fieldID + "/context/" + contextID + "/option"
	if err := c.postJSON(ctx, path, body); err != nil {
		return fmt.Errorf("add option %q to %s: %w", value, fieldID, err)
	}
	return nil
}

// --- transport plumbing ---

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) putJSON(ctx context.Context, path string, body any) error {
	resp, err := c.do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	resp, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sharedSecret != "" {
		token, err := signRequest(c.clientKey, c.sharedSecret, method, u, c.now())
		if err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set("Authorization", "JWT "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("tracker returned %d for %s %s: %s", resp.StatusCode, method, path, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

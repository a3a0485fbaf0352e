package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ShayCichocki/reqforge/internal/debuglog"
)

const (
	issuePath     = "/rest/api/3/issue"
	linkTypePath  = "/rest/api/3/issueLinkType"
	issueLinkPath = "/rest/api/3/issueLink"
	searchPath    = "/rest/api/3/search/jql"

	defaultPageSize = 50
	maxPages        = 100
)

// Config contains configuration for creating a Client.
type Config struct {
	// BaseURL is the site root, e.g. https://example.atlassian.net.
	BaseURL string
	// Email and APIToken form the basic-auth credential pair.
	Email    string
	APIToken string
	// ProjectKey is the default project for created and listed items.
	ProjectKey string
	// AssigneeID is an optional account id assigned to every created item.
	AssigneeID string
	// TaskType and SubtaskType are the issue type names for each Kind.
	// Defaults: "Task" and "Subtask".
	TaskType    string
	SubtaskType string
	// PageSize is the search page size. Default 50.
	PageSize int
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Logger receives request-level debug lines.
	Logger *debuglog.Logger
}

// Client talks to the Jira Cloud REST v3 API. It keeps no local cache.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
	log  *debuglog.Logger
}

// New creates a tracker client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tracker base URL is not set")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tracker base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("tracker base URL %q must be absolute", cfg.BaseURL)
	}

	if cfg.TaskType == "" {
		cfg.TaskType = "Task"
	}
	if cfg.SubtaskType == "" {
		cfg.SubtaskType = "Subtask"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		cfg:  cfg,
		base: base,
		http: httpClient,
		log:  cfg.Logger,
	}, nil
}

// ProjectKey returns the client's default project.
func (c *Client) ProjectKey() string {
	return c.cfg.ProjectKey
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

type idRef struct {
	ID string `json:"id"`
}

// CreateItem creates an item. For KindSubtask the parent is set in the same call.
// Success is a 201 response; anything else is a *RequestFailedError.
func (c *Client) CreateItem(ctx context.Context, req CreateRequest) (Item, error) {
	project := req.Project
	if project == "" {
		project = c.cfg.ProjectKey
	}
	if project == "" {
		return Item{}, fmt.Errorf("create item: project key is not set")
	}

	issueType := c.cfg.TaskType
	switch req.Kind {
	case KindTask, "":
	case KindSubtask:
		if req.ParentKey == "" {
			return Item{}, fmt.Errorf("create subtask: parent key is required")
		}
		issueType = c.cfg.SubtaskType
	default:
		return Item{}, fmt.Errorf("create item: unknown kind %q", req.Kind)
	}

	fields := map[string]any{
		"project":     keyRef{Key: project},
		"summary":     req.Summary,
		"description": toADF(req.Description),
		"issuetype":   nameRef{Name: issueType},
	}
	if req.ParentKey != "" {
		fields["parent"] = keyRef{Key: req.ParentKey}
	}
	if c.cfg.AssigneeID != "" {
		fields["assignee"] = idRef{ID: c.cfg.AssigneeID}
	}

	const op = "create item"
	status, body, err := c.do(ctx, http.MethodPost, issuePath, nil, map[string]any{"fields": fields})
	if err != nil {
		return Item{}, &RequestFailedError{Op: op, Err: err}
	}
	if status != http.StatusCreated {
		return Item{}, &RequestFailedError{Op: op, StatusCode: status, Body: string(body)}
	}

	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.Key == "" {
		return Item{}, &RequestFailedError{Op: op, StatusCode: status, Body: string(body), Err: err}
	}

	c.log.Log("[tracker] created %s %s (parent %q)", issueType, created.Key, req.ParentKey)
	return Item{Key: created.Key, Summary: req.Summary}, nil
}

// ListLinkTypes returns the relationship vocabulary in the order the tracker sends it.
func (c *Client) ListLinkTypes(ctx context.Context) ([]LinkType, error) {
	const op = "list link types"
	status, body, err := c.do(ctx, http.MethodGet, linkTypePath, nil, nil)
	if err != nil {
		return nil, &RequestFailedError{Op: op, Err: err}
	}
	if status != http.StatusOK {
		return nil, &RequestFailedError{Op: op, StatusCode: status, Body: string(body)}
	}

	var resp struct {
		IssueLinkTypes []LinkType `json:"issueLinkTypes"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &RequestFailedError{Op: op, StatusCode: status, Body: string(body), Err: err}
	}
	return resp.IssueLinkTypes, nil
}

// CreateLink records a relationship. Success is a 201 response.
func (c *Client) CreateLink(ctx context.Context, outwardKey, inwardKey, typeName string) error {
	payload := map[string]any{
		"type":         nameRef{Name: typeName},
		"outwardIssue": keyRef{Key: outwardKey},
		"inwardIssue":  keyRef{Key: inwardKey},
	}

	op := fmt.Sprintf("link %s -> %s (%s)", outwardKey, inwardKey, typeName)
	status, body, err := c.do(ctx, http.MethodPost, issueLinkPath, nil, payload)
	if err != nil {
		return &RequestFailedError{Op: op, Err: err}
	}
	if status != http.StatusCreated {
		return &RequestFailedError{Op: op, StatusCode: status, Body: string(body)}
	}
	return nil
}

type searchIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  *struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
	} `json:"fields"`
}

// ListItems returns every item of projectKey except the excluded keys, following
// pagination until the tracker reports the last page.
func (c *Client) ListItems(ctx context.Context, projectKey string, exclude []string) ([]Item, error) {
	if projectKey == "" {
		projectKey = c.cfg.ProjectKey
	}

	query := url.Values{}
	query.Set("jql", BuildJQL(projectKey, exclude))
	query.Set("maxResults", strconv.Itoa(c.cfg.PageSize))
	query.Set("fields", "summary,status,assignee")

	const op = "list items"
	var items []Item
	for page := 0; page < maxPages; page++ {
		status, body, err := c.do(ctx, http.MethodGet, searchPath, query, nil)
		if err != nil {
			return items, &RequestFailedError{Op: op, Err: err}
		}
		if status != http.StatusOK {
			return items, &RequestFailedError{Op: op, StatusCode: status, Body: string(body)}
		}

		var resp struct {
			Issues        []searchIssue `json:"issues"`
			NextPageToken string        `json:"nextPageToken"`
			IsLast        *bool         `json:"isLast"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return items, &RequestFailedError{Op: op, StatusCode: status, Body: string(body), Err: err}
		}

		for _, issue := range resp.Issues {
			item := Item{Key: issue.Key, Summary: issue.Fields.Summary, Assignee: "Unassigned"}
			if issue.Fields.Status != nil {
				item.Status = issue.Fields.Status.Name
			}
			if issue.Fields.Assignee != nil {
				item.Assignee = issue.Fields.Assignee.DisplayName
			}
			items = append(items, item)
		}

		last := resp.NextPageToken == ""
		if resp.IsLast != nil && *resp.IsLast {
			last = true
		}
		if last {
			return items, nil
		}
		query.Set("nextPageToken", resp.NextPageToken)
	}

	c.log.Log("[tracker] stopped listing after %d pages", maxPages)
	return items, nil
}

// BuildJQL returns the search query for a project minus excluded keys.
func BuildJQL(projectKey string, exclude []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "project = %s", quoteJQL(projectKey))
	if len(exclude) > 0 {
		quoted := make([]string, len(exclude))
		for i, k := range exclude {
			quoted[i] = quoteJQL(k)
		}
		fmt.Fprintf(&b, " AND key NOT IN (%s)", strings.Join(quoted, ", "))
	}
	b.WriteString(" ORDER BY key ASC")
	return b.String()
}

func quoteJQL(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// do performs one authenticated JSON request and returns the status and body.
// An error means no response was received.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Log("[tracker] %s %s -> %d", method, path, resp.StatusCode)
	return resp.StatusCode, data, nil
}

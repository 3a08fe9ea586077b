// Package trackerclient implements an authenticated, rate-limited,
// retry-aware HTTP client for the external issue-tracking platform. One
// exported method call performs exactly one logical tracker operation,
// transparently handling pagination, instance-type auto-detection, and
// retry/backoff — the caller never sees a raw *http.Response.
package trackerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scullers68/sprintintel/errs"
)

// AuthMethod selects how the client authenticates against the tracker.
type AuthMethod string

const (
	AuthToken AuthMethod = "token" // cloud: email+token as Basic; server: token as Bearer
	AuthBasic AuthMethod = "basic" // username+password as Basic
	AuthOAuth AuthMethod = "oauth" // OAuth["access_token"] sent as a Bearer token
)

// InstanceType distinguishes the tracker's cloud vs self-hosted deployment,
// which determines API version and auth scheme defaults.
type InstanceType string

const (
	InstanceCloud  InstanceType = "cloud"
	InstanceServer InstanceType = "server"
)

// hostedTenantSuffix is the hostname suffix that marks a tracker base URL
// as a hosted multi-tenant ("Cloud") instance.
const hostedTenantSuffix = ".atlassian.net"

// Config configures a Client.
type Config struct {
	BaseURL string

	AuthMethod AuthMethod
	Email      string // cloud token auth
	Username   string // server basic auth
	Password   string
	Token      string
	OAuth      map[string]string

	RateLimitN      int           // calls per window, default 100
	RateLimitWindow time.Duration // default 60s
	MaxRetries      int           // default 3
	RetryBaseDelay  time.Duration // default 1s
	Timeout         time.Duration // default 30s

	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client is an authenticated, rate-limited, retry-aware tracker API client.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	bucket       *Bucket
	instanceType InstanceType
	apiVersion   string
	log          *logrus.Entry
}

// New constructs a Client and auto-detects the instance type from the
// configured base URL's hostname.
func New(cfg Config) *Client {
	if cfg.RateLimitN <= 0 {
		cfg.RateLimitN = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	instanceType, apiVersion := detectInstance(cfg.BaseURL)

	return &Client{
		cfg:          cfg,
		httpClient:   httpClient,
		bucket:       NewBucket(cfg.RateLimitN, cfg.RateLimitWindow),
		instanceType: instanceType,
		apiVersion:   apiVersion,
		log:          logger.WithField("component", "trackerclient"),
	}
}

// detectInstance classifies a base URL as Cloud or Server and selects the
// preferred REST API version accordingly (section 4.1).
func detectInstance(baseURL string) (InstanceType, string) {
	host := strings.ToLower(baseURL)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if idx := strings.IndexAny(host, "/:"); idx >= 0 {
		host = host[:idx]
	}
	if strings.HasSuffix(host, hostedTenantSuffix) {
		return InstanceCloud, "3"
	}
	return InstanceServer, "2"
}

// InstanceType reports the detected tracker instance type.
func (c *Client) InstanceType() InstanceType { return c.instanceType }

// APIVersion reports the REST API version this client targets.
func (c *Client) APIVersion() string { return c.apiVersion }

func (c *Client) applyAuth(req *http.Request) error {
	switch c.cfg.AuthMethod {
	case AuthToken:
		if c.instanceType == InstanceCloud {
			req.SetBasicAuth(c.cfg.Email, c.cfg.Token)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}
	case AuthBasic:
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	case AuthOAuth:
		token, ok := c.cfg.OAuth["access_token"]
		if !ok || token == "" {
			return errs.AuthFailure("oauth config missing access_token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	default:
		return errs.AuthFailure(fmt.Sprintf("unsupported auth method %q", c.cfg.AuthMethod))
	}
	return nil
}

// requestOptions configures one logical request.
type requestOptions struct {
	method string
	path   string // relative to BaseURL, e.g. "/rest/agile/1.0/board"
	query  map[string]string
	body   interface{}
}

// do performs one logical HTTP operation: acquire a rate-limit token,
// build the request, execute with retry/backoff, and decode the JSON
// response into out (if non-nil).
func (c *Client) do(ctx context.Context, opt requestOptions, out interface{}) error {
	attempts := 0
	backoffSteps := 0
	var lastErr error

	for attempts <= c.cfg.MaxRetries {
		if err := c.bucket.Acquire(ctx); err != nil {
			return errs.Cancelled()
		}

		status, body, err := c.attemptOnce(ctx, opt)
		if err == nil {
			if out != nil && len(body) > 0 {
				if decodeErr := json.Unmarshal(body, out); decodeErr != nil {
					return errs.Internal("failed to decode tracker response", decodeErr)
				}
			}
			return nil
		}

		if apiErr, ok := err.(*errs.Error); ok {
			switch apiErr.Kind {
			case errs.KindAuthFailure, errs.KindAuthzFailure:
				return apiErr
			case errs.KindRateLimit:
				retryAfter := retryAfterFrom(status, body)
				c.log.WithField("retry_after_s", retryAfter.Seconds()).Warn("tracker rate limited, sleeping")
				if sleepErr := HonorRetryAfter(ctx, retryAfter); sleepErr != nil {
					return errs.Cancelled()
				}
				attempts++
				lastErr = apiErr
				continue
			case errs.KindValidation:
				// 4xx other than 401/403/429: fail fast, no retry.
				return apiErr
			}
		}

		lastErr = err
		attempts++
		if attempts > c.cfg.MaxRetries {
			break
		}
		backoffSteps++
		backoff := c.cfg.RetryBaseDelay * time.Duration(1<<uint(backoffSteps-1))
		c.log.WithFields(logrus.Fields{"attempt": attempts, "backoff": backoff}).Warn("tracker request failed, retrying")
		if sleepErr := HonorRetryAfter(ctx, backoff); sleepErr != nil {
			return errs.Cancelled()
		}
	}

	return errs.ExternalService("tracker request failed after retries", lastErr)
}

// retryAfterFrom returns how long to wait after a 429 response: a fixed
// 60 seconds. The response's Retry-After header is not read, and status
// and body do not change the result.
func retryAfterFrom(status int, body []byte) time.Duration {
	_ = status
	_ = body
	return 60 * time.Second
}

// attemptOnce performs a single HTTP round trip and classifies the result.
func (c *Client) attemptOnce(ctx context.Context, opt requestOptions) (int, []byte, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + opt.path
	var bodyReader io.Reader
	if opt.body != nil {
		encoded, err := json.Marshal(opt.body)
		if err != nil {
			return 0, nil, errs.Internal("failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, opt.method, url, bodyReader)
	if err != nil {
		return 0, nil, errs.Internal("failed to build request", err)
	}
	if opt.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	q := req.URL.Query()
	for k, v := range opt.query {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	if err := c.applyAuth(req); err != nil {
		return 0, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errs.ExternalService("tracker http request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errs.ExternalService("failed to read tracker response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.StatusCode, body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, body, errs.AuthFailure("tracker rejected credentials")
	case resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, body, errs.AuthzFailure("tracker denied access")
	case resp.StatusCode == http.StatusTooManyRequests:
		return resp.StatusCode, body, errs.RateLimit("tracker rate limit exceeded")
	case resp.StatusCode >= 500:
		return resp.StatusCode, body, errs.ExternalService(fmt.Sprintf("tracker returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return resp.StatusCode, body, errs.Validation(fmt.Sprintf("tracker client error %d: %s", resp.StatusCode, string(body)))
	default:
		return resp.StatusCode, body, errs.Internal(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
}

// restPath builds the versioned REST API path, e.g. "/rest/api/3/project".
func (c *Client) restPath(suffix string) string {
	return "/rest/api/" + c.apiVersion + suffix
}

// agilePath builds the versioned Agile API path.
func (c *Client) agilePath(suffix string) string {
	return "/rest/agile/1.0" + suffix
}

// TestConnection pings /serverInfo and reports whether the tracker is
// reachable with the configured credentials.
func (c *Client) TestConnection(ctx context.Context) (bool, error) {
	err := c.do(ctx, requestOptions{method: http.MethodGet, path: c.restPath("/serverInfo")}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

type sprintsPage struct {
	Values     []SprintDTO `json:"values"`
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	IsLast     bool        `json:"isLast"`
}

// GetSprints returns every sprint on boardID, transparently following
// pagination. A zero boardID is rejected with a Validation error.
func (c *Client) GetSprints(ctx context.Context, boardID int64) ([]SprintDTO, error) {
	if boardID == 0 {
		return nil, errs.Validation("boardID is required")
	}
	var all []SprintDTO
	startAt := 0
	for {
		var page sprintsPage
		err := c.do(ctx, requestOptions{
			method: http.MethodGet,
			path:   c.agilePath(fmt.Sprintf("/board/%d/sprint", boardID)),
			query:  map[string]string{"startAt": strconv.Itoa(startAt)},
		}, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		startAt += len(page.Values)
	}
	return all, nil
}

type issuesPage struct {
	Issues     []IssueDTO `json:"issues"`
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
}

// GetSprintIssues returns the issues in sprintID, optionally excluding
// subtasks and/or filtered by an additional JQL clause, transparently
// paginating until maxResults (0 = unbounded) is reached.
func (c *Client) GetSprintIssues(ctx context.Context, sprintID int64, excludeSubtasks bool, jqlFilter string, maxResults int) ([]IssueDTO, error) {
	var all []IssueDTO
	startAt := 0
	const pageSize = 100
	for {
		query := map[string]string{
			"startAt":    strconv.Itoa(startAt),
			"maxResults": strconv.Itoa(pageSize),
		}
		if excludeSubtasks {
			jqlFilter = appendJQL(jqlFilter, "issuetype != Subtask")
		}
		if jqlFilter != "" {
			query["jql"] = jqlFilter
		}
		var page issuesPage
		err := c.do(ctx, requestOptions{
			method: http.MethodGet,
			path:   c.agilePath(fmt.Sprintf("/sprint/%d/issue", sprintID)),
			query:  query,
		}, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Issues...)
		if len(page.Issues) == 0 || (maxResults > 0 && len(all) >= maxResults) || len(all) >= page.Total {
			break
		}
		startAt += len(page.Issues)
	}
	if maxResults > 0 && len(all) > maxResults {
		all = all[:maxResults]
	}
	return all, nil
}

func appendJQL(existing, clause string) string {
	if existing == "" {
		return clause
	}
	return existing + " AND " + clause
}

type boardsPage struct {
	Values     []BoardDTO `json:"values"`
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	IsLast     bool       `json:"isLast"`
}

// GetBoards returns boards, optionally filtered by project key.
func (c *Client) GetBoards(ctx context.Context, projectKey string) ([]BoardDTO, error) {
	var all []BoardDTO
	startAt := 0
	for {
		query := map[string]string{"startAt": strconv.Itoa(startAt)}
		if projectKey != "" {
			query["projectKeyOrId"] = projectKey
		}
		var page boardsPage
		err := c.do(ctx, requestOptions{method: http.MethodGet, path: c.agilePath("/board"), query: query}, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		startAt += len(page.Values)
	}
	return all, nil
}

type projectsPage struct {
	Values     []ProjectDTO `json:"values"`
	StartAt    int          `json:"startAt"`
	IsLast     bool         `json:"isLast"`
}

// GetProjects returns every project visible to the configured credentials.
func (c *Client) GetProjects(ctx context.Context) ([]ProjectDTO, error) {
	var direct []ProjectDTO
	if err := c.do(ctx, requestOptions{method: http.MethodGet, path: c.restPath("/project")}, &direct); err == nil && len(direct) > 0 {
		return direct, nil
	}

	var all []ProjectDTO
	startAt := 0
	for {
		var page projectsPage
		err := c.do(ctx, requestOptions{
			method: http.MethodGet,
			path:   c.restPath("/project/search"),
			query:  map[string]string{"startAt": strconv.Itoa(startAt)},
		}, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		startAt += len(page.Values)
	}
	return all, nil
}

// GetCustomFields returns all field definitions (system and custom).
func (c *Client) GetCustomFields(ctx context.Context) ([]FieldDTO, error) {
	var fields []FieldDTO
	if err := c.do(ctx, requestOptions{method: http.MethodGet, path: c.restPath("/field")}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// SearchIssues runs a JQL search, transparently paginating until
// maxResults is reached.
func (c *Client) SearchIssues(ctx context.Context, jql string, fields []string, maxResults int) ([]IssueDTO, error) {
	var all []IssueDTO
	startAt := 0
	const pageSize = 100
	for {
		query := map[string]string{
			"jql":        jql,
			"startAt":    strconv.Itoa(startAt),
			"maxResults": strconv.Itoa(pageSize),
		}
		if len(fields) > 0 {
			query["fields"] = strings.Join(fields, ",")
		}
		var page issuesPage
		if err := c.do(ctx, requestOptions{method: http.MethodGet, path: c.restPath("/search"), query: query}, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Issues...)
		if len(page.Issues) == 0 || (maxResults > 0 && len(all) >= maxResults) || len(all) >= page.Total {
			break
		}
		startAt += len(page.Issues)
	}
	if maxResults > 0 && len(all) > maxResults {
		all = all[:maxResults]
	}
	return all, nil
}

// GetIssue fetches a single issue by key.
func (c *Client) GetIssue(ctx context.Context, key string, fields []string) (*IssueDTO, error) {
	query := map[string]string{}
	if len(fields) > 0 {
		query["fields"] = strings.Join(fields, ",")
	}
	var issue IssueDTO
	if err := c.do(ctx, requestOptions{method: http.MethodGet, path: c.restPath("/issue/" + key), query: query}, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

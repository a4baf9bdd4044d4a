package hh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prperemyshlev/hh-autoapply/internal/config"
	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/pkg/observability"
)

const (
	getAttempts   = 2
	retryInterval = 200 * time.Millisecond
	maxErrorBody  = 64 << 10
)

// ApplyRequest is one application submission
type ApplyRequest struct {
	VacancyID string
	ResumeID  string
	Message   string
}

// ApplyResult is the provider's answer to a successful submission
type ApplyResult struct {
	Status   int
	Location string
	Body     any
}

// Client is the provider resource API client
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	// submits never follow the 303 the provider answers with
	postClient *http.Client
	metrics    *observability.Metrics
}

// NewClient creates a resource API client
func NewClient(cfg config.HHConfig, httpClient *http.Client, metrics *observability.Metrics) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	postClient := *httpClient
	postClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		userAgent:  cfg.UserAgent,
		timeout:    cfg.RequestTimeout.Duration,
		httpClient: httpClient,
		postClient: &postClient,
		metrics:    metrics,
	}
}

// Me fetches the profile of the token's owner
func (c *Client) Me(ctx context.Context, accessToken string) (*domain.Profile, error) {
	var profile domain.Profile
	if _, err := c.getJSON(ctx, "me", accessToken, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SearchVacancies runs a vacancy search with already-built query parameters
func (c *Client) SearchVacancies(ctx context.Context, accessToken string, query url.Values) (*domain.VacancyPage, error) {
	var page domain.VacancyPage
	if _, err := c.getJSON(ctx, "search_vacancies", accessToken, "/vacancies", query, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []domain.Vacancy{}
	}
	return &page, nil
}

// Vacancy fetches the full vacancy detail
func (c *Client) Vacancy(ctx context.Context, accessToken, vacancyID string) (*domain.Vacancy, error) {
	var vacancy domain.Vacancy
	path := "/vacancies/" + url.PathEscape(vacancyID)
	if _, err := c.getJSON(ctx, "vacancy", accessToken, path, nil, &vacancy); err != nil {
		return nil, err
	}
	return &vacancy, nil
}

// Resumes lists the user's resumes. A 403 means the user is not a job seeker and yields an empty list.
func (c *Client) Resumes(ctx context.Context, accessToken string) (*domain.ResumeList, error) {
	var list domain.ResumeList
	_, err := c.getJSON(ctx, "resumes", accessToken, "/resumes/mine", nil, &list)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
			return &domain.ResumeList{Items: []domain.Resume{}, NotJobSeeker: true}, nil
		}
		return nil, err
	}
	if list.Items == nil {
		list.Items = []domain.Resume{}
	}
	return &list, nil
}

// Negotiations lists the applications known to the provider
func (c *Client) Negotiations(ctx context.Context, accessToken string) (*domain.NegotiationList, error) {
	var list domain.NegotiationList
	if _, err := c.getJSON(ctx, "negotiations", accessToken, "/negotiations", nil, &list); err != nil {
		return nil, err
	}
	if list.Items == nil {
		list.Items = []domain.Negotiation{}
	}
	return &list, nil
}

// Apply submits an application as multipart form data. 2xx and 303 are success.
func (c *Client) Apply(ctx context.Context, accessToken string, req ApplyRequest) (*ApplyResult, error) {
	const operation = "apply"

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := [][2]string{{"vacancy_id", req.VacancyID}, {"resume_id", req.ResumeID}}
	if req.Message != "" {
		fields = append(fields, [2]string{"message", req.Message})
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to build application form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build application form: %w", err)
	}

	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/negotiations", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq, accessToken)
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.postClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordProviderRequest(ctx, operation, 0)
		return nil, fmt.Errorf("%s: request failed: %w", operation, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordProviderRequest(ctx, operation, resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", operation, err)
	}

	if resp.StatusCode != http.StatusSeeOther && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, newAPIError(operation, resp.StatusCode, raw)
	}

	result := &ApplyResult{
		Status:   resp.StatusCode,
		Location: resp.Header.Get("Location"),
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		var parsed any
		if json.Unmarshal(raw, &parsed) == nil {
			result.Body = parsed
		} else {
			result.Body = map[string]string{"raw": string(raw)}
		}
	}

	return result, nil
}

// getJSON performs an idempotent GET, retrying once on a transport error or a 5xx
func (c *Client) getJSON(ctx context.Context, operation, accessToken, path string, query url.Values, out any) (int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempt := func() (int, error) {
		reqCtx, cancel := c.withDeadline(ctx)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
		if err != nil {
			return 0, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		c.setHeaders(req, accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.metrics.RecordProviderRequest(ctx, operation, 0)
			if ctx.Err() != nil {
				return 0, backoff.Permanent(fmt.Errorf("%s: request failed: %w", operation, err))
			}
			return 0, fmt.Errorf("%s: request failed: %w", operation, err)
		}
		defer resp.Body.Close()
		c.metrics.RecordProviderRequest(ctx, operation, resp.StatusCode)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			apiErr := newAPIError(operation, resp.StatusCode, raw)
			if resp.StatusCode >= 500 {
				return resp.StatusCode, apiErr
			}
			return resp.StatusCode, backoff.Permanent(apiErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, backoff.Permanent(fmt.Errorf("%s: failed to decode response: %w", operation, err))
		}
		return resp.StatusCode, nil
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewConstantBackOff(retryInterval)),
		backoff.WithMaxTries(getAttempts),
	)
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("HH-User-Agent", c.userAgent)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

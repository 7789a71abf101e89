// Package districtmapping is the HTTP client for the districtmapping plan
// editing API. Every state-changing call carries the current plan version so
// the server can reject edits racing against a newer plan state.
package districtmapping

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
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const csrfHeader = "X-CSRFToken"

// Client performs plan editing operations against the districtmapping API.
type Client interface {
	AddToDistrict(ctx context.Context, districtID, geolevel int, unitIDs []string, version int) (*AssignResult, error)
	NewDistrict(ctx context.Context, districtID int, name string, geolevel int, unitIDs []string, version int) (*VersionResult, error)
	SetDistrictLock(ctx context.Context, districtID int, lock bool, version int) error
	CombineDistricts(ctx context.Context, fromID, toID, version int) (*VersionResult, error)
	ListDistricts(ctx context.Context, version int) (*DistrictList, error)
	FixUnassigned(ctx context.Context, version int) (*VersionResult, error)
	QuerySplits(ctx context.Context, geolevel, version int) ([]Split, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithCSRFToken sets the token attached as X-CSRFToken on same-origin
// state-changing requests.
func WithCSRFToken(token string) Option {
	return func(c *httpClient) {
		c.csrfToken = token
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	baseURL   string
	planID    string
	csrfToken string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a districtmapping API client for one plan. baseURL is the
// origin of the application, e.g. "https://mapping.example.org".
func NewClient(baseURL, planID string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		planID:  planID,
		http: &http.Client{
			Timeout: 30 * time.Second,
			// The session-expiry contract is a 403 or a redirect field in the
			// payload; HTTP-level redirects must surface, not be followed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) planPath(format string, args ...any) string {
	return c.baseURL + "/districtmapping/plan/" + c.planID + fmt.Sprintf(format, args...)
}

// sameOrigin reports whether rawURL targets the client's own origin. Relative
// URLs are always same-origin; absolute http(s) URLs are compared by host.
func (c *httpClient) sameOrigin(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !u.IsAbs() {
		return true
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}

// do issues one request and decodes the common response envelope. A redirect
// field in the payload takes precedence over every other failure mode.
func (c *httpClient) do(ctx context.Context, method, rawURL string, form url.Values) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "districtmapping: rate limit wait")
	}

	var body io.Reader
	if method == http.MethodPost && form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, eris.Wrap(err, "districtmapping: create request")
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if c.csrfToken != "" && c.sameOrigin(rawURL) {
			req.Header.Set(csrfHeader, c.csrfToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "districtmapping: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "districtmapping: read response")
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, &RedirectError{URL: loginURL(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(respBody, 200)}
	}

	// The lock endpoint acknowledges with an empty 200; treat a bodyless OK
	// as a success envelope with no fields.
	if len(bytes.TrimSpace(respBody)) == 0 {
		return &envelope{Success: true}, nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, eris.Wrap(err, "districtmapping: unmarshal response")
	}

	if env.Redirect != "" {
		return nil, &RedirectError{URL: env.Redirect}
	}
	if !env.Success {
		return nil, &RequestError{Message: env.Message}
	}
	return &env, nil
}

// loginURL extracts a redirect target from a 403 body when the server sends
// one; the accounts login page is the documented fallback.
func loginURL(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Redirect != "" {
		return env.Redirect
	}
	return "/accounts/login/"
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func (c *httpClient) AddToDistrict(ctx context.Context, districtID, geolevel int, unitIDs []string, version int) (*AssignResult, error) {
	form := url.Values{
		"geolevel": {strconv.Itoa(geolevel)},
		"geounits": {strings.Join(unitIDs, "|")},
		"version":  {strconv.Itoa(version)},
	}
	env, err := c.do(ctx, http.MethodPost, c.planPath("/district/%d/add/", districtID), form)
	if err != nil {
		return nil, err
	}
	return &AssignResult{Updated: env.Updated, Version: env.Version, Edited: env.Edited}, nil
}

func (c *httpClient) NewDistrict(ctx context.Context, districtID int, name string, geolevel int, unitIDs []string, version int) (*VersionResult, error) {
	form := url.Values{
		"district_id":   {strconv.Itoa(districtID)},
		"district_name": {name},
		"geolevel":      {strconv.Itoa(geolevel)},
		"geounits":      {strings.Join(unitIDs, "|")},
		"version":       {strconv.Itoa(version)},
	}
	env, err := c.do(ctx, http.MethodPost, c.planPath("/district/new/"), form)
	if err != nil {
		return nil, err
	}
	return &VersionResult{Version: env.Version, Message: env.Message}, nil
}

func (c *httpClient) SetDistrictLock(ctx context.Context, districtID int, lock bool, version int) error {
	form := url.Values{
		"lock":    {strconv.FormatBool(lock)},
		"version": {strconv.Itoa(version)},
	}
	_, err := c.do(ctx, http.MethodPost, c.planPath("/district/%d/lock/", districtID), form)
	return err
}

func (c *httpClient) CombineDistricts(ctx context.Context, fromID, toID, version int) (*VersionResult, error) {
	form := url.Values{
		"from_district_id": {strconv.Itoa(fromID)},
		"to_district_id":   {strconv.Itoa(toID)},
		"version":          {strconv.Itoa(version)},
	}
	env, err := c.do(ctx, http.MethodPost, c.planPath("/combinedistricts/"), form)
	if err != nil {
		return nil, err
	}
	return &VersionResult{Version: env.Version, Message: env.Message}, nil
}

func (c *httpClient) ListDistricts(ctx context.Context, version int) (*DistrictList, error) {
	u := c.planPath("/districts/") + "?version=" + strconv.Itoa(version)
	env, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return &DistrictList{Districts: env.Districts, CanUndo: env.CanUndo, Available: env.Available}, nil
}

func (c *httpClient) FixUnassigned(ctx context.Context, version int) (*VersionResult, error) {
	form := url.Values{
		"version": {strconv.Itoa(version)},
	}
	env, err := c.do(ctx, http.MethodPost, c.planPath("/fixunassigned/"), form)
	if err != nil {
		return nil, err
	}
	return &VersionResult{Version: env.Version, Message: env.Message}, nil
}

func (c *httpClient) QuerySplits(ctx context.Context, geolevel, version int) ([]Split, error) {
	u := c.planPath("/splits/") + "?geolevel=" + strconv.Itoa(geolevel) + "&version=" + strconv.Itoa(version)
	env, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return env.Splits, nil
}

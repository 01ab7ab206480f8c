package ghostfolio

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/mbks/GhostfolioSidekick/src/logger"
)

const (
	maxRetryAttempts     = 5
	pauseBetweenFailures = 10 * time.Second

	// GET responses are cached by request path; writes never invalidate
	// them, so callers must not re-read a freshly written path within the
	// TTL window.
	cacheExpiration      = 5 * time.Minute
	cacheCleanupInterval = 10 * time.Minute
)

// RemoteCallError is the terminal failure after all retry attempts are
// exhausted. Callers must treat it as fatal for the operation; no fallback
// value is substituted.
type RemoteCallError struct {
	StatusCode int
	Path       string
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call failed [%d]: %s", e.StatusCode, e.Path)
}

type authResponse struct {
	AuthToken string `json:"authToken"`
}

// RestCall wraps every outbound call to the Ghostfolio HTTP surface with
// three policies: per-call bearer-token exchange, a TTL cache for reads and
// a fixed-count constant-pause retry around each transport call.
type RestCall struct {
	client      *resty.Client
	cache       *cache.Cache
	limiter     *rate.Limiter
	accessToken string

	retryAttempts uint64
	retryPause    time.Duration
}

func NewRestCall(memoryCache *cache.Cache, baseURL, accessToken string) *RestCall {
	return &RestCall{
		client:        resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		cache:         memoryCache,
		limiter:       rate.NewLimiter(rate.Every(100*time.Millisecond), 30),
		accessToken:   accessToken,
		retryAttempts: maxRetryAttempts,
		retryPause:    pauseBetweenFailures,
	}
}

// NewMemoryCache builds the shared response cache with the fixed TTL.
func NewMemoryCache() *cache.Cache {
	return cache.New(cacheExpiration, cacheCleanupInterval)
}

// DoRestGet returns the response body for suffixPath, serving it from the
// cache when a fresh entry exists.
func (r *RestCall) DoRestGet(ctx context.Context, suffixPath string) ([]byte, error) {
	if cached, found := r.cache.Get(suffixPath); found {
		logger.L.Debug("Cache hit", "path", suffixPath)
		return cached.([]byte), nil
	}

	body, err := r.execute(ctx, http.MethodGet, suffixPath, nil)
	if err != nil {
		return nil, err
	}

	r.cache.Set(suffixPath, body, cache.DefaultExpiration)
	return body, nil
}

// DoRestPost sends body as JSON. Writes are never cached.
func (r *RestCall) DoRestPost(ctx context.Context, suffixPath string, body any) ([]byte, error) {
	return r.execute(ctx, http.MethodPost, suffixPath, body)
}

func (r *RestCall) DoRestPut(ctx context.Context, suffixPath string, body any) ([]byte, error) {
	return r.execute(ctx, http.MethodPut, suffixPath, body)
}

func (r *RestCall) DoRestPatch(ctx context.Context, suffixPath string, body any) ([]byte, error) {
	return r.execute(ctx, http.MethodPatch, suffixPath, body)
}

func (r *RestCall) DoRestDelete(ctx context.Context, suffixPath string) error {
	_, err := r.execute(ctx, http.MethodDelete, suffixPath, nil)
	return err
}

// execute runs one call under the retry policy: a fixed number of attempts
// with a constant pause, no exponential backoff, no state carried across
// calls. Every non-2xx response or transport error triggers a retry.
func (r *RestCall) execute(ctx context.Context, method, suffixPath string, body any) ([]byte, error) {
	var content []byte
	var lastStatus int

	operation := func() error {
		if err := r.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		token, err := r.authenticationToken(ctx)
		if err != nil {
			lastStatus = 0
			logger.L.Warn("Token exchange failed, will retry", "error", err)
			return err
		}

		req := r.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+token).
			SetHeader("Content-Type", "application/json")
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Execute(method, suffixPath)
		if err != nil {
			lastStatus = 0
			logger.L.Warn("Request failed, will retry", "method", method, "path", suffixPath, "error", err)
			return err
		}
		if resp.IsError() {
			lastStatus = resp.StatusCode()
			logger.L.Warn("Request failed, will retry", "method", method, "path", suffixPath, "status", resp.StatusCode())
			return fmt.Errorf("unexpected status %d", resp.StatusCode())
		}

		content = resp.Body()
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.retryPause), r.retryAttempts-1),
		ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, &RemoteCallError{StatusCode: lastStatus, Path: suffixPath}
	}
	return content, nil
}

// authenticationToken exchanges the long-lived access token for a bearer
// token. It is fetched fresh for every call on purpose: no local expiry
// tracking means a stale-token failure retries like any transient failure.
func (r *RestCall) authenticationToken(ctx context.Context) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&authResponse{}).
		Get("api/v1/auth/anonymous/" + r.accessToken)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("token exchange failed with status %d", resp.StatusCode())
	}

	auth := resp.Result().(*authResponse)
	if auth.AuthToken == "" {
		return "", fmt.Errorf("token exchange returned an empty token")
	}
	return auth.AuthToken, nil
}

package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/testizer/funnel-sync-backend/pkg/config"
	pkgerrors "github.com/testizer/funnel-sync-backend/pkg/errors"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond

	// Error bodies get truncated before they land in error text and the
	// outbox error_message column.
	maxErrorBodyLen = 500
)

// UpsertResult reports the outcome of a contact upsert.
type UpsertResult struct {
	// ID is the Brevo contact id when the API returned one (creates do,
	// updates answer 204 with no body).
	ID int64
	// DryRun is true when the call was short-circuited before network I/O.
	DryRun bool
}

// Client is a typed wrapper around the Brevo contact API. It classifies
// failures into transient and fatal and retries transient ones with
// exponential backoff, all within a single UpsertContact call.
type Client struct {
	apiKey      string
	baseURL     string
	dryRun      bool
	maxRetries  uint64
	baseBackoff time.Duration
	httpClient  *http.Client
	logg        *logger.Logger
}

// NewClient initializes the Brevo wrapper. An empty API key is allowed only
// when dryRun is set; the check is deferred to call time so a disabled
// environment can still construct the client.
func NewClient(cfg config.BrevoConfig, dryRun bool, logg *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = defaultBaseBackoff
	}
	return &Client{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		dryRun:      dryRun,
		maxRetries:  uint64(maxRetries),
		baseBackoff: baseBackoff,
		httpClient:  &http.Client{Timeout: timeout},
		logg:        logg,
	}
}

// DryRun reports whether the client suppresses network I/O.
func (c *Client) DryRun() bool {
	return c.dryRun
}

// UpsertContact creates or updates a contact. The operation is idempotent
// upstream: repeated calls with the same email converge on the same contact.
// Transient failures (network, 429, 5xx) are retried up to maxRetries times
// with exponential backoff; a fatal failure (other 4xx) aborts immediately.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (UpsertResult, error) {
	if contact.Email == "" {
		return UpsertResult{}, pkgerrors.New(pkgerrors.CodeValidation, "contact email is required")
	}

	if c.dryRun {
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{
				"email":    contact.Email,
				"list_ids": contact.ListIDs,
			})
			c.logg.Info(logCtx, "dry run: skipping brevo contact upsert")
		}
		return UpsertResult{DryRun: true}, nil
	}

	if c.apiKey == "" {
		return UpsertResult{}, pkgerrors.New(pkgerrors.CodeConfiguration, "brevo api key is not configured")
	}

	body, err := json.Marshal(contact.payload())
	if err != nil {
		return UpsertResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding contact payload")
	}

	var result UpsertResult
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, attemptErr := c.doUpsert(ctx, body)
		if attemptErr != nil {
			if pkgerrors.IsTransient(attemptErr) {
				if c.logg != nil {
					logCtx := c.logg.WithEmail(ctx, contact.Email)
					c.logg.Warn(c.logg.WithField(logCtx, "error", attemptErr.Error()), "transient brevo failure, will retry")
				}
				return retry.RetryableError(attemptErr)
			}
			return attemptErr
		}
		result = res
		return nil
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return result, nil
}

func (c *Client) doUpsert(ctx context.Context, body []byte) (UpsertResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/contacts", bytes.NewReader(body))
	if err != nil {
		return UpsertResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building brevo request")
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UpsertResult{}, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "brevo request failed")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return UpsertResult{}, classifyStatus(resp.StatusCode, respBody)
	}

	var decoded struct {
		ID int64 `json:"id"`
	}
	// Updates answer 204 with an empty body; a non-JSON body is not an error.
	if len(respBody) > 0 {
		_ = json.Unmarshal(respBody, &decoded)
	}
	return UpsertResult{ID: decoded.ID}, nil
}

func classifyStatus(status int, body []byte) error {
	message := fmt.Sprintf("brevo api error %d: %s", status, truncate(string(body), maxErrorBodyLen))
	if status == http.StatusTooManyRequests || status >= 500 {
		return pkgerrors.New(pkgerrors.CodeTransient, message)
	}
	return pkgerrors.New(pkgerrors.CodeFatal, message)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

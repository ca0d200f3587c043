// Package captcha verifies reCAPTCHA v3 tokens submitted with login and
// registration.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Verifier checks captcha tokens against the siteverify endpoint
type Verifier struct {
	enabled    bool
	secret     string
	minScore   float64
	verifyURL  string
	httpClient *http.Client
}

type Option func(*Verifier)

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) {
		v.httpClient = c
	}
}

// NewVerifier creates a verifier. A disabled verifier accepts every token.
func NewVerifier(enabled bool, secret string, minScore float64, verifyURL string, opts ...Option) *Verifier {
	v := &Verifier{
		enabled:    enabled,
		secret:     secret,
		minScore:   minScore,
		verifyURL:  verifyURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify reports whether token passes the captcha check. Transport failures
// count as a failed check and are logged.
func (v *Verifier) Verify(ctx context.Context, token string) bool {
	if !v.enabled {
		return true
	}
	if token == "" {
		return false
	}

	ok, err := v.verify(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("Captcha verification request failed")
		return false
	}
	return ok
}

func (v *Verifier) verify(ctx context.Context, token string) (bool, error) {
	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("siteverify error: status %d", resp.StatusCode)
	}

	var result siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	if !result.Success || result.Score < v.minScore {
		log.Warn().
			Bool("success", result.Success).
			Float64("score", result.Score).
			Strs("error_codes", result.ErrorCodes).
			Msg("Captcha rejected")
		return false, nil
	}
	return true, nil
}

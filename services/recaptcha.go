package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var ErrRecaptchaRejected = errors.New("recaptcha verification failed")

// RecaptchaVerifier verifies a client-side challenge token.
type RecaptchaVerifier interface {
	Verify(ctx context.Context, token, action, ip string) error
}

// RecaptchaClient verifies reCAPTCHA v3 tokens against the upstream
// siteverify endpoint. The HTTP client carries a hard timeout so a slow
// upstream can never stall request handling indefinitely.
type RecaptchaClient struct {
	secret    string
	minScore  float64
	verifyURL string
	client    *http.Client
}

func NewRecaptchaClient(secret string, minScore float64, timeout time.Duration) *RecaptchaClient {
	return &RecaptchaClient{
		secret:    secret,
		minScore:  minScore,
		verifyURL: recaptchaVerifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type recaptchaResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks token with the upstream service. The token must verify,
// carry the expected action and meet the score threshold.
func (c *RecaptchaClient) Verify(ctx context.Context, token, action, ip string) error {
	if token == "" {
		return ErrRecaptchaRejected
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if ip != "" {
		form.Set("remoteip", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("recaptcha request failed: %v", err)
	}
	defer resp.Body.Close()

	var result recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("recaptcha response decode failed: %v", err)
	}

	if !result.Success {
		return ErrRecaptchaRejected
	}
	if action != "" && result.Action != action {
		return ErrRecaptchaRejected
	}
	if result.Score < c.minScore {
		return ErrRecaptchaRejected
	}
	return nil
}

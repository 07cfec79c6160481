// Package mailbox talks to the inbound email provider: verifying webhook
// signatures and fetching full message bodies, which the webhook envelope
// references by id only.
package mailbox

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Email is the full message fetched by id. HTML is preferred when present;
// Text is the provider's plain-text fallback.
type Email struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Client is an HTTP client for the mailbox provider's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchEmail retrieves the full message for an email id from the webhook
// envelope.
func (c *Client) FetchEmail(ctx context.Context, emailID string) (*Email, error) {
	url := fmt.Sprintf("%s/emails/%s", c.baseURL, emailID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build mailbox request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch email")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("mailbox returned %d for email %s: %s", resp.StatusCode, emailID, body)
	}

	email := &Email{}
	if err := json.NewDecoder(resp.Body).Decode(email); err != nil {
		return nil, errors.Wrap(err, "decode email")
	}
	return email, nil
}

// VerifySignature checks an HMAC-SHA256 hex signature over the raw webhook
// body. A "sha256=" prefix on the header value is accepted.
func VerifySignature(payload []byte, signature, secret string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Sign produces the signature VerifySignature expects. Exported for tests
// and local webhook replay tooling.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Package market provides the agent-side client for the tool marketplace
// gateway: discovery, priced invocation and the 402 retry handshake inputs.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Ankitanand2411/Agent-x402/internal/domain"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/payment"
	"github.com/Ankitanand2411/Agent-x402/internal/domain/tool"
	"github.com/Ankitanand2411/Agent-x402/internal/resilience"
)

// Listing is one discovered tool with its price lifted out of the
// description. Priced is false when the description carried no usable
// price token.
type Listing struct {
	Descriptor tool.Descriptor
	Price      float64
	Currency   string
	Priced     bool
}

// Outcome is the result of one invocation attempt. Exactly one of
// Challenge, Body or AudioPath is meaningful, keyed on StatusCode and
// ContentType.
type Outcome struct {
	StatusCode  int
	ContentType string
	Challenge   *payment.Challenge
	Body        json.RawMessage
	AudioPath   string
}

// PaymentRequired reports whether the gateway demanded payment.
func (o *Outcome) PaymentRequired() bool {
	return o.StatusCode == http.StatusPaymentRequired
}

// Client talks to the marketplace gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new marketplace client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to discovery calls. Invocations are
// not broken: a half-settled payment must be allowed its retry.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// FetchTools discovers the marketplace catalog and parses each tool's
// embedded price. A tool whose description has no price token is listed
// with price zero and Priced false; the caller decides whether that is
// acceptable.
func (c *Client) FetchTools(ctx context.Context) ([]Listing, error) {
	var descriptors []tool.Descriptor
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tools", nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrDiscovery, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: gateway returned %d", domain.ErrDiscovery, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&descriptors); err != nil {
			return fmt.Errorf("%w: decode catalog: %v", domain.ErrDiscovery, err)
		}
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
	} else if err := call(); err != nil {
		return nil, err
	}

	listings := make([]Listing, 0, len(descriptors))
	for _, d := range descriptors {
		price, currency, ok := tool.ParsePrice(d.Description)
		listings = append(listings, Listing{
			Descriptor: d,
			Price:      price,
			Currency:   currency,
			Priced:     ok,
		})
	}
	return listings, nil
}

// Invoke posts the arguments to a tool endpoint. proofHeader, when
// non-empty, is sent as the payment proof; a 402 response comes back as an
// Outcome carrying the parsed challenge, never as an error.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]any, proofHeader string) (*Outcome, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tools/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if proofHeader != "" {
		req.Header.Set(payment.ProofHeader, proofHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	out := &Outcome{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode == http.StatusPaymentRequired {
		var ch payment.Challenge
		if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
			return nil, fmt.Errorf("%w: malformed challenge: %v", domain.ErrPaymentRequired, err)
		}
		out.Challenge = &ch
		return out, nil
	}

	if strings.Contains(out.ContentType, "audio/wav") {
		path, err := saveAudio(resp.Body)
		if err != nil {
			return nil, err
		}
		out.AudioPath = path
		return out, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	out.Body = data
	return out, nil
}

// saveAudio spools a binary audio body to a temp file so the caller can
// hand a path, not megabytes, to the UI layer.
func saveAudio(r io.Reader) (string, error) {
	f, err := os.CreateTemp("", "x402-audio-*.wav")
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return f.Name(), nil
}

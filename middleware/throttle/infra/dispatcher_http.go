package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"verification-gateway/middleware/throttle/domain"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// HTTPDispatcher pede ao provedor de SMS que gere e envie o código.
//
// O limiter (token bucket) respeita a cota do provedor, independente do
// throttle por identidade.
type HTTPDispatcher struct {
	endpoint string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
}

type HTTPDispatcherOption func(*HTTPDispatcher)

func WithProviderToken(token string) HTTPDispatcherOption {
	return func(d *HTTPDispatcher) { d.token = token }
}

func WithHTTPClient(c *http.Client) HTTPDispatcherOption {
	return func(d *HTTPDispatcher) { d.client = c }
}

// WithProviderRate limita chamadas ao provedor; rps <= 0 desliga o limite.
func WithProviderRate(rps float64, burst int) HTTPDispatcherOption {
	return func(d *HTTPDispatcher) {
		if rps <= 0 {
			d.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewHTTPDispatcher(endpoint string, opts ...HTTPDispatcherOption) *HTTPDispatcher {
	d := &HTTPDispatcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type providerRequest struct {
	To string `json:"to"`
}

type providerResponse struct {
	ID string `json:"id"`
}

func (d *HTTPDispatcher) Send(ctx context.Context, phone string) (domain.DispatchReceipt, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return domain.DispatchReceipt{}, fmt.Errorf("%w: provider budget: %v", domain.ErrDispatchFailed, err)
		}
	}

	body, err := json.Marshal(providerRequest{To: phone})
	if err != nil {
		return domain.DispatchReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.DispatchReceipt{}, fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return domain.DispatchReceipt{}, fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.DispatchReceipt{}, fmt.Errorf("%w: provider status %d: %s",
			domain.ErrDispatchFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out providerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return domain.DispatchReceipt{}, fmt.Errorf("%w: decode provider response: %v", domain.ErrDispatchFailed, err)
	}
	return domain.DispatchReceipt{MessageID: out.ID}, nil
}

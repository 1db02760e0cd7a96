package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/go-querystring/query"

	"pego/infrastructure/logger"
)

// CardClient talks to the card-redirect checkout provider. The provider
// hosts the payment page; we only hold the session id and the redirect URL.
type CardClient struct {
	host       string
	apiKey     string
	returnURL  string
	httpClient *http.Client
}

func NewCardClient(host, apiKey, returnURL string) *CardClient {
	return &CardClient{
		host:       host,
		apiKey:     apiKey,
		returnURL:  returnURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type cardCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionRef  string `json:"session_ref"`
}

type cardStatusResponse struct {
	Status string `json:"status"` // open | paid | failed
}

func (c *CardClient) CreateSession(ctx context.Context, params CreateParams) (*SessionInfo, error) {
	params.ReturnURL = c.returnURL
	values, err := query.Values(params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+"/v1/checkout/sessions?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("card provider create: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		logger.GetLogger().WithField("status", resp.StatusCode).WithField("body", string(body)).Error("card provider rejected session")
		return nil, fmt.Errorf("card provider returned status %d", resp.StatusCode)
	}

	var out cardCheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode card provider response: %w", err)
	}
	return &SessionInfo{CheckoutURL: out.CheckoutURL}, nil
}

func (c *CardClient) CheckPaid(ctx context.Context, sessionID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.host+"/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("card provider status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("card provider returned status %d", resp.StatusCode)
	}

	var out cardStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Status == "paid", nil
}

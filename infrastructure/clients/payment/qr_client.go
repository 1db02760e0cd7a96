package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-querystring/query"
)

// QRClient talks to the QR bank-transfer provider. The provider issues a
// QR payload the user scans with their banking app; settlement is confirmed
// by polling.
type QRClient struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

func NewQRClient(host, apiKey string) *QRClient {
	return &QRClient{
		host:       host,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type qrCreateResponse struct {
	QRPayload string `json:"qr_payload"`
	Ref       string `json:"ref"`
}

type qrStatusResponse struct {
	Paid bool `json:"paid"`
}

func (c *QRClient) CreateSession(ctx context.Context, params CreateParams) (*SessionInfo, error) {
	values, err := query.Values(params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+"/v1/qr/sessions?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qr provider create: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("qr provider returned status %d", resp.StatusCode)
	}

	var out qrCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode qr provider response: %w", err)
	}
	return &SessionInfo{QRPayload: out.QRPayload}, nil
}

func (c *QRClient) CheckPaid(ctx context.Context, sessionID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.host+"/v1/qr/sessions/"+sessionID+"/status", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("qr provider status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("qr provider returned status %d", resp.StatusCode)
	}

	var out qrStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Paid, nil
}

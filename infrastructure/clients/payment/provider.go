package payment

import (
	"context"
)

// CreateParams is sent to the external provider when opening a session.
// Encoded with go-querystring into the provider's query format.
type CreateParams struct {
	SessionID string `url:"session_id"`
	Amount    int64  `url:"amount"`
	Currency  string `url:"currency"`
	ReturnURL string `url:"return_url,omitempty"`
	Reference string `url:"reference,omitempty"`
}

// SessionInfo is the method-specific payload returned by a provider:
// card sessions carry a redirect URL, QR sessions carry the QR payload.
type SessionInfo struct {
	CheckoutURL string
	QRPayload   string
}

// IProvider is the capability interface every settlement method implements.
// Status checks are polled by Confirm; providers must answer the same way
// for repeated calls on a settled session.
type IProvider interface {
	CreateSession(ctx context.Context, params CreateParams) (*SessionInfo, error)
	// CheckPaid reports whether the provider considers the session settled.
	CheckPaid(ctx context.Context, sessionID string) (bool, error)
}

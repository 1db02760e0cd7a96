package servicebus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"pego/infrastructure/logger"
)

// Receipt is the message sent downstream when a payment session settles,
// so billing/reconciliation consumers see every confirmed charge.
type Receipt struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	Purpose   string    `json:"purpose"`
	PaidAt    time.Time `json:"paid_at"`
}

type IReceiptBus interface {
	SendReceipt(ctx context.Context, receipt Receipt) error
}

type ReceiptBus struct {
	client *azservicebus.Client
	queue  string
}

func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

func NewReceiptBus(client *azservicebus.Client, queue string) IReceiptBus {
	return &ReceiptBus{client: client, queue: queue}
}

func (b *ReceiptBus) SendReceipt(ctx context.Context, receipt Receipt) error {
	if b.client == nil {
		return nil
	}
	sender, err := b.client.NewSender(b.queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return err
	}
	defer func() {
		if closeErr := sender.Close(ctx); closeErr != nil {
			logger.GetLogger().WithField("error", closeErr).Error("Error while closing sender.")
		}
	}()

	body, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: body}, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending receipt message.")
		return err
	}
	return nil
}

package adapter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/smiles-unlimited/ufund/internal/pkg/mq"
	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
)

// ReceiptKafkaAdapter implements port.ReceiptNotifier by producing receipt
// events for the mailer worker. Keyed by user id so one user's receipts stay
// ordered.
type ReceiptKafkaAdapter struct {
	writer *kafka.Writer
}

func NewReceiptKafkaAdapter(writer *kafka.Writer) *ReceiptKafkaAdapter {
	return &ReceiptKafkaAdapter{writer: writer}
}

func (a *ReceiptKafkaAdapter) SendReceipt(ctx context.Context, event *domain.ReceiptEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal receipt event")
	}
	key := []byte(strconv.Itoa(event.UserID))
	return mq.ProduceMessage(ctx, a.writer, key, payload)
}

func (a *ReceiptKafkaAdapter) Close() error {
	return a.writer.Close()
}

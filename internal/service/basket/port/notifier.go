package port

import (
	"context"

	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
)

// ReceiptNotifier is the outbound port for receipt delivery.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, event *domain.ReceiptEvent) error
}

package port

import (
	"context"

	"github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
)

// BasketProjector is the outbound port through which catalog mutations are
// reflected into every basket that references the toy. Implemented by the
// basket service.
type BasketProjector interface {
	// ApplyToyUpdate renames and re-costs matching basket lines and caps their
	// quantity at the toy's new stock.
	ApplyToyUpdate(ctx context.Context, toy *domain.Toy) error

	// RemoveToyEverywhere deletes the toy's line from every basket.
	RemoveToyEverywhere(ctx context.Context, toyID int) error
}

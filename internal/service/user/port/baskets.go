package port

import "context"

// BasketProvisioner is the outbound port through which account creation gets
// its one-basket-per-user guarantee. Implemented by the basket service.
type BasketProvisioner interface {
	EnsureBasket(ctx context.Context, userID int) error
}

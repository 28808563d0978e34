package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
	"github.com/smiles-unlimited/ufund/internal/service/basket/infrastructure"
	catalogdomain "github.com/smiles-unlimited/ufund/internal/service/catalog/domain"
	cataloginfra "github.com/smiles-unlimited/ufund/internal/service/catalog/infrastructure"
)

type capturingNotifier struct {
	mu     sync.Mutex
	events []*domain.ReceiptEvent
}

func (n *capturingNotifier) SendReceipt(ctx context.Context, event *domain.ReceiptEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

type checkoutFixture struct {
	toys     *cataloginfra.MemoryToyRepository
	baskets  *infrastructure.MemoryBasketRepository
	notifier *capturingNotifier
	checkout *CheckoutOrchestrator
}

func newCheckoutFixture(t *testing.T, lineTimeout time.Duration) *checkoutFixture {
	t.Helper()
	tracer := otel.Tracer("test")
	toys := cataloginfra.NewMemoryToyRepository()
	baskets := infrastructure.NewMemoryBasketRepository()
	notifier := &capturingNotifier{}
	reconciler := NewStockReconciler(toys, infrastructure.NewLocalStockLocker(), tracer)
	return &checkoutFixture{
		toys:     toys,
		baskets:  baskets,
		notifier: notifier,
		checkout: NewCheckoutOrchestrator(baskets, reconciler, notifier, tracer, lineTimeout),
	}
}

func (f *checkoutFixture) addToy(t *testing.T, toy catalogdomain.Toy) *catalogdomain.Toy {
	t.Helper()
	created, err := f.toys.Create(context.Background(), &toy)
	require.NoError(t, err)
	return created
}

func (f *checkoutFixture) fillBasket(t *testing.T, userID int, lines ...domain.Line) {
	t.Helper()
	ctx := context.Background()
	_, err := f.baskets.Create(ctx, userID)
	require.NoError(t, err)
	for _, line := range lines {
		_, err := f.baskets.AddLine(ctx, userID, line)
		require.NoError(t, err)
	}
}

func resultFor(t *testing.T, report *domain.CheckoutReport, toyID int) domain.LineResult {
	t.Helper()
	for _, line := range report.Lines {
		if line.ToyID == toyID {
			return line
		}
	}
	t.Fatalf("no result for toy %d", toyID)
	return domain.LineResult{}
}

func TestCheckoutBestEffortPerLine(t *testing.T) {
	f := newCheckoutFixture(t, time.Second)
	teddy := f.addToy(t, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	yoyo := f.addToy(t, catalogdomain.Toy{Name: "Yo-yo", Cost: 5, Quantity: 4})
	f.fillBasket(t, 1,
		domain.Line{ToyID: teddy.ID, Name: teddy.Name, Cost: teddy.Cost, Quantity: 3},
		domain.Line{ToyID: yoyo.ID, Name: yoyo.Name, Cost: yoyo.Cost, Quantity: 10},
		domain.Line{ToyID: 999, Name: "Ghost", Cost: 1, Quantity: 1},
	)

	report, err := f.checkout.Checkout(context.Background(), 1, "kid@example.com")
	require.NoError(t, err)
	require.Len(t, report.Lines, 3)

	applied := resultFor(t, report, teddy.ID)
	assert.Equal(t, domain.OutcomeApplied, applied.Outcome)
	assert.Equal(t, 2, applied.RemainingStock)

	short := resultFor(t, report, yoyo.ID)
	assert.Equal(t, domain.OutcomeInsufficientStock, short.Outcome)
	assert.Equal(t, 4, short.RemainingStock)

	missing := resultFor(t, report, 999)
	assert.Equal(t, domain.OutcomeNotFound, missing.Outcome)

	// Only the fulfilled line leaves the basket; failed lines stay for retry.
	require.NotNil(t, report.Basket)
	assert.Nil(t, report.Basket.FindLine(teddy.ID))
	assert.NotNil(t, report.Basket.FindLine(yoyo.ID))
	assert.NotNil(t, report.Basket.FindLine(999))

	// Unfulfilled stock is untouched.
	left, err := f.toys.Get(context.Background(), yoyo.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, left.Quantity)
}

func TestCheckoutReceiptCoversAppliedLinesOnly(t *testing.T) {
	f := newCheckoutFixture(t, time.Second)
	teddy := f.addToy(t, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	f.fillBasket(t, 1,
		domain.Line{ToyID: teddy.ID, Name: teddy.Name, Cost: teddy.Cost, Quantity: 2},
		domain.Line{ToyID: 999, Name: "Ghost", Cost: 1, Quantity: 1},
	)

	report, err := f.checkout.Checkout(context.Background(), 1, "kid@example.com")
	require.NoError(t, err)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	assert.Equal(t, report.ID, event.EventID)
	assert.Equal(t, "kid@example.com", event.ToEmail)
	assert.Contains(t, event.Body, "1. Teddy Bear: $20 x 2")
	assert.Contains(t, event.Body, "Total Amount: $40")
	assert.NotContains(t, event.Body, "Ghost")
}

func TestCheckoutNoReceiptWhenNothingApplied(t *testing.T) {
	f := newCheckoutFixture(t, time.Second)
	f.fillBasket(t, 1, domain.Line{ToyID: 999, Name: "Ghost", Cost: 1, Quantity: 1})

	_, err := f.checkout.Checkout(context.Background(), 1, "kid@example.com")
	require.NoError(t, err)
	assert.Empty(t, f.notifier.events)
}

func TestCheckoutRerunIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t, time.Second)
	teddy := f.addToy(t, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	f.fillBasket(t, 1, domain.Line{ToyID: teddy.ID, Name: teddy.Name, Cost: teddy.Cost, Quantity: 3})

	first, err := f.checkout.Checkout(context.Background(), 1, "")
	require.NoError(t, err)
	assert.True(t, first.FullyApplied())

	second, err := f.checkout.Checkout(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, second.Lines)

	toy, err := f.toys.Get(context.Background(), teddy.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, toy.Quantity)
}

func TestCheckoutBasketNotFoundAborts(t *testing.T) {
	f := newCheckoutFixture(t, time.Second)

	_, err := f.checkout.Checkout(context.Background(), 42, "")
	assert.ErrorIs(t, err, domain.ErrBasketNotFound)
}

func TestCheckoutCancelledContextFailsLines(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	teddy := f.addToy(t, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	f.fillBasket(t, 1, domain.Line{ToyID: teddy.ID, Name: teddy.Name, Cost: teddy.Cost, Quantity: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.checkout.Checkout(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, report.Lines, 1)
	assert.Equal(t, domain.OutcomeFailed, report.Lines[0].Outcome)

	// No stock was touched and the line survives for retry.
	toy, getErr := f.toys.Get(context.Background(), teddy.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 5, toy.Quantity)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newCheckoutFixture(t, time.Second)
	teddy := f.addToy(t, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})

	const users = 10
	for userID := 1; userID <= users; userID++ {
		f.fillBasket(t, userID, domain.Line{ToyID: teddy.ID, Name: teddy.Name, Cost: teddy.Cost, Quantity: 2})
	}

	var wg sync.WaitGroup
	reports := make([]*domain.CheckoutReport, users)
	errs := make([]error, users)
	for userID := 1; userID <= users; userID++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			reports[userID-1], errs[userID-1] = f.checkout.Checkout(context.Background(), userID, "")
		}(userID)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	applied := 0
	for _, report := range reports {
		applied += len(report.AppliedLines())
	}
	// 5 in stock, 2 per basket: exactly two checkouts can win.
	assert.Equal(t, 2, applied)

	toy, err := f.toys.Get(context.Background(), teddy.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, toy.Quantity)
	assert.GreaterOrEqual(t, toy.Quantity, 0)
}

func TestReconcileLineRejectsNonPositiveQuantity(t *testing.T) {
	f := newCheckoutFixture(t, time.Second)

	result := f.checkout.reconciler.ReconcileLine(context.Background(), 1, 0)
	assert.Equal(t, domain.OutcomeFailed, result.Outcome)
}

// A cancelled context must always come back Failed with zero stock mutations;
// repeated to rule out a lucky lock-acquisition order.
func TestReconcileLineCancelledContextNeverDecrements(t *testing.T) {
	f := newCheckoutFixture(t, time.Second)
	teddy := f.addToy(t, catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 1000; i++ {
		result := f.checkout.reconciler.ReconcileLine(ctx, teddy.ID, 1)
		require.Equal(t, domain.OutcomeFailed, result.Outcome)
	}

	toy, err := f.toys.Get(context.Background(), teddy.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, toy.Quantity)
}

// brokenViewBasketRepo serves the first Get and fails every later one, which
// is exactly the post-checkout re-fetch.
type brokenViewBasketRepo struct {
	*infrastructure.MemoryBasketRepository
	gets atomic.Int32
}

func (r *brokenViewBasketRepo) Get(ctx context.Context, userID int) (*domain.Basket, error) {
	if r.gets.Add(1) > 1 {
		return nil, errors.New("basket store offline")
	}
	return r.MemoryBasketRepository.Get(ctx, userID)
}

func TestCheckoutReportsFinalViewUnavailable(t *testing.T) {
	ctx := context.Background()
	tracer := otel.Tracer("test")
	toys := cataloginfra.NewMemoryToyRepository()
	baskets := &brokenViewBasketRepo{MemoryBasketRepository: infrastructure.NewMemoryBasketRepository()}
	reconciler := NewStockReconciler(toys, infrastructure.NewLocalStockLocker(), tracer)
	checkout := NewCheckoutOrchestrator(baskets, reconciler, nil, tracer, time.Second)

	teddy, err := toys.Create(ctx, &catalogdomain.Toy{Name: "Teddy Bear", Cost: 20, Quantity: 5})
	require.NoError(t, err)
	_, err = baskets.MemoryBasketRepository.Create(ctx, 1)
	require.NoError(t, err)
	_, err = baskets.MemoryBasketRepository.AddLine(ctx, 1, domain.Line{ToyID: teddy.ID, Name: teddy.Name, Cost: teddy.Cost, Quantity: 2})
	require.NoError(t, err)

	report, err := checkout.Checkout(ctx, 1, "")
	require.NoError(t, err)
	assert.True(t, report.FullyApplied())

	// The final view failed to load; the report says so instead of passing
	// off nil as an empty basket.
	assert.Nil(t, report.Basket)
	assert.Equal(t, "basket store offline", report.BasketError)
}

package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/qwinza/tani-web/models"
)

func newTestStore() *MemoryStore {
	store := NewMemoryStore()
	store.AddProduct(models.Product{
		ID:       1,
		UserID:   2,
		Name:     "Beras Organik",
		Price:    decimal.NewFromInt(10000),
		Unit:     "kg",
		Stock:    5,
		MinOrder: 1,
	})
	store.AddProduct(models.Product{
		ID:       2,
		UserID:   2,
		Name:     "Cabai Merah",
		Price:    decimal.NewFromInt(25000),
		Unit:     "kg",
		Stock:    3,
		MinOrder: 2,
	})
	return store
}

func TestCheckout(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store)

	orders, err := engine.Checkout(context.Background(), 7,
		[]Item{{ProductID: 1, Quantity: 3}}, "Jl. Mawar 1", "0812000111")
	if err != nil {
		t.Fatalf("expected checkout to succeed, got: %v", err)
	}

	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	order := orders[0]
	if order.Status != models.OrderStatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if !order.TotalPrice.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("expected total 30000, got %s", order.TotalPrice)
	}
	if got := store.Stock(1); got != 2 {
		t.Errorf("expected stock 2, got %d", got)
	}
}

func TestCheckout_PriceSnapshot(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store)

	orders, err := engine.Checkout(context.Background(), 7,
		[]Item{{ProductID: 1, Quantity: 2}}, "Jl. Mawar 1", "0812000111")
	if err != nil {
		t.Fatalf("expected checkout to succeed, got: %v", err)
	}

	// Raise the price after the order exists.
	store.AddProduct(models.Product{
		ID: 1, UserID: 2, Name: "Beras Organik",
		Price: decimal.NewFromInt(99999), Stock: 3, MinOrder: 1,
	})

	persisted, err := store.GetOrder(orders[0].ID)
	if err != nil {
		t.Fatalf("expected order to exist: %v", err)
	}
	if !persisted.TotalPrice.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("total must keep the snapshot price, got %s", persisted.TotalPrice)
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store)

	_, err := engine.Checkout(context.Background(), 7,
		[]Item{{ProductID: 1, Quantity: 6}}, "Jl. Mawar 1", "0812000111")

	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stockErr.ProductName != "Beras Organik" {
		t.Errorf("error must name the product, got %q", stockErr.ProductName)
	}
	if got := store.Stock(1); got != 5 {
		t.Errorf("stock must be untouched on failure, got %d", got)
	}
	if got := len(store.Orders()); got != 0 {
		t.Errorf("no order may be persisted on failure, got %d", got)
	}
}

func TestCheckout_MultiItemAtomicity(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store)

	// Second line is under-stocked: the whole batch must roll back.
	_, err := engine.Checkout(context.Background(), 7, []Item{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 10},
	}, "Jl. Mawar 1", "0812000111")

	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stockErr.ProductName != "Cabai Merah" {
		t.Errorf("error must name the under-stocked product, got %q", stockErr.ProductName)
	}
	if got := store.Stock(1); got != 5 {
		t.Errorf("first line's stock must be restored, got %d", got)
	}
	if got := len(store.Orders()); got != 0 {
		t.Errorf("no partial order may survive, got %d", got)
	}
}

func TestCheckout_Validation(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store)
	ctx := context.Background()

	cases := []struct {
		name    string
		items   []Item
		address string
		phone   string
	}{
		{"empty cart", nil, "Jl. Mawar 1", "0812000111"},
		{"zero quantity", []Item{{ProductID: 1, Quantity: 0}}, "Jl. Mawar 1", "0812000111"},
		{"negative quantity", []Item{{ProductID: 1, Quantity: -2}}, "Jl. Mawar 1", "0812000111"},
		{"below min order", []Item{{ProductID: 2, Quantity: 1}}, "Jl. Mawar 1", "0812000111"},
		{"missing address", []Item{{ProductID: 1, Quantity: 1}}, "", "0812000111"},
		{"missing phone", []Item{{ProductID: 1, Quantity: 1}}, "Jl. Mawar 1", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Checkout(ctx, 7, tc.items, tc.address, tc.phone)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got: %v", err)
			}
		})
	}

	if got := store.Stock(1); got != 5 {
		t.Errorf("validation failures must not touch stock, got %d", got)
	}
}

func TestCheckout_UnknownProduct(t *testing.T) {
	engine := NewEngine(newTestStore())

	_, err := engine.Checkout(context.Background(), 7,
		[]Item{{ProductID: 999, Quantity: 1}}, "Jl. Mawar 1", "0812000111")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got: %v", err)
	}
}

func TestCheckout_CancelledContext(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Checkout(ctx, 7,
		[]Item{{ProductID: 1, Quantity: 3}}, "Jl. Mawar 1", "0812000111")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if got := store.Stock(1); got != 5 {
		t.Errorf("stock must be untouched on failure, got %d", got)
	}
	if got := len(store.Orders()); got != 0 {
		t.Errorf("no order may be persisted on failure, got %d", got)
	}
}

func TestCheckout_LastUnitRace(t *testing.T) {
	store := NewMemoryStore()
	store.AddProduct(models.Product{
		ID: 1, UserID: 2, Name: "Madu Hutan",
		Price: decimal.NewFromInt(50000), Stock: 1, MinOrder: 1,
	})
	engine := NewEngine(store)

	var wg sync.WaitGroup
	var succeeded, oversold int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Checkout(context.Background(), 7,
				[]Item{{ProductID: 1, Quantity: 1}}, "Jl. Mawar 1", "0812000111")
			if err == nil {
				atomic.AddInt32(&succeeded, 1)
				return
			}
			var stockErr *InsufficientStockError
			if !errors.As(err, &stockErr) {
				atomic.AddInt32(&oversold, 1)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("exactly one checkout must win, got %d", succeeded)
	}
	if oversold != 0 {
		t.Errorf("loser must fail with InsufficientStockError")
	}
	if got := store.Stock(1); got != 0 {
		t.Errorf("expected final stock 0, got %d", got)
	}
}

func TestCheckout_ConcurrentStress(t *testing.T) {
	const stock = 50
	const buyers = 200

	store := NewMemoryStore()
	store.AddProduct(models.Product{
		ID: 1, UserID: 2, Name: "Kopi Arabika",
		Price: decimal.NewFromInt(80000), Stock: stock, MinOrder: 1,
	})
	engine := NewEngine(store)

	var wg sync.WaitGroup
	var sold int32
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(buyerID uint) {
			defer wg.Done()
			orders, err := engine.Checkout(context.Background(), buyerID,
				[]Item{{ProductID: 1, Quantity: 1}}, "Jl. Mawar 1", "0812000111")
			if err == nil {
				atomic.AddInt32(&sold, int32(orders[0].Quantity))
			}
		}(uint(i + 1))
	}
	wg.Wait()

	if sold != stock {
		t.Errorf("expected exactly %d units sold, got %d", stock, sold)
	}
	if got := store.Stock(1); got != 0 {
		t.Errorf("expected final stock 0, got %d", got)
	}
	if got := len(store.Orders()); got != stock {
		t.Errorf("expected %d orders, got %d", stock, got)
	}
}

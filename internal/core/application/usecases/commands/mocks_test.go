package commands_test

import (
	"context"
	"sync"
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByKey(ctx context.Context, number order.Number, sample order.Sample) (*order.Order, error) {
	args := m.Called(ctx, number, sample)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) ExistsByNumber(ctx context.Context, number order.Number) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Scan(_ context.Context, _ ports.ScanFilter, _ *kernel.UUID) ([]*order.Order, *kernel.UUID, error) {
	panic("not used by commands")
}

func (m *MockOrderRepository) CountInProgressIssuedBefore(_ context.Context, _ time.Time) (int64, error) {
	panic("not used by commands")
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockResultNotifier struct{ mock.Mock }

func (m *MockResultNotifier) Dispatch(ctx context.Context, targets []string, msg ports.Message) bool {
	args := m.Called(ctx, targets, msg)
	return args.Bool(0)
}

// digitRandom yields the same digit for a whole number, then moves to the next one.
type digitRandom struct {
	digits []int
	calls  int
}

func (r *digitRandom) IntN(n int) int {
	d := r.digits[(r.calls/order.ExternalNumberLength)%len(r.digits)] % n
	r.calls++
	return d
}

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ptr[T any](v T) *T { return &v }

func mustExternal(s string) order.External {
	n, err := order.ParseExternal(s)
	if err != nil {
		panic(err)
	}
	return n
}

func newInProgressOrder(targets ...string) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), mustExternal("1234567890"), "SALIVA", order.Registration{IssuedAt: fixedNow})
	if err != nil {
		panic(err)
	}
	for _, target := range targets {
		if err = o.MergeRegistration(order.Registration{NotificationTarget: ptr(target), IssuedAt: fixedNow}); err != nil {
			panic(err)
		}
	}
	return o
}

// memoryStore is a transaction-less in-memory order store keyed by (number, sample).
type memoryStore struct {
	mu     sync.Mutex
	orders map[string]order.Snapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{orders: make(map[string]order.Snapshot)}
}

func key(number order.Number, sample order.Sample) string {
	return number.IssuerID() + "|" + number.Value() + "|" + sample.String()
}

func (s *memoryStore) Create() commands.OrderUoW { return memoryUoW{store: s} }

type memoryUoW struct{ store *memoryStore }

func (memoryUoW) Begin(context.Context) error              { return nil }
func (memoryUoW) Commit(context.Context) error             { return nil }
func (memoryUoW) Rollback(context.Context) error           { return nil }
func (u memoryUoW) OrderRepository() ports.OrderRepository { return u.store }

func (s *memoryStore) Add(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(o.Number(), o.Sample())
	if _, ok := s.orders[k]; ok {
		return errs.NewConflictError("order", "duplicate")
	}
	s.orders[k] = o.Snapshot()
	return nil
}

func (s *memoryStore) Update(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[key(o.Number(), o.Sample())] = o.Snapshot()
	return nil
}

func (s *memoryStore) FindByKey(_ context.Context, number order.Number, sample order.Sample) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.orders[key(number, sample)]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", number.String())
	}
	return order.RestoreOrder(snapshot)
}

func (s *memoryStore) ExistsByNumber(_ context.Context, number order.Number) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snapshot := range s.orders {
		if snapshot.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) Scan(context.Context, ports.ScanFilter, *kernel.UUID) ([]*order.Order, *kernel.UUID, error) {
	return nil, nil, nil
}

func (s *memoryStore) CountInProgressIssuedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

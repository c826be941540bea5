package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/repository"
	"github.com/rpattn/bookstore/internal/typeloader"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRepo struct {
	mu sync.Mutex

	userBooks  []domain.Book
	otherBooks []domain.Book
	orders     []domain.PriorityOrder

	userErr  error
	otherErr error
	orderErr error

	// block makes ImportantOrders wait for ctx cancellation.
	block bool

	// barrier, when set, holds every fetch until all three are in flight.
	barrier *barrier

	gotUser        string
	gotMin, gotMax int
}

type barrier struct {
	mu      sync.Mutex
	arrived int
	ready   chan struct{}
}

func newBarrier() *barrier {
	return &barrier{ready: make(chan struct{})}
}

func (b *barrier) arrive() error {
	b.mu.Lock()
	b.arrived++
	if b.arrived == 3 {
		close(b.ready)
	}
	b.mu.Unlock()

	select {
	case <-b.ready:
		return nil
	case <-time.After(time.Second):
		return errors.New("fetches did not run concurrently")
	}
}

func (f *fakeRepo) enter() error {
	if f.barrier == nil {
		return nil
	}
	return f.barrier.arrive()
}

func (f *fakeRepo) UserUpdatedBooks(ctx context.Context, username string) ([]domain.Book, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.gotUser = username
	f.mu.Unlock()
	return f.userBooks, f.userErr
}

func (f *fakeRepo) OtherUpdatedBooks(ctx context.Context, username string) ([]domain.Book, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	return f.otherBooks, f.otherErr
}

func (f *fakeRepo) ImportantOrders(ctx context.Context, maxRange int, minRange int) ([]domain.PriorityOrder, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.gotMin, f.gotMax = minRange, maxRange
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.orders, f.orderErr
}

func order(id int64, price float64) domain.PriorityOrder {
	return domain.PriorityOrder{
		Detail:       domain.OrderDetail{ID: id, OrderID: id, Price: price, Quantity: 1},
		DeliveryDate: time.Date(2024, 3, int(id), 0, 0, 0, 0, time.UTC),
		Status:       domain.OrderStatus{ID: 1, Name: "Pending", Position: 1},
	}
}

func completeRepo() *fakeRepo {
	return &fakeRepo{
		userBooks:  []domain.Book{{ID: 10, Name: "Mine", UpdatedBy: "jdoe"}},
		otherBooks: []domain.Book{{ID: 20, Name: "Theirs", UpdatedBy: "asmith"}, {ID: 21, Name: "Older", UpdatedBy: "asmith"}},
		orders:     []domain.PriorityOrder{order(1, 30), order(2, 10), order(3, 20)},
	}
}

func orderIDs(items []domain.PriorityOrder) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.Detail.ID
	}
	return out
}

func TestProject_SortsPriorityOrdersOnly(t *testing.T) {
	repo := completeRepo()
	svc := NewService(repo, zap.NewNop())

	updates, err := svc.Project(context.Background(), ProjectRequest{Username: "jdoe", Sort: "price_desc"})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 2}, orderIDs(updates.PriorityOrders))
	assert.Equal(t, repo.userBooks, updates.UserBooks)
	assert.Equal(t, repo.otherBooks, updates.OtherBooks)
	assert.Equal(t, domain.ColumnSortState{Next: "OrderDetailPrice", Indicator: domain.GlyphDown}, updates.Columns["price"])
	assert.Equal(t, "price_desc", updates.Sort)
	assert.Equal(t, "jdoe", repo.gotUser)
	assert.Equal(t, []int64{1, 2, 3}, orderIDs(repo.orders), "repository data must not be reordered in place")
}

func TestProject_FetchesConcurrently(t *testing.T) {
	repo := completeRepo()
	repo.barrier = newBarrier()

	_, err := NewService(repo, zap.NewNop()).Project(context.Background(), ProjectRequest{Username: "jdoe"})
	require.NoError(t, err)
}

func TestProject_UnknownSortKeepsFetchOrder(t *testing.T) {
	repo := completeRepo()
	svc := NewService(repo, zap.NewNop())

	updates, err := svc.Project(context.Background(), ProjectRequest{Username: "jdoe", Sort: "bogus"})
	require.NoError(t, err)

	if diff := cmp.Diff(repo.orders, updates.PriorityOrders); diff != "" {
		t.Fatalf("priority orders changed (-want +got):\n%s", diff)
	}
	want := map[string]domain.ColumnSortState{
		"price":  {Next: "OrderDetailPrice", Indicator: domain.GlyphUp},
		"date":   {Next: "date", Indicator: domain.GlyphUp},
		"status": {Next: "status", Indicator: domain.GlyphUp},
	}
	if diff := cmp.Diff(want, updates.Columns); diff != "" {
		t.Fatalf("unexpected column states (-want +got):\n%s", diff)
	}
	assert.Empty(t, updates.Sort)
}

func TestProject_DefaultAndRequestedWindow(t *testing.T) {
	repo := completeRepo()
	svc := NewService(repo, zap.NewNop())

	_, err := svc.Project(context.Background(), ProjectRequest{Username: "jdoe"})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.gotMin)
	assert.Equal(t, 5, repo.gotMax)

	minRange, maxRange := 2, 9
	_, err = svc.Project(context.Background(), ProjectRequest{Username: "jdoe", MinRange: &minRange, MaxRange: &maxRange})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.gotMin)
	assert.Equal(t, 9, repo.gotMax)

	svc = NewService(repo, zap.NewNop(), WithDateWindow(1, 14))
	_, err = svc.Project(context.Background(), ProjectRequest{Username: "jdoe"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gotMin)
	assert.Equal(t, 14, repo.gotMax)
}

func TestProject_InvertedWindowFails(t *testing.T) {
	minRange, maxRange := 6, 1
	_, err := NewService(completeRepo(), zap.NewNop()).Project(context.Background(),
		ProjectRequest{Username: "jdoe", MinRange: &minRange, MaxRange: &maxRange})
	assert.Error(t, err)
}

func TestProject_AbsentSetFails(t *testing.T) {
	cases := map[string]func(*fakeRepo){
		SetUserBooks:      func(f *fakeRepo) { f.userBooks = nil },
		SetOtherBooks:     func(f *fakeRepo) { f.otherBooks = nil },
		SetPriorityOrders: func(f *fakeRepo) { f.orders = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := completeRepo()
			mutate(repo)

			updates, err := NewService(repo, zap.NewNop()).Project(context.Background(), ProjectRequest{Username: "jdoe", Sort: "date"})

			var partial *domain.PartialDataError
			require.ErrorAs(t, err, &partial)
			assert.Equal(t, []string{name}, partial.Missing)
			assert.Nil(t, partial.Err)
			assert.Equal(t, domain.LatestUpdates{}, updates)
		})
	}
}

func TestProject_EmptySetsAreNotAbsent(t *testing.T) {
	repo := &fakeRepo{userBooks: []domain.Book{}, otherBooks: []domain.Book{}, orders: []domain.PriorityOrder{}}

	updates, err := NewService(repo, zap.NewNop()).Project(context.Background(), ProjectRequest{Username: "jdoe"})
	require.NoError(t, err)
	assert.NotNil(t, updates.UserBooks)
	assert.NotNil(t, updates.PriorityOrders)
}

func TestProject_ErrorWithRowsStillFails(t *testing.T) {
	repo := completeRepo()
	repo.orderErr = errors.New("scan failed mid-way")

	updates, err := NewService(repo, zap.NewNop()).Project(context.Background(), ProjectRequest{Username: "jdoe", Sort: "price_desc"})

	var partial *domain.PartialDataError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{SetPriorityOrders}, partial.Missing)
	assert.ErrorIs(t, err, repo.orderErr)
	assert.Equal(t, domain.LatestUpdates{}, updates)
}

func TestProject_RepositoryErrorIsPartialData(t *testing.T) {
	repo := completeRepo()
	repo.otherBooks = nil
	repo.otherErr = errors.New("connection reset")

	_, err := NewService(repo, zap.NewNop()).Project(context.Background(), ProjectRequest{Username: "jdoe"})

	var partial *domain.PartialDataError
	require.ErrorAs(t, err, &partial)
	assert.Contains(t, partial.Missing, SetOtherBooks)
	assert.ErrorIs(t, err, repo.otherErr)
}

func TestProject_CancelledRequestAbandonsFetches(t *testing.T) {
	repo := completeRepo()
	repo.block = true
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := NewService(repo, zap.NewNop()).Project(ctx, ProjectRequest{Username: "jdoe"})

	var partial *domain.PartialDataError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{SetPriorityOrders}, partial.Missing)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProject_FetchTimeout(t *testing.T) {
	repo := completeRepo()
	repo.block = true

	_, err := NewService(repo, zap.NewNop(), WithFetchTimeout(10*time.Millisecond)).
		Project(context.Background(), ProjectRequest{Username: "jdoe"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProject_RequiresUsername(t *testing.T) {
	_, err := NewService(completeRepo(), zap.NewNop()).Project(context.Background(), ProjectRequest{Username: "  "})
	assert.Error(t, err)
}

type fakeTypes struct {
	repository.BookTypeRepository
	calls int
}

func (f *fakeTypes) GetByIDs(ctx context.Context, ids []int64) ([]domain.BookType, error) {
	f.calls++
	names := map[int64]string{1: "Hardcover", 2: "Paperback"}
	var out []domain.BookType
	for _, id := range ids {
		out = append(out, domain.BookType{ID: id, Name: names[id]})
	}
	return out, nil
}

func typedRepo() *fakeRepo {
	repo := completeRepo()
	repo.userBooks[0].TypeID = 1
	repo.otherBooks[0].TypeID = 2
	repo.otherBooks[1].TypeID = 1
	return repo
}

func typeNames(books []domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.TypeName
	}
	return out
}

func TestProject_ResolvesTypeNamesThroughRequestLoader(t *testing.T) {
	types := &fakeTypes{}
	ctx := typeloader.WithTypeLoader(context.Background(), typeloader.NewTypeLoader(types))

	updates, err := NewService(typedRepo(), zap.NewNop()).Project(ctx, ProjectRequest{Username: "jdoe"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hardcover"}, typeNames(updates.UserBooks))
	assert.Equal(t, []string{"Paperback", "Hardcover"}, typeNames(updates.OtherBooks))
	assert.Equal(t, 1, types.calls)
}

func TestProject_ResolvesTypeNamesWithConfiguredTypes(t *testing.T) {
	types := &fakeTypes{}
	svc := NewService(typedRepo(), zap.NewNop(), WithBookTypes(types))

	updates, err := svc.Project(context.Background(), ProjectRequest{Username: "jdoe"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Paperback", "Hardcover"}, typeNames(updates.OtherBooks))
	assert.Equal(t, 1, types.calls)
}

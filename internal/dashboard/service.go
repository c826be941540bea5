package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/repository"
	"github.com/rpattn/bookstore/internal/sorting"
	"github.com/rpattn/bookstore/internal/typeloader"
)

// Names of the record sets, as reported in PartialDataError.
const (
	SetUserBooks      = "user_books"
	SetOtherBooks     = "other_books"
	SetPriorityOrders = "priority_orders"
)

const (
	defaultMinRange = 0
	defaultMaxRange = 5
)

// Service projects the repository's record sets into the welcome dashboard.
type Service struct {
	repo         repository.DashboardRepository
	types        repository.BookTypeRepository
	logger       *zap.Logger
	minRange     int
	maxRange     int
	fetchTimeout time.Duration
}

type Option func(*Service)

// WithDateWindow sets the default priority order window, in days from today.
func WithDateWindow(minRange, maxRange int) Option {
	return func(s *Service) {
		if minRange >= 0 && maxRange >= minRange {
			s.minRange = minRange
			s.maxRange = maxRange
		}
	}
}

// WithFetchTimeout bounds the time spent waiting on the repository.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.fetchTimeout = timeout
		}
	}
}

// WithBookTypes resolves book type names for requests that carry no type loader.
func WithBookTypes(types repository.BookTypeRepository) Option {
	return func(s *Service) {
		s.types = types
	}
}

func NewService(repo repository.DashboardRepository, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		logger:   logger,
		minRange: defaultMinRange,
		maxRange: defaultMaxRange,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProjectRequest describes one welcome dashboard view. Nil ranges fall back
// to the service defaults.
type ProjectRequest struct {
	Username string
	MinRange *int
	MaxRange *int
	Sort     string
}

// DateWindow returns the effective [min, max] day window for req.
func (s *Service) DateWindow(req ProjectRequest) (int, int) {
	minRange, maxRange := s.minRange, s.maxRange
	if req.MinRange != nil {
		minRange = *req.MinRange
	}
	if req.MaxRange != nil {
		maxRange = *req.MaxRange
	}
	return minRange, maxRange
}

// Project fetches the three record sets concurrently and builds the view
// model. If any set is unavailable it returns a *domain.PartialDataError and
// no view model.
func (s *Service) Project(ctx context.Context, req ProjectRequest) (domain.LatestUpdates, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return domain.LatestUpdates{}, fmt.Errorf("username is required")
	}
	minRange, maxRange := s.DateWindow(req)
	if minRange > maxRange {
		return domain.LatestUpdates{}, fmt.Errorf("minRange %d is after maxRange %d", minRange, maxRange)
	}
	directive := sorting.Resolve(req.Sort)

	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	var (
		userBooks  []domain.Book
		otherBooks []domain.Book
		orders     []domain.PriorityOrder
		errs       [3]error
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		userBooks, errs[0] = s.repo.UserUpdatedBooks(gctx, username)
		return errs[0]
	})
	g.Go(func() error {
		otherBooks, errs[1] = s.repo.OtherUpdatedBooks(gctx, username)
		return errs[1]
	})
	g.Go(func() error {
		orders, errs[2] = s.repo.ImportantOrders(gctx, maxRange, minRange)
		return errs[2]
	})
	firstErr := g.Wait()
	fetchDuration.Observe(time.Since(start).Seconds())

	var missing []string
	for i, set := range []struct {
		name   string
		absent bool
	}{
		{SetUserBooks, userBooks == nil},
		{SetOtherBooks, otherBooks == nil},
		{SetPriorityOrders, orders == nil},
	} {
		if errs[i] == nil && !set.absent {
			continue
		}
		// Sets abandoned because a sibling failed first are not reported.
		if errs[i] != nil && errs[i] != firstErr && errors.Is(errs[i], context.Canceled) && ctx.Err() == nil {
			continue
		}
		missing = append(missing, set.name)
	}
	if len(missing) > 0 {
		projections.WithLabelValues(resultPartial).Inc()
		partial := &domain.PartialDataError{Missing: missing, Err: firstErr}
		s.logger.Error("dashboard data incomplete",
			zap.String("username", username),
			zap.Strings("missing", missing),
			zap.Error(firstErr),
		)
		return domain.LatestUpdates{}, partial
	}

	userBooks, otherBooks, err := s.resolveTypeNames(ctx, userBooks, otherBooks)
	if err != nil {
		projections.WithLabelValues(resultError).Inc()
		return domain.LatestUpdates{}, err
	}

	projections.WithLabelValues(resultOK).Inc()
	return domain.LatestUpdates{
		UserBooks:      userBooks,
		OtherBooks:     otherBooks,
		PriorityOrders: sorting.SortOrders(orders, directive),
		Columns:        directive.States(),
		Sort:           directive.Key.String(),
	}, nil
}

func (s *Service) resolveTypeNames(ctx context.Context, userBooks, otherBooks []domain.Book) ([]domain.Book, []domain.Book, error) {
	loader := typeloader.FromContext(ctx)
	if loader == nil {
		if s.types == nil {
			return userBooks, otherBooks, nil
		}
		loader = typeloader.NewTypeLoader(s.types)
	}
	books := make([]domain.Book, 0, len(userBooks)+len(otherBooks))
	books = append(append(books, userBooks...), otherBooks...)
	if err := loader.ResolveNames(ctx, books); err != nil {
		return nil, nil, err
	}
	n := len(userBooks)
	return books[:n:n], books[n:], nil
}

package orders

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/events"
	"github.com/rpattn/bookstore/internal/repository"
)

// Service coordinates order lookups and status changes.
type Service struct {
	repo      repository.OrderRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(repo repository.OrderRepository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Statuses(ctx context.Context) ([]domain.OrderStatus, error) {
	return s.repo.ListStatuses(ctx)
}

// UpdateStatus moves an order to statusID and announces the change. A failed
// announcement is logged; the status change itself stands.
func (s *Service) UpdateStatus(ctx context.Context, orderID, statusID int64, username string) (domain.OrderStatusChange, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.OrderStatusChange{}, fmt.Errorf("username is required")
	}
	change, err := s.repo.UpdateStatus(ctx, orderID, statusID, username)
	if err != nil {
		return domain.OrderStatusChange{}, err
	}
	if change.From.ID == change.To.ID {
		return change, nil
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, change); err != nil {
		s.logger.Error("failed to announce order status change",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
	}
	s.logger.Info("order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", change.From.Name),
		zap.String("to", change.To.Name),
		zap.String("by", username),
	)
	return change, nil
}

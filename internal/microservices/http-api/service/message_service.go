package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"messageboard/internal/microservices/http-api/models"
	"messageboard/internal/microservices/http-api/repository"
	"messageboard/internal/notify"
	"messageboard/internal/tenant"
)

// IDPrefix starts every server-assigned message id.
const IDPrefix = "mess"

// CreateInput is a validated create request.
type CreateInput struct {
	Sender  string
	Content string
	RoomID  string
}

// UpdateInput is a validated update request. Sender is the caller claiming
// authorship.
type UpdateInput struct {
	ID      string
	Sender  string
	Content string
}

type MessageService interface {
	Create(ctx context.Context, scope tenant.Input, in CreateInput) (*models.Message, error)
	GetByID(ctx context.Context, scope tenant.Input, id string) (*models.Message, error)
	ListByRoom(ctx context.Context, scope tenant.Input, window RoomWindow) ([]models.Message, error)
	Update(ctx context.Context, scope tenant.Input, in UpdateInput) (*models.Message, error)
	Delete(ctx context.Context, scope tenant.Input, id string) error
}

type messageService struct {
	registry  *repository.Registry
	resolver  *tenant.Resolver
	publisher notify.Publisher
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewMessageService(
	registry *repository.Registry,
	resolver *tenant.Resolver,
	publisher notify.Publisher,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		registry:  registry,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return IDPrefix + uuid.NewString() },
	}
}

// store resolves the tenant table and checks that it exists. Tables are
// never created on the request path.
func (s *messageService) store(ctx context.Context, scope tenant.Input) (repository.MessageRepository, error) {
	res, err := s.resolver.Resolve(scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	repo := s.registry.Get(res.Table)
	ok, err := repo.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("table validation failed",
			zap.String("table", res.Table),
			zap.String("source", string(res.Source)),
		)
		return nil, fmt.Errorf("%w: %s", repository.ErrStoreNotFound, res.Table)
	}
	return repo, nil
}

// Create stores a new message with a server-assigned id and timestamp, then
// publishes a notification. Notification failures never affect the result.
func (s *messageService) Create(ctx context.Context, scope tenant.Input, in CreateInput) (*models.Message, error) {
	repo, err := s.store(ctx, scope)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:          s.newID(),
		RoomID:      in.RoomID,
		Timestamp:   s.now().Unix(),
		Sender:      in.Sender,
		Content:     in.Content,
		IsCorrected: false,
	}
	if err := repo.Put(ctx, message); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	s.publisher.Publish(ctx, notify.NewMessageCreated(repo.Table(), message))
	return message, nil
}

func (s *messageService) GetByID(ctx context.Context, scope tenant.Input, id string) (*models.Message, error) {
	repo, err := s.store(ctx, scope)
	if err != nil {
		return nil, err
	}

	message, err := repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load message %s: %w", id, err)
	}
	if message == nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	return message, nil
}

func (s *messageService) ListByRoom(ctx context.Context, scope tenant.Input, window RoomWindow) ([]models.Message, error) {
	repo, err := s.store(ctx, scope)
	if err != nil {
		return nil, err
	}
	if window.Empty() {
		return []models.Message{}, nil
	}

	messages, err := repo.RangeQuery(ctx, window.RoomID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("query room %s: %w", window.RoomID, err)
	}
	return messages, nil
}

// Update replaces the content of a message owned by in.Sender and marks it
// corrected. No other field changes.
func (s *messageService) Update(ctx context.Context, scope tenant.Input, in UpdateInput) (*models.Message, error) {
	repo, err := s.store(ctx, scope)
	if err != nil {
		return nil, err
	}

	existing, err := repo.Get(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("load message %s: %w", in.ID, err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, in.ID)
	}

	// Check ownership
	if existing.Sender != in.Sender {
		return nil, ErrUnauthorized
	}

	updated := *existing
	updated.Content = in.Content
	updated.IsCorrected = true
	if err := repo.Put(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save message %s: %w", in.ID, err)
	}
	return &updated, nil
}

// Delete removes a message. An unknown id is a not-found error, not a
// store failure.
func (s *messageService) Delete(ctx context.Context, scope tenant.Input, id string) error {
	repo, err := s.store(ctx, scope)
	if err != nil {
		return err
	}

	existing, err := repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load message %s: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}

	if err := repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	return nil
}

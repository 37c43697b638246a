package service

import (
	"context"
	"errors"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/metrics"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedSize is how many notifications the feed returns.
const FeedSize = 20

var (
	ErrNotificationNotFound = newError(KindNotFound, "notification not found")
	ErrNotificationAccess   = newError(KindForbidden, "notification belongs to another user")
)

// SettingsPatch updates only the flags that are set.
type SettingsPatch struct {
	Messages *bool
	Plans    *bool
	System   *bool
}

type NotificationService interface {
	List(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID primitive.ObjectID) (*domain.Notification, error)
	UpdateSettings(ctx context.Context, userID primitive.ObjectID, patch SettingsPatch) (domain.NotificationSettings, error)
}

type notificationService struct {
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(userRepo repository.UserRepository, notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{userRepo: userRepo, notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error) {
	return s.notificationRepo.ListRecent(ctx, userID, FeedSize)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID primitive.ObjectID) (*domain.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if n.Recipient != userID {
		return nil, ErrNotificationAccess
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

func (s *notificationService) UpdateSettings(ctx context.Context, userID primitive.ObjectID, patch SettingsPatch) (domain.NotificationSettings, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotificationSettings{}, ErrUserNotFound
		}
		return domain.NotificationSettings{}, err
	}
	if patch.Messages != nil {
		user.NotificationSettings.Messages = *patch.Messages
	}
	if patch.Plans != nil {
		user.NotificationSettings.Plans = *patch.Plans
	}
	if patch.System != nil {
		user.NotificationSettings.System = *patch.System
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return domain.NotificationSettings{}, err
	}
	return user.NotificationSettings, nil
}

// notifier writes feed items on behalf of other services. Delivery is
// best effort: the primary mutation has already been committed when it
// runs, so failures are logged and dropped.
type notifier struct {
	repo repository.NotificationRepository
}

func newNotifier(repo repository.NotificationRepository) *notifier {
	return &notifier{repo: repo}
}

// notify delivers content to recipient if their opt-in flags allow kind.
// It reports whether a notification was written.
func (n *notifier) notify(ctx context.Context, recipient *domain.User, kind domain.NotificationKind, content string, relatedID *primitive.ObjectID) bool {
	if recipient == nil || !recipient.NotificationSettings.Allows(kind) {
		return false
	}
	if err := n.deliver(ctx, recipient, kind, content, relatedID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("recipient", recipient.ID.Hex()).
			Str("kind", string(kind)).
			Msg("Failed to create notification")
		return false
	}
	return true
}

// deliver writes the notification unconditionally and returns the store error.
func (n *notifier) deliver(ctx context.Context, recipient *domain.User, kind domain.NotificationKind, content string, relatedID *primitive.ObjectID) error {
	item := &domain.Notification{
		Recipient: recipient.ID,
		Kind:      kind,
		Content:   content,
		RelatedID: relatedID,
	}
	if _, err := n.repo.Create(ctx, item); err != nil {
		return err
	}
	metrics.RecordNotification(string(kind))
	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TrainerFilter narrows the public trainer directory.
type TrainerFilter struct {
	Query string // case-insensitive substring of the profile name
	Page  int    // 1-based
	Limit int
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// Update persists every mutable field except the profile counters and
	// the trainer link, which only SetTrainer writes.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, limit int) ([]domain.User, error)
	FindFirstByRole(ctx context.Context, role domain.Role) (*domain.User, error)

	ListTrainers(ctx context.Context, filter TrainerFilter) ([]domain.User, int64, error)
	ListClientsOfTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	CountClientsOfTrainer(ctx context.Context, trainerID primitive.ObjectID) (int64, error)
	// SetTrainer assigns (or clears, when trainerID is nil) a client's trainer.
	SetTrainer(ctx context.Context, clientID primitive.ObjectID, trainerID *primitive.ObjectID) error
	CountWithSpecialty(ctx context.Context, specialtyID primitive.ObjectID) (int64, error)

	IncTotalPlans(ctx context.Context, trainerID primitive.ObjectID, delta int) error
	// RaiseTotalPlans lifts the counter to atLeast; it never lowers it.
	RaiseTotalPlans(ctx context.Context, trainerID primitive.ObjectID, atLeast int) error
	IncTotalWorkouts(ctx context.Context, clientID primitive.ObjectID, delta int) error
}

// TrainerRequestRepository stores trainer change requests.
type TrainerRequestRepository interface {
	Create(ctx context.Context, req *domain.TrainerChangeRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerChangeRequest, error)
	ExistsPending(ctx context.Context, clientID, newTrainerID primitive.ObjectID) (bool, error)
	ListPendingForTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerChangeRequest, error)
	ListPending(ctx context.Context) ([]domain.TrainerChangeRequest, error)
	// Decide moves a pending request to status. It returns ErrNotFound when
	// the request does not exist or was already decided.
	Decide(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus) error
}

// PlanRepository stores the active plan of each client.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.Plan, error)
	DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error)
	CountByTrainer(ctx context.Context, trainerID primitive.ObjectID) (int64, error)
	// ListByTrainer returns the trainer's plans newest first, narrowed to
	// one client when clientID is non-nil.
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, clientID *primitive.ObjectID) ([]domain.Plan, error)
}

// PlanTemplateRepository stores trainer-owned templates.
type PlanTemplateRepository interface {
	Create(ctx context.Context, tpl *domain.PlanTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanTemplate, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.PlanTemplate, error)
	Update(ctx context.Context, tpl *domain.PlanTemplate) error
	Delete(ctx context.Context, id, trainerID primitive.ObjectID) error // ensures the trainer owns the template
}

// EntryFilter selects entries of a single client.
type EntryFilter struct {
	ClientID      primitive.ObjectID
	From          *time.Time // inclusive
	To            *time.Time // inclusive
	CompletedOnly bool
	Ascending     bool
}

// EntryRepository stores workout log entries.
type EntryRepository interface {
	Create(ctx context.Context, entry *domain.Entry) (primitive.ObjectID, error)
	GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, date time.Time) (*domain.Entry, error)
	// Update writes entry only while the stored completed flag still equals
	// wasCompleted, and reports whether it did.
	Update(ctx context.Context, entry *domain.Entry, wasCompleted bool) (bool, error)
	Find(ctx context.Context, filter EntryFilter) ([]domain.Entry, error)
}

// UploadRepository defines the interface for interacting with upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	GetByURL(ctx context.Context, url string) (*domain.Upload, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// MessageRepository stores direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) (primitive.ObjectID, error)
	// Thread returns the pair's messages oldest first, minus those viewer hid.
	Thread(ctx context.Context, viewer, partner primitive.ObjectID) ([]domain.Message, error)
	// Conversations returns one row per partner, newest first.
	Conversations(ctx context.Context, viewer primitive.ObjectID) ([]domain.Conversation, error)
	MarkReadFrom(ctx context.Context, sender, recipient primitive.ObjectID) (int64, error)
	HideConversation(ctx context.Context, viewer, partner primitive.ObjectID) (int64, error)
	UnreadBySender(ctx context.Context, recipient primitive.ObjectID) ([]domain.UnreadCount, error)
}

// NotificationRepository stores notification feeds.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notification, error)
	ListRecent(ctx context.Context, recipient primitive.ObjectID, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	// MarkReadByKind flags unread notifications of kind as read; relatedID
	// narrows the match when non-nil.
	MarkReadByKind(ctx context.Context, recipient primitive.ObjectID, kind domain.NotificationKind, relatedID *primitive.ObjectID) (int64, error)
	ExistsSince(ctx context.Context, recipient primitive.ObjectID, kind domain.NotificationKind, since time.Time) (bool, error)
}

// SpecialtyRepository stores trainer specialties.
type SpecialtyRepository interface {
	Create(ctx context.Context, s *domain.Specialty) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Specialty, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*domain.Specialty, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Specialty, error)
	Update(ctx context.Context, s *domain.Specialty) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageLength bounds a single chat message.
const MaxMessageLength = 2000

// --- Error Definitions ---
var (
	ErrRecipientNotFound = newError(KindNotFound, "recipient not found")
	ErrEmptyMessage      = newError(KindValidation, "message text is required")
	ErrMessageTooLong    = newError(KindValidation, "message text is too long")
	ErrMessageSelf       = newError(KindValidation, "you cannot message yourself")
)

// ConversationView is one row of the conversation list.
type ConversationView struct {
	Partner     *domain.User // nil when the partner account was deleted
	PartnerID   primitive.ObjectID
	LastMessage domain.Message
}

// UnreadSender is the unread breakdown for one sender.
type UnreadSender struct {
	Count int
	Name  string
}

// UnreadSummary feeds the unread badge.
type UnreadSummary struct {
	Total  int
	ByUser map[primitive.ObjectID]UnreadSender
}

type MessageService interface {
	Send(ctx context.Context, fromID, toID primitive.ObjectID, text string) (*domain.Message, error)
	Conversations(ctx context.Context, userID primitive.ObjectID) ([]ConversationView, error)
	Thread(ctx context.Context, userID, partnerID primitive.ObjectID) ([]domain.Message, error)
	// MarkRead flags the partner's messages and the matching message
	// notifications as read together.
	MarkRead(ctx context.Context, userID, partnerID primitive.ObjectID) (int64, error)
	// DeleteConversation hides the pair's history from userID only.
	DeleteConversation(ctx context.Context, userID, partnerID primitive.ObjectID) (int64, error)
	UnreadSummary(ctx context.Context, userID primitive.ObjectID) (*UnreadSummary, error)
}

type messageService struct {
	userRepo         repository.UserRepository
	messageRepo      repository.MessageRepository
	notificationRepo repository.NotificationRepository
	notifier         *notifier
}

func NewMessageService(
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
	notificationRepo repository.NotificationRepository,
) MessageService {
	return &messageService{
		userRepo:         userRepo,
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		notifier:         newNotifier(notificationRepo),
	}
}

func (s *messageService) Send(ctx context.Context, fromID, toID primitive.ObjectID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	if fromID == toID {
		return nil, ErrMessageSelf
	}

	recipient, err := s.userRepo.GetByID(ctx, toID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	sender, err := s.userRepo.GetByID(ctx, fromID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	msg := &domain.Message{
		From:       fromID,
		To:         toID,
		Text:       text,
		DeletedFor: []primitive.ObjectID{},
	}
	if _, err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	// The related entity is the sender so that opening the thread clears it.
	s.notifier.notify(ctx, recipient, domain.NotificationMessage,
		"You received a message from "+sender.DisplayName(), &fromID)
	return msg, nil
}

func (s *messageService) Conversations(ctx context.Context, userID primitive.ObjectID) ([]ConversationView, error) {
	convs, err := s.messageRepo.Conversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		partner, err := s.userRepo.GetByID(ctx, c.Partner)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		out = append(out, ConversationView{Partner: partner, PartnerID: c.Partner, LastMessage: c.LastMessage})
	}
	return out, nil
}

func (s *messageService) Thread(ctx context.Context, userID, partnerID primitive.ObjectID) ([]domain.Message, error) {
	return s.messageRepo.Thread(ctx, userID, partnerID)
}

func (s *messageService) MarkRead(ctx context.Context, userID, partnerID primitive.ObjectID) (int64, error) {
	n, err := s.messageRepo.MarkReadFrom(ctx, partnerID, userID)
	if err != nil {
		return 0, err
	}
	if _, err := s.notificationRepo.MarkReadByKind(ctx, userID, domain.NotificationMessage, &partnerID); err != nil {
		return n, err
	}
	return n, nil
}

func (s *messageService) DeleteConversation(ctx context.Context, userID, partnerID primitive.ObjectID) (int64, error) {
	n, err := s.messageRepo.HideConversation(ctx, userID, partnerID)
	if err != nil {
		return 0, err
	}
	logging.Ctx(ctx).Debug().Str("partner_id", partnerID.Hex()).Int64("messages", n).Msg("Conversation hidden")
	return n, nil
}

func (s *messageService) UnreadSummary(ctx context.Context, userID primitive.ObjectID) (*UnreadSummary, error) {
	counts, err := s.messageRepo.UnreadBySender(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &UnreadSummary{ByUser: make(map[primitive.ObjectID]UnreadSender, len(counts))}
	for _, c := range counts {
		name := "Unknown user"
		if sender, err := s.userRepo.GetByID(ctx, c.Sender); err == nil {
			name = sender.DisplayName()
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		summary.Total += c.Count
		summary.ByUser[c.Sender] = UnreadSender{Count: c.Count, Name: name}
	}
	return summary, nil
}

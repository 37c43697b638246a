package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type messageRepository struct {
	s *Store
}

// Messages returns the message view of the store.
func (s *Store) Messages() repository.MessageRepository {
	return &messageRepository{s: s}
}

func (r *messageRepository) Create(_ context.Context, msg *domain.Message) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = r.s.clock.now()
	msg.UpdatedAt = msg.CreatedAt
	if msg.DeletedFor == nil {
		msg.DeletedFor = []primitive.ObjectID{}
	}
	r.s.messages[msg.ID] = copyMessage(*msg)
	return msg.ID, nil
}

func between(m domain.Message, a, b primitive.ObjectID) bool {
	return (m.From == a && m.To == b) || (m.From == b && m.To == a)
}

func (r *messageRepository) Thread(_ context.Context, viewer, partner primitive.ObjectID) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Message{}
	for _, m := range r.s.messages {
		if between(m, viewer, partner) && !m.HiddenFor(viewer) {
			out = append(out, copyMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *messageRepository) Conversations(_ context.Context, viewer primitive.ObjectID) ([]domain.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	latest := map[primitive.ObjectID]domain.Message{}
	for _, m := range r.s.messages {
		if (m.From != viewer && m.To != viewer) || m.HiddenFor(viewer) {
			continue
		}
		p := m.Partner(viewer)
		if cur, ok := latest[p]; !ok || m.CreatedAt.After(cur.CreatedAt) {
			latest[p] = m
		}
	}
	out := make([]domain.Conversation, 0, len(latest))
	for p, m := range latest {
		out = append(out, domain.Conversation{Partner: p, LastMessage: copyMessage(m)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out, nil
}

func (r *messageRepository) update(match func(domain.Message) bool, fn func(*domain.Message) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	now := r.s.clock.now()
	for id, m := range r.s.messages {
		if !match(m) {
			continue
		}
		m = copyMessage(m)
		if fn(&m) {
			m.UpdatedAt = now
			r.s.messages[id] = m
			n++
		}
	}
	return n
}

func (r *messageRepository) MarkReadFrom(_ context.Context, sender, recipient primitive.ObjectID) (int64, error) {
	return r.update(func(m domain.Message) bool {
		return m.From == sender && m.To == recipient && !m.Read
	}, func(m *domain.Message) bool {
		m.Read = true
		return true
	}), nil
}

func (r *messageRepository) HideConversation(_ context.Context, viewer, partner primitive.ObjectID) (int64, error) {
	return r.update(func(m domain.Message) bool {
		return between(m, viewer, partner)
	}, func(m *domain.Message) bool {
		if m.HiddenFor(viewer) {
			return false
		}
		m.DeletedFor = append(m.DeletedFor, viewer)
		return true
	}), nil
}

func (r *messageRepository) UnreadBySender(_ context.Context, recipient primitive.ObjectID) ([]domain.UnreadCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := map[primitive.ObjectID]int{}
	for _, m := range r.s.messages {
		if m.To == recipient && !m.Read && !m.HiddenFor(recipient) {
			counts[m.From]++
		}
	}
	out := make([]domain.UnreadCount, 0, len(counts))
	for sender, n := range counts {
		out = append(out, domain.UnreadCount{Sender: sender, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].Sender.Hex(), out[j].Sender.Hex()) < 0 })
	return out, nil
}

type notificationRepository struct {
	s *Store
}

// Notifications returns the notification view of the store.
func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{s: s}
}

func (r *notificationRepository) Create(_ context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = r.s.clock.now()
	n.UpdatedAt = n.CreatedAt
	r.s.notifications[n.ID] = *n
	return n.ID, nil
}

func (r *notificationRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (r *notificationRepository) ListRecent(_ context.Context, recipient primitive.ObjectID, limit int) ([]domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Notification{}
	for _, n := range r.s.notifications {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.IsRead = true
	n.UpdatedAt = r.s.clock.now()
	r.s.notifications[id] = n
	return nil
}

func (r *notificationRepository) MarkReadByKind(_ context.Context, recipient primitive.ObjectID, kind domain.NotificationKind, relatedID *primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	now := r.s.clock.now()
	for id, n := range r.s.notifications {
		if n.Recipient != recipient || n.Kind != kind || n.IsRead {
			continue
		}
		if relatedID != nil && (n.RelatedID == nil || *n.RelatedID != *relatedID) {
			continue
		}
		n.IsRead = true
		n.UpdatedAt = now
		r.s.notifications[id] = n
		count++
	}
	return count, nil
}

func (r *notificationRepository) ExistsSince(_ context.Context, recipient primitive.ObjectID, kind domain.NotificationKind, since time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, n := range r.s.notifications {
		if n.Recipient == recipient && n.Kind == kind && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

package service

import (
	"strings"
	"testing"

	"github.com/PauloVieira29/Fitness/internal/domain"
)

func (f *fixture) messages() MessageService {
	return NewMessageService(f.store.Users(), f.store.Messages(), f.store.Notifications())
}

func TestSend_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.messages()
	alice := f.addUser(t, "alice", domain.RoleClient)
	bob := f.addUser(t, "bob", domain.RoleTrainer)

	tests := []struct {
		name string
		to   *domain.User
		text string
		want error
	}{
		{"blank", bob, "   ", ErrEmptyMessage},
		{"too long", bob, strings.Repeat("a", MaxMessageLength+1), ErrMessageTooLong},
		{"self", alice, "hi me", ErrMessageSelf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(f.ctx, alice.ID, tt.to.ID, tt.text)
			wantErr(t, err, tt.want)
		})
	}
}

func TestSend_NotificationFollowsSettings(t *testing.T) {
	f := newFixture(t)
	svc := f.messages()
	alice := f.addUser(t, "alice", domain.RoleClient, func(u *domain.User) { u.Profile.Name = "Alice" })
	bob := f.addUser(t, "bob", domain.RoleTrainer)
	muted := f.addUser(t, "muted", domain.RoleTrainer, func(u *domain.User) {
		u.NotificationSettings.Messages = false
	})

	if _, err := svc.Send(f.ctx, alice.ID, bob.ID, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	list := f.notifications(t, bob.ID)
	if len(list) != 1 {
		t.Fatalf("notifications = %d, want 1", len(list))
	}
	if list[0].Content != "You received a message from Alice" || *list[0].RelatedID != alice.ID {
		t.Errorf("unexpected notification %+v", list[0])
	}

	if _, err := svc.Send(f.ctx, alice.ID, muted.ID, "hello"); err != nil {
		t.Fatalf("send to muted: %v", err)
	}
	if n := len(f.notifications(t, muted.ID)); n != 0 {
		t.Errorf("muted user got %d notifications", n)
	}
	thread, err := svc.Thread(f.ctx, muted.ID, alice.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread) != 1 {
		t.Errorf("message was not stored for muted user")
	}
}

func TestMarkRead_ClearsMessagesAndNotifications(t *testing.T) {
	f := newFixture(t)
	svc := f.messages()
	alice := f.addUser(t, "alice", domain.RoleClient)
	bob := f.addUser(t, "bob", domain.RoleTrainer)
	carol := f.addUser(t, "carol", domain.RoleClient)

	for _, text := range []string{"one", "two"} {
		if _, err := svc.Send(f.ctx, alice.ID, bob.ID, text); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	if _, err := svc.Send(f.ctx, carol.ID, bob.ID, "three"); err != nil {
		t.Fatalf("send: %v", err)
	}

	summary, err := svc.UnreadSummary(f.ctx, bob.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total != 3 || summary.ByUser[alice.ID].Count != 2 || summary.ByUser[carol.ID].Name != "carol" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	n, err := svc.MarkRead(f.ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n != 2 {
		t.Errorf("marked %d, want 2", n)
	}

	summary, err = svc.UnreadSummary(f.ctx, bob.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total != 1 {
		t.Errorf("unread total = %d, want 1", summary.Total)
	}

	unread := 0
	for _, item := range f.notifications(t, bob.ID) {
		if !item.IsRead {
			unread++
			if *item.RelatedID != carol.ID {
				t.Errorf("notification about %s left unread", item.RelatedID.Hex())
			}
		}
	}
	if unread != 1 {
		t.Errorf("unread notifications = %d, want 1", unread)
	}
}

func TestDeleteConversation_IsOneSided(t *testing.T) {
	f := newFixture(t)
	svc := f.messages()
	alice := f.addUser(t, "alice", domain.RoleClient)
	bob := f.addUser(t, "bob", domain.RoleTrainer)

	if _, err := svc.Send(f.ctx, alice.ID, bob.ID, "hi bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(f.ctx, bob.ID, alice.ID, "hi alice"); err != nil {
		t.Fatalf("send: %v", err)
	}

	hidden, err := svc.DeleteConversation(f.ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if hidden != 2 {
		t.Errorf("hidden = %d, want 2", hidden)
	}

	mine, err := svc.Thread(f.ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("alice still sees %d messages", len(mine))
	}
	theirs, err := svc.Thread(f.ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(theirs) != 2 || theirs[0].Text != "hi bob" {
		t.Errorf("bob's thread = %+v, want both messages oldest first", theirs)
	}

	convs, err := svc.Conversations(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("alice conversations = %d, want 0", len(convs))
	}

	// A new message brings the conversation back with only the new history.
	if _, err := svc.Send(f.ctx, bob.ID, alice.ID, "still there?"); err != nil {
		t.Fatalf("send: %v", err)
	}
	convs, err = svc.Conversations(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(convs) != 1 || convs[0].LastMessage.Text != "still there?" || convs[0].Partner == nil {
		t.Errorf("unexpected conversations %+v", convs)
	}
}

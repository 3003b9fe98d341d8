package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/talkline/talkline-server/internal/core"
	"github.com/talkline/talkline-server/internal/service/chats"
	"github.com/talkline/talkline-server/internal/service/reads"
	"github.com/talkline/talkline-server/internal/store"
	"github.com/talkline/talkline-server/internal/store/sqlite"
)

type fixture struct {
	store    *sqlite.SQLiteStore
	presence *core.Registry
	engine   *Engine
	alice    *store.User
	bob      *store.User
	chat     *store.Chat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	presence := core.NewRegistry()
	calc := reads.NewCalculator(st, presence, &logger)
	engine := NewEngine(st, presence, calc, &logger)

	ctx := context.Background()
	alice, err := st.CreateUser(ctx, "alice", "+1000", "hash")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := st.CreateUser(ctx, "bob", "+2000", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	chat, err := st.CreateIndividualChat(ctx, chats.PairKey(alice.ID, bob.ID), alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	return &fixture{store: st, presence: presence, engine: engine, alice: alice, bob: bob, chat: chat}
}

func (f *fixture) connect(t *testing.T, user *store.User, sessionID string) *core.Session {
	t.Helper()
	s := core.NewSession(sessionID, user.ID)
	if err := f.engine.SignIn(context.Background(), s); err != nil {
		t.Fatalf("sign in %s: %v", user.Name, err)
	}
	return s
}

func mustEvent(t *testing.T, s *core.Session, kind core.EventKind) core.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.Events:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func drainEvents(s *core.Session) []core.Event {
	var events []core.Event
	for {
		select {
		case ev := <-s.Events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func hasKind(events []core.Event, kind core.EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestSendMessageRecipientNotViewing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, f.alice, "a1")
	bobSession := f.connect(t, f.bob, "b1")

	msg, err := f.engine.SendMessage(ctx, f.chat.ID, f.alice.ID, "hello", "", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("message not persisted")
	}

	events := drainEvents(bobSession)
	if !hasKind(events, core.EventMessage) {
		t.Error("recipient missing message event")
	}
	if !hasKind(events, core.EventNotification) {
		t.Error("recipient missing notification")
	}

	for _, ev := range events {
		if ev.Kind == core.EventChatListUpdate {
			if ev.Summary.UnreadCount != 1 {
				t.Errorf("unread count = %d, want 1", ev.Summary.UnreadCount)
			}
			if ev.Summary.DisplayName != "alice" {
				t.Errorf("display name = %q, want alice", ev.Summary.DisplayName)
			}
		}
	}

	read, err := f.store.HasReceipt(ctx, msg.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("has receipt: %v", err)
	}
	if read {
		t.Error("receipt created for recipient who is not viewing")
	}
}

func TestSendMessageRecipientViewing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, f.alice, "a1")
	bobSession := f.connect(t, f.bob, "b1")
	if err := f.engine.EnterChat(ctx, bobSession, f.chat.ID); err != nil {
		t.Fatalf("enter chat: %v", err)
	}
	drainEvents(bobSession)

	msg, err := f.engine.SendMessage(ctx, f.chat.ID, f.alice.ID, "hello", "", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	events := drainEvents(bobSession)
	if !hasKind(events, core.EventMessage) {
		t.Error("viewing recipient missing message event")
	}
	if hasKind(events, core.EventNotification) {
		t.Error("viewing recipient got a notification")
	}

	for _, ev := range events {
		if ev.Kind == core.EventChatListUpdate && ev.Summary.UnreadCount != 0 {
			t.Errorf("unread count = %d, want 0", ev.Summary.UnreadCount)
		}
	}

	read, err := f.store.HasReceipt(ctx, msg.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("has receipt: %v", err)
	}
	if !read {
		t.Error("viewing recipient has no implicit receipt")
	}
}

func TestSendMessageConfirmsSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	aliceSession := f.connect(t, f.alice, "a1")
	bobSession := f.connect(t, f.bob, "b1")
	if err := f.engine.EnterChat(ctx, bobSession, f.chat.ID); err != nil {
		t.Fatalf("enter chat: %v", err)
	}
	drainEvents(aliceSession)

	if _, err := f.engine.SendMessage(ctx, f.chat.ID, f.alice.ID, "hello", "", nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := mustEvent(t, aliceSession, core.EventMessageSent)
	if sent.Message.Body != "hello" {
		t.Errorf("confirmation body = %q", sent.Message.Body)
	}

	events := drainEvents(aliceSession)
	found := false
	for _, ev := range append(events, sent) {
		if ev.Kind == core.EventChatListUpdate {
			found = true
			if ev.Summary.UnreadCount != 0 {
				t.Errorf("sender unread = %d, want 0", ev.Summary.UnreadCount)
			}
			// bob was viewing, so his implicit receipt already exists
			if !ev.Summary.ReadByOthers {
				t.Error("read-by-others flag not set on sender summary")
			}
			if ev.Summary.DisplayName != "bob" {
				t.Errorf("sender display name = %q, want bob", ev.Summary.DisplayName)
			}
		}
	}
	if !found {
		t.Error("sender missing chat list update")
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.SendMessage(ctx, f.chat.ID, f.alice.ID, "", "", nil); !errors.Is(err, core.ErrEmptyMessage) {
		t.Errorf("empty message: got %v", err)
	}

	carol, err := f.store.CreateUser(ctx, "carol", "+3000", "hash")
	if err != nil {
		t.Fatalf("create carol: %v", err)
	}
	if _, err := f.engine.SendMessage(ctx, f.chat.ID, carol.ID, "hi", "", nil); !errors.Is(err, core.ErrNotAParticipant) {
		t.Errorf("outsider send: got %v", err)
	}

	if _, err := f.engine.SendMessage(ctx, 9999, f.alice.ID, "hi", "", nil); !errors.Is(err, core.ErrChatNotFound) {
		t.Errorf("unknown chat: got %v", err)
	}
}

func TestSendMessageAttachmentOnly(t *testing.T) {
	f := newFixture(t)

	msg, err := f.engine.SendMessage(context.Background(), f.chat.ID, f.alice.ID, "", "uploads/pic.png", nil)
	if err != nil {
		t.Fatalf("send attachment: %v", err)
	}
	if msg.Kind != store.MessageKindImage {
		t.Errorf("kind = %s, want image", msg.Kind)
	}
}

func TestEnterChatMarksBacklogRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	aliceSession := f.connect(t, f.alice, "a1")
	bobSession := f.connect(t, f.bob, "b1")

	for i := 0; i < 3; i++ {
		if _, err := f.engine.SendMessage(ctx, f.chat.ID, f.alice.ID, "backlog", "", nil); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	drainEvents(bobSession)
	drainEvents(aliceSession)

	if err := f.engine.EnterChat(ctx, bobSession, f.chat.ID); err != nil {
		t.Fatalf("enter chat: %v", err)
	}

	count, err := f.store.UnreadCount(ctx, f.chat.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 0 {
		t.Errorf("unread after enter = %d, want 0", count)
	}

	unread := mustEvent(t, bobSession, core.EventUnreadCount)
	if unread.Unread.Count != 0 {
		t.Errorf("pushed unread = %d, want 0", unread.Unread.Count)
	}

	entered := mustEvent(t, aliceSession, core.EventUserEnteredChat)
	if entered.UserID != f.bob.ID || entered.ChatID != f.chat.ID {
		t.Errorf("presence event = %+v", entered)
	}
}

func TestEnterChatOutsider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carol, err := f.store.CreateUser(ctx, "carol", "+3000", "hash")
	if err != nil {
		t.Fatalf("create carol: %v", err)
	}
	carolSession := f.connect(t, carol, "c1")

	if err := f.engine.EnterChat(ctx, carolSession, f.chat.ID); !errors.Is(err, core.ErrNotAParticipant) {
		t.Errorf("outsider enter: got %v", err)
	}
	if f.presence.IsViewing(carol.ID, f.chat.ID) {
		t.Error("outsider recorded as viewing")
	}
}

func TestLeaveChatNotifiesOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	aliceSession := f.connect(t, f.alice, "a1")
	bobSession := f.connect(t, f.bob, "b1")
	if err := f.engine.EnterChat(ctx, bobSession, f.chat.ID); err != nil {
		t.Fatalf("enter chat: %v", err)
	}
	drainEvents(aliceSession)

	f.engine.LeaveChat(ctx, bobSession, f.chat.ID)

	if f.presence.IsViewing(f.bob.ID, f.chat.ID) {
		t.Error("still viewing after leave")
	}
	left := mustEvent(t, aliceSession, core.EventUserLeftChat)
	if left.UserID != f.bob.ID {
		t.Errorf("left event user = %d, want %d", left.UserID, f.bob.ID)
	}
}

func TestSignInDisconnectStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.connect(t, f.alice, "a1")
	second := f.connect(t, f.alice, "a2")

	user, err := f.store.GetUserByID(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Status != store.UserStatusOnline {
		t.Errorf("status after sign in = %s, want online", user.Status)
	}

	f.engine.Disconnect(ctx, first)
	user, _ = f.store.GetUserByID(ctx, f.alice.ID)
	if user.Status != store.UserStatusOnline {
		t.Error("status flipped offline while a session remains")
	}

	f.engine.Disconnect(ctx, second)
	user, _ = f.store.GetUserByID(ctx, f.alice.ID)
	if user.Status != store.UserStatusOffline {
		t.Errorf("status after last disconnect = %s, want offline", user.Status)
	}
}

func TestKindFromPath(t *testing.T) {
	cases := []struct {
		path string
		want store.MessageKind
	}{
		{"", store.MessageKindText},
		{"photo.JPG", store.MessageKindImage},
		{"clip.webm", store.MessageKindVideo},
		{"voice.ogg", store.MessageKindAudio},
		{"report.pdf", store.MessageKindFile},
	}
	for _, tc := range cases {
		if got := KindFromPath(tc.path); got != tc.want {
			t.Errorf("KindFromPath(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}

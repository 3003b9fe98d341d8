package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkline/talkline-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createUser(t *testing.T, st *SQLiteStore, name, phone string) *store.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), name, phone, "hash")
	require.NoError(t, err)
	return user
}

func TestCreateUserDuplicatePhone(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateUser(ctx, "alice", "+1000", "hash")
	require.NoError(t, err)

	_, err = st.CreateUser(ctx, "alice again", "+1000", "hash")
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestGetUserByPhone(t *testing.T) {
	st := newTestStore(t)
	created := createUser(t, st, "bob", "+2000")

	user, err := st.GetUserByPhone(context.Background(), "+2000")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "bob", user.Name)
	assert.Equal(t, store.UserStatusOffline, user.Status)

	_, err = st.GetUserByPhone(context.Background(), "+9999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateIndividualChatDuplicatePairKey(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice", "+1000")
	bob := createUser(t, st, "bob", "+2000")

	chat, err := st.CreateIndividualChat(ctx, "dm:1:2", alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, chat.PairKey)
	assert.Equal(t, "dm:1:2", *chat.PairKey)

	_, err = st.CreateIndividualChat(ctx, "dm:1:2", alice.ID, bob.ID)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	found, err := st.GetChatByPairKey(ctx, "dm:1:2")
	require.NoError(t, err)
	assert.Equal(t, chat.ID, found.ID)

	members, err := st.ListParticipants(ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestCreateGroupChat(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice", "+1000")
	bob := createUser(t, st, "bob", "+2000")
	carol := createUser(t, st, "carol", "+3000")

	chat, err := st.CreateGroupChat(ctx, "team", alice.ID, []int64{bob.ID, carol.ID})
	require.NoError(t, err)
	assert.Equal(t, store.ChatKindGroup, chat.Kind)
	assert.Nil(t, chat.PairKey)

	members, err := st.ListParticipants(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	admins := 0
	for _, m := range members {
		if m.IsAdmin {
			admins++
			assert.Equal(t, alice.ID, m.UserID)
		}
	}
	assert.Equal(t, 1, admins)
}

func insertMessage(t *testing.T, st *SQLiteStore, chatID, senderID int64, body string, at time.Time) *store.Message {
	t.Helper()
	msg := &store.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Body:     body,
		Kind:     store.MessageKindText,
		SentAt:   at,
	}
	require.NoError(t, st.InsertMessage(context.Background(), msg))
	require.NoError(t, st.TouchChat(context.Background(), chatID, at))
	return msg
}

func TestListMessagesOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice", "+1000")
	bob := createUser(t, st, "bob", "+2000")
	chat, err := st.CreateIndividualChat(ctx, "dm:1:2", alice.ID, bob.ID)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Second)
	insertMessage(t, st, chat.ID, alice.ID, "first", base)
	insertMessage(t, st, chat.ID, bob.ID, "second", base.Add(time.Second))
	// same timestamp as the second message, insertion order breaks the tie
	insertMessage(t, st, chat.ID, alice.ID, "third", base.Add(time.Second))

	msgs, err := st.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "second", msgs[1].Body)
	assert.Equal(t, "third", msgs[2].Body)
	assert.Equal(t, "alice", msgs[0].SenderName)
}

func TestReceiptsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice", "+1000")
	bob := createUser(t, st, "bob", "+2000")
	chat, err := st.CreateIndividualChat(ctx, "dm:1:2", alice.ID, bob.ID)
	require.NoError(t, err)

	msg := insertMessage(t, st, chat.ID, alice.ID, "hello", time.Now().UTC())

	count, err := st.UnreadCount(ctx, chat.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// own messages never count as unread
	count, err = st.UnreadCount(ctx, chat.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	created, err := st.CreateReceipt(ctx, msg.ID, bob.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = st.CreateReceipt(ctx, msg.ID, bob.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, created)

	count, err = st.UnreadCount(ctx, chat.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	read, err := st.MessageReadByOthers(ctx, msg.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, read)
}

func TestChatSummaries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice", "+1000")
	bob := createUser(t, st, "bob", "+2000")
	carol := createUser(t, st, "carol", "+3000")

	dm, err := st.CreateIndividualChat(ctx, "dm:1:2", alice.ID, bob.ID)
	require.NoError(t, err)
	group, err := st.CreateGroupChat(ctx, "team", alice.ID, []int64{bob.ID, carol.ID})
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Second)
	insertMessage(t, st, group.ID, carol.ID, "group hello", base)
	insertMessage(t, st, dm.ID, bob.ID, "dm hello", base.Add(time.Minute))

	summaries, err := st.ChatSummaries(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// most recent activity first
	assert.Equal(t, dm.ID, summaries[0].ChatID)
	assert.Equal(t, group.ID, summaries[1].ChatID)

	// individual chats are titled after the other participant
	assert.Equal(t, "bob", summaries[0].DisplayName)
	assert.Equal(t, "team", summaries[1].DisplayName)

	assert.Equal(t, "dm hello", summaries[0].LastMessage)
	assert.Equal(t, "bob", summaries[0].LastSender)
	assert.Equal(t, 1, summaries[0].UnreadCount)
	assert.Equal(t, 1, summaries[1].UnreadCount)

	// bob sees alice's name on the same chat and no unread for his own message
	summaries, err = st.ChatSummaries(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "alice", summaries[0].DisplayName)
	assert.Equal(t, 0, summaries[0].UnreadCount)
}

func TestChatSummariesWithoutMessages(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice", "+1000")
	bob := createUser(t, st, "bob", "+2000")

	chat, err := st.CreateIndividualChat(ctx, "dm:1:2", alice.ID, bob.ID)
	require.NoError(t, err)

	summaries, err := st.ChatSummaries(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, chat.ID, summaries[0].ChatID)
	assert.Empty(t, summaries[0].LastMessage)
	assert.Nil(t, summaries[0].LastMessageAt)
	assert.Equal(t, 0, summaries[0].UnreadCount)
}

func TestDeleteChatCascade(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice", "+1000")
	bob := createUser(t, st, "bob", "+2000")
	chat, err := st.CreateIndividualChat(ctx, "dm:1:2", alice.ID, bob.ID)
	require.NoError(t, err)

	msg := insertMessage(t, st, chat.ID, alice.ID, "bye", time.Now().UTC())
	_, err = st.CreateReceipt(ctx, msg.ID, bob.ID, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, st.DeleteChat(ctx, chat.ID))

	_, err = st.GetChatByID(ctx, chat.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	msgs, err := st.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	ids, err := st.ListChatIDsForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSetUserStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice", "+1000")

	seen := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.SetUserStatus(ctx, alice.ID, store.UserStatusOnline, seen))

	user, err := st.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, store.UserStatusOnline, user.Status)
}

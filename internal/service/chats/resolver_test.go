package chats

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkline/talkline-server/internal/core"
	"github.com/talkline/talkline-server/internal/store"
	"github.com/talkline/talkline-server/internal/store/sqlite"
)

func newResolver(t *testing.T) (*Resolver, *sqlite.SQLiteStore) {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	logger := zerolog.Nop()
	return NewResolver(st, &logger), st
}

func seedUser(t *testing.T, st *sqlite.SQLiteStore, name, phone string) *store.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), name, phone, "hash")
	require.NoError(t, err)
	return user
}

func TestPairKeyOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey(1, 2), PairKey(2, 1))
	assert.Equal(t, "dm:1:2", PairKey(2, 1))
}

func TestResolveIndividualIdempotent(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice", "+1000")
	bob := seedUser(t, st, "bob", "+2000")

	first, err := resolver.ResolveIndividual(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, store.ChatKindIndividual, first.Kind)

	// same pair in either order resolves to the same chat
	second, err := resolver.ResolveIndividual(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveIndividualSelfChat(t *testing.T) {
	resolver, st := newResolver(t)
	alice := seedUser(t, st, "alice", "+1000")

	_, err := resolver.ResolveIndividual(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, core.ErrSelfChatNotAllowed)
}

func TestResolveIndividualUnknownUser(t *testing.T) {
	resolver, st := newResolver(t)
	alice := seedUser(t, st, "alice", "+1000")

	_, err := resolver.ResolveIndividual(context.Background(), alice.ID, 9999)
	assert.ErrorIs(t, err, core.ErrInvalidParticipant)
}

func TestResolveIndividualConcurrent(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice", "+1000")
	bob := seedUser(t, st, "bob", "+2000")

	const callers = 8
	ids := make([]int64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			chat, err := resolver.ResolveIndividual(ctx, a, b)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = chat.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestCreateGroup(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice", "+1000")
	bob := seedUser(t, st, "bob", "+2000")
	carol := seedUser(t, st, "carol", "+3000")

	// duplicates and the creator are collapsed out of the member list
	chat, err := resolver.CreateGroup(ctx, alice.ID, "team", []int64{bob.ID, bob.ID, carol.ID, alice.ID})
	require.NoError(t, err)
	assert.Equal(t, store.ChatKindGroup, chat.Kind)
	assert.Equal(t, "team", chat.Name)

	members, err := st.ListParticipants(ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func TestCreateGroupEmpty(t *testing.T) {
	resolver, st := newResolver(t)
	alice := seedUser(t, st, "alice", "+1000")

	_, err := resolver.CreateGroup(context.Background(), alice.ID, "just me", []int64{alice.ID})
	assert.ErrorIs(t, err, core.ErrEmptyGroup)

	_, err = resolver.CreateGroup(context.Background(), alice.ID, "empty", nil)
	assert.ErrorIs(t, err, core.ErrEmptyGroup)
}

func TestCreateGroupUnknownMember(t *testing.T) {
	resolver, st := newResolver(t)
	alice := seedUser(t, st, "alice", "+1000")

	_, err := resolver.CreateGroup(context.Background(), alice.ID, "ghosts", []int64{9999})
	assert.ErrorIs(t, err, core.ErrInvalidParticipant)
}

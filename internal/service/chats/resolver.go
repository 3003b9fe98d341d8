package chats

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/talkline/talkline-server/internal/core"
	"github.com/talkline/talkline-server/internal/store"
)

// maxResolveAttempts bounds the lookup/create retry loop. The pair-key
// uniqueness constraint makes losing the creation race a lookup retry, not a
// duplicate chat.
const maxResolveAttempts = 3

// Resolver maps user pairs to individual chats and creates group chats.
type Resolver struct {
	store store.Store
	log   *zerolog.Logger
}

// NewResolver creates a chat resolver.
func NewResolver(st store.Store, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		store: st,
		log:   logger,
	}
}

// PairKey derives the canonical key for an unordered user pair.
func PairKey(userA, userB int64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("dm:%d:%d", userA, userB)
}

// ResolveIndividual returns the single individual chat between two users,
// creating it if absent. All concurrent callers for the same pair converge on
// one chat: creation is guarded by the store's pair-key uniqueness constraint
// and the loser retries as a lookup.
func (r *Resolver) ResolveIndividual(ctx context.Context, userA, userB int64) (*store.Chat, error) {
	if userA == userB {
		return nil, core.ErrSelfChatNotAllowed
	}

	for _, id := range []int64{userA, userB} {
		if _, err := r.store.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("user %d: %w", id, core.ErrInvalidParticipant)
			}
			return nil, fmt.Errorf("lookup user %d: %w", id, core.ErrStoreUnavailable)
		}
	}

	key := PairKey(userA, userB)
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		chat, err := r.store.GetChatByPairKey(ctx, key)
		if err == nil {
			return chat, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("lookup chat %s: %w", key, core.ErrStoreUnavailable)
		}

		chat, err = r.store.CreateIndividualChat(ctx, key, userA, userB)
		if err == nil {
			r.log.Info().
				Int64("chat_id", chat.ID).
				Int64("user_a", userA).
				Int64("user_b", userB).
				Msg("individual chat created")
			return chat, nil
		}
		if errors.Is(err, store.ErrDuplicate) {
			// Lost the creation race; the next iteration finds the winner.
			r.log.Debug().Str("pair_key", key).Int("attempt", attempt+1).Msg("chat creation raced, retrying lookup")
			continue
		}
		return nil, fmt.Errorf("create chat %s: %w", key, core.ErrStoreUnavailable)
	}

	return nil, fmt.Errorf("resolve %s after %d attempts: %w", key, maxResolveAttempts, core.ErrResolutionConflict)
}

// CreateGroup creates a group chat with the creator as admin and the listed
// members as non-admin participants. The creator is dropped from the member
// list; duplicates are collapsed.
func (r *Resolver) CreateGroup(ctx context.Context, creatorID int64, name string, memberIDs []int64) (*store.Chat, error) {
	members := dedupMembers(creatorID, memberIDs)
	if len(members) == 0 {
		return nil, core.ErrEmptyGroup
	}

	if _, err := r.store.GetUserByID(ctx, creatorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("creator %d: %w", creatorID, core.ErrInvalidParticipant)
		}
		return nil, fmt.Errorf("lookup creator: %w", core.ErrStoreUnavailable)
	}
	for _, id := range members {
		if _, err := r.store.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("member %d: %w", id, core.ErrInvalidParticipant)
			}
			return nil, fmt.Errorf("lookup member %d: %w", id, core.ErrStoreUnavailable)
		}
	}

	chat, err := r.store.CreateGroupChat(ctx, name, creatorID, members)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", core.ErrStoreUnavailable)
	}

	r.log.Info().
		Int64("chat_id", chat.ID).
		Int64("creator_id", creatorID).
		Int("members", len(members)).
		Str("name", name).
		Msg("group chat created")
	return chat, nil
}

func dedupMembers(creatorID int64, memberIDs []int64) []int64 {
	seen := map[int64]struct{}{creatorID: {}}
	members := make([]int64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	return members
}

package core

import "sync"

// Session is one live connection of a signed-in user. A user may hold several
// sessions at once (devices, tabs); viewing state is per session.
type Session struct {
	ID     string
	UserID int64
	Events chan Event
}

// NewSession constructs a session with an initialized event channel.
func NewSession(id string, userID int64) *Session {
	return &Session{
		ID:     id,
		UserID: userID,
		Events: make(chan Event, 32),
	}
}

// Registry owns all session and viewing state. Every operation is atomic with
// respect to concurrent sign-in/sign-out/enter/leave on the same user.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[int64]map[string]*Session
	viewing  map[string]int64 // session ID -> chat currently open
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[int64]map[string]*Session),
		viewing:  make(map[string]int64),
	}
}

// SignIn registers a session. Returns true if this is the user's first live
// session, in which case the caller flips the durable status to online.
func (r *Registry) SignIn(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s
	set := r.byUser[s.UserID]
	first := len(set) == 0
	if set == nil {
		set = make(map[string]*Session)
		r.byUser[s.UserID] = set
	}
	set[s.ID] = s
	return first
}

// SignOut removes a session and its viewing state. Returns true if this was
// the user's last live session, in which case the caller flips the durable
// status to offline and records last-seen.
func (r *Registry) SignOut(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return false
	}
	delete(r.sessions, s.ID)
	delete(r.viewing, s.ID)

	set := r.byUser[s.UserID]
	delete(set, s.ID)
	if len(set) == 0 {
		delete(r.byUser, s.UserID)
		return true
	}
	return false
}

// Enter marks the chat as currently viewed by the session.
func (r *Registry) Enter(sessionID string, chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	r.viewing[sessionID] = chatID
}

// Leave clears the session's viewing state.
func (r *Registry) Leave(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.viewing, sessionID)
}

// Viewing returns the chat the session currently has open, if any.
func (r *Registry) Viewing(sessionID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chatID, ok := r.viewing[sessionID]
	return chatID, ok
}

// IsViewing reports whether any of the user's sessions has the chat open.
// A true result suppresses notifications and marks fresh messages read.
func (r *Registry) IsViewing(userID, chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for sessionID := range r.byUser[userID] {
		if r.viewing[sessionID] == chatID {
			return true
		}
	}
	return false
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser[userID]) > 0
}

// SessionsFor returns a snapshot of the user's live sessions.
func (r *Registry) SessionsFor(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	sessions := make([]*Session, 0, len(set))
	for _, s := range set {
		sessions = append(sessions, s)
	}
	return sessions
}

// Push delivers an event to every live session of the user. Best effort:
// slow consumers drop the event, the recipient catches up from durable state.
// Returns the number of sessions that accepted the event.
func (r *Registry) Push(userID int64, ev Event) int {
	delivered := 0
	for _, s := range r.SessionsFor(userID) {
		select {
		case s.Events <- ev:
			delivered++
		default:
			// Drop if slow consumer.
		}
	}
	return delivered
}

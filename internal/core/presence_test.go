package core

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistrySignInOutFirstLast(t *testing.T) {
	r := NewRegistry()

	phone := NewSession("phone", 1)
	laptop := NewSession("laptop", 1)

	if first := r.SignIn(phone); !first {
		t.Fatal("first session should report first=true")
	}
	if first := r.SignIn(laptop); first {
		t.Fatal("second session should report first=false")
	}
	if !r.IsOnline(1) {
		t.Fatal("user with sessions should be online")
	}

	if last := r.SignOut(phone); last {
		t.Fatal("sign-out with another session alive should report last=false")
	}
	if last := r.SignOut(laptop); !last {
		t.Fatal("final sign-out should report last=true")
	}
	if r.IsOnline(1) {
		t.Fatal("user without sessions should be offline")
	}
}

func TestRegistryViewingPerSession(t *testing.T) {
	r := NewRegistry()

	phone := NewSession("phone", 1)
	laptop := NewSession("laptop", 1)
	r.SignIn(phone)
	r.SignIn(laptop)

	r.Enter(phone.ID, 10)

	if !r.IsViewing(1, 10) {
		t.Fatal("user should be viewing chat 10 via phone session")
	}
	if r.IsViewing(1, 11) {
		t.Fatal("user should not be viewing chat 11")
	}

	// Viewing survives as long as any session has the chat open.
	r.Enter(laptop.ID, 10)
	r.Leave(phone.ID)
	if !r.IsViewing(1, 10) {
		t.Fatal("laptop session still has chat 10 open")
	}

	r.Leave(laptop.ID)
	if r.IsViewing(1, 10) {
		t.Fatal("no session has chat 10 open anymore")
	}
}

func TestRegistrySignOutClearsViewing(t *testing.T) {
	r := NewRegistry()

	s := NewSession("s", 2)
	r.SignIn(s)
	r.Enter(s.ID, 5)
	r.SignOut(s)

	if r.IsViewing(2, 5) {
		t.Fatal("viewing state should not survive sign-out")
	}
	if _, ok := r.Viewing(s.ID); ok {
		t.Fatal("session viewing entry should be gone")
	}
}

func TestRegistryPushBestEffort(t *testing.T) {
	r := NewRegistry()

	s := NewSession("s", 3)
	r.SignIn(s)

	// Fill the buffer; further pushes must not block.
	for i := 0; i < cap(s.Events)+5; i++ {
		r.Push(3, Event{Kind: EventNotification})
	}

	if got := len(s.Events); got != cap(s.Events) {
		t.Fatalf("expected full buffer of %d events, got %d", cap(s.Events), got)
	}
	if delivered := r.Push(4, Event{Kind: EventNotification}); delivered != 0 {
		t.Fatalf("push to unknown user should deliver to 0 sessions, got %d", delivered)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := int64(i % 4)
			s := NewSession(fmt.Sprintf("s-%d", i), userID)
			r.SignIn(s)
			r.Enter(s.ID, int64(i%3))
			r.IsViewing(userID, int64(i%3))
			r.Push(userID, Event{Kind: EventUnreadCount})
			r.Leave(s.ID)
			r.SignOut(s)
		}(i)
	}
	wg.Wait()

	for u := int64(0); u < 4; u++ {
		if r.IsOnline(u) {
			t.Fatalf("user %d should have no sessions left", u)
		}
	}
}

package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roadchal/internal/domain"
	"roadchal/internal/service"
)

func newTestAgent() (*service.Agent, *MockSessionStore, *MockLockStore) {
	sessions := NewMockSessionStore()
	locks := NewMockLockStore()
	agent := service.NewAgent(sessions, locks, service.MockRouteFinder{}, service.NewMockRideBooker("Ramesh"), nil)
	return agent, sessions, locks
}

// ──────────────────────────────────────────────
// 1. CONVERSATION FLOW
// ──────────────────────────────────────────────

func TestAgent_FullBookingFlow(t *testing.T) {
	agent, sessions, _ := newTestAgent()
	ctx := context.Background()

	steps := []struct {
		message   string
		wantReply string
		wantState domain.SessionState
	}{
		{
			message:   "Akurdi Metro",
			wantReply: "Please share your pickup location.",
			wantState: domain.SessionStateAwaitPickup,
		},
		{
			message:   "Nigdi",
			wantReply: "Alright we going from Nigdi to Akurdi Metro and the distance is 5km and it will take 15 mins\n\nChoose ride:\n1️⃣ Auto\n2️⃣ Bike Taxi",
			wantState: domain.SessionStateChooseRide,
		},
		{
			message:   "the fast one",
			wantReply: "Please choose a ride by replying with 1 for Auto or 2 for Bike Taxi.",
			wantState: domain.SessionStateChooseRide,
		},
		{
			message:   "1",
			wantReply: "✅ Auto booked!\nDriver: Ramesh\nArriving in 5 mins",
			wantState: domain.SessionStateRideBooked,
		},
	}

	for _, step := range steps {
		reply, err := agent.Reply(ctx, "user-1", step.message)
		if err != nil {
			t.Fatalf("message %q: unexpected error: %v", step.message, err)
		}
		if reply.Reply != step.wantReply {
			t.Errorf("message %q: expected reply %q, got %q", step.message, step.wantReply, reply.Reply)
		}
		if reply.State != step.wantState {
			t.Errorf("message %q: expected state %s, got %s", step.message, step.wantState, reply.State)
		}
	}

	session, _ := sessions.Get(ctx, "user-1")
	if session.Pickup != "Nigdi" || session.Destination != "Akurdi Metro" || session.RideType != domain.RideTypeAuto {
		t.Errorf("unexpected session contents: %+v", session)
	}
}

func TestAgent_BikeTaxiChoice(t *testing.T) {
	agent, _, _ := newTestAgent()
	ctx := context.Background()

	for _, msg := range []string{"Pimpri station", "Home"} {
		if _, err := agent.Reply(ctx, "user-2", msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	reply, err := agent.Reply(ctx, "user-2", "option 2 please")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Reply != "✅ Bike booked!\nDriver: Ramesh\nArriving in 5 mins" {
		t.Errorf("unexpected reply: %q", reply.Reply)
	}
}

func TestAgent_IdleUserGetsPrompt(t *testing.T) {
	agent, _, _ := newTestAgent()

	reply, err := agent.Reply(context.Background(), "user-3", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Reply != "Hi! Tell me where you want to go (e.g., Akurdi Metro)." {
		t.Errorf("unexpected reply: %q", reply.Reply)
	}
	if reply.State != domain.SessionStateIdle {
		t.Errorf("expected idle state, got %s", reply.State)
	}
}

func TestAgent_MetroKeywordRestartsFromAnyState(t *testing.T) {
	agent, sessions, _ := newTestAgent()
	ctx := context.Background()

	for _, msg := range []string{"Akurdi Metro", "Nigdi"} {
		if _, err := agent.Reply(ctx, "user-4", msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	reply, err := agent.Reply(ctx, "user-4", "actually Swargate STATION")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.State != domain.SessionStateAwaitPickup {
		t.Errorf("expected await_pickup, got %s", reply.State)
	}

	session, _ := sessions.Get(ctx, "user-4")
	if session.Destination != "actually Swargate STATION" {
		t.Errorf("expected destination to be replaced, got %q", session.Destination)
	}
}

func TestAgent_BookedUserIsPromptedAgain(t *testing.T) {
	agent, _, _ := newTestAgent()
	ctx := context.Background()

	for _, msg := range []string{"Akurdi Metro", "Nigdi", "1"} {
		if _, err := agent.Reply(ctx, "user-5", msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	reply, err := agent.Reply(ctx, "user-5", "thanks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.State != domain.SessionStateRideBooked {
		t.Errorf("expected state to stay ride_booked, got %s", reply.State)
	}
	if reply.Reply != "Hi! Tell me where you want to go (e.g., Akurdi Metro)." {
		t.Errorf("unexpected reply: %q", reply.Reply)
	}
}

// ──────────────────────────────────────────────
// 2. VALIDATION
// ──────────────────────────────────────────────

func TestAgent_Validation(t *testing.T) {
	agent, _, _ := newTestAgent()

	testCases := []struct {
		name    string
		userID  string
		message string
		wantErr error
	}{
		{"empty user", "", "hi", service.ErrInvalidUserID},
		{"blank user", "   ", "hi", service.ErrInvalidUserID},
		{"empty message", "user-1", "", service.ErrEmptyMessage},
		{"blank message", "user-1", " \t ", service.ErrEmptyMessage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := agent.Reply(context.Background(), tc.userID, tc.message)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAgent_StoreFailureIsReturned(t *testing.T) {
	agent, sessions, locks := newTestAgent()
	sessions.GetError = ErrMockRedisDown

	_, err := agent.Reply(context.Background(), "user-1", "Akurdi Metro")
	if !errors.Is(err, ErrMockRedisDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if locks.IsLocked("user-1") {
		t.Error("expected lock to be released after a failed turn")
	}
}

// ──────────────────────────────────────────────
// 3. PER-USER LOCKING
// ──────────────────────────────────────────────

func TestAgent_BusyConversationTimesOut(t *testing.T) {
	agent, _, locks := newTestAgent()
	agent.WithLockWait(50*time.Millisecond, 10*time.Millisecond)
	locks.Hold("user-1", time.Minute)

	start := time.Now()
	_, err := agent.Reply(context.Background(), "user-1", "Akurdi Metro")
	if !errors.Is(err, service.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("expected the turn to wait for the lock before giving up")
	}
}

func TestAgent_OtherUsersAreNotBlocked(t *testing.T) {
	agent, _, locks := newTestAgent()
	agent.WithLockWait(0, 10*time.Millisecond)
	locks.Hold("user-1", time.Minute)

	if _, err := agent.Reply(context.Background(), "user-2", "Akurdi Metro"); err != nil {
		t.Fatalf("unexpected error for a different user: %v", err)
	}
}

func TestAgent_ConcurrentTurnsAreSerialized(t *testing.T) {
	agent, sessions, locks := newTestAgent()
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := agent.Reply(ctx, "user-1", "Akurdi Metro")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	if locks.IsLocked("user-1") {
		t.Error("expected lock to be released")
	}
	session, _ := sessions.Get(ctx, "user-1")
	if session.State != domain.SessionStateAwaitPickup {
		t.Errorf("expected await_pickup, got %s", session.State)
	}
}

// ──────────────────────────────────────────────
// 4. SESSION MANAGEMENT
// ──────────────────────────────────────────────

func TestAgent_SessionAndReset(t *testing.T) {
	agent, _, _ := newTestAgent()
	ctx := context.Background()

	session, err := agent.Session(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.State != domain.SessionStateIdle {
		t.Errorf("expected new session to be idle, got %s", session.State)
	}

	if _, err := agent.Reply(ctx, "user-1", "Akurdi Metro"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := agent.Reset(ctx, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, _ = agent.Session(ctx, "user-1")
	if session.State != domain.SessionStateIdle || session.Destination != "" {
		t.Errorf("expected reset session, got %+v", session)
	}
}

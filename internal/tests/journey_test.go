package tests

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"roadchal/internal/domain"
	"roadchal/internal/service"
)

type journeyFixture struct {
	service   *service.JourneyService
	repo      *MockJourneyRepository
	store     *MockJourneyStore
	messenger *MockMessenger
	planner   *MockRoutePlanner
}

func newJourneyFixture() *journeyFixture {
	f := &journeyFixture{
		repo:      NewMockJourneyRepository(),
		store:     NewMockJourneyStore(),
		messenger: NewMockMessenger(),
		planner:   &MockRoutePlanner{},
	}
	f.service = service.NewJourneyService(
		f.repo,
		f.store,
		service.PlaceholderExtractor{},
		f.planner,
		service.NewMockRideBooker("Rahul"),
		f.messenger,
		nil,
	)
	return f
}

func coords(lat, lng float64) (*float64, *float64) {
	return &lat, &lng
}

func (f *journeyFixture) send(t *testing.T, msg service.JourneyMessage) *service.JourneyResult {
	t.Helper()
	res, err := f.service.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("message %q: unexpected error: %v", msg.Message, err)
	}
	return res
}

// ──────────────────────────────────────────────
// 1. GREETING AND DESTINATION
// ──────────────────────────────────────────────

func TestJourney_GreetingAsksForDestination(t *testing.T) {
	for _, greeting := range []string{"hi", "Hello", " HEY ", "start"} {
		f := newJourneyFixture()

		res := f.send(t, service.JourneyMessage{Message: greeting, Username: "9198"})
		if res.Status != service.JourneyStatusAwaitingDestination {
			t.Errorf("%q: expected awaiting_destination, got %q", greeting, res.Status)
		}
		if got := f.messenger.Texts(); !reflect.DeepEqual(got, []string{"Welcome to RoadChal! Where do you want to go?"}) {
			t.Errorf("%q: unexpected messages %q", greeting, got)
		}
	}
}

func TestJourney_MissingLocation(t *testing.T) {
	f := newJourneyFixture()
	f.send(t, service.JourneyMessage{Message: "hi", Username: "9198"})
	f.messenger.Reset()

	res := f.send(t, service.JourneyMessage{Message: "shivajinagar", Username: "9198"})
	if res.Status != service.JourneyStatusMissingLocation {
		t.Errorf("expected missing_location, got %q", res.Status)
	}
	if got := f.messenger.Texts(); !reflect.DeepEqual(got, []string{"Please share your live location."}) {
		t.Errorf("unexpected messages %q", got)
	}
}

func TestJourney_EmptyMessageRejected(t *testing.T) {
	f := newJourneyFixture()

	_, err := f.service.Handle(context.Background(), service.JourneyMessage{Message: "   ", Username: "9198"})
	if !errors.Is(err, service.ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestJourney_UnknownUserIsToldToSayHi(t *testing.T) {
	f := newJourneyFixture()

	res := f.send(t, service.JourneyMessage{Message: "yes", Username: "9198"})
	if res.Status != service.JourneyStatusIdle {
		t.Errorf("expected idle, got %q", res.Status)
	}
	if got := f.messenger.Texts(); !reflect.DeepEqual(got, []string{"Say HI to begin."}) {
		t.Errorf("unexpected messages %q", got)
	}
}

// ──────────────────────────────────────────────
// 2. DIRECT JOURNEY
// ──────────────────────────────────────────────

func TestJourney_DirectRideCompletesOnConfirm(t *testing.T) {
	f := newJourneyFixture()
	lat, lng := coords(18.52, 73.85)

	f.send(t, service.JourneyMessage{Message: "hi", Username: "9198"})
	f.messenger.Reset()

	planned := f.send(t, service.JourneyMessage{Message: "lonavala lake", Username: "9198", Latitude: lat, Longitude: lng})
	if planned.JourneyID == "" {
		t.Fatal("expected a journey id")
	}

	want := []string{"Ride found to Lonavala Lake.\nDriver Rahul arriving in 5 mins.\nReply YES to confirm."}
	if got := f.messenger.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected messages %q", got)
	}

	stored, err := f.repo.GetByID(context.Background(), planned.JourneyID)
	if err != nil {
		t.Fatalf("expected journey row: %v", err)
	}
	if stored.StartLat != 18.52 || stored.EndLat != 18.735 || stored.EndLng != 73.675 {
		t.Errorf("unexpected journey row: %+v", stored)
	}
	f.messenger.Reset()

	done := f.send(t, service.JourneyMessage{Message: "YES", Username: "9198"})
	if done.Status != service.JourneyStatusCompleted {
		t.Errorf("expected completed, got %q", done.Status)
	}

	want = []string{"Ride confirmed. Heading to metro.", "You reached destination. Thank you!"}
	if got := f.messenger.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected messages %q", got)
	}

	wantStates := []domain.JourneyState{domain.JourneyStateStart, domain.JourneyStateInTransit1, domain.JourneyStateEnd}
	if !reflect.DeepEqual(f.repo.States, wantStates) {
		t.Errorf("expected states %v, got %v", wantStates, f.repo.States)
	}
	if f.store.HasActive("9198") {
		t.Error("expected journey context to be removed")
	}
}

func TestJourney_OnlyYesConfirms(t *testing.T) {
	f := newJourneyFixture()
	lat, lng := coords(18.52, 73.85)

	f.send(t, service.JourneyMessage{Message: "hi", Username: "9198"})
	f.send(t, service.JourneyMessage{Message: "lonavala", Username: "9198", Latitude: lat, Longitude: lng})

	res := f.send(t, service.JourneyMessage{Message: "maybe", Username: "9198"})
	if res.Status != service.JourneyStatusIdle {
		t.Errorf("expected idle, got %q", res.Status)
	}
	if !f.store.HasActive("9198") {
		t.Error("expected journey to stay active")
	}
}

// ──────────────────────────────────────────────
// 3. METRO JOURNEY
// ──────────────────────────────────────────────

func TestJourney_MetroJourneyHasTwoLegs(t *testing.T) {
	f := newJourneyFixture()
	f.planner.Endpoint = &domain.Place{Name: "PCMC Metro", Lat: 18.62, Lng: 73.80}
	lat, lng := coords(18.60, 73.78)

	f.send(t, service.JourneyMessage{Message: "hi", Username: "9198"})
	f.messenger.Reset()

	planned := f.send(t, service.JourneyMessage{Message: "swargate", Username: "9198", Latitude: lat, Longitude: lng})
	stored, _ := f.repo.GetByID(context.Background(), planned.JourneyID)
	if stored.EndLat != 18.62 || stored.EndLng != 73.80 {
		t.Errorf("expected journey to end at the metro station, got %+v", stored)
	}
	if got := f.messenger.Texts(); len(got) != 1 || got[0] != "Ride found to PCMC Metro.\nDriver Rahul arriving in 5 mins.\nReply YES to confirm." {
		t.Errorf("unexpected messages %q", got)
	}
	f.messenger.Reset()

	mid := f.send(t, service.JourneyMessage{Message: "yes", Username: "9198"})
	if mid.Status != service.JourneyStatusMetroPhase {
		t.Fatalf("expected metro_phase, got %q", mid.Status)
	}
	want := []string{
		"Ride confirmed. Heading to metro.",
		"Reached metro station.",
		"Metro Ticket:\nQR(https://youtube.com/shorts/WcJEH-PpEWk?si=lmrDMesYXW9GFzJx)",
	}
	if got := f.messenger.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected messages %q", got)
	}
	f.messenger.Reset()

	done := f.send(t, service.JourneyMessage{Message: "anything", Username: "9198"})
	if done.Status != service.JourneyStatusCompleted {
		t.Errorf("expected completed, got %q", done.Status)
	}
	want = []string{"Final ride started.", "Journey completed. Thank you for using RoadChal!"}
	if got := f.messenger.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected messages %q", got)
	}

	wantStates := []domain.JourneyState{
		domain.JourneyStateStart,
		domain.JourneyStateInTransit1,
		domain.JourneyStateMid,
		domain.JourneyStateInTransit2,
		domain.JourneyStateEnd,
	}
	if !reflect.DeepEqual(f.repo.States, wantStates) {
		t.Errorf("expected states %v, got %v", wantStates, f.repo.States)
	}
}

func TestJourney_SendFailuresAreIgnored(t *testing.T) {
	f := newJourneyFixture()
	f.messenger.SendError = ErrMockTimeout

	res := f.send(t, service.JourneyMessage{Message: "hi", Username: "9198"})
	if res.Status != service.JourneyStatusAwaitingDestination {
		t.Errorf("expected awaiting_destination, got %q", res.Status)
	}
}

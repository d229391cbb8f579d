package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"roadchal/internal/domain"
	"roadchal/internal/geo"
	"roadchal/internal/observability"
	"roadchal/internal/redis"
	"roadchal/internal/repository"
	"roadchal/internal/whatsapp"
)

// Journey result statuses.
const (
	JourneyStatusAwaitingDestination = "awaiting_destination"
	JourneyStatusMissingLocation     = "missing_location"
	JourneyStatusMetroPhase          = "metro_phase"
	JourneyStatusCompleted           = "completed"
	JourneyStatusIdle                = "idle"
)

const metroTicketLink = "https://youtube.com/shorts/WcJEH-PpEWk?si=lmrDMesYXW9GFzJx"

var greetings = map[string]bool{"hi": true, "hello": true, "hey": true, "start": true}

// DestinationExtractor turns free text into a place.
type DestinationExtractor interface {
	Extract(ctx context.Context, message string) (domain.Place, error)
}

// RoutePlanner picks the endpoint of the first leg of a journey.
type RoutePlanner interface {
	NearestMetroOrDirect(ctx context.Context, start, destination domain.Place) domain.Place
}

// PlaceholderExtractor names the destination after the message and puts it at a fixed point.
type PlaceholderExtractor struct{}

// Extract implements DestinationExtractor.
func (PlaceholderExtractor) Extract(ctx context.Context, message string) (domain.Place, error) {
	return domain.Place{Name: titleCase(strings.TrimSpace(message)), Lat: 18.735, Lng: 73.675}, nil
}

// titleCase upper-cases the first letter of every run of letters and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// JourneyMessage is one inbound message of the journey workflow.
type JourneyMessage struct {
	Message   string
	Username  string
	Latitude  *float64
	Longitude *float64
}

// JourneyResult is the answer to a journey message.
type JourneyResult struct {
	Status    string `json:"status,omitempty"`
	JourneyID string `json:"journey_id,omitempty"`
}

// JourneyService runs the multi-leg journey workflow.
type JourneyService struct {
	repo      repository.JourneyRepository
	store     redis.JourneyStoreInterface
	extractor DestinationExtractor
	planner   RoutePlanner
	booker    RideBooker
	messenger whatsapp.Messenger
	logger    *zap.Logger
}

// NewJourneyService creates a new JourneyService.
func NewJourneyService(
	repo repository.JourneyRepository,
	store redis.JourneyStoreInterface,
	extractor DestinationExtractor,
	planner RoutePlanner,
	booker RideBooker,
	messenger whatsapp.Messenger,
	logger *zap.Logger,
) *JourneyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JourneyService{
		repo:      repo,
		store:     store,
		extractor: extractor,
		planner:   planner,
		booker:    booker,
		messenger: messenger,
		logger:    logger,
	}
}

// Handle processes one message from a user.
func (s *JourneyService) Handle(ctx context.Context, msg JourneyMessage) (*JourneyResult, error) {
	text := strings.ToLower(strings.TrimSpace(msg.Message))
	if text == "" {
		return nil, ErrEmptyMessage
	}
	username := strings.TrimSpace(msg.Username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	observability.ChatMessagesTotal.WithLabelValues("journey").Inc()

	if greetings[text] {
		if err := s.store.MarkAwaitingDestination(ctx, username); err != nil {
			return nil, fmt.Errorf("mark awaiting destination: %w", err)
		}
		s.send(ctx, username, "Welcome to RoadChal! Where do you want to go?")
		return &JourneyResult{Status: JourneyStatusAwaitingDestination}, nil
	}

	awaiting, err := s.store.IsAwaitingDestination(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check awaiting destination: %w", err)
	}
	if awaiting {
		return s.plan(ctx, username, msg)
	}

	active, err := s.store.GetActive(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load journey: %w", err)
	}
	if active != nil {
		switch {
		case active.State == domain.JourneyStateStart && text == "yes":
			return s.confirm(ctx, active)
		case active.State == domain.JourneyStateMid:
			return s.finalLeg(ctx, active)
		}
	}

	s.send(ctx, username, "Say HI to begin.")
	return &JourneyResult{Status: JourneyStatusIdle}, nil
}

// Get returns a stored journey.
func (s *JourneyService) Get(ctx context.Context, id string) (*domain.Journey, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *JourneyService) plan(ctx context.Context, username string, msg JourneyMessage) (*JourneyResult, error) {
	if msg.Latitude == nil || msg.Longitude == nil {
		s.send(ctx, username, "Please share your live location.")
		return &JourneyResult{Status: JourneyStatusMissingLocation}, nil
	}
	if !geo.ValidCoordinates(*msg.Latitude, *msg.Longitude) {
		return nil, ErrInvalidLocation
	}

	destination, err := s.extractor.Extract(ctx, msg.Message)
	if err != nil {
		return nil, fmt.Errorf("extract destination: %w", err)
	}

	start := domain.Place{Lat: *msg.Latitude, Lng: *msg.Longitude}
	endpoint := s.planner.NearestMetroOrDirect(ctx, start, destination)

	journey := &domain.JourneyContext{
		JourneyID:   uuid.New().String(),
		Username:    username,
		Start:       start,
		Destination: destination,
		Endpoint:    endpoint,
		UsesMetro:   endpoint != destination,
		State:       domain.JourneyStateStart,
	}

	err = s.repo.Upsert(ctx, &domain.Journey{
		ID:       journey.JourneyID,
		Username: username,
		StartLat: start.Lat,
		StartLng: start.Lng,
		EndLat:   endpoint.Lat,
		EndLng:   endpoint.Lng,
		State:    domain.JourneyStateStart,
	})
	if err != nil {
		return nil, fmt.Errorf("save journey: %w", err)
	}
	if err := s.store.SaveActive(ctx, journey); err != nil {
		return nil, fmt.Errorf("save journey context: %w", err)
	}

	ride, err := s.booker.BookRide(ctx, username, domain.RideTypeAuto)
	if err != nil {
		return nil, fmt.Errorf("book ride: %w", err)
	}

	s.send(ctx, username, fmt.Sprintf("Ride found to %s.\nDriver %s arriving in %s.\nReply YES to confirm.",
		endpoint.Name, ride.Driver, ride.ETA))

	if err := s.store.ClearAwaitingDestination(ctx, username); err != nil {
		return nil, fmt.Errorf("clear awaiting destination: %w", err)
	}

	s.logger.Info("journey planned",
		zap.String("journey_id", journey.JourneyID),
		zap.String("username", username),
		zap.Bool("uses_metro", journey.UsesMetro),
	)
	return &JourneyResult{JourneyID: journey.JourneyID}, nil
}

func (s *JourneyService) confirm(ctx context.Context, journey *domain.JourneyContext) (*JourneyResult, error) {
	if err := s.setState(ctx, journey, domain.JourneyStateInTransit1, "Ride confirmed. Heading to metro."); err != nil {
		return nil, err
	}

	if journey.UsesMetro {
		if err := s.setState(ctx, journey, domain.JourneyStateMid, "Reached metro station."); err != nil {
			return nil, err
		}
		s.send(ctx, journey.Username, fmt.Sprintf("Metro Ticket:\nQR(%s)", metroTicketLink))

		if err := s.store.SaveActive(ctx, journey); err != nil {
			return nil, fmt.Errorf("save journey context: %w", err)
		}
		return &JourneyResult{Status: JourneyStatusMetroPhase}, nil
	}

	if err := s.setState(ctx, journey, domain.JourneyStateEnd, "You reached destination. Thank you!"); err != nil {
		return nil, err
	}
	return s.complete(ctx, journey)
}

func (s *JourneyService) finalLeg(ctx context.Context, journey *domain.JourneyContext) (*JourneyResult, error) {
	if _, err := s.booker.BookRide(ctx, journey.Username, domain.RideTypeAuto); err != nil {
		return nil, fmt.Errorf("book ride: %w", err)
	}

	if err := s.setState(ctx, journey, domain.JourneyStateInTransit2, "Final ride started."); err != nil {
		return nil, err
	}
	if err := s.setState(ctx, journey, domain.JourneyStateEnd, "Journey completed. Thank you for using RoadChal!"); err != nil {
		return nil, err
	}
	return s.complete(ctx, journey)
}

func (s *JourneyService) complete(ctx context.Context, journey *domain.JourneyContext) (*JourneyResult, error) {
	if err := s.store.DeleteActive(ctx, journey.Username); err != nil {
		return nil, fmt.Errorf("delete journey context: %w", err)
	}
	s.logger.Info("journey completed", zap.String("journey_id", journey.JourneyID))
	return &JourneyResult{Status: JourneyStatusCompleted}, nil
}

// setState records a state change and tells the user about it.
func (s *JourneyService) setState(ctx context.Context, journey *domain.JourneyContext, state domain.JourneyState, message string) error {
	if err := s.repo.UpdateState(ctx, journey.JourneyID, state); err != nil {
		return fmt.Errorf("update journey state: %w", err)
	}
	journey.State = state
	s.send(ctx, journey.Username, message)
	return nil
}

// send delivers a message to the user. Failures are logged only.
func (s *JourneyService) send(ctx context.Context, username, message string) {
	if s.messenger == nil {
		return
	}
	if err := s.messenger.SendText(ctx, username, message); err != nil {
		s.logger.Warn("failed to send journey message", zap.String("username", username), zap.Error(err))
	}
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"roadchal/internal/domain"
	"roadchal/internal/observability"
	"roadchal/internal/redis"
)

// Conversation lock timing.
const (
	defaultLockTTL       = 10 * time.Second
	defaultLockWait      = 2 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
)

const (
	replyAskPickup  = "Please share your pickup location."
	replyChooseRide = "Please choose a ride by replying with 1 for Auto or 2 for Bike Taxi."
	replyRideMenu   = "\n\nChoose ride:\n1️⃣ Auto\n2️⃣ Bike Taxi"
	replyAskWhere   = "Hi! Tell me where you want to go (e.g., Akurdi Metro)."
)

// sessionTransitions lists the states each state may move to.
var sessionTransitions = map[domain.SessionState][]domain.SessionState{
	domain.SessionStateIdle:        {domain.SessionStateIdle, domain.SessionStateAwaitPickup},
	domain.SessionStateAwaitPickup: {domain.SessionStateAwaitPickup, domain.SessionStateChooseRide},
	domain.SessionStateChooseRide:  {domain.SessionStateAwaitPickup, domain.SessionStateChooseRide, domain.SessionStateRideBooked},
	domain.SessionStateRideBooked:  {domain.SessionStateAwaitPickup, domain.SessionStateRideBooked},
}

func canTransition(from, to domain.SessionState) bool {
	for _, s := range sessionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AgentReply is the answer to one conversation turn.
type AgentReply struct {
	Reply string              `json:"reply"`
	State domain.SessionState `json:"state"`
}

// Agent runs the trip-booking conversation.
type Agent struct {
	sessions redis.SessionStoreInterface
	locks    redis.LockStoreInterface
	routes   RouteFinder
	booker   RideBooker
	logger   *zap.Logger

	lockTTL       time.Duration
	lockWait      time.Duration
	retryInterval time.Duration
}

// NewAgent creates a new Agent.
func NewAgent(
	sessions redis.SessionStoreInterface,
	locks redis.LockStoreInterface,
	routes RouteFinder,
	booker RideBooker,
	logger *zap.Logger,
) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		sessions:      sessions,
		locks:         locks,
		routes:        routes,
		booker:        booker,
		logger:        logger,
		lockTTL:       defaultLockTTL,
		lockWait:      defaultLockWait,
		retryInterval: defaultRetryInterval,
	}
}

// WithLockWait overrides how long a turn waits for a busy conversation.
func (a *Agent) WithLockWait(wait, retry time.Duration) *Agent {
	a.lockWait = wait
	a.retryInterval = retry
	return a
}

// Reply advances the conversation of userID with message.
func (a *Agent) Reply(ctx context.Context, userID, message string) (*AgentReply, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	observability.ChatMessagesTotal.WithLabelValues("agent").Inc()

	token, err := a.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := a.locks.ReleaseSessionLock(context.WithoutCancel(ctx), userID, token); err != nil {
			a.logger.Warn("failed to release session lock", zap.String("user_id", userID), zap.Error(err))
		}
	}()

	session, err := a.sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		session = domain.NewChatSession(userID)
	}

	from := session.State
	reply, err := a.step(ctx, session, message)
	if err != nil {
		return nil, err
	}
	if !canTransition(from, session.State) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, session.State)
	}

	session.UpdatedAt = time.Now()
	if err := a.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if from != session.State {
		a.logger.Debug("conversation advanced",
			zap.String("user_id", userID),
			zap.String("from", string(from)),
			zap.String("to", string(session.State)),
		)
	}

	return &AgentReply{Reply: reply, State: session.State}, nil
}

// step computes the reply and mutates session in place.
func (a *Agent) step(ctx context.Context, session *domain.ChatSession, message string) (string, error) {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "metro") || strings.Contains(lower, "station"):
		session.Destination = message
		session.State = domain.SessionStateAwaitPickup
		return replyAskPickup, nil

	case session.State == domain.SessionStateAwaitPickup:
		route, err := a.routes.FindRoute(ctx, message, session.Destination)
		if err != nil {
			return "", fmt.Errorf("find route: %w", err)
		}
		session.Pickup = message
		session.State = domain.SessionStateChooseRide
		return route + replyRideMenu, nil

	case session.State == domain.SessionStateChooseRide:
		var ride domain.RideType
		switch {
		case strings.Contains(message, "1"):
			ride = domain.RideTypeAuto
		case strings.Contains(message, "2"):
			ride = domain.RideTypeBike
		default:
			return replyChooseRide, nil
		}

		booking, err := a.booker.BookRide(ctx, session.UserID, ride)
		if err != nil {
			return "", fmt.Errorf("book ride: %w", err)
		}
		session.RideType = ride
		session.State = domain.SessionStateRideBooked
		return fmt.Sprintf("✅ %s booked!\nDriver: %s\nArriving in %s", ride, booking.Driver, booking.ETA), nil

	default:
		return replyAskWhere, nil
	}
}

// Session returns the conversation of userID, or a fresh idle one.
func (a *Agent) Session(ctx context.Context, userID string) (*domain.ChatSession, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	session, err := a.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = domain.NewChatSession(userID)
	}
	return session, nil
}

// Reset forgets the conversation of userID.
func (a *Agent) Reset(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidUserID
	}
	return a.sessions.Delete(ctx, userID)
}

// lock acquires the conversation lock, retrying until lockWait elapses.
func (a *Agent) lock(ctx context.Context, userID string) (string, error) {
	deadline := time.Now().Add(a.lockWait)
	for {
		token, ok, err := a.locks.AcquireSessionLock(ctx, userID, a.lockTTL)
		if err != nil {
			return "", fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", ErrSessionBusy
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(a.retryInterval):
		}
	}
}

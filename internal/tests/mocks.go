package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"roadchal/internal/domain"
	"roadchal/internal/redis"
	"roadchal/internal/repository"
	"roadchal/internal/tracking"
)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drivers {
		if d.Email == driver.Email {
			return repository.ErrConflict
		}
	}
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Email == email {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[driver.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// GetDriver returns a driver directly (for test assertions).
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters
	AssignCallCount int32
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool { return b.Status == status }, 0, false), nil
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool { return b.UserID == userID }, limit, true), nil
}

func (m *MockBookingRepository) ListByDriver(ctx context.Context, driverID string, limit int) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool { return b.DriverID == driverID }, limit, true), nil
}

// Assign mirrors the conditional UPDATE of the SQL repository.
func (m *MockBookingRepository) Assign(ctx context.Context, id, driverID string) (*domain.Booking, error) {
	atomic.AddInt32(&m.AssignCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok || booking.Status != domain.BookingStatusPending {
		return nil, repository.ErrConflict
	}
	booking.DriverID = driverID
	booking.Status = domain.BookingStatusAccepted
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	booking.Status = status
	return nil
}

// CountBookings returns the number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *MockBookingRepository) list(match func(*domain.Booking) bool, limit int, newestFirst bool) []*domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Booking
	for _, b := range m.bookings {
		if match(b) {
			copy := *b
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if newestFirst {
			return result[i].PickupDate.After(result[j].PickupDate)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK JOURNEY REPOSITORY
// ──────────────────────────────────────────────

// MockJourneyRepository is a mock implementation of JourneyRepository.
type MockJourneyRepository struct {
	mu       sync.RWMutex
	journeys map[string]*domain.Journey

	// States records every state written, in order.
	States []domain.JourneyState
}

// NewMockJourneyRepository creates a new mock journey repository.
func NewMockJourneyRepository() *MockJourneyRepository {
	return &MockJourneyRepository{
		journeys: make(map[string]*domain.Journey),
	}
}

func (m *MockJourneyRepository) Upsert(ctx context.Context, journey *domain.Journey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *journey
	m.journeys[journey.ID] = &copy
	m.States = append(m.States, journey.State)
	return nil
}

func (m *MockJourneyRepository) UpdateState(ctx context.Context, id string, state domain.JourneyState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	journey, ok := m.journeys[id]
	if !ok {
		return repository.ErrNotFound
	}
	journey.State = state
	m.States = append(m.States, state)
	return nil
}

func (m *MockJourneyRepository) GetByID(ctx context.Context, id string) (*domain.Journey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	journey, ok := m.journeys[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *journey
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK SESSION STORE
// ──────────────────────────────────────────────

// MockSessionStore is a mock implementation of SessionStore.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.ChatSession

	// Error injection
	GetError error
}

// NewMockSessionStore creates a new mock session store.
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]domain.ChatSession),
	}
}

func (m *MockSessionStore) Get(ctx context.Context, userID string) (*domain.ChatSession, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID] = *session
	return nil
}

func (m *MockSessionStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]lockEntry

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

type lockEntry struct {
	token  string
	expiry time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]lockEntry),
	}
}

func (m *MockLockStore) AcquireSessionLock(ctx context.Context, userID string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:session:" + userID
	if entry, exists := m.locks[key]; exists && time.Now().Before(entry.expiry) {
		return "", false, nil // Lock still held.
	}

	token := uuid.New().String()
	m.locks[key] = lockEntry{token: token, expiry: time.Now().Add(ttl)}
	return token, true, nil
}

func (m *MockLockStore) ReleaseSessionLock(ctx context.Context, userID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "lock:session:" + userID
	if entry, ok := m.locks[key]; ok && entry.token == token {
		delete(m.locks, key)
	}
	return nil
}

// Hold takes the lock of a user without a token (simulates another instance).
func (m *MockLockStore) Hold(userID string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:session:"+userID] = lockEntry{token: "held", expiry: time.Now().Add(ttl)}
}

// IsLocked checks if a user's conversation is locked (for test assertions).
func (m *MockLockStore) IsLocked(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, exists := m.locks["lock:session:"+userID]
	return exists && time.Now().Before(entry.expiry)
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStore.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.DriverLocation

	// Counters
	UpdateLocationCallCount int32
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.DriverLocation, 0),
	}
}

// SetLocations sets all locations (for test setup).
func (m *MockLocationStore) SetLocations(locations []redis.DriverLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	// Update existing or add new.
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.DriverLocation{
		DriverID: driverID,
		Lat:      lat,
		Lng:      lng,
	})
	return nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, driverID string) (*redis.DriverLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.DriverID == driverID {
			copy := loc
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return all locations (mock doesn't do real geo filtering).
	result := make([]redis.DriverLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if a driver location exists.
func (m *MockLocationStore) HasLocation(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.DriverID == driverID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK JOURNEY STORE
// ──────────────────────────────────────────────

// MockJourneyStore is a mock implementation of JourneyStore.
type MockJourneyStore struct {
	mu       sync.Mutex
	awaiting map[string]bool
	active   map[string]domain.JourneyContext
}

// NewMockJourneyStore creates a new mock journey store.
func NewMockJourneyStore() *MockJourneyStore {
	return &MockJourneyStore{
		awaiting: make(map[string]bool),
		active:   make(map[string]domain.JourneyContext),
	}
}

func (m *MockJourneyStore) MarkAwaitingDestination(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awaiting[username] = true
	return nil
}

func (m *MockJourneyStore) IsAwaitingDestination(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awaiting[username], nil
}

func (m *MockJourneyStore) ClearAwaitingDestination(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.awaiting, username)
	return nil
}

func (m *MockJourneyStore) GetActive(ctx context.Context, username string) (*domain.JourneyContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	journey, ok := m.active[username]
	if !ok {
		return nil, nil
	}
	return &journey, nil
}

func (m *MockJourneyStore) SaveActive(ctx context.Context, journey *domain.JourneyContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[journey.Username] = *journey
	return nil
}

func (m *MockJourneyStore) DeleteActive(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, username)
	return nil
}

// HasActive reports whether a user has an active journey.
func (m *MockJourneyStore) HasActive(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[username]
	return ok
}

// ──────────────────────────────────────────────
// MOCK MESSENGER
// ──────────────────────────────────────────────

// SentMessage is a message captured by MockMessenger.
type SentMessage struct {
	To   string
	Text string
}

// MockMessenger records outbound messages.
type MockMessenger struct {
	mu   sync.Mutex
	sent []SentMessage

	// Error injection
	SendError error
}

// NewMockMessenger creates a new mock messenger.
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{}
}

func (m *MockMessenger) SendText(ctx context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Text: text})
	return m.SendError
}

// Sent returns the captured messages.
func (m *MockMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// Texts returns the text of every captured message.
func (m *MockMessenger) Texts() []string {
	var texts []string
	for _, msg := range m.Sent() {
		texts = append(texts, msg.Text)
	}
	return texts
}

// Reset drops the captured messages.
func (m *MockMessenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE PLANNER / TRACKER / QUOTE CACHE
// ──────────────────────────────────────────────

// MockRoutePlanner returns a fixed endpoint, or the destination when Endpoint is nil.
type MockRoutePlanner struct {
	Endpoint *domain.Place
}

func (m *MockRoutePlanner) NearestMetroOrDirect(ctx context.Context, start, destination domain.Place) domain.Place {
	if m.Endpoint == nil {
		return destination
	}
	return *m.Endpoint
}

// MockTracker records the phones tracking was started for.
type MockTracker struct {
	mu     sync.Mutex
	Phones []string
}

func (m *MockTracker) StartTracking(phone string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Phones = append(m.Phones, phone)
}

// MockQuoteCache is an in-memory quote cache.
type MockQuoteCache struct {
	mu     sync.Mutex
	quotes map[string][]domain.RideEstimate

	GetCallCount int32
	SetCallCount int32

	// Error injection
	GetError error
}

// NewMockQuoteCache creates a new mock quote cache.
func NewMockQuoteCache() *MockQuoteCache {
	return &MockQuoteCache{quotes: make(map[string][]domain.RideEstimate)}
}

func (m *MockQuoteCache) GetQuotes(ctx context.Context, source, destination string) ([]domain.RideEstimate, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quotes[source+"|"+destination], nil
}

func (m *MockQuoteCache) SetQuotes(ctx context.Context, source, destination string, quotes []domain.RideEstimate) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[source+"|"+destination] = quotes
	return nil
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// PublishedEvent is an event captured by MockPublisher.
type PublishedEvent struct {
	Topic string
	Event tracking.Event
}

// MockPublisher records published events in order.
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(topic string, event tracking.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{Topic: topic, Event: event})
}

// Events returns the events published so far.
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.events...)
}

// OnTopic returns the events published to topic.
func (m *MockPublisher) OnTopic(topic string) []PublishedEvent {
	var matched []PublishedEvent
	for _, e := range m.Events() {
		if e.Topic == topic {
			matched = append(matched, e)
		}
	}
	return matched
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockRedisDown = errors.New("mock: redis unavailable")
	ErrMockTimeout   = errors.New("mock: operation timeout")
)

// Ensure mocks implement the interfaces they stand in for.
var (
	_ repository.DriverRepository  = (*MockDriverRepository)(nil)
	_ repository.BookingRepository = (*MockBookingRepository)(nil)
	_ repository.JourneyRepository = (*MockJourneyRepository)(nil)
	_ redis.SessionStoreInterface  = (*MockSessionStore)(nil)
	_ redis.LockStoreInterface     = (*MockLockStore)(nil)
	_ redis.LocationStoreInterface = (*MockLocationStore)(nil)
	_ redis.JourneyStoreInterface  = (*MockJourneyStore)(nil)
)

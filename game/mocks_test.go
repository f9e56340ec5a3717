package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"
)

func alwaysAllowLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 0)
}

// --- Session fake ---

// fakeSession records everything a room pushes at it. Rooms only ever see
// the Session interface, so scenario tests run with no sockets at all.
type fakeSession struct {
	mu       sync.Mutex
	name     string
	room     *Room
	sent     []dataSendTask
	pings    int
	released bool
	navUntil time.Time
}

func newFakeSession(name string) *fakeSession {
	return &fakeSession{name: name}
}

func (s *fakeSession) ID() string { return s.name }

func (s *fakeSession) Send(event string, payload any) {
	s.mu.Lock()
	s.sent = append(s.sent, dataSendTask{to: s, event: event, payload: payload})
	s.mu.Unlock()
}

func (s *fakeSession) Ping() error {
	s.mu.Lock()
	s.pings++
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) AttachRoom(r *Room) {
	s.mu.Lock()
	s.room = r
	s.mu.Unlock()
}

func (s *fakeSession) CancelAndRelease() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}

func (s *fakeSession) SetNavigationIntent(until time.Time) {
	s.mu.Lock()
	s.navUntil = until
	s.mu.Unlock()
}

func (s *fakeSession) NavigationIntentActive(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Before(s.navUntil)
}

// --- Lobby mock ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RequestUpdateDescription(desc roomDescription) {
	m.Called(desc)
}

func (m *MockLobby) RemoveRoom(roomID string) {
	m.Called(roomID)
}

// --- UniqueIdGenerator mock ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- PeriodicTickerChannelCreator mock ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- outbox assertion helpers ---

func (st dataSendTask) testString() string {
	payload, err := json.Marshal(st.payload)
	if err != nil {
		return fmt.Sprintf("task{to: %s, event: %s, payload: <unmarshalable>}", st.to.ID(), st.event)
	}
	return fmt.Sprintf("task{to: %s, event: %s, payload: %s}", st.to.ID(), st.event, payload)
}

func makeTask(to Session, event string, payload any) dataSendTask {
	return dataSendTask{to: to, event: event, payload: payload}
}

func assertTasks(t *testing.T, expected, actual []dataSendTask) {
	t.Helper()
	expectedStr := make([]string, 0, len(expected))
	actualStr := make([]string, 0, len(actual))
	for _, task := range expected {
		expectedStr = append(expectedStr, task.testString())
	}
	for _, task := range actual {
		actualStr = append(actualStr, task.testString())
	}
	assert.ElementsMatch(t, expectedStr, actualStr)
}

// tasksFor filters the outbox down to the named events.
func tasksFor(tasks []dataSendTask, events ...string) []dataSendTask {
	var out []dataSendTask
	for _, task := range tasks {
		for _, event := range events {
			if task.event == event {
				out = append(out, task)
				break
			}
		}
	}
	return out
}

// --- room fixture ---

// newTestRoom builds an unstarted room with a controllable clock, an
// always-allowing roster limiter, and an identity shuffle so role
// assignment is positional and deterministic.
func newTestRoom(id string, at time.Time) (*Room, *time.Time) {
	now := at
	r := NewRoom(id, DefaultSettings())
	r.clock = func() time.Time { return now }
	r.rosterLimiter = alwaysAllowLimiter()
	r.shuffleFn = func(n int, swap func(i, j int)) {}
	return r, &now
}

func joinPlayer(t *testing.T, r *Room, name string, isHost bool) *fakeSession {
	t.Helper()
	session := newFakeSession(name)
	errChan := make(chan error, 1)
	r.handleJoinRequest(roomJoinRequest{
		roomID:   r.id,
		username: name,
		isHost:   isHost,
		create:   true,
		session:  session,
		errChan:  errChan,
	})
	assert.NoError(t, <-errChan)
	return session
}

func clearOutbox(r *Room) {
	r.dataSendTasks = r.dataSendTasks[:0]
	r.sessionsToClose = r.sessionsToClose[:0]
}

// Package session owns the client side authentication state.
//
// Manager is the only place the session is mutated. Everything else reads it
// through IsAuthenticated, CurrentUser, HasRole or Principal, or listens to
// changes with Subscribe.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/nkiryanov/taskmanager/internal/access"
	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/client/guard"
	"github.com/nkiryanov/taskmanager/internal/envelope"
	"github.com/nkiryanov/taskmanager/internal/logger"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/tokencodec"
	"github.com/nkiryanov/taskmanager/internal/wire"
)

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type User struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  models.Role
}

func userFromWire(u wire.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Snapshot is a copy of the session published to subscribers
type Snapshot struct {
	State     State
	User      *User
	ExpiresAt time.Time
}

type authAPI interface {
	Register(ctx context.Context, name string, email string, password string) (wire.User, error)
	Login(ctx context.Context, email string, password string) (wire.Session, error)
	Refresh(ctx context.Context) (wire.Session, error)
	Logout(ctx context.Context) error
	Verify(ctx context.Context) (wire.Session, error)
}

type Options struct {
	// How long before token expiry the refresh fires. Default 60s
	RefreshMargin time.Duration

	// Clock used for expiry computation. Default time.Now
	Clock func() time.Time

	// Where Logout sends the user. Nil disables navigation
	Navigator guard.Navigator

	Logger logger.Logger
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

type Manager struct {
	api       authAPI
	clock     func() time.Time
	navigator guard.Navigator
	logger    logger.Logger

	refreshes singleflight.Group

	mu         sync.Mutex
	state      State
	user       *User
	token      string
	expiresAt  time.Time
	generation uint64 // bumped whenever a session is dropped or replaced
	scheduler  *scheduler
	subs       []subscriber
	nextSubID  int
}

func NewManager(api authAPI, opts Options) *Manager {
	if opts.RefreshMargin <= 0 {
		opts.RefreshMargin = defaultRefreshMargin
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}

	return &Manager{
		api:       api,
		clock:     opts.Clock,
		navigator: opts.Navigator,
		logger:    opts.Logger,
		scheduler: &scheduler{margin: opts.RefreshMargin, clock: opts.Clock},
	}
}

// Subscribe calls fn after every state change, in subscription order.
// fn runs outside the manager lock and may call its read methods.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// transition must be called with m.mu held. The returned func publishes the
// change and must be called after the lock is released.
func (m *Manager) transition(state State) func() {
	m.state = state
	snap := m.snapshotLocked()
	subs := append([]subscriber(nil), m.subs...)

	return func() {
		for _, s := range subs {
			s.fn(snap)
		}
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state, ExpiresAt: m.expiresAt}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

// clearLocked drops the session and cancels the pending refresh
func (m *Manager) clearLocked() {
	m.scheduler.cancel()
	m.generation++
	m.user = nil
	m.token = ""
	m.expiresAt = time.Time{}
}

// sessionFrom checks that the server answer really establishes a session
func (m *Manager) sessionFrom(s wire.Session) (User, time.Time, error) {
	if s.User.ID == uuid.Nil || s.Token == "" {
		return User{}, time.Time{}, apperrors.ErrSessionNotEstablished
	}

	claims, err := tokencodec.Decode(s.Token)
	if err != nil {
		return User{}, time.Time{}, fmt.Errorf("%w: %w", apperrors.ErrSessionNotEstablished, err)
	}
	if !claims.ExpiresAt.After(m.clock()) {
		return User{}, time.Time{}, fmt.Errorf("%w: token is already expired", apperrors.ErrSessionNotEstablished)
	}

	return userFromWire(s.User), claims.ExpiresAt, nil
}

// establishLocked moves to Authenticated and arms the refresh timer
func (m *Manager) establishLocked(u User, token string, expiresAt time.Time) func() {
	m.user = &u
	m.token = token
	m.expiresAt = expiresAt

	delay := m.scheduler.arm(expiresAt, m.onTimer)
	m.logger.Debug("Refresh scheduled", "in", delay, "expires_at", expiresAt)

	return m.transition(Authenticated)
}

// Login replaces any current session with a new one.
// Returns after the session is fully applied: IsAuthenticated is true once it returns nil.
//
// A failed call returns *api.Error or an apperrors.ErrNetwork error.
// A successful call that did not carry a usable session returns apperrors.ErrSessionNotEstablished.
func (m *Manager) Login(ctx context.Context, email string, password string) (User, error) {
	m.mu.Lock()
	m.clearLocked()
	gen := m.generation
	publish := m.transition(Authenticating)
	m.mu.Unlock()
	publish()

	s, err := m.api.Login(ctx, email, password)
	var u User
	var expiresAt time.Time
	if err == nil {
		u, expiresAt, err = m.sessionFrom(s)
	} else if errors.Is(err, envelope.ErrEmptyData) {
		err = fmt.Errorf("%w: %w", apperrors.ErrSessionNotEstablished, err)
	}

	m.mu.Lock()
	if gen != m.generation {
		// Another login or logout won while this one was in flight
		m.mu.Unlock()
		if err != nil {
			return User{}, err
		}
		return User{}, fmt.Errorf("%w: superseded", apperrors.ErrSessionNotEstablished)
	}
	if err != nil {
		publish = m.transition(Anonymous)
		m.mu.Unlock()
		publish()
		m.logger.Debug("Login failed", "error", err)
		return User{}, err
	}
	publish = m.establishLocked(u, s.Token, expiresAt)
	m.mu.Unlock()
	publish()

	m.logger.Info("Logged in", "user_id", u.ID)
	return u, nil
}

// Register creates an account. It never logs in: the state returns to
// Anonymous (or stays as it was if a session already exists).
func (m *Manager) Register(ctx context.Context, name string, email string, password string) (User, error) {
	m.mu.Lock()
	var publish func()
	gen := m.generation
	tracking := m.state == Anonymous
	if tracking {
		publish = m.transition(Authenticating)
	}
	m.mu.Unlock()
	if publish != nil {
		publish()
	}

	created, err := m.api.Register(ctx, name, email, password)

	if tracking {
		m.mu.Lock()
		publish = nil
		if gen == m.generation && m.state == Authenticating {
			publish = m.transition(Anonymous)
		}
		m.mu.Unlock()
		if publish != nil {
			publish()
		}
	}

	if err != nil {
		return User{}, err
	}
	return userFromWire(created), nil
}

// Logout drops the session, tells the server (best effort) and, if navigate is set,
// sends the user to the login view. Calling it without a session does nothing.
func (m *Manager) Logout(ctx context.Context, navigate bool) {
	m.mu.Lock()
	if m.state == Anonymous && m.token == "" {
		m.mu.Unlock()
		return
	}
	m.clearLocked()
	publish := m.transition(Anonymous)
	m.mu.Unlock()
	publish()

	if err := m.api.Logout(ctx); err != nil {
		m.logger.Warn("Server logout failed, local session is cleared anyway", "error", err)
	}

	if navigate && m.navigator != nil {
		m.navigator.Navigate(guard.LoginPath)
	}
}

// VerifyOnLoad resumes a session from the cookie jar.
// Any failure leaves the manager Anonymous and is not reported.
func (m *Manager) VerifyOnLoad(ctx context.Context) bool {
	m.mu.Lock()
	if m.state != Anonymous {
		ok := m.state == Authenticated
		m.mu.Unlock()
		return ok
	}
	gen := m.generation
	publish := m.transition(Authenticating)
	m.mu.Unlock()
	publish()

	s, err := m.api.Verify(ctx)
	var u User
	var expiresAt time.Time
	if err == nil {
		u, expiresAt, err = m.sessionFrom(s)
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return false
	}
	if err != nil {
		publish = m.transition(Anonymous)
		m.mu.Unlock()
		publish()
		m.logger.Debug("No session to resume", "error", err)
		return false
	}
	publish = m.establishLocked(u, s.Token, expiresAt)
	m.mu.Unlock()
	publish()

	m.logger.Info("Session resumed", "user_id", u.ID)
	return true
}

// Refresh makes exactly one reissue call for the current session, even if the
// token looks expired locally: the server decides. Concurrent calls share one
// network request. On failure the session is left as is for the caller to decide.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	gen := m.generation
	m.mu.Unlock()
	if token == "" {
		return apperrors.ErrNoSession
	}

	// One flight per session: a caller never joins a refresh started for a session it does not hold.
	// The flight outlives the caller that started it, the api client bounds it with its own timeout.
	flight := context.WithoutCancel(ctx)
	_, err, _ := m.refreshes.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return nil, m.refresh(flight, token, gen)
	})
	return err
}

func (m *Manager) refresh(ctx context.Context, token string, gen uint64) error {
	if expired, err := tokencodec.Expired(token, m.clock()); err == nil && expired {
		m.logger.Debug("Token expired locally, asking server to reissue anyway")
	}

	s, err := m.api.Refresh(ctx)
	if err != nil {
		return err
	}
	u, expiresAt, err := m.sessionFrom(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if gen != m.generation {
		// Logged out or logged in as someone else meanwhile
		m.mu.Unlock()
		return apperrors.ErrNoSession
	}
	publish := m.establishLocked(u, s.Token, expiresAt)
	m.mu.Unlock()
	publish()

	m.logger.Debug("Token refreshed", "expires_at", expiresAt)
	return nil
}

// onTimer runs the scheduled refresh. It never re-arms by itself,
// only a successful refresh (a new Authenticated transition) does.
func (m *Manager) onTimer(seq uint64) {
	m.mu.Lock()
	current := m.scheduler.take(seq)
	m.mu.Unlock()
	if !current {
		return
	}

	if err := m.Refresh(context.Background()); err != nil {
		m.logger.Info("Scheduled refresh failed", "error", err)
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

func (m *Manager) CurrentUser() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated || m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

// HasRole reports whether the user has role or a higher one
func (m *Manager) HasRole(role models.Role) bool {
	return access.Satisfies(m.Principal(), access.Requirement{Authenticated: true, MinRole: role})
}

// Principal of the session, nil unless authenticated
func (m *Manager) Principal() *access.Principal {
	u, ok := m.CurrentUser()
	if !ok {
		return nil
	}
	return &access.Principal{ID: u.ID, Role: u.Role}
}

// Token of the current session. Kept in memory only.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// RefreshArmed reports whether a refresh timer is pending
func (m *Manager) RefreshArmed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduler.armed()
}

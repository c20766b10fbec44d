package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/savoria-app/storefront-client/internal/notifications"
	"github.com/savoria-app/storefront-client/internal/profile"
	"github.com/savoria-app/storefront-client/pkg/config"
	"github.com/savoria-app/storefront-client/pkg/logger"
	"github.com/savoria-app/storefront-client/pkg/validate"
)

// State tracks where the session is in its lifecycle. The only transitions
// are Bootstrapping to Authenticated or Guest, Guest to Authenticated via
// sign-in/sign-up, and Authenticated to Guest via sign-out or a detected 401.
type State string

const (
	StateBootstrapping State = "bootstrapping"
	StateAuthenticated State = "authenticated"
	StateGuest         State = "guest"
)

const pushRegisterTimeout = 10 * time.Second

type tokenStore interface {
	Load(ctx context.Context)
	Current() string
	Set(ctx context.Context, token string)
	Clear(ctx context.Context)
}

type authPoster interface {
	Post(ctx context.Context, path string, body, out any) error
}

type profileClient interface {
	Me(ctx context.Context) (*profile.User, error)
}

type pushRegistrar interface {
	RegisterDevice(ctx context.Context, input notifications.RegisterDeviceInput) error
}

// Manager owns the authentication lifecycle: bootstrap from the persisted
// token, sign-in/sign-up/sign-out, and the locally held user record.
type Manager struct {
	api      authPoster
	tokens   tokenStore
	profiles profileClient
	push     pushRegistrar
	pushCfg  config.PushConfig
	deviceID string
	logg     *logger.Logger

	mu    sync.RWMutex
	state State
	user  *profile.User
}

// Params bundles the manager's dependencies. Push is optional.
type Params struct {
	API        authPoster
	Tokens     tokenStore
	Profiles   profileClient
	Push       pushRegistrar
	PushConfig config.PushConfig
	Logger     *logger.Logger
}

func NewManager(params Params) (*Manager, error) {
	if params.API == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile client is required")
	}
	return &Manager{
		api:      params.API,
		tokens:   params.Tokens,
		profiles: params.Profiles,
		push:     params.Push,
		pushCfg:  params.PushConfig,
		deviceID: uuid.NewString(),
		logg:     params.Logger,
		state:    StateBootstrapping,
	}, nil
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated is true only while a token is held. A 401 handled by the
// request pipeline clears the token store without notifying the manager, so
// this check consults the store on every call.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()
	return state == StateAuthenticated && m.tokens.Current() != ""
}

// CurrentUser returns a copy of the locally held profile, or nil for guests.
func (m *Manager) CurrentUser() *profile.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	copied := *m.user
	return &copied
}

// Bootstrap restores the persisted token and validates it against the whoami
// endpoint. Any failure discards the token and resolves the session as Guest;
// a stored token alone proves nothing about server-side validity.
func (m *Manager) Bootstrap(ctx context.Context) State {
	m.tokens.Load(ctx)

	token := m.tokens.Current()
	if token == "" {
		return m.resolveGuest(ctx, false)
	}

	if tokenExpired(token, time.Now()) {
		if m.logg != nil {
			m.logg.Info(ctx, "stored token expired, skipping validation")
		}
		return m.resolveGuest(ctx, true)
	}

	user, err := m.profiles.Me(ctx)
	if err != nil {
		if m.logg != nil {
			m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "token validation failed, resolving as guest")
		}
		return m.resolveGuest(ctx, true)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = user
	m.mu.Unlock()

	if m.logg != nil {
		m.logg.Info(m.logg.WithUserID(ctx, user.ID.String()), "session restored")
	}
	return StateAuthenticated
}

// Credentials is the sign-in payload.
type Credentials struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

// Registration is the sign-up payload. Name and email are optional.
type Registration struct {
	PhoneNumber     string `json:"phoneNumber" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=Password"`
	Name            string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
}

// authPayload mirrors the login/signup response shape.
type authPayload struct {
	Token       string    `json:"token"`
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
}

// SignIn exchanges credentials for a token and atomically replaces the
// session. On failure the prior session state is left untouched.
func (m *Manager) SignIn(ctx context.Context, creds Credentials) (*profile.User, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, err
	}
	return m.authenticate(ctx, "/auth/login", creds)
}

// SignUp creates an account; same contract as SignIn.
func (m *Manager) SignUp(ctx context.Context, reg Registration) (*profile.User, error) {
	if err := validate.Struct(reg); err != nil {
		return nil, err
	}
	return m.authenticate(ctx, "/auth/signup", reg)
}

func (m *Manager) authenticate(ctx context.Context, path string, body any) (*profile.User, error) {
	var payload authPayload
	if err := m.api.Post(ctx, path, body, &payload); err != nil {
		return nil, err
	}

	user := &profile.User{
		ID:          payload.ID,
		Name:        payload.Name,
		PhoneNumber: payload.PhoneNumber,
		Email:       payload.Email,
		Role:        payload.Role,
	}

	m.tokens.Set(ctx, payload.Token)
	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = user
	m.mu.Unlock()

	if m.logg != nil {
		m.logg.Info(m.logg.WithUserID(ctx, user.ID.String()), "signed in")
	}

	m.registerPush(ctx)

	copied := *user
	return &copied, nil
}

// SignOut clears the token and resets to Guest unconditionally.
func (m *Manager) SignOut(ctx context.Context) {
	m.resolveGuest(ctx, true)
	if m.logg != nil {
		m.logg.Info(ctx, "signed out")
	}
}

// SetUser replaces the locally held profile after an edit; no network call.
func (m *Manager) SetUser(user *profile.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user == nil {
		m.user = nil
		return
	}
	copied := *user
	m.user = &copied
}

func (m *Manager) resolveGuest(ctx context.Context, clearToken bool) State {
	if clearToken {
		m.tokens.Clear(ctx)
	}
	m.mu.Lock()
	m.state = StateGuest
	m.user = nil
	m.mu.Unlock()
	return StateGuest
}

// registerPush enrolls this device for push delivery after a successful
// sign-in. It runs detached: registration failure never reaches the caller.
func (m *Manager) registerPush(ctx context.Context) {
	if m.push == nil || !m.pushCfg.Enabled {
		return
	}
	input := notifications.RegisterDeviceInput{
		DeviceToken: m.deviceID,
		Platform:    m.pushCfg.Platform,
	}
	go func() {
		detached, cancel := context.WithTimeout(context.Background(), pushRegisterTimeout)
		defer cancel()
		if err := m.push.RegisterDevice(detached, input); err != nil && m.logg != nil {
			m.logg.Error(detached, "push registration failed", err)
		}
	}()
}

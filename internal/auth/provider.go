package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"infosec-dashboard/internal/model"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// SessionProvider exposes the current credential state and its changes.
type SessionProvider interface {
	CurrentSession() model.Session
	Subscribe(fn func(model.Session)) (cancel func())
}

// Provider owns the session issued by the identity provider.
type Provider struct {
	client      *IdentityClient
	refreshSkew time.Duration
	logger      *zap.Logger
	now         func() time.Time

	// notifyMu orders session changes together with their notifications,
	// so subscribers observe changes in the order they were applied.
	notifyMu sync.Mutex

	mu         sync.RWMutex
	current    model.Session
	generation uint64
	subs       map[int]func(model.Session)
	nextSub    int

	refreshGroup singleflight.Group
}

func NewProvider(client *IdentityClient, refreshSkew time.Duration, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		client:      client,
		refreshSkew: refreshSkew,
		logger:      logger,
		now:         time.Now,
		subs:        make(map[int]func(model.Session)),
	}
}

func (p *Provider) CurrentSession() model.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Subscribe registers fn for every session change. fn runs synchronously on
// the goroutine that changed the session, one change at a time, and must not
// change the session itself.
func (p *Provider) Subscribe(fn func(model.Session)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return model.Session{}, ErrInvalidInput
	}
	issued, err := p.client.SignIn(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}
	session := toSession(issued, p.now())
	p.set(session)
	p.logger.Info("signed in", zap.String("user_id", session.User.ID))
	return session, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password, confirm string) (model.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return model.Session{}, ErrInvalidInput
	}
	if password != confirm {
		return model.Session{}, ErrPasswordMismatch
	}
	issued, err := p.client.SignUp(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}
	session := toSession(issued, p.now())
	p.set(session)
	p.logger.Info("signed up", zap.String("user_id", session.User.ID))
	return session, nil
}

// SignOut always drops the local session; the remote revoke error is returned
// for display only.
func (p *Provider) SignOut(ctx context.Context) error {
	current := p.CurrentSession()
	p.set(model.Anonymous())
	if current.RefreshToken == "" {
		return nil
	}
	if err := p.client.SignOut(ctx, current.RefreshToken); err != nil {
		p.logger.Warn("remote sign out failed", zap.Error(err))
		return fmt.Errorf("sign out failed: %w", err)
	}
	return nil
}

// Refresh exchanges the refresh token for a new access token. Concurrent
// callers share one request. A result that arrives after the session was
// replaced or signed out is discarded.
func (p *Provider) Refresh(ctx context.Context) (model.Session, error) {
	v, err, _ := p.refreshGroup.Do("refresh", func() (any, error) {
		current, gen := p.snapshot()
		if !current.Authenticated || current.RefreshToken == "" {
			return model.Session{}, ErrSessionExpired
		}
		issued, err := p.client.Refresh(ctx, current.RefreshToken)
		if err != nil {
			if errors.Is(err, ErrSessionExpired) && p.setIf(gen, model.Anonymous()) {
				p.logger.Info("session lost on refresh", zap.Error(err))
			}
			return model.Session{}, err
		}
		session := toSession(issued, p.now())
		if issued.User == nil {
			session.User = current.User
		}
		if session.RefreshToken == "" {
			session.RefreshToken = current.RefreshToken
		}
		if !p.setIf(gen, session) {
			latest := p.CurrentSession()
			p.logger.Info("discarding refresh result, session changed")
			if !latest.Authenticated {
				return model.Session{}, ErrSessionExpired
			}
			return latest, nil
		}
		return session, nil
	})
	if err != nil {
		return model.Session{}, err
	}
	return v.(model.Session), nil
}

// EnsureFresh returns the current session, refreshing first when the access
// token is about to expire.
func (p *Provider) EnsureFresh(ctx context.Context) (model.Session, error) {
	current := p.CurrentSession()
	if !current.Authenticated || current.ExpiresAt.IsZero() {
		return current, nil
	}
	if p.now().Add(p.refreshSkew).Before(current.ExpiresAt) {
		return current, nil
	}
	return p.Refresh(ctx)
}

func (p *Provider) snapshot() (model.Session, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.generation
}

func (p *Provider) set(session model.Session) {
	p.apply(session, func(uint64) bool { return true })
}

// setIf applies session only when no other change happened since gen.
func (p *Provider) setIf(gen uint64, session model.Session) bool {
	return p.apply(session, func(current uint64) bool { return current == gen })
}

func (p *Provider) apply(session model.Session, ok func(uint64) bool) bool {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if !ok(p.generation) {
		p.mu.Unlock()
		return false
	}
	p.generation++
	p.current = session
	subs := make([]func(model.Session), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
	return true
}

// BindTokenStore keeps store in step with every session change of provider.
func BindTokenStore(provider SessionProvider, store *TokenStore, logger *zap.Logger) func() {
	if logger == nil {
		logger = zap.NewNop()
	}
	return provider.Subscribe(func(s model.Session) {
		if err := store.Persist(context.Background(), s.Token, s.Authenticated); err != nil {
			logger.Error("token store update failed", zap.Error(err))
		}
	})
}

// Credentials resolves the bearer token for outbound calls.
type Credentials struct {
	provider *Provider
	store    *TokenStore
	logger   *zap.Logger
}

func NewCredentials(provider *Provider, store *TokenStore, logger *zap.Logger) *Credentials {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Credentials{provider: provider, store: store, logger: logger}
}

// Token returns "" with a nil error when no credential is available.
func (c *Credentials) Token(ctx context.Context) (string, error) {
	session, err := c.provider.EnsureFresh(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return "", nil
		}
		c.logger.Warn("token refresh failed, using current token", zap.Error(err))
		session = c.provider.CurrentSession()
	}
	token, ok, err := c.store.Read(ctx, session)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

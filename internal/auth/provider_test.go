package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infosec-dashboard/internal/model"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		Subject:   "user-1",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type fakeIdentity struct {
	accessToken    string
	refreshedToken string
	refreshes      atomic.Int32
	signOuts       atomic.Int32
	rejectToken    atomic.Bool

	// tokenGate, when set, holds /token responses until it is closed.
	tokenGate    chan struct{}
	tokenStarted chan struct{}
	startOnce    sync.Once
}

func (f *fakeIdentity) handler() http.Handler {
	mux := http.NewServeMux()
	session := func(token string) map[string]any {
		return map[string]any{
			"accessToken":          token,
			"accessTokenExpiresIn": 900,
			"refreshToken":         "refresh-1",
			"user": map[string]any{
				"id":          "user-1",
				"displayName": "Priya",
				"email":       "priya@example.com",
			},
		}
	}
	mux.HandleFunc("/signin/email-password", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":401,"message":"Incorrect email or password","error":"invalid-email-password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"session": session(f.accessToken), "mfa": nil})
	})
	mux.HandleFunc("/signup/email-password", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"session": nil})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		if f.rejectToken.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":401,"message":"Invalid or expired refresh token"}`))
			return
		}
		if f.tokenGate != nil {
			f.startOnce.Do(func() { close(f.tokenStarted) })
			<-f.tokenGate
		} else {
			time.Sleep(20 * time.Millisecond)
		}
		token := f.refreshedToken
		if token == "" {
			token = f.accessToken
		}
		_ = json.NewEncoder(w).Encode(session(token))
	})
	mux.HandleFunc("/signout", func(w http.ResponseWriter, r *http.Request) {
		f.signOuts.Add(1)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

func newTestProvider(t *testing.T, fake *fakeIdentity) (*Provider, *TokenStore, *MemoryBackend) {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	provider := NewProvider(NewIdentityClient(srv.URL, srv.Client()), time.Minute, nil)
	backend := NewMemoryBackend()
	store := NewTokenStore(backend, testKey)
	cancel := BindTokenStore(provider, store, nil)
	t.Cleanup(cancel)
	return provider, store, backend
}

func TestSignInPersistsAndSignOutDiscards(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	fake := &fakeIdentity{accessToken: signedToken(t, exp)}
	provider, _, backend := newTestProvider(t, fake)
	ctx := context.Background()

	session, err := provider.SignIn(ctx, " Priya@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.True(t, session.Authenticated)
	assert.Equal(t, "Priya", session.User.Name())
	assert.True(t, session.ExpiresAt.Equal(exp))

	stored, ok, _ := backend.Get(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, fake.accessToken, stored)

	require.NoError(t, provider.SignOut(ctx))
	assert.False(t, provider.CurrentSession().Authenticated)
	_, ok, _ = backend.Get(ctx, testKey)
	assert.False(t, ok)
	assert.Equal(t, int32(1), fake.signOuts.Load())
}

func TestSignInRejectsBadPassword(t *testing.T) {
	fake := &fakeIdentity{accessToken: signedToken(t, time.Now().Add(time.Hour))}
	provider, _, _ := newTestProvider(t, fake)

	_, err := provider.SignIn(context.Background(), "priya@example.com", "nope")
	require.ErrorIs(t, err, ErrInvalidCredential)
	assert.False(t, provider.CurrentSession().Authenticated)
}

func TestSignUpValidation(t *testing.T) {
	fake := &fakeIdentity{}
	provider, _, _ := newTestProvider(t, fake)
	ctx := context.Background()

	_, err := provider.SignUp(ctx, "a@b.c", "password1", "password2")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = provider.SignUp(ctx, "a@b.c", "password1", "password1")
	require.ErrorIs(t, err, ErrVerificationRequired)
}

func TestEnsureFreshCollapsesConcurrentRefresh(t *testing.T) {
	fake := &fakeIdentity{
		accessToken:    signedToken(t, time.Now().Add(10*time.Second)),
		refreshedToken: signedToken(t, time.Now().Add(time.Hour)),
	}
	provider, _, _ := newTestProvider(t, fake)
	ctx := context.Background()

	_, err := provider.SignIn(ctx, "priya@example.com", "correct-horse")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := provider.EnsureFresh(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fake.refreshes.Load())
	assert.Equal(t, fake.refreshedToken, provider.CurrentSession().Token)
}

func TestRefreshRejectedDropsSession(t *testing.T) {
	fake := &fakeIdentity{accessToken: signedToken(t, time.Now().Add(5*time.Second))}
	provider, store, backend := newTestProvider(t, fake)
	ctx := context.Background()

	_, err := provider.SignIn(ctx, "priya@example.com", "correct-horse")
	require.NoError(t, err)
	fake.rejectToken.Store(true)

	creds := NewCredentials(provider, store, nil)
	token, err := creds.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, provider.CurrentSession().Authenticated)
	_, ok, _ := backend.Get(ctx, testKey)
	assert.False(t, ok)
}

func TestCredentialsReturnsLiveToken(t *testing.T) {
	fake := &fakeIdentity{accessToken: signedToken(t, time.Now().Add(time.Hour))}
	provider, store, _ := newTestProvider(t, fake)
	creds := NewCredentials(provider, store, nil)
	ctx := context.Background()

	token, err := creds.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = provider.SignIn(ctx, "priya@example.com", "correct-horse")
	require.NoError(t, err)
	token, err = creds.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, fake.accessToken, token)
	assert.Equal(t, int32(0), fake.refreshes.Load())
}

func TestSubscribeCancel(t *testing.T) {
	provider := NewProvider(NewIdentityClient("http://unused", nil), time.Minute, nil)
	var seen []model.Session
	cancel := provider.Subscribe(func(s model.Session) { seen = append(seen, s) })

	provider.set(model.Session{Token: "t", Authenticated: true})
	cancel()
	provider.set(model.Anonymous())
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Authenticated)
}

func TestRefreshAfterSignOutIsDiscarded(t *testing.T) {
	fake := &fakeIdentity{
		accessToken:    signedToken(t, time.Now().Add(5*time.Second)),
		refreshedToken: "tok-new",
		tokenGate:      make(chan struct{}),
		tokenStarted:   make(chan struct{}),
	}
	provider, _, backend := newTestProvider(t, fake)
	ctx := context.Background()

	_, err := provider.SignIn(ctx, "priya@example.com", "correct-horse")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := provider.Refresh(ctx)
		done <- err
	}()
	<-fake.tokenStarted

	require.NoError(t, provider.SignOut(ctx))
	close(fake.tokenGate)
	require.ErrorIs(t, <-done, ErrSessionExpired)

	assert.False(t, provider.CurrentSession().Authenticated)
	_, ok, _ := backend.Get(ctx, testKey)
	assert.False(t, ok)
}

func TestRefreshAfterNewSignInKeepsNewSession(t *testing.T) {
	fake := &fakeIdentity{
		accessToken:    signedToken(t, time.Now().Add(5*time.Second)),
		refreshedToken: "tok-new",
		tokenGate:      make(chan struct{}),
		tokenStarted:   make(chan struct{}),
	}
	provider, _, backend := newTestProvider(t, fake)
	ctx := context.Background()

	_, err := provider.SignIn(ctx, "priya@example.com", "correct-horse")
	require.NoError(t, err)

	done := make(chan model.Session, 1)
	go func() {
		s, _ := provider.Refresh(ctx)
		done <- s
	}()
	<-fake.tokenStarted

	signedIn, err := provider.SignIn(ctx, "priya@example.com", "correct-horse")
	require.NoError(t, err)
	close(fake.tokenGate)

	got := <-done
	assert.Equal(t, signedIn.Token, got.Token)
	assert.Equal(t, fake.accessToken, provider.CurrentSession().Token)
	stored, ok, _ := backend.Get(ctx, testKey)
	require.True(t, ok)
	assert.Equal(t, fake.accessToken, stored)
}

func TestSubscribersSeeChangesInOrder(t *testing.T) {
	provider := NewProvider(NewIdentityClient("http://unused", nil), time.Minute, nil)
	var (
		mu   sync.Mutex
		last model.Session
	)
	cancel := provider.Subscribe(func(s model.Session) {
		mu.Lock()
		last = s
		mu.Unlock()
	})
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				provider.set(model.Anonymous())
				return
			}
			provider.set(model.Session{Token: "t", Authenticated: true})
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, provider.CurrentSession(), last)
}

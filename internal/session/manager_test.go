package session

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/pizzeria-pos/waiter/internal/common/apperrors"
	"github.com/pizzeria-pos/waiter/internal/common/httpclient"
	"github.com/pizzeria-pos/waiter/internal/notice"
	"github.com/pizzeria-pos/waiter/internal/storage"
	"github.com/pizzeria-pos/waiter/internal/test/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anaRecord = `{"id":"1","name":"Ana","email":"a@x.com","token":"tok123"}`

type fakeAPI struct {
	headers http.Header
	resp    []byte
	err     error
	calls   int
	onPost  func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{headers: http.Header{}}
}

func (f *fakeAPI) Post(ctx context.Context, resourcePath string, data []byte) ([]byte, error) {
	f.calls++
	if f.onPost != nil {
		f.onPost()
	}
	return f.resp, f.err
}

func (f *fakeAPI) SetDefaultHeader(key, value string) { f.headers.Set(key, value) }
func (f *fakeAPI) DeleteDefaultHeader(key string)     { f.headers.Del(key) }
func (f *fakeAPI) DefaultHeader(key string) string    { return f.headers.Get(key) }

type recordingNotifier struct {
	notices []notice.Notice
}

func (r *recordingNotifier) Notify(n notice.Notice) {
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) failures() []notice.Notice {
	var out []notice.Notice
	for _, n := range r.notices {
		if n.Level == notice.LevelFailure {
			out = append(out, n)
		}
	}
	return out
}

type testConfig struct{ url string }

func (c testConfig) GetServerURL() string             { return c.url }
func (c testConfig) GetRequestTimeout() time.Duration { return 5 * time.Second }

func TestRestoreStoredSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, StorageKey, anaRecord))
	api := newFakeAPI()
	m := NewManager(store, api, nil)

	assert.True(t, m.Loading())
	assert.Equal(t, StateInitializing, m.State())

	s, err := m.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Ana", s.Name)

	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.Loading())
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "Bearer tok123", api.DefaultHeader(httpclient.HeaderAuthorization))
	assert.Equal(t, 0, api.calls, "restore must not call the API")
	assert.Equal(t, "tok123", m.User().Token)
}

func TestRestoreWithoutUsableRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  string
		failGet bool
	}{
		{name: "missing", record: ""},
		{name: "empty object", record: "{}"},
		{name: "not json", record: "not json"},
		{name: "partial record", record: `{"id":"1","name":"Ana"}`},
		{name: "empty name", record: `{"id":"1","name":"","email":"a@x.com","token":"tok123"}`},
		{name: "unreadable store", record: anaRecord, failGet: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			if tt.record != "" {
				require.NoError(t, store.Set(ctx, StorageKey, tt.record))
			}
			store.FailGet = tt.failGet
			api := newFakeAPI()
			api.SetDefaultHeader("X-Untouched", "yes")

			s, err := NewManager(store, api, nil).Restore(ctx)
			require.NoError(t, err)
			assert.Nil(t, s)

			m := NewManager(store, api, nil)
			_, _ = m.Restore(ctx)
			assert.False(t, m.IsAuthenticated())
			assert.False(t, m.Loading())
			assert.Equal(t, StateUnauthenticated, m.State())
			assert.Empty(t, api.DefaultHeader(httpclient.HeaderAuthorization))
			assert.Equal(t, "yes", api.DefaultHeader("X-Untouched"))
			assert.Len(t, api.headers, 1)
		})
	}
}

func TestRestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := NewManager(store, newFakeAPI(), nil)

	_, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, m.Loading())

	require.NoError(t, store.Set(ctx, StorageKey, anaRecord))
	_, err = m.Restore(ctx)
	assert.ErrorIs(t, err, ErrAlreadyRestored)
	assert.False(t, m.IsAuthenticated())
	assert.False(t, m.Loading())
}

func TestSignInPersistsAcrossProcesses(t *testing.T) {
	ctx := context.Background()
	srv := fakeapi.New(t)
	path := filepath.Join(t.TempDir(), "storage.yaml")

	client := httpclient.NewClient(testConfig{url: srv.URL})
	notifier := &recordingNotifier{}
	m := NewManager(storage.NewFileStore(path), client, notifier)
	_, err := m.Restore(ctx)
	require.NoError(t, err)
	require.False(t, m.IsAuthenticated())
	require.False(t, m.LoadingAuth())

	s, err := m.SignIn(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, &Session{ID: "1", Name: "Ana", Email: "a@x.com", Token: "tok123"}, s)
	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.LoadingAuth())
	assert.Equal(t, "Bearer tok123", client.DefaultHeader(httpclient.HeaderAuthorization))
	assert.Empty(t, notifier.failures())
	assert.Equal(t, []string{"POST /session"}, srv.Requests())

	// a fresh process restores what sign in stored
	next := httpclient.NewClient(testConfig{url: srv.URL})
	restored := NewManager(storage.NewFileStore(path), next, nil)
	_, err = restored.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, "Bearer tok123", next.DefaultHeader(httpclient.HeaderAuthorization))
}

func TestSignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	srv := fakeapi.New(t)
	store := storage.NewMemoryStore()
	client := httpclient.NewClient(testConfig{url: srv.URL})
	notifier := &recordingNotifier{}
	m := NewManager(store, client, notifier)
	_, _ = m.Restore(ctx)

	s, err := m.SignIn(ctx, "a@x.com", "wrong")
	assert.Nil(t, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrSignInFailed)
	assert.Equal(t, apperrors.KindInvalidCredentials, apperrors.KindOf(err))

	assert.False(t, m.IsAuthenticated())
	assert.False(t, m.LoadingAuth())
	assert.Equal(t, 0, store.Writes, "store must be untouched")
	assert.Empty(t, client.DefaultHeader(httpclient.HeaderAuthorization))

	failures := notifier.failures()
	require.Len(t, failures, 1)
	assert.Equal(t, notice.MsgSomethingWentWrong, failures[0].Message)
	assert.Equal(t, OpSignIn, failures[0].Op)
}

func TestSignInFailures(t *testing.T) {
	tests := []struct {
		name     string
		resp     []byte
		err      error
		failSet  bool
		wantErr  error
		wantKind apperrors.Kind
	}{
		{
			name:     "network error",
			err:      errors.New("connection refused"),
			wantErr:  ErrNetwork,
			wantKind: apperrors.KindNetwork,
		},
		{
			name:     "server error",
			err:      &httpclient.HTTPError{StatusCode: http.StatusInternalServerError, Message: "boom"},
			wantErr:  ErrNetwork,
			wantKind: apperrors.KindNetwork,
		},
		{
			name:     "forbidden",
			err:      &httpclient.HTTPError{StatusCode: http.StatusForbidden, Message: "no"},
			wantErr:  ErrInvalidCredentials,
			wantKind: apperrors.KindInvalidCredentials,
		},
		{
			name:     "incomplete response",
			resp:     []byte(`{"id":"1","name":"Ana"}`),
			wantErr:  ErrBadResponse,
			wantKind: apperrors.KindBadResponse,
		},
		{
			name:     "storage failure",
			resp:     []byte(anaRecord),
			failSet:  true,
			wantErr:  ErrPersistFailed,
			wantKind: apperrors.KindStorage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			store.FailSet = tt.failSet
			api := newFakeAPI()
			api.resp, api.err = tt.resp, tt.err
			notifier := &recordingNotifier{}
			m := NewManager(store, api, notifier)
			_, _ = m.Restore(ctx)

			_, err := m.SignIn(ctx, "a@x.com", "secret")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			assert.False(t, m.IsAuthenticated())
			assert.False(t, m.LoadingAuth())
			assert.Equal(t, StateUnauthenticated, m.State())
			assert.Empty(t, api.DefaultHeader(httpclient.HeaderAuthorization))
			assert.Equal(t, 0, store.Writes)
			assert.Len(t, notifier.failures(), 1)
		})
	}
}

func TestSignInKeepsExistingSessionOnFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, StorageKey, anaRecord))
	api := newFakeAPI()
	m := NewManager(store, api, nil)
	_, _ = m.Restore(ctx)

	api.err = errors.New("timeout")
	_, err := m.SignIn(ctx, "b@x.com", "pw")
	require.Error(t, err)
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "Ana", m.User().Name)
	assert.Equal(t, "Bearer tok123", api.DefaultHeader(httpclient.HeaderAuthorization))
}

func TestSignInFlagsDuringCall(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.resp = []byte(anaRecord)
	m := NewManager(storage.NewMemoryStore(), api, nil)
	_, _ = m.Restore(ctx)

	var during State
	var loadingAuth bool
	api.onPost = func() {
		during = m.State()
		loadingAuth = m.LoadingAuth()
	}

	_, err := m.SignIn(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	assert.True(t, loadingAuth)
	assert.Equal(t, StateAuthenticating, during)
	assert.False(t, m.LoadingAuth())
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestSignInAbandoned(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := storage.NewMemoryStore()
	api := newFakeAPI()
	api.resp = []byte(anaRecord)
	api.onPost = cancel
	notifier := &recordingNotifier{}
	m := NewManager(store, api, notifier)
	_, _ = m.Restore(context.Background())

	_, err := m.SignIn(ctx, "a@x.com", "secret")
	assert.ErrorIs(t, err, ErrAbandoned)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, m.IsAuthenticated())
	assert.False(t, m.LoadingAuth())
	assert.Equal(t, 0, store.Writes)
	assert.Empty(t, notifier.notices)
}

func TestSignInDeadlineIsAFailure(t *testing.T) {
	tests := []struct {
		name string
		resp []byte
		err  error
	}{
		{name: "request timed out", err: context.DeadlineExceeded},
		{name: "response after deadline", resp: []byte(anaRecord)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			store := storage.NewMemoryStore()
			api := newFakeAPI()
			api.resp = tt.resp
			api.err = tt.err
			api.onPost = func() { <-ctx.Done() }
			notifier := &recordingNotifier{}
			m := NewManager(store, api, notifier)
			_, _ = m.Restore(context.Background())

			_, err := m.SignIn(ctx, "a@x.com", "secret")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNetwork)
			assert.NotErrorIs(t, err, ErrAbandoned)
			assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
			assert.False(t, m.IsAuthenticated())
			assert.False(t, m.LoadingAuth())
			assert.Equal(t, 0, store.Writes)
			assert.Empty(t, api.DefaultHeader(httpclient.HeaderAuthorization))

			failures := notifier.failures()
			require.Len(t, failures, 1)
			assert.Equal(t, notice.MsgSomethingWentWrong, failures[0].Message)
		})
	}
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.yaml")
	store := storage.NewFileStore(path)
	require.NoError(t, store.Set(ctx, StorageKey, anaRecord))
	require.NoError(t, store.Set(ctx, "@waiter/order", `{"order_id":"o-1"}`))

	api := newFakeAPI()
	m := NewManager(store, api, nil)
	_, _ = m.Restore(ctx)
	require.True(t, m.IsAuthenticated())

	require.NoError(t, m.SignOut(ctx))
	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.User())
	assert.Empty(t, api.DefaultHeader(httpclient.HeaderAuthorization))

	// the whole store is wiped, not only the session key
	v, err := store.Get(ctx, "@waiter/order")
	require.NoError(t, err)
	assert.Empty(t, v)

	fresh := NewManager(storage.NewFileStore(path), newFakeAPI(), nil)
	_, _ = fresh.Restore(ctx)
	assert.False(t, fresh.IsAuthenticated())
}

func TestSignOutStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, StorageKey, anaRecord))
	api := newFakeAPI()
	notifier := &recordingNotifier{}
	m := NewManager(store, api, notifier)
	_, _ = m.Restore(ctx)

	store.FailClear = true
	err := m.SignOut(ctx)
	assert.ErrorIs(t, err, ErrSignOutFailed)
	assert.Equal(t, apperrors.KindStorage, apperrors.KindOf(err))

	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, api.DefaultHeader(httpclient.HeaderAuthorization))
	failures := notifier.failures()
	require.Len(t, failures, 1)
	assert.Equal(t, notice.MsgSignOutFailed, failures[0].Message)
}

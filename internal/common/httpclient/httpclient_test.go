package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pizzeria-pos/waiter/internal/common/logtrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	url     string
	timeout time.Duration
}

func (c testConfig) GetServerURL() string             { return c.url }
func (c testConfig) GetRequestTimeout() time.Duration { return c.timeout }

type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

func newRecordingServer(t *testing.T, status int, response string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.header = r.Header.Clone()
		rec.body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestDefaultHeaders(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{"ok":true}`)
	client := NewClient(testConfig{url: srv.URL})

	_, err := client.Get(context.Background(), "categoryInfo", nil)
	require.NoError(t, err)
	assert.Empty(t, rec.header.Get(HeaderAuthorization))

	client.SetDefaultHeader(HeaderAuthorization, BearerValue("tok123"))
	assert.Equal(t, "Bearer tok123", client.DefaultHeader(HeaderAuthorization))

	_, err = client.Get(context.Background(), "categoryInfo", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", rec.header.Get(HeaderAuthorization))

	client.DeleteDefaultHeader(HeaderAuthorization)
	_, err = client.Get(context.Background(), "categoryInfo", nil)
	require.NoError(t, err)
	assert.Empty(t, rec.header.Get(HeaderAuthorization))
}

func TestRequestShape(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{"id":"o-1"}`)
	client := NewClient(testConfig{url: srv.URL + "/"})

	body, err := client.Post(context.Background(), "/order", []byte(`{"table":4}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"o-1"}`, string(body))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/order", rec.path)
	assert.Equal(t, `{"table":4}`, rec.body)
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
	assert.NotEmpty(t, rec.header.Get(HeaderRequestID))

	err = client.Delete(context.Background(), "order/delete-Item", map[string]string{"item_id": "i-9"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/order/delete-Item", rec.path)
	assert.Equal(t, "item_id=i-9", rec.query)

	_, err = client.Patch(context.Background(), "order/finished", []byte(`{"order_id":"o-1"}`))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, rec.method)

	ctx := logtrace.WithRequestID(context.Background(), "fixed-id")
	_, err = client.Get(ctx, "categoryInfo", nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", rec.header.Get(HeaderRequestID))
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		message  string
	}{
		{"error field", http.StatusUnauthorized, `{"error":"user/password incorrect"}`, "user/password incorrect"},
		{"message field", http.StatusBadRequest, `{"message":"table required"}`, "table required"},
		{"not found", http.StatusNotFound, ``, "server doesn't implement this endpoint"},
		{"plain body", http.StatusInternalServerError, `boom`, "boom"},
		{"empty body", http.StatusBadGateway, ``, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newRecordingServer(t, tt.status, tt.response)
			client := NewClient(testConfig{url: srv.URL})

			_, err := client.Get(context.Background(), "x", nil)
			require.Error(t, err)
			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.message, httpErr.Message)
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(testConfig{url: srv.URL, timeout: 50 * time.Millisecond})
	_, err := client.Get(context.Background(), "slow", nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDisableCertValidation(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	cfg := testConfig{url: srv.URL, timeout: 5 * time.Second}

	_, err := NewClient(cfg).Get(context.Background(), "categoryInfo", nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))

	body, err := NewClient(cfg, ClientOptions{DisableCertValidation: true}).Get(context.Background(), "categoryInfo", nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

package api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/thinkchat/internal/api"
	"github.com/tOgg1/thinkchat/internal/credentials"
	"github.com/tOgg1/thinkchat/internal/devserver"
	"github.com/tOgg1/thinkchat/internal/logging"
	"github.com/tOgg1/thinkchat/internal/models"
)

type fixture struct {
	store  *devserver.Store
	server *httptest.Server
	creds  *credentials.Memory
	client *api.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := devserver.NewStore()
	require.NoError(t, store.Seed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	server := httptest.NewServer(devserver.New(store).Handler())
	t.Cleanup(server.Close)

	token, err := store.IssueToken(devserver.DemoEmail)
	require.NoError(t, err)
	creds := credentials.NewMemory(token)

	client, err := api.New(api.Config{BaseURL: server.URL, UserAgent: "thinkchat-test"}, creds)
	require.NoError(t, err)
	return &fixture{store: store, server: server, creds: creds, client: client}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.client.Authenticate(ctx, devserver.DemoEmail, devserver.DemoPassword)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = f.client.Authenticate(ctx, devserver.DemoEmail, "wrong")
	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Invalid email or password.", authErr.Message)
}

func TestRequestLogRedactsPassword(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{Level: "off"}) })

	f := newFixture(t)
	_, err := f.client.Authenticate(context.Background(), devserver.DemoEmail, devserver.DemoPassword)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `"email":"parent@example.com"`)
	require.Contains(t, out, `"password":"[REDACTED]"`)
	require.NotContains(t, out, `"password":"password"`)
}

func TestAuthenticateFailureMessages(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "non ok status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: api.MsgNetworkError,
		},
		{
			name: "missing token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{}`))
			},
			want: api.MsgSomethingWrong,
		},
		{
			name: "server error field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"error":"Account locked"}`))
			},
			want: "Account locked",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			client, err := api.New(api.Config{BaseURL: srv.URL}, nil)
			require.NoError(t, err)

			_, err = client.Authenticate(context.Background(), "a@b.c", "pw")
			var authErr *api.AuthError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, tc.want, authErr.Message)
		})
	}
}

func TestAuthenticateSendsParentForm(t *testing.T) {
	formCh := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		formCh <- r.PostForm
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()
	client, err := api.New(api.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	token, err := client.Authenticate(context.Background(), " a@b.c ", "pw")
	require.NoError(t, err)
	require.Equal(t, "abc", token)

	form := <-formCh
	require.Equal(t, "parent", form.Get("type"))
	require.Equal(t, "a@b.c", form.Get("email"))
	require.Equal(t, "pw", form.Get("password"))
}

func TestListChildren(t *testing.T) {
	f := newFixture(t)
	children, err := f.client.ListChildren(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Conversation{
		{ID: "1", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "2", FirstName: "Alan", LastName: "Turing"},
	}, children)
}

func TestListMessagesSortedUTC(t *testing.T) {
	f := newFixture(t)
	// Inserted out of order on purpose.
	_, err := f.store.AddMessage("1", devserver.FromStudent, "early", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	msgs, err := f.client.ListMessages(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	require.True(t, models.IsChronological(msgs))
	require.Equal(t, "early", msgs[0].Text)
	require.Equal(t, time.UTC, msgs[0].CreatedAt.Location())
	require.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), msgs[0].CreatedAt)
	require.Equal(t, models.SenderCounterparty, msgs[0].Sender)
}

func TestPostMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.client.PostMessage(ctx, "2", "on my way")
	require.NoError(t, err)
	require.Positive(t, id)

	msgs, err := f.client.ListMessages(ctx, "2")
	require.NoError(t, err)
	last := msgs[len(msgs)-1]
	require.Equal(t, id, last.ID)
	require.Equal(t, "on my way", last.Text)
	require.Equal(t, models.SenderSelf, last.Sender)
}

func TestPostMessageRejectsEmptyLocally(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	client, err := api.New(api.Config{BaseURL: srv.URL}, credentials.NewMemory("tok"))
	require.NoError(t, err)

	_, err = client.PostMessage(context.Background(), "1", " \n\t")
	require.ErrorIs(t, err, models.ErrEmptyMessage)
	require.Zero(t, hits.Load())
}

func TestMissingCredentialFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	client, err := api.New(api.Config{BaseURL: srv.URL}, credentials.NewMemory(""))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.ListChildren(ctx)
	require.ErrorIs(t, err, api.ErrMissingCredential)
	require.ErrorIs(t, err, credentials.ErrNoToken)
	_, err = client.ListMessages(ctx, "1")
	require.ErrorIs(t, err, api.ErrMissingCredential)
	_, err = client.PostMessage(ctx, "1", "hi")
	require.ErrorIs(t, err, api.ErrMissingCredential)
	require.Zero(t, hits.Load())
}

func TestTransportErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.FailNextPosts(1)
	_, err := f.client.PostMessage(ctx, "1", "hi")
	require.ErrorIs(t, err, api.ErrTransport)
	var te *api.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, http.StatusInternalServerError, te.StatusCode)

	_, err = f.client.ListMessages(ctx, "404")
	require.ErrorIs(t, err, api.ErrTransport)

	require.NoError(t, f.creds.SetToken(ctx, "revoked"))
	_, err = f.client.ListChildren(ctx)
	require.True(t, api.IsUnauthorized(err))
}

func TestNetworkErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := api.New(api.Config{BaseURL: baseURL, Timeout: time.Second}, credentials.NewMemory("tok"))
	require.NoError(t, err)
	_, err = client.ListChildren(context.Background())
	require.ErrorIs(t, err, api.ErrTransport)
	var te *api.TransportError
	require.ErrorAs(t, err, &te)
	require.Zero(t, te.StatusCode)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := api.New(api.Config{BaseURL: "not a url"}, nil)
	require.Error(t, err)
}

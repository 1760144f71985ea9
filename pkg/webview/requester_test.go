package webview_test

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soluchok/tgquery/pkg/accounts"
	"github.com/soluchok/tgquery/pkg/devices"
	"github.com/soluchok/tgquery/pkg/model"
	"github.com/soluchok/tgquery/pkg/webview"
)

type conn struct {
	authorized bool
	url        string
	err        error
	reqs       []model.WebViewRequest
}

func (c *conn) Authorized(context.Context) (bool, error) { return c.authorized, nil }
func (c *conn) SendCode(context.Context, string) (string, error) { return "", nil }
func (c *conn) SignIn(context.Context, string, string, string) error { return nil }
func (c *conn) CheckPassword(context.Context, string) error { return nil }
func (c *conn) Self(context.Context) (model.User, error) { return model.User{}, nil }
func (c *conn) Close() error { return nil }
func (c *conn) RequestWebView(_ context.Context, req model.WebViewRequest) (string, error) {
	c.reqs = append(c.reqs, req)
	return c.url, c.err
}

type dialer struct{ conn *conn }

func (d dialer) Dial(context.Context, string, devices.Profile) (accounts.Conn, error) {
	return d.conn, nil
}

func connected(t *testing.T, c *conn) *accounts.Session {
	t.Helper()

	s := accounts.NewSession("+1111", dialer{conn: c})
	require.NoError(t, s.Connect(context.Background(), devices.Profile{Model: "Pixel 7"}))
	return s
}

func TestValidateBot(t *testing.T) {
	require.NoError(t, webview.ValidateBot("@FirstFisher_bot"))

	for _, bad := range []string{"", "@", "FirstFisher_bot", " @bot"} {
		require.ErrorIs(t, webview.ValidateBot(bad), webview.ErrInvalidBot, bad)
	}
}

func TestValidateURL(t *testing.T) {
	require.NoError(t, webview.ValidateURL("https://example.org/app"))
	require.ErrorIs(t, webview.ValidateURL(""), webview.ErrEmptyURL)
	require.ErrorIs(t, webview.ValidateURL("   "), webview.ErrEmptyURL)
}

func TestRequestView(t *testing.T) {
	c := &conn{authorized: true, url: "https://example.org/#tgWebAppData=x&tgWebAppVersion=7"}
	s := connected(t, c)

	got, err := webview.NewRequester(nil).RequestView(context.Background(), s, "@bot", "https://example.org/app")
	require.NoError(t, err)
	assert.Equal(t, c.url, got)

	require.Len(t, c.reqs, 1)
	assert.Equal(t, model.WebViewRequest{
		Bot:      "@bot",
		URL:      "https://example.org/app",
		Platform: "Android",
	}, c.reqs[0])
}

func TestRequestViewRejected(t *testing.T) {
	c := &conn{authorized: true, err: errors.New("BOT_INVALID")}
	s := connected(t, c)

	_, err := webview.NewRequester(nil).RequestView(context.Background(), s, "@bot", "https://example.org/app")
	require.ErrorIs(t, err, webview.ErrRequest)
	assert.Len(t, c.reqs, 1)
}

func TestRequestViewPreconditions(t *testing.T) {
	r := webview.NewRequester(nil)
	ctx := context.Background()

	c := &conn{authorized: true}
	s := connected(t, c)
	_, err := r.RequestView(ctx, s, "bot", "https://example.org/app")
	require.ErrorIs(t, err, webview.ErrInvalidBot)
	_, err = r.RequestView(ctx, s, "@bot", "")
	require.ErrorIs(t, err, webview.ErrEmptyURL)

	unauthorized := connected(t, &conn{})
	_, err = r.RequestView(ctx, unauthorized, "@bot", "https://example.org/app")
	require.ErrorIs(t, err, accounts.ErrNotAuthorized)

	assert.Empty(t, c.reqs)
}

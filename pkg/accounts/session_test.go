package accounts_test

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soluchok/tgquery/pkg/accounts"
	"github.com/soluchok/tgquery/pkg/devices"
	"github.com/soluchok/tgquery/pkg/model"
)

type fakeConn struct {
	authorized  bool
	authErr     error
	sendCodeErr error
	signInErr   error
	passwordErr error

	signedIn   []string
	passwords  []string
	webViews   []model.WebViewRequest
	closeCalls int
}

func (c *fakeConn) Authorized(context.Context) (bool, error) { return c.authorized, c.authErr }

func (c *fakeConn) SendCode(_ context.Context, phone string) (string, error) {
	return "hash-" + phone, c.sendCodeErr
}

func (c *fakeConn) SignIn(_ context.Context, phone, code, codeHash string) error {
	c.signedIn = append(c.signedIn, phone+"/"+code+"/"+codeHash)
	return c.signInErr
}

func (c *fakeConn) CheckPassword(_ context.Context, password string) error {
	c.passwords = append(c.passwords, password)
	return c.passwordErr
}

func (c *fakeConn) Self(context.Context) (model.User, error) {
	return model.User{ID: 1, FirstName: "Alice"}, nil
}

func (c *fakeConn) RequestWebView(_ context.Context, req model.WebViewRequest) (string, error) {
	c.webViews = append(c.webViews, req)
	return "https://example.org/#tgWebAppData=a&tgWebAppVersion=7", nil
}

func (c *fakeConn) Close() error {
	c.closeCalls++
	return nil
}

type fakeDialer struct {
	conn    *fakeConn
	err     error
	dialed  []string
	profile devices.Profile
}

func (d *fakeDialer) Dial(_ context.Context, identity string, profile devices.Profile) (accounts.Conn, error) {
	d.dialed = append(d.dialed, identity)
	d.profile = profile
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

type scriptedPrompter struct {
	lines     []string
	passwords []string
	prompts   []string
}

func (p *scriptedPrompter) ReadLine(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", errors.New("EOF")
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptedPrompter) ReadPassword(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.passwords) == 0 {
		return "", errors.New("EOF")
	}
	pw := p.passwords[0]
	p.passwords = p.passwords[1:]
	return pw, nil
}

var profile = devices.Profile{Model: "Pixel 7", SystemVersion: "Android 14"}

func TestConnectAuthorized(t *testing.T) {
	dialer := &fakeDialer{conn: &fakeConn{authorized: true}}
	s := accounts.NewSession("+1111", dialer)
	require.Equal(t, accounts.Disconnected, s.State())
	require.ErrorIs(t, s.RequireAuthorized(), accounts.ErrNotConnected)

	require.NoError(t, s.Connect(context.Background(), profile))
	assert.Equal(t, accounts.ConnectedAuthorized, s.State())
	assert.Equal(t, []string{"+1111"}, dialer.dialed)
	assert.Equal(t, profile, dialer.profile)
	require.NoError(t, s.RequireAuthorized())

	require.ErrorIs(t, s.Connect(context.Background(), profile), accounts.ErrAlreadyConnected)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, accounts.Disconnected, s.State())
	assert.Equal(t, 1, dialer.conn.closeCalls)
}

func TestConnectUnauthorized(t *testing.T) {
	dialer := &fakeDialer{conn: &fakeConn{}}
	s := accounts.NewSession("+1111", dialer)

	require.NoError(t, s.Connect(context.Background(), profile))
	assert.Equal(t, accounts.ConnectedUnauthorized, s.State())
	require.ErrorIs(t, s.RequireAuthorized(), accounts.ErrNotAuthorized)

	_, err := s.RequestWebView(context.Background(), model.WebViewRequest{Bot: "@bot", URL: "https://x"})
	require.ErrorIs(t, err, accounts.ErrNotAuthorized)
	assert.Empty(t, dialer.conn.webViews)
}

func TestConnectErrors(t *testing.T) {
	t.Run("dial", func(t *testing.T) {
		s := accounts.NewSession("+1111", &fakeDialer{err: errors.New("network is unreachable")})
		require.Error(t, s.Connect(context.Background(), profile))
		assert.Equal(t, accounts.Disconnected, s.State())
	})

	t.Run("authorization check", func(t *testing.T) {
		conn := &fakeConn{authErr: errors.New("AUTH_KEY_UNREGISTERED")}
		s := accounts.NewSession("+1111", &fakeDialer{conn: conn})
		require.Error(t, s.Connect(context.Background(), profile))
		assert.Equal(t, accounts.Disconnected, s.State())
		assert.Equal(t, 1, conn.closeCalls)
	})
}

func TestLoginWithCode(t *testing.T) {
	conn := &fakeConn{}
	s := accounts.NewSession("+1111", &fakeDialer{conn: conn})
	require.NoError(t, s.Connect(context.Background(), profile))

	p := &scriptedPrompter{lines: []string{" 12345 "}}
	require.NoError(t, s.Login(context.Background(), p))

	assert.Equal(t, accounts.ConnectedAuthorized, s.State())
	assert.Equal(t, []string{"+1111/12345/hash-+1111"}, conn.signedIn)
	assert.Empty(t, conn.passwords)
	assert.Equal(t, []string{"Input Login Code: "}, p.prompts)

	user, err := s.Self(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.DisplayName())
}

func TestLoginWithPassword(t *testing.T) {
	conn := &fakeConn{signInErr: errors.Wrap(accounts.ErrPasswordNeeded, "sign in")}
	s := accounts.NewSession("+1111", &fakeDialer{conn: conn})
	require.NoError(t, s.Connect(context.Background(), profile))

	p := &scriptedPrompter{lines: []string{"12345"}, passwords: []string{"secret"}}
	require.NoError(t, s.Login(context.Background(), p))

	assert.Equal(t, accounts.ConnectedAuthorized, s.State())
	assert.Equal(t, []string{"secret"}, conn.passwords)
	assert.Equal(t, []string{"Input Login Code: ", "Input 2FA Password: "}, p.prompts)
}

func TestLoginFailureCloses(t *testing.T) {
	cases := map[string]*fakeConn{
		"send code":      {sendCodeErr: errors.New("PHONE_NUMBER_INVALID")},
		"sign in":        {signInErr: errors.New("PHONE_CODE_INVALID")},
		"wrong password": {signInErr: accounts.ErrPasswordNeeded, passwordErr: errors.New("PASSWORD_HASH_INVALID")},
	}

	for name, conn := range cases {
		t.Run(name, func(t *testing.T) {
			s := accounts.NewSession("+1111", &fakeDialer{conn: conn})
			require.NoError(t, s.Connect(context.Background(), profile))

			p := &scriptedPrompter{lines: []string{"12345"}, passwords: []string{"secret"}}
			require.Error(t, s.Login(context.Background(), p))

			assert.Equal(t, accounts.Disconnected, s.State())
			assert.Equal(t, 1, conn.closeCalls)
			assert.LessOrEqual(t, len(conn.signedIn), 1, "login must not be retried")
		})
	}
}

func TestLoginStates(t *testing.T) {
	s := accounts.NewSession("+1111", &fakeDialer{conn: &fakeConn{authorized: true}})
	require.ErrorIs(t, s.Login(context.Background(), &scriptedPrompter{}), accounts.ErrNotConnected)

	require.NoError(t, s.Connect(context.Background(), profile))
	p := &scriptedPrompter{}
	require.NoError(t, s.Login(context.Background(), p))
	assert.Empty(t, p.prompts)
}

func TestValidatePhone(t *testing.T) {
	for in, want := range map[string]string{
		"+1234567890":        "+1234567890",
		" +1 234-567-890 ":   "+1234567890",
		"79991234567":        "79991234567",
		"+44 (20) 7946 0958": "+442079460958",
	} {
		got, err := accounts.ValidatePhone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "+", "abc", "../../etc/passwd", "+12", "+1234567890123456"} {
		_, err := accounts.ValidatePhone(in)
		require.ErrorIs(t, err, accounts.ErrInvalidPhone, in)
	}
}

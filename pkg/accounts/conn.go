// Package accounts drives a single Telegram account through connect, login
// and request steps with an explicit connection state.
package accounts

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/soluchok/tgquery/pkg/devices"
	"github.com/soluchok/tgquery/pkg/model"
)

// ErrPasswordNeeded is returned by Conn.SignIn when the account has a second
// factor password.
var ErrPasswordNeeded = errors.New("2FA password required")

// Conn is an open transport connection bound to one account's stored
// credentials.
type Conn interface {
	// Authorized reports whether the stored credentials are logged in.
	Authorized(ctx context.Context) (bool, error)
	// SendCode requests a login code and returns the code hash.
	SendCode(ctx context.Context, phone string) (string, error)
	SignIn(ctx context.Context, phone, code, codeHash string) error
	CheckPassword(ctx context.Context, password string) error
	Self(ctx context.Context) (model.User, error)
	// RequestWebView issues exactly one web view request and returns its URL.
	RequestWebView(ctx context.Context, req model.WebViewRequest) (string, error)
	Close() error
}

// Dialer opens connections for account identities.
type Dialer interface {
	Dial(ctx context.Context, identity string, profile devices.Profile) (Conn, error)
}

// Prompter asks the user for login input.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	// ReadPassword reads input without echoing it.
	ReadPassword(prompt string) (string, error)
}

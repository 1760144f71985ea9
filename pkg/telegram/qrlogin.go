package telegram

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/soluchok/tgquery/pkg/devices"
	"github.com/soluchok/tgquery/pkg/model"
	"github.com/soluchok/tgquery/pkg/session"
)

// LoginQR logs a new account in by QR code on an in-memory session. show is
// called with every login URL to render; password is asked for when the
// account has a second factor. It returns the logged in user and the session
// data to persist.
func (d *Dialer) LoginQR(
	ctx context.Context,
	profile devices.Profile,
	show func(ctx context.Context, url string) error,
	password func(ctx context.Context) (string, error),
) (model.User, []byte, error) {
	mem := &session.Memory{}
	dispatcher := tg.NewUpdateDispatcher()
	loggedIn := qrlogin.OnLoginToken(dispatcher)

	opts := d.options
	opts.Session = mem
	opts.Device = profile
	opts.UpdateHandler = dispatcher

	client, err := CreateClient(opts)
	if err != nil {
		return model.User{}, nil, err
	}

	conn, err := connect(ctx, client)
	if err != nil {
		return model.User{}, nil, err
	}
	defer func() { _ = conn.Close() }()

	_, err = client.QR().Auth(ctx, loggedIn, func(ctx context.Context, token qrlogin.Token) error {
		return show(ctx, token.URL())
	})
	if tgerr.Is(err, "SESSION_PASSWORD_NEEDED") {
		pw, pwErr := password(ctx)
		if pwErr != nil {
			return model.User{}, nil, errors.Wrap(pwErr, "read password")
		}

		_, err = client.Auth().Password(ctx, pw)
	}
	if err != nil {
		return model.User{}, nil, errors.Wrap(err, "qr login")
	}

	self, err := client.Self(ctx)
	if err != nil {
		return model.User{}, nil, errors.Wrap(err, "get self")
	}

	// Stop first so the final session state is flushed to memory.
	if err := conn.Close(); err != nil {
		return model.User{}, nil, errors.Wrap(err, "disconnect")
	}

	data := mem.Bytes()
	if data == nil {
		return model.User{}, nil, errors.New("no session data after login")
	}

	return userFromTG(self), data, nil
}

// Package telegram builds gotd clients and adapts them to the account
// connection interfaces.
package telegram

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/contrib/bg"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"

	"github.com/soluchok/tgquery/pkg/accounts"
	"github.com/soluchok/tgquery/pkg/devices"
	"github.com/soluchok/tgquery/pkg/model"
	"github.com/soluchok/tgquery/pkg/session"
)

// Dialer connects accounts whose credentials live in a session store.
type Dialer struct {
	options ClientOptions
	store   *session.Store
}

var _ accounts.Dialer = (*Dialer)(nil)

// NewDialer returns a dialer. Session and Device of options are set per dial.
func NewDialer(options ClientOptions, store *session.Store) *Dialer {
	return &Dialer{options: options, store: store}
}

func (d *Dialer) Dial(ctx context.Context, identity string, profile devices.Profile) (accounts.Conn, error) {
	opts := d.options
	opts.Session = d.store.Get(identity)
	opts.Device = profile

	client, err := CreateClient(opts)
	if err != nil {
		return nil, err
	}

	return connect(ctx, client)
}

// Conn is a gotd client running in the background.
type Conn struct {
	client *telegram.Client
	stop   bg.StopFunc

	once     sync.Once
	closeErr error
}

var _ accounts.Conn = (*Conn)(nil)

func connect(ctx context.Context, client *telegram.Client) (*Conn, error) {
	stop, err := bg.Connect(client, bg.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}

	return &Conn{client: client, stop: stop}, nil
}

func (c *Conn) Authorized(ctx context.Context) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, errors.Wrap(err, "auth status")
	}

	return status.Authorized, nil
}

func (c *Conn) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", err
	}

	switch s := sent.(type) {
	case *tg.AuthSentCode:
		return s.PhoneCodeHash, nil
	default:
		return "", errors.Errorf("unexpected sent code type %T", sent)
	}
}

func (c *Conn) SignIn(ctx context.Context, phone, code, codeHash string) error {
	_, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return accounts.ErrPasswordNeeded
	}

	return err
}

func (c *Conn) CheckPassword(ctx context.Context, password string) error {
	_, err := c.client.Auth().Password(ctx, password)
	return err
}

func (c *Conn) Self(ctx context.Context) (model.User, error) {
	self, err := c.client.Self(ctx)
	if err != nil {
		return model.User{}, errors.Wrap(err, "get self")
	}

	return userFromTG(self), nil
}

// RequestWebView resolves the bot handle and asks for the web view URL.
func (c *Conn) RequestWebView(ctx context.Context, req model.WebViewRequest) (string, error) {
	return requestWebView(ctx, c.client.API(), req)
}

func requestWebView(ctx context.Context, api *tg.Client, req model.WebViewRequest) (string, error) {
	peer, err := message.NewSender(api).Resolve(strings.TrimPrefix(req.Bot, "@")).AsInputPeer(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", req.Bot)
	}

	bot, ok := peer.(*tg.InputPeerUser)
	if !ok {
		return "", errors.Errorf("%s is not a user", req.Bot)
	}

	res, err := api.MessagesRequestWebView(ctx, &tg.MessagesRequestWebViewRequest{
		Peer:        peer,
		Bot:         &tg.InputUser{UserID: bot.UserID, AccessHash: bot.AccessHash},
		URL:         req.URL,
		Platform:    req.Platform,
		FromBotMenu: req.FromBotMenu,
	})
	if err != nil {
		return "", err
	}

	return res.URL, nil
}

// Close stops the background client and waits for it. Later calls return the
// first result.
func (c *Conn) Close() error {
	c.once.Do(func() {
		c.closeErr = c.stop()
		if errors.Is(c.closeErr, context.Canceled) {
			c.closeErr = nil
		}
	})

	return c.closeErr
}

func userFromTG(u *tg.User) model.User {
	return model.User{
		ID:         u.ID,
		AccessHash: u.AccessHash,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
		Phone:      u.Phone,
	}
}

package accounts

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-faster/errors"

	"github.com/soluchok/tgquery/pkg/devices"
	"github.com/soluchok/tgquery/pkg/model"
)

var (
	ErrNotConnected     = errors.New("session is not connected")
	ErrNotAuthorized    = errors.New("session is not authorized")
	ErrAlreadyConnected = errors.New("session is already connected")
	ErrInvalidPhone     = errors.New("invalid phone number")
)

// State is the connection state of a Session.
type State int

const (
	Disconnected State = iota
	ConnectedUnauthorized
	ConnectedAuthorized
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedUnauthorized:
		return "connected (unauthorized)"
	case ConnectedAuthorized:
		return "connected (authorized)"
	default:
		return "unknown"
	}
}

// Session is one account identity and its connection. It is not safe for
// concurrent use; accounts are processed one at a time.
type Session struct {
	identity string
	dialer   Dialer
	conn     Conn
	state    State
}

// NewSession returns a disconnected session for identity.
func NewSession(identity string, dialer Dialer) *Session {
	return &Session{
		identity: identity,
		dialer:   dialer,
		state:    Disconnected,
	}
}

func (s *Session) Identity() string {
	return s.identity
}

func (s *Session) State() State {
	return s.state
}

// Connect opens the connection with the given device fingerprint and checks
// whether the stored credentials are authorized.
func (s *Session) Connect(ctx context.Context, profile devices.Profile) error {
	if s.state != Disconnected {
		return ErrAlreadyConnected
	}

	conn, err := s.dialer.Dial(ctx, s.identity, profile)
	if err != nil {
		return errors.Wrap(err, "connect")
	}

	s.conn = conn
	s.state = ConnectedUnauthorized

	authorized, err := conn.Authorized(ctx)
	if err != nil {
		_ = s.Close()
		return errors.Wrap(err, "check authorization")
	}

	if authorized {
		s.state = ConnectedAuthorized
	}

	return nil
}

// Login performs the interactive code login and, when the account asks for
// it, the second factor password. Any failure closes the session. There are
// no retries.
func (s *Session) Login(ctx context.Context, p Prompter) error {
	switch s.state {
	case Disconnected:
		return ErrNotConnected
	case ConnectedAuthorized:
		return nil
	}

	if err := s.login(ctx, p); err != nil {
		_ = s.Close()
		return err
	}

	s.state = ConnectedAuthorized

	return nil
}

func (s *Session) login(ctx context.Context, p Prompter) error {
	codeHash, err := s.conn.SendCode(ctx, s.identity)
	if err != nil {
		return errors.Wrap(err, "send code")
	}

	code, err := p.ReadLine("Input Login Code: ")
	if err != nil {
		return errors.Wrap(err, "read code")
	}

	err = s.conn.SignIn(ctx, s.identity, strings.TrimSpace(code), codeHash)
	if !errors.Is(err, ErrPasswordNeeded) {
		if err != nil {
			return errors.Wrap(err, "sign in")
		}

		return nil
	}

	password, err := p.ReadPassword("Input 2FA Password: ")
	if err != nil {
		return errors.Wrap(err, "read password")
	}

	if err := s.conn.CheckPassword(ctx, strings.TrimSpace(password)); err != nil {
		return errors.Wrap(err, "check password")
	}

	return nil
}

// RequireAuthorized returns nil only for an authorized connection.
func (s *Session) RequireAuthorized() error {
	switch s.state {
	case ConnectedAuthorized:
		return nil
	case ConnectedUnauthorized:
		return ErrNotAuthorized
	default:
		return ErrNotConnected
	}
}

// Self returns the logged in user.
func (s *Session) Self(ctx context.Context) (model.User, error) {
	if err := s.RequireAuthorized(); err != nil {
		return model.User{}, err
	}

	return s.conn.Self(ctx)
}

// RequestWebView forwards one web view request over an authorized connection.
func (s *Session) RequestWebView(ctx context.Context, req model.WebViewRequest) (string, error) {
	if err := s.RequireAuthorized(); err != nil {
		return "", err
	}

	return s.conn.RequestWebView(ctx, req)
}

// Close releases the connection. It is safe to call in any state and more
// than once.
func (s *Session) Close() error {
	conn := s.conn
	s.conn = nil
	s.state = Disconnected

	if conn == nil {
		return nil
	}

	return conn.Close()
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{5,15}$`)

// ValidatePhone normalizes a phone number typed by the user. The result is
// also used as a file name, so only digits and a leading '+' pass.
func ValidatePhone(phone string) (string, error) {
	normalized := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if !phonePattern.MatchString(normalized) {
		return "", errors.Wrapf(ErrInvalidPhone, "%q", phone)
	}

	return normalized, nil
}

// Package extractor runs the interactive tool: adding accounts and collecting
// web app query strings from every stored account.
package extractor

import (
	"context"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/kr/pretty"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/soluchok/tgquery/pkg/accounts"
	"github.com/soluchok/tgquery/pkg/console"
	"github.com/soluchok/tgquery/pkg/devices"
	"github.com/soluchok/tgquery/pkg/model"
	"github.com/soluchok/tgquery/pkg/query"
	"github.com/soluchok/tgquery/pkg/session"
	"github.com/soluchok/tgquery/pkg/storage"
	"github.com/soluchok/tgquery/pkg/webview"
)

// QRLoginTimeout bounds a whole QR login, scanning included.
const QRLoginTimeout = 5 * time.Minute

// Console is the user facing terminal.
type Console interface {
	accounts.Prompter
	Printf(format string, a ...any)
	Println(a ...any)
	ShowQR(content string) error
}

// ViewRequester issues web view requests for connected sessions.
type ViewRequester interface {
	RequestView(ctx context.Context, s *accounts.Session, bot, launchURL string) (string, error)
}

// QRAuthenticator logs new accounts in by QR code and returns the session
// data to store.
type QRAuthenticator interface {
	LoginQR(
		ctx context.Context,
		profile devices.Profile,
		show func(ctx context.Context, url string) error,
		password func(ctx context.Context) (string, error),
	) (model.User, []byte, error)
}

// Options configures an Extractor. QR, BotToken, Rand and Log are optional.
type Options struct {
	Console   Console
	Dialer    accounts.Dialer
	QR        QRAuthenticator
	Requester ViewRequester
	Sessions  *session.Store
	Devices   *devices.Catalog
	// Fs receives the output file.
	Fs     afero.Fs
	Output string
	// BotToken enables signature checks of extracted init data.
	BotToken string
	Rand     *rand.Rand
	Log      *zap.Logger
}

// Extractor is the interactive orchestrator. Accounts are processed one at a
// time; it is not safe for concurrent use.
type Extractor struct {
	console   Console
	dialer    accounts.Dialer
	qr        QRAuthenticator
	requester ViewRequester
	sessions  *session.Store
	devices   *devices.Catalog
	fs        afero.Fs
	output    string
	botToken  string
	rand      *rand.Rand
	log       *zap.Logger
}

func New(o Options) *Extractor {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Extractor{
		console:   o.Console,
		dialer:    o.Dialer,
		qr:        o.QR,
		requester: o.Requester,
		sessions:  o.Sessions,
		devices:   o.Devices,
		fs:        o.Fs,
		output:    o.Output,
		botToken:  o.BotToken,
		rand:      o.Rand,
		log:       log,
	}
}

// Report is the outcome of one collection pass.
type Report struct {
	// Records are the extracted payloads in processing order.
	Records []string
	// Skipped lists the accounts that produced nothing.
	Skipped []string
	// Output is the written file, empty when nothing was written.
	Output string
}

func (e *Extractor) pickProfile() devices.Profile {
	return e.devices.RandomPick(e.rand)
}

// AddAccount logs a new account in by phone number and login code. The
// connection is always closed afterwards. A failed login removes the session
// file so that it is not picked up by later collections.
func (e *Extractor) AddAccount(ctx context.Context) error {
	raw, err := e.console.ReadLine("Enter the phone number (with country code, e.g., +1234567890): ")
	if err != nil {
		return err
	}

	phone, err := accounts.ValidatePhone(raw)
	if err != nil {
		e.console.Println("Invalid phone number.")
		return err
	}

	log := e.log.With(zap.String("phone", phone))
	profile := e.pickProfile()
	log.Debug("add account", zap.String("device", profile.Model), zap.String("system", profile.SystemVersion))

	existed, err := e.sessions.Exists(phone)
	if err != nil {
		return err
	}

	s := accounts.NewSession(phone, e.dialer)
	defer func() { _ = s.Close() }()

	discard := func() {
		_ = s.Close()
		if err := e.sessions.Remove(phone); err != nil {
			log.Warn("Failed to remove session", zap.Error(err))
		}
	}

	if err := s.Connect(ctx, profile); err != nil {
		e.console.Printf("Error: %v\n", err)
		if !existed {
			discard()
		}
		return err
	}

	if err := s.Login(ctx, e.console); err != nil {
		e.console.Printf("Error: %v\n", err)
		discard()
		return err
	}

	user, err := s.Self(ctx)
	if err != nil {
		e.console.Printf("Error: %v\n", err)
		return err
	}

	e.console.Printf("Logged in as %s\n", user.DisplayName())
	log.Info("Account added", zap.Int64("user_id", user.ID))

	return nil
}

// AddAccountQR logs a new account in by scanning a QR code with an already
// logged in Telegram app. The session is stored under the account's phone.
func (e *Extractor) AddAccountQR(ctx context.Context) error {
	if e.qr == nil {
		e.console.Println("QR login is not available.")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, QRLoginTimeout)
	defer cancel()

	show := func(_ context.Context, url string) error {
		e.console.Println("Scan the QR code in Telegram: Settings > Devices > Link Desktop Device")
		return e.console.ShowQR(url)
	}
	password := func(context.Context) (string, error) {
		return e.console.ReadPassword("Input 2FA Password: ")
	}

	user, data, err := e.qr.LoginQR(ctx, e.pickProfile(), show, password)
	if err != nil {
		e.console.Printf("Error: %v\n", err)
		return err
	}

	phone, err := accounts.ValidatePhone("+" + strings.TrimPrefix(user.Phone, "+"))
	if err != nil {
		e.console.Printf("Error: %v\n", err)
		return err
	}

	if err := e.sessions.Save(ctx, phone, data); err != nil {
		e.console.Printf("Error: %v\n", err)
		return err
	}

	e.console.Printf("Logged in as %s\n", user.DisplayName())
	e.log.Info("Account added by QR code", zap.String("phone", phone), zap.Int64("user_id", user.ID))

	return nil
}

// CollectQueries asks for a bot and a launch URL and extracts the query
// string of every stored account. Invalid input aborts before any account is
// touched. Failing accounts are skipped. Results are written only when there
// is at least one.
func (e *Extractor) CollectQueries(ctx context.Context) (*Report, error) {
	bot, err := e.console.ReadLine("Enter the Telegram bot username (e.g., @FirstFisher_bot): ")
	if err != nil {
		return nil, err
	}

	if err := webview.ValidateBot(bot); err != nil {
		e.console.Println("Username should start with '@'.")
		return nil, err
	}

	launchURL, err := e.console.ReadLine("Enter the URL: ")
	if err != nil {
		return nil, err
	}

	if err := webview.ValidateURL(launchURL); err != nil {
		e.console.Println("URL cannot be empty.")
		return nil, err
	}

	phones, err := e.sessions.List()
	if err != nil {
		e.console.Printf("Error: %v\n", err)
		return nil, err
	}

	report := &Report{}

	for _, phone := range phones {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		e.console.Printf("Processing %s\n", phone)

		data, err := e.collect(ctx, phone, bot, launchURL)
		if err != nil {
			e.log.Debug("Account skipped", zap.String("phone", phone), zap.Error(err))
			e.console.Printf("%s: No result found, skipping\n", phone)
			report.Skipped = append(report.Skipped, phone)
			continue
		}

		report.Records = append(report.Records, data)
	}

	if len(report.Records) == 0 {
		e.console.Println("No query data found.")
		return report, nil
	}

	if err := storage.AtomicWriteFile(e.fs, e.output, []byte(strings.Join(report.Records, "\n"))); err != nil {
		err = errors.Wrap(err, "write query data")
		e.console.Printf("Error: %v\n", err)
		return report, err
	}
	report.Output = e.output

	e.console.Printf("Query data saved to %s\n", e.output)

	return report, nil
}

// collect runs the full connect, request and parse cycle of one account.
func (e *Extractor) collect(ctx context.Context, phone, bot, launchURL string) (string, error) {
	s := accounts.NewSession(phone, e.dialer)
	defer func() { _ = s.Close() }()

	if err := s.Connect(ctx, e.pickProfile()); err != nil {
		return "", err
	}

	if err := s.RequireAuthorized(); err != nil {
		e.console.Printf("Session for %s is not authorized.\n", phone)
		return "", err
	}

	viewURL, err := e.requester.RequestView(ctx, s, bot, launchURL)
	if err != nil {
		e.console.Printf("Failed to get query_id for %s: %v\n", phone, err)
		return "", err
	}

	data, err := query.Extract(viewURL)
	if err != nil {
		return "", err
	}

	e.inspect(phone, data)

	return data, nil
}

// inspect logs what the extracted init data says about the account. It never
// rejects data.
func (e *Extractor) inspect(phone, data string) {
	log := e.log.With(zap.String("phone", phone))

	d, err := query.ParseInitData(data)
	if err != nil {
		log.Debug("Init data is not parseable", zap.Error(err))
		return
	}

	if ce := log.Check(zap.DebugLevel, "Init data"); ce != nil {
		ce.Write(zap.String("data", pretty.Sprint(d)))
	}

	log.Info("Query extracted", zap.String("user", d.Username()), zap.Time("auth_date", d.AuthDate))

	if e.botToken == "" {
		return
	}

	if err := d.Validate(e.botToken, 0); err != nil {
		log.Warn("Init data signature check failed", zap.Error(err))
	}
}

// Run shows the menu until the user exits, input ends or ctx is done.
func (e *Extractor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			e.console.Println("Exiting...")
			return nil
		}

		e.console.Println("\nOptions:")
		e.console.Println("1. Add Session")
		e.console.Println("2. Get Data")
		e.console.Println("3. Exit")
		e.console.Println("4. Add Session (QR code)")

		choice, err := e.console.ReadLine("Select an option: ")
		if err != nil {
			e.console.Println("Exiting...")
			return exitErr(err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = e.AddAccount(ctx)
		case "2":
			_, err = e.CollectQueries(ctx)
		case "3":
			e.console.Println("Exiting...")
			return nil
		case "4":
			err = e.AddAccountQR(ctx)
		default:
			e.console.Println("Invalid choice. Please select a valid option.")
			continue
		}

		if isInputClosed(err) {
			e.console.Println("Exiting...")
			return nil
		}
		if err != nil {
			e.log.Debug("Menu action failed", zap.String("choice", choice), zap.Error(err))
		}
	}
}

func isInputClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, console.ErrInterrupted)
}

func exitErr(err error) error {
	if isInputClosed(err) {
		return nil
	}

	return err
}

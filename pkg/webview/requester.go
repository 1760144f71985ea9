// Package webview asks Telegram for a bot's web app launch URL.
package webview

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/soluchok/tgquery/pkg/accounts"
	"github.com/soluchok/tgquery/pkg/model"
)

// Platform is the client platform reported with every request.
const Platform = "Android"

var (
	ErrInvalidBot = errors.New("bot username should start with '@'")
	ErrEmptyURL   = errors.New("URL cannot be empty")
	ErrRequest    = errors.New("web view request failed")
)

// ValidateBot checks the bot handle sigil. The handle is not resolved here.
func ValidateBot(bot string) error {
	if !strings.HasPrefix(bot, "@") || len(strings.TrimSpace(bot)) < 2 {
		return errors.Wrapf(ErrInvalidBot, "%q", bot)
	}

	return nil
}

func ValidateURL(launchURL string) error {
	if strings.TrimSpace(launchURL) == "" {
		return ErrEmptyURL
	}

	return nil
}

// Requester issues web view requests on behalf of accounts.
type Requester struct {
	log *zap.Logger
}

func NewRequester(log *zap.Logger) *Requester {
	if log == nil {
		log = zap.NewNop()
	}

	return &Requester{log: log}
}

// RequestView returns the web view URL for launchURL opened in bot by the
// account of s. Exactly one request is sent; rejections are not retried.
func (r *Requester) RequestView(ctx context.Context, s *accounts.Session, bot, launchURL string) (string, error) {
	if err := ValidateBot(bot); err != nil {
		return "", err
	}

	if err := ValidateURL(launchURL); err != nil {
		return "", err
	}

	if err := s.RequireAuthorized(); err != nil {
		return "", err
	}

	r.log.Debug("request web view",
		zap.String("phone", s.Identity()),
		zap.String("bot", bot),
		zap.String("url", launchURL),
	)

	viewURL, err := s.RequestWebView(ctx, model.WebViewRequest{
		Bot:         bot,
		URL:         launchURL,
		Platform:    Platform,
		FromBotMenu: false,
	})
	if err != nil {
		return "", errors.Wrapf(ErrRequest, "%s: %v", s.Identity(), err)
	}

	return viewURL, nil
}

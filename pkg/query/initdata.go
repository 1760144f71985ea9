package query

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	ErrInvalidHash = errors.New("invalid init data hash")
	ErrExpired     = errors.New("init data is expired")
)

// WebAppUser is the user object embedded in init data.
type WebAppUser struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name,omitempty"`
	Username        string `json:"username,omitempty"`
	LanguageCode    string `json:"language_code,omitempty"`
	IsPremium       bool   `json:"is_premium,omitempty"`
	AllowsWriteToPM bool   `json:"allows_write_to_pm,omitempty"`
	PhotoURL        string `json:"photo_url,omitempty"`
}

// InitData is a parsed tgWebAppData payload.
type InitData struct {
	QueryID      string
	User         *WebAppUser
	AuthDate     time.Time
	Hash         string
	ChatInstance string
	ChatType     string
	StartParam   string

	// Values keeps every received field, hash included.
	Values url.Values
}

// ParseInitData parses a decoded tgWebAppData payload.
func ParseInitData(raw string) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedURL, "parse init data: %v", err)
	}

	d := &InitData{
		QueryID:      values.Get("query_id"),
		Hash:         values.Get("hash"),
		ChatInstance: values.Get("chat_instance"),
		ChatType:     values.Get("chat_type"),
		StartParam:   values.Get("start_param"),
		Values:       values,
	}

	if d.Hash == "" {
		return nil, errors.Wrap(ErrMalformedURL, "missing hash")
	}

	if s := values.Get("auth_date"); s != "" {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedURL, "invalid auth_date %q", s)
		}
		d.AuthDate = time.Unix(sec, 0)
	}

	if s := values.Get("user"); s != "" {
		var u WebAppUser
		if err := json.Unmarshal([]byte(s), &u); err != nil {
			return nil, errors.Wrapf(ErrMalformedURL, "invalid user: %v", err)
		}
		d.User = &u
	}

	return d, nil
}

// Validate verifies the init data signature for botToken.
// maxAge is the maximum allowed age of auth_date (0 for no limit).
func (d *InitData) Validate(botToken string, maxAge time.Duration) error {
	if maxAge > 0 && time.Since(d.AuthDate) > maxAge {
		return ErrExpired
	}

	if !hmac.Equal([]byte(Sign(d.Values, botToken)), []byte(d.Hash)) {
		return ErrInvalidHash
	}

	return nil
}

// Sign computes the hash Telegram attaches to init data values for botToken.
// The hash field itself is ignored.
func Sign(values url.Values, botToken string) string {
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(checkString(values)))

	return hex.EncodeToString(h.Sum(nil))
}

// checkString joins the sorted key=value pairs except hash with newlines.
func checkString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+values.Get(k))
	}

	return strings.Join(parts, "\n")
}

// Username returns the user's username or, without one, the user ID.
func (d *InitData) Username() string {
	switch {
	case d.User == nil:
		return ""
	case d.User.Username != "":
		return d.User.Username
	default:
		return strconv.FormatInt(d.User.ID, 10)
	}
}

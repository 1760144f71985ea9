// Package query pulls the signed web app launch data out of web view URLs.
package query

import (
	"net/url"
	"strings"

	"github.com/go-faster/errors"
)

const (
	dataMarker    = "#tgWebAppData="
	versionMarker = "&tgWebAppVersion="
)

var ErrMalformedURL = errors.New("malformed web view URL")

// Extract returns the percent-decoded tgWebAppData value of a web view URL:
// everything after the first "#tgWebAppData=" up to the following
// "&tgWebAppVersion=". '+' is kept as is.
func Extract(rawURL string) (string, error) {
	_, rest, ok := strings.Cut(rawURL, dataMarker)
	if !ok {
		return "", errors.Wrap(ErrMalformedURL, "no tgWebAppData")
	}

	data, _, ok := strings.Cut(rest, versionMarker)
	if !ok {
		return "", errors.Wrap(ErrMalformedURL, "no tgWebAppVersion")
	}

	decoded, err := url.PathUnescape(data)
	if err != nil {
		return "", errors.Wrapf(ErrMalformedURL, "decode: %v", err)
	}

	return decoded, nil
}

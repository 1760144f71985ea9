// Package devices provides the device fingerprints (model and system version)
// presented to Telegram when a client connects.
package devices

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"sort"

	"github.com/go-faster/errors"
	"github.com/spf13/afero"

	"github.com/soluchok/tgquery/pkg/storage"
)

// DefaultURL is the public catalog fetched when no local copy exists.
const DefaultURL = "https://gist.githubusercontent.com/akasakaid/808a34986091b13d03b537584ea754dc/raw/b0dd89abd83c6403338ff7d6d95e0a89d159e6a2/devices.json"

var (
	ErrFetch = errors.New("failed to fetch device catalog")
	ErrParse = errors.New("failed to parse device catalog")
)

// Profile is a single device fingerprint.
type Profile struct {
	Model         string
	SystemVersion string
}

// Catalog maps device model names to system versions. It is read-only once
// created.
type Catalog struct {
	versions map[string]string
	models   []string
}

// New builds a catalog from a model -> system version mapping.
func New(versions map[string]string) (*Catalog, error) {
	if len(versions) == 0 {
		return nil, errors.Wrap(ErrParse, "catalog is empty")
	}

	c := &Catalog{
		versions: make(map[string]string, len(versions)),
		models:   make([]string, 0, len(versions)),
	}

	for model, version := range versions {
		c.versions[model] = version
		c.models = append(c.models, model)
	}

	// map order is random; sorting keeps a seeded pick reproducible
	sort.Strings(c.models)

	return c, nil
}

// Parse decodes a JSON object of model -> system version.
func Parse(data []byte) (*Catalog, error) {
	var versions map[string]string
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, errors.Wrapf(ErrParse, "%v", err)
	}

	return New(versions)
}

// Load reads the catalog from path. When the file is absent it is fetched from
// url once and stored at path; later runs reuse the stored copy as is.
func Load(ctx context.Context, fs afero.Fs, path, url string, fetcher Fetcher) (*Catalog, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	if !exists {
		data, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, errors.Wrapf(ErrFetch, "%v", err)
		}

		catalog, err := Parse(data)
		if err != nil {
			return nil, err
		}

		if err := storage.AtomicWriteFile(fs, path, data); err != nil {
			return nil, errors.Wrap(err, "save device catalog")
		}

		return catalog, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	return Parse(data)
}

// Len returns the number of profiles.
func (c *Catalog) Len() int {
	return len(c.models)
}

// Lookup returns the system version for model.
func (c *Catalog) Lookup(model string) (string, bool) {
	version, ok := c.versions[model]
	return version, ok
}

// RandomPick returns a uniformly chosen profile. A nil r uses the global
// source.
func (c *Catalog) RandomPick(r *rand.Rand) Profile {
	var i int
	if r == nil {
		i = rand.IntN(len(c.models))
	} else {
		i = r.IntN(len(c.models))
	}

	model := c.models[i]

	return Profile{Model: model, SystemVersion: c.versions[model]}
}

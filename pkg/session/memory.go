package session

import (
	"context"
	"sync"

	tdsession "github.com/gotd/td/session"
)

// Memory is an in-memory session storage used while the account phone number
// is still unknown (QR login). Its data is persisted with Store.Save once the
// login succeeds.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

var _ tdsession.Storage = (*Memory)(nil)

func (m *Memory) LoadSession(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, tdsession.ErrNotFound
	}

	return append([]byte(nil), m.data...), nil
}

func (m *Memory) StoreSession(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = append([]byte(nil), data...)
	return nil
}

// Bytes returns a copy of the stored session data, nil if nothing was stored.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil
	}

	return append([]byte(nil), m.data...)
}

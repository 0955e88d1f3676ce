package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/99designs/keyring"
)

const serviceName = "webmail"

// sessionKeyPrefix namespaces session entries by backend URL.
const sessionKeyPrefix = "session:"

// openKeyring returns a configured keyring instance. fileDir backs the
// encrypted file fallback on systems without a native keyring.
func openKeyring(fileDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("webmail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// storedCookie is the persisted form of a session cookie.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionStore keeps backend session cookies in the system keyring so a
// restart does not require logging in again.
type SessionStore struct {
	ring keyring.Keyring
}

// OpenSessionStore opens the system keyring.
func OpenSessionStore(fileDir string) (*SessionStore, error) {
	ring, err := openKeyring(fileDir)
	if err != nil {
		return nil, err
	}
	return NewSessionStore(ring), nil
}

// NewSessionStore wraps an already opened keyring.
func NewSessionStore(ring keyring.Keyring) *SessionStore {
	return &SessionStore{ring: ring}
}

// Load returns the cookies saved for baseURL. A missing entry is not an
// error.
func (s *SessionStore) Load(baseURL string) ([]*http.Cookie, error) {
	item, err := s.ring.Get(sessionKeyPrefix + baseURL)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session for %s: %w", baseURL, err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(item.Data, &stored); err != nil {
		return nil, fmt.Errorf("decoding session for %s: %w", baseURL, err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies, nil
}

// Save replaces the cookies stored for baseURL.
func (s *SessionStore) Save(baseURL string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return s.Clear(baseURL)
	}

	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	err = s.ring.Set(keyring.Item{
		Key:         sessionKeyPrefix + baseURL,
		Data:        data,
		Label:       "webmail session",
		Description: "session cookie for " + baseURL,
	})
	if err != nil {
		return fmt.Errorf("setting session for %s: %w", baseURL, err)
	}
	return nil
}

// Clear removes the cookies stored for baseURL.
func (s *SessionStore) Clear(baseURL string) error {
	err := s.ring.Remove(sessionKeyPrefix + baseURL)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting session for %s: %w", baseURL, err)
	}
	return nil
}

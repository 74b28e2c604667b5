package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"flickrgeo/pkg/config"
)

// Account is a named Flickr API key pair.
type Account struct {
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	Secret       string    `json:"secret,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(name string) (*Account, error)
	List() ([]*Account, error)
	Delete(name string) error
	Exists(name string) bool
}

// Manager handles credential storage across an ordered list of stores.
// Writes go to the first store that accepts them; reads fall through.
type Manager struct {
	stores []CredentialStore
	now    func() time.Time
}

// NewManager builds the default store chain: system keyring when usable,
// then an encrypted file in the config directory, then the environment.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	passphrase, err := LoadPassphrase(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return NewManagerWithStores(stores...), nil
}

// NewManagerWithStores creates a manager over the given stores, in order.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores, now: time.Now}
}

// Store saves an account in the first store that accepts it.
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return errors.New("account name is required")
	}
	if account.APIKey == "" {
		return errors.New("API key is required")
	}

	account.LastModified = m.now()

	var errs []error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to store credentials: %w", errors.Join(errs...))
	}
	return ErrStoreUnavailable
}

// Retrieve gets an account from the first store that has it.
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault prefers credentials exported in the environment, then
// the most recently modified stored account.
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, store := range m.stores {
		if env, ok := store.(*EnvironmentStore); ok {
			if account, err := env.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrCredentialsNotFound
	}

	latest := accounts[0]
	for _, account := range accounts[1:] {
		if account.LastModified.After(latest.LastModified) {
			latest = account
		}
	}
	return latest, nil
}

// List returns every known account sorted by name. When the same name
// lives in several stores the most recently modified copy wins.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Name]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Name] = account
			}
		}
	}

	result := make([]*Account, 0, len(byName))
	for _, account := range byName {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// Delete removes the account from every store holding it.
func (m *Manager) Delete(name string) error {
	var deleted bool
	for _, store := range m.stores {
		if !store.Exists(name) {
			continue
		}
		err := store.Delete(name)
		if errors.Is(err, ErrStoreUnavailable) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to delete credentials: %w", err)
		}
		deleted = true
	}

	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}
	return nil
}

// Apply fills the API key and secret of cfg from the store when the
// configuration does not already carry them. A named account must exist;
// without a name the default account is used.
func (m *Manager) Apply(cfg *config.Config) error {
	if cfg.HasCredentials() {
		return nil
	}

	var (
		account *Account
		err     error
	)
	if cfg.Flickr.Account != "" {
		account, err = m.Retrieve(cfg.Flickr.Account)
	} else {
		account, err = m.RetrieveDefault()
	}
	if err != nil {
		return err
	}

	cfg.Flickr.APIKey = account.APIKey
	cfg.Flickr.Secret = account.Secret
	return nil
}

// ConfigDir returns the per-user configuration directory, creating it.
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "flickrgeo")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "flickrgeo")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "flickrgeo")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "flickrgeo")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount returns a copy with the key and secret masked.
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	sanitized := *account
	sanitized.APIKey = maskString(account.APIKey)
	if account.Secret != "" {
		sanitized.Secret = maskString(account.Secret)
	}
	return &sanitized
}

// maskString keeps the first and last 4 characters.
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

package auth

import (
	"os"
	"time"
)

const (
	EnvAPIKey = "FLICKRGEO_API_KEY"
	EnvSecret = "FLICKRGEO_SECRET"

	envAccountName = "env"
)

// EnvironmentStore exposes a read-only account built from the
// FLICKRGEO_API_KEY and FLICKRGEO_SECRET variables.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve answers for the empty name and for "env".
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	if name != "" && name != envAccountName {
		return nil, ErrCredentialsNotFound
	}

	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         envAccountName,
		APIKey:       apiKey,
		Secret:       os.Getenv(EnvSecret),
		LastModified: time.Time{},
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}

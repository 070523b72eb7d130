package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Credentials holds the per-session identity: who this device is signed in
// as, the server auth token, and the push token the device registered.
// The auth token being empty means the user must sign in before any alert
// can be sent.
type Credentials struct {
	Username  string `toml:"username"`
	AuthToken string `toml:"auth_token"`
	PushToken string `toml:"push_token"`
}

// LoadCredentials reads credentials from the given path. A missing file is
// not an error: it returns empty credentials, i.e. a signed-out session.
func LoadCredentials(path string) (*Credentials, error) {
	var creds Credentials
	_, err := toml.DecodeFile(path, &creds)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, err
	}
	return &creds, nil
}

// SaveCredentials writes credentials with owner-only permissions.
func SaveCredentials(path string, creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(creds)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// SignedIn reports whether an auth token is present.
func (c *Credentials) SignedIn() bool {
	return c != nil && c.AuthToken != ""
}

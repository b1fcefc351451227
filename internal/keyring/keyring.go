// Package keyring stores API keys in the operating system credential
// store (Keychain, Credential Manager, Secret Service). Every failure
// short of a real write error degrades to "not stored" so the CLI can
// fall back to the config file on headless machines.
package keyring

import (
	"errors"
	"fmt"
	"log/slog"

	zkeyring "github.com/zalando/go-keyring"
)

const serviceName = "linear-cli"

// Get returns the API key stored for a profile. The second return is
// false when no key is stored or the keyring is unavailable.
func Get(profile string) (string, bool) {
	key, err := zkeyring.Get(serviceName, profile)
	if err != nil {
		if !errors.Is(err, zkeyring.ErrNotFound) {
			slog.Warn("keyring unavailable, falling back to config file", "error", err)
		}
		return "", false
	}
	return key, true
}

// Set stores an API key for a profile.
func Set(profile, apiKey string) error {
	if err := zkeyring.Set(serviceName, profile, apiKey); err != nil {
		return fmt.Errorf("keyring: store key for profile %s: %w", profile, err)
	}
	return nil
}

// Delete removes the stored key for a profile. A missing entry is not
// an error.
func Delete(profile string) error {
	err := zkeyring.Delete(serviceName, profile)
	if err != nil && !errors.Is(err, zkeyring.ErrNotFound) {
		return fmt.Errorf("keyring: delete key for profile %s: %w", profile, err)
	}
	return nil
}

// Package session loads and stores the remote admin session credential.
//
// The credential is the value of the _lml_session cookie, kept outside the
// repository in a small file (by default .lml_session_id in the working
// directory). The file may be AES-GCM encrypted with a passphrase; plaintext
// files keep working either way.
package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/gigclip/gigclip/internal/crypto"
)

// Load reads the session credential from path, decrypting it when a
// passphrase is given. Surrounding whitespace is trimmed.
func Load(path, passphrase string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("session file %s not found (create it with 'gigclip session import')", path)
		}
		return "", fmt.Errorf("reading session file: %w", err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("session file %s is empty", path)
	}

	value, err = crypto.NewEncryptor(passphrase).Decrypt(value)
	if err != nil {
		return "", fmt.Errorf("decrypting session file: %w", err)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("session file %s decrypted to an empty value", path)
	}

	return value, nil
}

// Save writes the session credential to path, encrypting it when a
// passphrase is given. The file is created with owner-only permissions.
func Save(path, value, passphrase string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("session value is empty")
	}

	stored, err := crypto.NewEncryptor(passphrase).Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypting session value: %w", err)
	}

	if err := os.WriteFile(path, []byte(stored+"\n"), 0600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}

	return nil
}

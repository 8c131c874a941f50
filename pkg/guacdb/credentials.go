package guacdb

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const saltBytes = 32

// credential is a salted password digest in the format the gateway checks
// at login: SHA-256 over the password concatenated with the uppercase hex
// encoding of the salt. The salt column stores the raw bytes.
type credential struct {
	Hash []byte
	Salt []byte
}

// issueCredential hashes a password with a fresh random salt. Every call
// produces a new salt, including password rotations.
func issueCredential(password string) (credential, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return credential{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	hexSalt := strings.ToUpper(hex.EncodeToString(salt))
	digest := sha256.Sum256([]byte(password + hexSalt))

	return credential{Hash: digest[:], Salt: salt}, nil
}

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// HashParams are the Argon2id parameters used for new password hashes.
type HashParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultHashParams follows the OWASP recommendation for Argon2id.
var DefaultHashParams = HashParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

func (p HashParams) hashPassword(password string) (PasswordHash, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return PasswordHash{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	return PasswordHash{
		Hash:    argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen),
		Salt:    salt,
		Method:  "argon2id",
		Time:    p.Time,
		Memory:  p.Memory,
		Threads: p.Threads,
		KeyLen:  p.KeyLen,
	}, nil
}

// VerifyCredentials checks if the provided credentials are valid
func (s *UserStore) VerifyCredentials(username, password string) (bool, *User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, storedUser := range s.users {
		if storedUser.Username != username {
			continue
		}

		stored := storedUser.PasswordHash
		hash := argon2.IDKey([]byte(password), stored.Salt, stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
		if subtle.ConstantTimeCompare(hash, stored.Hash) == 1 {
			return true, &User{
				UserID:   storedUser.UserID,
				Username: storedUser.Username,
			}, nil
		}
		return false, nil, nil
	}

	return false, nil, ErrUserNotFound
}

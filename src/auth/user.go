package auth

import (
	"sync"
	"time"
)

type PasswordHash struct {
	Hash    []byte `json:"hash"`
	Salt    []byte `json:"salt"`
	Method  string `json:"method"`  // "argon2id"
	Time    uint32 `json:"time"`    // time parameter for Argon2
	Memory  uint32 `json:"memory"`  // memory parameter in KiB
	Threads uint8  `json:"threads"` // threads parameter
	KeyLen  uint32 `json:"keylen"`  // length of the hash in bytes
}

type User struct {
	UserID         string
	Username       string
	PasswordHash   PasswordHash
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

type NewUser struct {
	UserID   string
	Username string
	Password string
}

// UserStore holds the users allowed to connect to the TCP server. Users
// are configured at startup and kept in memory only.
type UserStore struct {
	params HashParams
	users  []User
	mu     sync.RWMutex
}

func NewUserStore(params HashParams) *UserStore {
	return &UserStore{params: params}
}

// ListUsers returns a list of all usernames
func (s *UserStore) ListUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usernames := make([]string, len(s.users))
	for i, user := range s.users {
		usernames[i] = user.Username
	}
	return usernames
}

// AddUser adds a new user to the store
func (s *UserStore) AddUser(user NewUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existingUser := range s.users {
		if existingUser.Username == user.Username {
			return ErrUserAlreadyExists
		}
	}

	hash, err := s.params.hashPassword(user.Password)
	if err != nil {
		return err
	}

	now := time.Now()
	s.users = append(s.users, User{
		UserID:         user.UserID,
		Username:       user.Username,
		PasswordHash:   hash,
		CreatedAt:      now,
		LastModifiedAt: now,
	})
	return nil
}

package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an API account stored in the users file.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore manages API accounts in a JSON file. Writes go through the
// store; concurrent handler access is safe.
type UserStore struct {
	path  string
	mutex sync.Mutex
	users map[string]User
}

// NewUserStore loads the users file, starting empty if it does not exist.
func NewUserStore(path string) (*UserStore, error) {
	s := &UserStore{path: path, users: make(map[string]User)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s, nil
}

func (s *UserStore) save() error {
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Create adds a new account with a bcrypt-hashed password.
func (s *UserStore) Create(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.users[username]; exists {
		return fmt.Errorf("user %s already exists", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.users[username] = User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	return s.save()
}

// Authenticate verifies the password and returns the account.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	s.mutex.Lock()
	user, exists := s.users[username]
	s.mutex.Unlock()

	if !exists {
		// Still burn a bcrypt comparison so missing and wrong-password
		// lookups take similar time.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return &user, nil
}

// Count returns the number of accounts.
func (s *UserStore) Count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.users)
}

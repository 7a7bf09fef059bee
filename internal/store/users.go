package store

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SaveUser registers a new user. The username is trimmed and must look like an
// email address and be unique; the trimmed password is stored as a bcrypt hash.
func (s *Store) SaveUser(u NewUser, mode WriteMode) (User, error) {
	username := strings.TrimSpace(u.Username)
	password := strings.TrimSpace(u.Password)

	if !emailPattern.MatchString(username) {
		return User{}, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if password == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrValidation)
	}
	role, err := ParseRole(string(u.Role))
	if err != nil {
		return User{}, err
	}

	if _, taken := s.GetUserByUsername(username); taken {
		return User{}, fmt.Errorf("%w: email already exists", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	var saved User
	err = s.mutate(mode, "", func() error {
		// re-checked under the write lock; hashing ran unlocked
		if s.indexOfUserLocked(username) >= 0 {
			return fmt.Errorf("%w: email already exists", ErrConflict)
		}
		saved = User{
			ID:       s.nextUserID,
			Name:     u.Name,
			Username: username,
			Password: string(hash),
			Role:     role,
		}
		s.nextUserID++
		s.users = append(s.users, saved)
		return nil
	})
	if err != nil {
		return User{}, err
	}

	s.log.Info("user added", zap.Int64("user_id", saved.ID), zap.String("username", saved.Username))
	return saved, nil
}

// UpdateUserRole changes the role of an existing user. Tokens carry no role,
// so the change applies to the user's next request.
func (s *Store) UpdateUserRole(username string, role Role) (User, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return User{}, err
	}

	var saved User
	err := s.mutate(WriteThrough, "", func() error {
		i := s.indexOfUserLocked(username)
		if i < 0 {
			return fmt.Errorf("%w: user %q", ErrNotFound, username)
		}
		s.users[i].Role = role
		saved = s.users[i]
		return nil
	})
	return saved, err
}

func (s *Store) GetAllUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]User, 0, len(s.users)), s.users...)
}

// GetUserByUsername does an exact, case-sensitive lookup.
func (s *Store) GetUserByUsername(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOfUserLocked(username); i >= 0 {
		return s.users[i], true
	}
	return User{}, false
}

func (s *Store) indexOfUserLocked(username string) int {
	for i := range s.users {
		if s.users[i].Username == username {
			return i
		}
	}
	return -1
}

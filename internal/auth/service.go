package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"MiniInventory/internal/store"
)

const (
	msgRegistered = "Successfully Registered."
	msgLoggedIn   = "Logged in Successfully"
	msgNoUser     = "User not found"
	msgBadPass    = "Incorrect password"
	msgServer     = "Internal server error"
)

type UserStore interface {
	UserLookup
	SaveUser(u store.NewUser, mode store.WriteMode) (store.User, error)
}

// Result is the uniform outcome of a credential call. Token is empty unless
// Code is 200.
type Result struct {
	Code    int
	Message string
	Token   string
}

func (r Result) OK() bool { return r.Code == http.StatusOK }

// Service registers users and issues session tokens.
type Service struct {
	Users  UserStore
	Tokens *TokenMaker
	Log    *zap.Logger
}

func NewService(users UserStore, tokens *TokenMaker, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Users: users, Tokens: tokens, Log: log}
}

func (s *Service) Register(name, username, password string, role store.Role) Result {
	u, err := s.Users.SaveUser(store.NewUser{
		Name:     name,
		Username: username,
		Password: password,
		Role:     role,
	}, store.WriteThrough)

	switch {
	case errors.Is(err, store.ErrValidation):
		return Result{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, store.ErrConflict):
		return Result{Code: http.StatusConflict, Message: err.Error()}
	case err != nil:
		s.Log.Error("register failed", zap.Error(err))
		return Result{Code: http.StatusInternalServerError, Message: msgServer}
	}

	return s.issue(u.Username, msgRegistered)
}

func (s *Service) Authenticate(username, password string) Result {
	u, ok := s.Users.GetUserByUsername(strings.TrimSpace(username))
	if !ok {
		return Result{Code: http.StatusBadRequest, Message: msgNoUser}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(strings.TrimSpace(password))); err != nil {
		s.Log.Warn("login rejected", zap.String("username", u.Username))
		return Result{Code: http.StatusBadRequest, Message: msgBadPass}
	}

	return s.issue(u.Username, msgLoggedIn)
}

func (s *Service) issue(username, msg string) Result {
	tok, err := s.Tokens.New(username)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		return Result{Code: http.StatusInternalServerError, Message: msgServer}
	}
	return Result{Code: http.StatusOK, Message: msg, Token: tok}
}

package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniInventory/internal/store"
	"MiniInventory/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Log         *zap.Logger
	Credentials *Service
	Resolver    *Resolver
}

// Routes mounts register and login, each behind its own limiter when given,
// plus the authenticated whoami.
func (s *Server) Routes(registerLimit, loginLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.With(optional(registerLimit)...).Post("/register", s.handleRegister)
	r.With(optional(loginLimit)...).Post("/auth", s.handleLogin)
	r.With(s.Resolver.Middleware).Get("/whoami", s.handleWhoAmI)

	return r
}

func optional(mw func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if mw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{mw}
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	JWT     string `json:"jwt"`
	Message string `json:"message"`
}

type userView struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Username string     `json:"username"`
	Role     store.Role `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	role, err := store.ParseRole(req.Role)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "Bad request. Unknown role.", map[string]any{"role": req.Role})
		return
	}

	s.writeResult(w, r, s.Credentials.Register(req.Name, req.Email, req.Password, role))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	s.writeResult(w, r, s.Credentials.Authenticate(req.Email, req.Password))
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "No authorization header provided", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, userView{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Role:     u.Role,
	})
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res Result) {
	if !res.OK() {
		kit.WriteError(w, r, res.Code, res.Message, nil)
		return
	}
	kit.WriteJSON(w, res.Code, tokenResp{JWT: res.Token, Message: res.Message})
}

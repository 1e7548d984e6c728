// internal/httpserver/routes_admin.go
//
// Admin endpoints.
// Responsibilities:
//   - POST /admin/login:   check the admin password (bcrypt) and issue a JWT.
//   - POST /admin/command: queue an owner command (die, next, finish, solution_found).
//
// Notes:
//   - Both endpoints answer 404 when no password hash is configured.
//   - Tokens are HS256 and carry the admin user name in "sub".

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/usobak/mastodon-image-quiz-bot/internal/bot"
)

// DefaultTokenTTL is the lifetime of admin tokens.
const DefaultTokenTTL = 12 * time.Hour

// AdminConfig enables the admin endpoints when PasswordHash is set.
type AdminConfig struct {
	User         string
	PasswordHash string
	Secret       []byte
	TokenTTL     time.Duration
}

func (a AdminConfig) enabled() bool { return a.PasswordHash != "" && len(a.Secret) > 0 }

func (s *Server) mountAdminRoutes() {
	s.r.Route("/admin", func(r chi.Router) {
		r.Use(s.adminEnabled)
		r.Post("/login", s.handleLogin)
		r.With(s.requireAdmin).Post("/command", s.handleCommand)
	})
}

func (s *Server) adminEnabled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.Admin.enabled() {
			writeError(w, http.StatusNotFound, "admin_disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	admin := s.opts.Admin
	if !strings.EqualFold(strings.TrimSpace(req.Username), admin.User) ||
		bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		log.Warn().Str("username", req.Username).Msg("admin login rejected")
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, exp, err := s.signJWT(admin.User)
	if err != nil {
		log.Error().Err(err).Msg("sign admin token")
		writeError(w, http.StatusInternalServerError, "token_failed")
		return
	}
	log.Info().Str("username", admin.User).Msg("admin logged in")
	writeJSON(w, http.StatusOK, loginRes{Token: token, ExpiresAt: exp})
}

type commandReq struct {
	Command string `json:"command"`
}

type commandRes struct {
	Queued string `json:"queued"`
	Target string `json:"target"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	cmd, ok := bot.CommandByName(req.Command)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown_command")
		return
	}
	if !s.opts.Machine.Enqueue(cmd) {
		writeError(w, http.StatusServiceUnavailable, "queue_full")
		return
	}
	log.Info().Str("command", cmd.String()).Msg("admin command queued")
	writeJSON(w, http.StatusAccepted, commandRes{Queued: cmd.String(), Target: cmd.Target().String()})
}

// ------------------------------- JWT ---------------------------------------

func (s *Server) signJWT(user string) (string, time.Time, error) {
	ttl := s.opts.Admin.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := s.now()
	exp := now.Add(ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(s.opts.Admin.Secret)
	return ss, exp, err
}

// bearer extracts "Authorization: Bearer <token>".
func bearer(r *http.Request) string {
	a := r.Header.Get("Authorization")
	if len(a) > 7 && strings.EqualFold(a[:7], "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// requireAdmin enforces a valid admin token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearer(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return s.opts.Admin.Secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(s.now),
		)
		if err != nil || !token.Valid || claims.Subject != s.opts.Admin.User {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

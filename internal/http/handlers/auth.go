package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"expense-api/internal/auth"
	"expense-api/internal/http/respond"
	"expense-api/internal/middleware"
	"expense-api/internal/models"
	"expense-api/internal/models/dto"
	"expense-api/internal/storage"
)

// AuthHandler owns the register/login/logout endpoints. Register and login
// issue a fresh bearer token each; logout revokes only the token the request
// arrived with, leaving other sessions of the same user untouched.
type AuthHandler struct {
	users  storage.UserStore
	store  storage.TokenStore
	tokens *auth.TokenManager
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users storage.UserStore, store storage.TokenStore, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, store: store, tokens: tokens}
}

// Register attaches auth routes to the mux. requireAuth guards logout.
func (h *AuthHandler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.Handle("POST /auth/logout", requireAuth(http.HandlerFunc(h.handleLogout)))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, map[string][]string{"body": {"The request body must be valid JSON."}})
		return
	}
	if errs := validateRegistration(req); len(errs) > 0 {
		validationError(w, errs)
		return
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		// Raw error text on this path matches what clients already handle.
		respond.Auth(w, http.StatusInternalServerError, respond.AuthEnvelope{Message: err.Error()})
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: passwordHash,
	}
	created, err := h.users.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			validationError(w, map[string][]string{"email": {"The email has already been taken."}})
			return
		}
		log.Printf("create user error: %v", err)
		respond.Auth(w, http.StatusInternalServerError, respond.AuthEnvelope{Message: err.Error()})
		return
	}

	token, err := h.issueToken(r, created)
	if err != nil {
		respond.Auth(w, http.StatusInternalServerError, respond.AuthEnvelope{Message: err.Error()})
		return
	}
	respond.Auth(w, http.StatusOK, respond.AuthEnvelope{
		Status:  true,
		Message: "User creation Successfully",
		Token:   token,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, map[string][]string{"body": {"The request body must be valid JSON."}})
		return
	}
	if errs := validateLogin(req); len(errs) > 0 {
		validationError(w, errs)
		return
	}

	// A missing user and a wrong password produce the same response so the
	// caller cannot probe which emails are registered.
	user, err := h.users.FindUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Auth(w, http.StatusUnauthorized, respond.AuthEnvelope{Message: "Invalid Credentials"})
			return
		}
		log.Printf("login failed: fetch user: %v", err)
		respond.Auth(w, http.StatusInternalServerError, respond.AuthEnvelope{Message: err.Error()})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Auth(w, http.StatusUnauthorized, respond.AuthEnvelope{Message: "Invalid Credentials"})
		return
	}

	token, err := h.issueToken(r, user)
	if err != nil {
		respond.Auth(w, http.StatusInternalServerError, respond.AuthEnvelope{Message: err.Error()})
		return
	}
	respond.Auth(w, http.StatusOK, respond.AuthEnvelope{
		Status:  true,
		Message: "User logged in Successfully",
		Token:   token,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	if err := h.store.DeleteToken(r.Context(), identity.TokenID); err != nil {
		log.Printf("revoke token error: %v", err)
		respond.Message(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	respond.Message(w, http.StatusOK, "Logged out successfully")
}

// issueToken stores a fresh token ID and signs a JWT carrying it.
func (h *AuthHandler) issueToken(r *http.Request, user models.User) (string, error) {
	tokenID := uuid.NewString()
	token, err := h.tokens.Generate(user, tokenID)
	if err != nil {
		return "", err
	}
	if err := h.store.CreateToken(r.Context(), tokenID, user.ID); err != nil {
		return "", err
	}
	return token, nil
}

func validationError(w http.ResponseWriter, errs map[string][]string) {
	respond.Auth(w, http.StatusUnauthorized, respond.AuthEnvelope{
		Message: "Validation Error",
		Errors:  errs,
	})
}

func validateRegistration(req dto.RegisterRequest) map[string][]string {
	errs := map[string][]string{}
	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = append(errs["name"], "The name field is required.")
	}
	validateEmail(errs, req.Email)
	switch {
	case strings.TrimSpace(req.Password) == "":
		errs["password"] = append(errs["password"], "The password field is required.")
	case len(req.Password) < 8 || !utf8.ValidString(req.Password):
		errs["password"] = append(errs["password"], "The password must be at least 8 characters.")
	}
	return errs
}

func validateLogin(req dto.LoginRequest) map[string][]string {
	errs := map[string][]string{}
	validateEmail(errs, req.Email)
	if strings.TrimSpace(req.Password) == "" {
		errs["password"] = append(errs["password"], "The password field is required.")
	}
	return errs
}

func validateEmail(errs map[string][]string, email string) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		errs["email"] = append(errs["email"], "The email field is required.")
		return
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		errs["email"] = append(errs["email"], "The email must be a valid email address.")
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

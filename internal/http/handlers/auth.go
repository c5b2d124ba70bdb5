package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"thumbly/internal/domain"
	"thumbly/internal/middleware"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Locale   string `json:"locale"`
}

func viewOf(u *domain.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, Locale: u.Locale}
}

// Signup handles POST /auth/signup.
func (a *App) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, http.StatusBadRequest, "request body could not be parsed")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		a.fail(w, http.StatusBadRequest, "username, email and a password of at least 8 characters are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.fail(w, http.StatusInternalServerError, "could not process password")
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         "user",
		Locale:       middleware.LocaleFromContext(r.Context()),
	}
	created, err := a.Users.Create(r.Context(), user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			a.fail(w, http.StatusConflict, "an account with that email or username already exists")
			return
		}
		a.Logger.Error().Err(err).Msg("signup failed")
		a.fail(w, http.StatusInternalServerError, "could not create account")
		return
	}

	if err := a.setSessionCookies(w, created); err != nil {
		a.Logger.Error().Err(err).Msg("signup: could not issue session")
		a.fail(w, http.StatusInternalServerError, "could not create session")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"user": viewOf(created), "success": true})
}

// Login handles POST /auth/login with an email or username identifier.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, http.StatusBadRequest, "request body could not be parsed")
		return
	}
	identifier := strings.ToLower(strings.TrimSpace(req.Identifier))
	if identifier == "" || req.Password == "" {
		a.fail(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	user, err := a.Users.GetByIdentifier(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.fail(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		a.Logger.Error().Err(err).Msg("login lookup failed")
		a.fail(w, http.StatusInternalServerError, "could not log in")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.fail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := a.setSessionCookies(w, user); err != nil {
		a.Logger.Error().Err(err).Msg("login: could not issue session")
		a.fail(w, http.StatusInternalServerError, "could not create session")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"user": viewOf(user), "success": true})
}

// Logout handles POST /auth/logout by expiring both session cookies.
func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	a.clearCookie(w, middleware.AccessTokenCookie)
	a.clearCookie(w, middleware.RefreshTokenCookie)
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

// Me handles GET /auth/me for an authenticated session.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.fail(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		a.Logger.Error().Err(err).Msg("me lookup failed")
		a.fail(w, http.StatusInternalServerError, "could not load account")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"user": viewOf(user), "success": true})
}

func (a *App) setSessionCookies(w http.ResponseWriter, user *domain.User) error {
	now := time.Now()
	access, err := middleware.SignJWT(a.Config.AccessTokenSecret, middleware.TokenClaims{
		Sub:      user.ID,
		Locale:   user.Locale,
		Exp:      now.Add(a.Config.AccessTokenTTL).Unix(),
		Issuer:   "thumbly",
		Audience: "thumbly-web",
	})
	if err != nil {
		return err
	}
	refresh, err := middleware.SignJWT(a.Config.RefreshTokenSecret, middleware.TokenClaims{
		Sub:      user.ID,
		Exp:      now.Add(a.Config.RefreshTokenTTL).Unix(),
		Issuer:   "thumbly",
		Audience: "thumbly-web",
	})
	if err != nil {
		return err
	}

	a.setCookie(w, middleware.AccessTokenCookie, access, now.Add(a.Config.AccessTokenTTL))
	a.setCookie(w, middleware.RefreshTokenCookie, refresh, now.Add(a.Config.RefreshTokenTTL))
	return nil
}

func (a *App) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.Config.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *App) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.Config.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

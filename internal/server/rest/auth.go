package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

type registerRequest struct {
	Username string `json:"username" validate:"min=3,max=30"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"required"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if errs := decode(w, r, &req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}
	if errs := s.check(&req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	if _, err := s.sessions.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		s.internalError(ctx, w, "User registration failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if errs := decode(w, r, &req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}
	if errs := s.check(&req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	pair, err := s.sessions.Login(ctx, req.Email, req.Password, provenance(r))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.internalError(ctx, w, "Login failed", err)
		return
	}

	s.setRefreshCookie(w, pair)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var raw string
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
		raw = c.Value
	}

	pair, err := s.sessions.Refresh(ctx, raw, provenance(r))
	switch {
	case errors.Is(err, common.ErrMissingRefreshToken):
		writeError(w, http.StatusUnauthorized, "Missing refresh token")
		return
	case errors.Is(err, common.ErrInvalidRefreshToken):
		if errors.Is(err, common.ErrRefreshTokenReuse) {
			s.logger.Warn(ctx, "Rejected reused refresh token", "request_id", requestIDFrom(ctx), "ip", clientIP(r))
		}
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	case err != nil:
		s.internalError(ctx, w, "Refresh failed", err)
		return
	}

	s.setRefreshCookie(w, pair)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// logout always succeeds and always clears the cookie.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
		s.sessions.Logout(r.Context(), c.Value)
	}

	s.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(s.config.RefreshTokenValidityDuration.Seconds()),
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

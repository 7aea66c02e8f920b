package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/credvault/internal/common"
)

// apiResponse is the uniform JSON body: a success flag, a generic message,
// and an optional session token. Internal error details never leave
// through it.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authenticateRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type sendOtpRequest struct {
	Email string `json:"email"`
}

type checkOtpRequest struct {
	Otp string `json:"otp"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	user, err := s.accounts.Register(r.Context(), req.Username, req.Email, req.Phone, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", user.ID)
	s.writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "account created"})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	session, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password answer identically.
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorInvalidCredential) {
			s.writeError(w, r, common.ErrorInvalidCredential)
			return
		}
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "login", "user_id", session.UserID)
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "logged in", Token: session.AccessToken})
}

func (s *HTTPServer) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	taken, err := s.identity.Taken(r.Context(), req.Email, req.Phone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !taken {
		s.writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: "user does not exist"})
		return
	}
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "user exists"})
}

func (s *HTTPServer) handleSendOtp(w http.ResponseWriter, r *http.Request) {
	var req sendOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	if err := s.recovery.Issue(r.Context(), userID, req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "otp sent", "user_id", userID)
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "otp sent"})
}

func (s *HTTPServer) handleCheckOtp(w http.ResponseWriter, r *http.Request) {
	var req checkOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	if err := s.recovery.Verify(r.Context(), userID, req.Otp); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "otp verified", "user_id", userID)
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "otp is valid"})
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	if err := s.accounts.UpdatePassword(r.Context(), userID, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "password updated", "user_id", userID)
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "password updated"})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps sentinel errors to HTTP statuses and generic messages.
// Internal causes go to the operator log only.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var message string

	switch {
	case errors.Is(err, common.ErrorInvalidArgument):
		status, message = http.StatusBadRequest, "invalid request"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorInvalidCredential):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, common.ErrorNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, message = http.StatusConflict, "email or phone number already exists"
	case errors.Is(err, common.ErrorOtpExpired):
		status, message = http.StatusGone, "otp has expired"
	case errors.Is(err, common.ErrorStoreUnavailable):
		status, message = http.StatusServiceUnavailable, "temporarily unavailable"
	default:
		status, message = http.StatusInternalServerError, "internal error"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Warn(r.Context(), "request rejected", "path", r.URL.Path, "kind", message)
	}

	s.writeJSON(w, status, apiResponse{Success: false, Message: message})
}

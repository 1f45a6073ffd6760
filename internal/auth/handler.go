package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/homeguide/service/internal/response"
	"github.com/homeguide/service/internal/user"
)

// emailRegex is a pragmatic format check; deliverability is not verified.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLen = 8

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Email    string  `json:"email"    example:"host@example.com"`
	Password string  `json:"password" example:"correct horse battery"`
	FullName *string `json:"fullName,omitempty" example:"Ada Host"`
}

type loginRequest struct {
	Email    string `json:"email"    example:"host@example.com"`
	Password string `json:"password" example:"correct horse battery"`
}

type authData struct {
	Token string     `json:"token" example:"eyJhbGci..."`
	User  *user.User `json:"user"`
}

// Register godoc
//
//	@Summary		Register host account
//	@Description	Creates a host account and returns a JWT for subsequent requests.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerRequest	true	"Account details"
//	@Success		201		{object}	response.Envelope{data=authData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if !emailRegex.MatchString(req.Email) {
		response.BadRequest(w, "invalid email format")
		return
	}
	if len(req.Password) < minPasswordLen {
		response.BadRequest(w, "password must be at least 8 characters")
		return
	}

	token, u, err := h.svc.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(w, "email already registered")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, authData{Token: token, User: u})
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Validates email and password and returns a JWT.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=authData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, "email and password are required")
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "invalid email or password")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, authData{Token: token, User: u})
}

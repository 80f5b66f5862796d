package handler

import (
	"net/http"
	"strings"

	"github.com/solvik/mediavault/internal/api/request"
	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/core"
)

// Session handles portal login and session introspection.
type Session struct {
	auth  *core.AuthService
	users *core.PortalUserService
}

func NewSession(services *core.Services) *Session {
	return &Session{auth: services.Auth, users: services.PortalUser}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Create godoc
//
//	@Summary		Create a portal session
//	@Description	Authenticate with email and password to receive a JWT session token.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			body  body      loginRequest  true  "Login credentials"
//	@Success		200   {object}  loginResponse
//	@Failure		400   {object}  response.ErrorResponse
//	@Failure		401   {object}  response.ErrorResponse
//	@Router			/auth/sessions [post]
func (h *Session) Create(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Me godoc
//
//	@Summary		Get the authenticated portal user
//	@Tags			Sessions
//	@Param			Authorization header string true "Bearer session token"
//	@Success		200 {object} model.PortalUser
//	@Failure		401 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/auth/me [get]
func (h *Session) Me(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		response.WriteError(w, http.StatusUnauthorized, "missing session token")
		return
	}

	claims, err := h.auth.ValidateToken(strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		response.WriteError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.Sub)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/satheeshds/invoicing/auth"
)

// LoginRequest carries member credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login opens a session
// @Summary      Log in
// @Description  Exchange a username and password for a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      LoginRequest  true  "Credentials"
// @Success      200          {object}  Response{data=auth.Session}
// @Failure      400          {object}  Response{error=string}
// @Failure      401          {object}  Response{error=string}
// @Router       /auth/login [post]
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := a.auth.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	a.log.Info().Int64("member_id", session.Member.ID).Msg("member logged in")
	writeJSON(w, http.StatusOK, session)
}

// Me returns the current session's member
// @Summary      Current member
// @Description  Get the profile of the member owning the bearer token.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Response{data=models.Member}
// @Failure      401  {object}  Response{error=string}
// @Router       /auth/me [get]
// @Security     BearerAuth
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
		return
	}
	m, err := a.members.Get(r.Context(), claims.MemberID())
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/satheeshds/invoicing/models"
)

// ListMembers lists all members
// @Summary      List members
// @Description  Get every member allowed to use the application.
// @Tags         members
// @Produce      json
// @Success      200  {object}  Response{data=[]models.Member}
// @Router       /members [get]
// @Security     BearerAuth
func (a *API) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := a.members.List(r.Context())
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// GetMember retrieves a single member by ID
// @Summary      Get member
// @Description  Get a member's profile.
// @Tags         members
// @Produce      json
// @Param        id   path      int  true  "Member ID"
// @Success      200  {object}  Response{data=models.Member}
// @Failure      404  {object}  Response{error=string}
// @Router       /members/{id} [get]
// @Security     BearerAuth
func (a *API) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := a.members.Get(r.Context(), id)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateMember creates a new member
// @Summary      Create member
// @Description  Add a member. Admin only.
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        member  body      models.MemberInput  true  "Member profile and password"
// @Success      201     {object}  Response{data=models.Member}
// @Failure      400     {object}  Response{error=string}
// @Failure      403     {object}  Response{error=string}
// @Failure      409     {object}  Response{error=string}
// @Router       /members [post]
// @Security     BearerAuth
func (a *API) CreateMember(w http.ResponseWriter, r *http.Request) {
	var input models.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m, err := a.members.Create(r.Context(), input)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMember updates an existing member
// @Summary      Update member
// @Description  Replace a member's profile. An empty password keeps the current one. Admin only.
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        id      path      int                 true  "Member ID"
// @Param        member  body      models.MemberInput  true  "Updated profile"
// @Success      200     {object}  Response{data=models.Member}
// @Failure      400     {object}  Response{error=string}
// @Failure      404     {object}  Response{error=string}
// @Router       /members/{id} [put]
// @Security     BearerAuth
func (a *API) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var input models.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m, err := a.members.Update(r.Context(), id, input)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMember deletes a member
// @Summary      Delete member
// @Description  Remove a member. Admins cannot delete themselves.
// @Tags         members
// @Produce      json
// @Param        id   path      int  true  "Member ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /members/{id} [delete]
// @Security     BearerAuth
func (a *API) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if claims := claimsFrom(r.Context()); claims != nil && claims.MemberID() == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if err := a.members.Delete(r.Context(), id); err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

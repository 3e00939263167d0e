package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
)

// TeamHandler handles teams and team members.
type TeamHandler struct {
	teamService core.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(ts core.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

// ListTeams handles GET /teams
func (h *TeamHandler) ListTeams(c *gin.Context) {
	teams, err := h.teamService.ListTeams(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// ListMembers handles GET /teamMembers
func (h *TeamHandler) ListMembers(c *gin.Context) {
	members, err := h.teamService.ListMembers(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// GetMember handles GET /teamMembers/:id
func (h *TeamHandler) GetMember(c *gin.Context) {
	member, err := h.teamService.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// CreateMember handles POST /teamMembers
func (h *TeamHandler) CreateMember(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := h.teamService.CreateMember(c.Request.Context(), middleware.IdentityFrom(c), doc)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteMember handles DELETE /teamMembers/:id
func (h *TeamHandler) DeleteMember(c *gin.Context) {
	result, err := h.teamService.DeleteMember(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

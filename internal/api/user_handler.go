package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
	"gadgets-backend-go/internal/models"
)

// UserHandler handles user profiles, sign-in and admin role management.
type UserHandler struct {
	userService core.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// GetUsers handles GET /users?uid=
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.FindByUID(c.Request.Context(), c.Query("uid"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListAllUsers handles GET /users/all
func (h *UserHandler) ListAllUsers(c *gin.Context) {
	users, err := h.userService.ListAll(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateProfile handles PATCH /users?uid=
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	fields, ok := bindDocument(c)
	if !ok {
		return
	}
	_, err := h.userService.UpdateProfile(c.Request.Context(), middleware.IdentityFrom(c), c.Query("uid"), fields)
	if err != nil {
		mapSelfErrorToStatus(c, err, "Forbidden request")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Update profile successfully"})
}

// SignIn handles PUT /user. When a Firebase sign-in proof was required, the
// proven uid must match the submitted profile.
func (h *UserHandler) SignIn(c *gin.Context) {
	profile, ok := bindDocument(c)
	if !ok {
		return
	}
	if firebaseUID, proven := middleware.FirebaseUIDFrom(c); proven && firebaseUID != profile.String(models.FieldUID) {
		mapErrorToStatus(c, core.ErrForbidden)
		return
	}
	result, err := h.userService.SignIn(c.Request.Context(), profile)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteUser handles DELETE /user/:email
func (h *UserHandler) DeleteUser(c *gin.Context) {
	result, err := h.userService.DeleteByEmail(c.Request.Context(), middleware.IdentityFrom(c), c.Param("email"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAdminStatus handles GET /admin/:email
func (h *UserHandler) GetAdminStatus(c *gin.Context) {
	isAdmin, err := h.userService.IsAdmin(c.Request.Context(), c.Param("email"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, AdminStatusResponse{Admin: isAdmin})
}

// GrantAdmin handles PUT /user/admin
func (h *UserHandler) GrantAdmin(c *gin.Context) {
	h.changeRole(c, h.userService.GrantAdmin)
}

// RevokeAdmin handles PUT /user/removeAdmin
func (h *UserHandler) RevokeAdmin(c *gin.Context) {
	h.changeRole(c, h.userService.RevokeAdmin)
}

type roleChange func(ctx context.Context, who models.Identity, email string) (*models.UpdateResult, error)

func (h *UserHandler) changeRole(c *gin.Context, change roleChange) {
	var req models.RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}
	result, err := change(c.Request.Context(), middleware.IdentityFrom(c), req.Email)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

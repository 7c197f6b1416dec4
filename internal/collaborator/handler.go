package collaborator

import (
	"net/http"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"
	"memorial-ledger-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type AddCollaboratorRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=EDITOR VIEWER"`
}

func (h *Handler) Add(c *gin.Context) {
	var form AddCollaboratorRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	collab, err := h.service.AddCollaborator(c.Request.Context(), c.Param("ledgerId"), actor, AddCollaboratorInput{
		UserID: form.UserID,
		Role:   domain.LedgerRole(form.Role),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, collab)
}

func (h *Handler) List(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	collabs, err := h.service.ListCollaborators(c.Request.Context(), c.Param("ledgerId"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": collabs})
}

func (h *Handler) Show(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	collab, err := h.service.GetCollaborator(c.Request.Context(), c.Param("ledgerId"), c.Param("id"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, collab)
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=EDITOR VIEWER"`
}

func (h *Handler) UpdateRole(c *gin.Context) {
	var form UpdateRoleRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	collab, err := h.service.UpdateRole(c.Request.Context(), c.Param("ledgerId"), c.Param("id"), actor, domain.LedgerRole(form.Role))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, collab)
}

func (h *Handler) Remove(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	if err := h.service.RemoveCollaborator(c.Request.Context(), c.Param("ledgerId"), c.Param("id"), actor); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "collaborator removed"})
}

package action

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

type CreateActionRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=255"`
	Description *string `json:"description"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateActionRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	action, err := h.service.CreateAction(c.Request.Context(), c.Param("ledgerId"), actor, CreateActionInput{
		Title:       form.Title,
		Description: form.Description,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, action)
}

func (h *Handler) List(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	actions, err := h.service.ListActions(c.Request.Context(), c.Param("ledgerId"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actions})
}

func (h *Handler) Show(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	action, err := h.service.GetAction(c.Request.Context(), c.Param("ledgerId"), c.Param("actionId"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, action)
}

type UpdateActionRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=NOT_HANDLED IN_PROGRESS HANDLED"`
}

func (h *Handler) Update(c *gin.Context) {
	var form UpdateActionRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	input := UpdateActionInput{
		Title:       form.Title,
		Description: form.Description,
	}
	if form.Status != nil {
		status := domain.ActionStatus(*form.Status)
		input.Status = &status
	}

	action, err := h.service.UpdateAction(c.Request.Context(), c.Param("ledgerId"), c.Param("actionId"), actor, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, action)
}

func (h *Handler) Delete(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	if err := h.service.DeleteAction(c.Request.Context(), c.Param("ledgerId"), c.Param("actionId"), actor); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

package template

import (
	"net/http"

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

func (h *Handler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.GetTemplates()})
}

func (h *Handler) ShowTemplate(c *gin.Context) {
	t, err := h.service.GetTemplate(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) ListActionDefinitions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.GetActionDefinitions()})
}

type ApplyTemplateRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

func (h *Handler) ApplyTemplate(c *gin.Context) {
	var form ApplyTemplateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	result, err := h.service.ApplyTemplate(c.Request.Context(), c.Param("ledgerId"), form.TemplateID, actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

type ApplyActionsRequest struct {
	ActionTypes []string `json:"action_types" binding:"required,min=1,dive,required"`
}

func (h *Handler) ApplyActions(c *gin.Context) {
	var form ApplyActionsRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	result, err := h.service.ApplyCustomActions(c.Request.Context(), c.Param("ledgerId"), form.ActionTypes, actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) Suggestions(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	suggestions, err := h.service.SuggestActions(c.Request.Context(), c.Param("ledgerId"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": suggestions})
}

package ledger

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

type CreateLedgerRequest struct {
	Title            string  `json:"title" binding:"required,min=1,max=255"`
	Description      *string `json:"description"`
	LinkedEntityType *string `json:"linked_entity_type"`
	LinkedEntityID   *string `json:"linked_entity_id"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateLedgerRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	ledger, err := h.service.CreateLedger(c.Request.Context(), actor, CreateLedgerInput{
		Title:            form.Title,
		Description:      form.Description,
		LinkedEntityType: form.LinkedEntityType,
		LinkedEntityID:   form.LinkedEntityID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, ledger)
}

func (h *Handler) List(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	summaries, err := h.service.ListLedgers(c.Request.Context(), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func (h *Handler) Show(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	includeNested := c.Query("include") == "all"

	detail, err := h.service.GetLedger(c.Request.Context(), c.Param("ledgerId"), actor.UserID, includeNested)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

type UpdateLedgerRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

func (h *Handler) Update(c *gin.Context) {
	var form UpdateLedgerRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	ledger, err := h.service.UpdateLedger(c.Request.Context(), c.Param("ledgerId"), actor, UpdateLedgerInput{
		Title:       form.Title,
		Description: form.Description,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}

func (h *Handler) Delete(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	if err := h.service.DeleteLedger(c.Request.Context(), c.Param("ledgerId"), actor.UserID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ShowRole(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	role, err := h.service.GetUserRole(c.Request.Context(), c.Param("ledgerId"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}

package attachment

import (
	"encoding/json"
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

type CreateAttachmentRequest struct {
	Type    string          `json:"type" binding:"required,oneof=NOTE LINK FUNDRAISER_REFERENCE MEMORIAL_REFERENCE UNDERWORLD_QUERY UNDERWORLD_BUSINESS_REFERENCE UNDERWORLD_SERVICE_REFERENCE"`
	SlotKey *string         `json:"slot_key" binding:"omitempty,min=1,max=255"`
	Data    json.RawMessage `json:"data"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateAttachmentRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	attachment, err := h.service.CreateAttachment(c.Request.Context(), c.Param("actionId"), actor, CreateAttachmentInput{
		Type:    domain.AttachmentType(form.Type),
		SlotKey: form.SlotKey,
		Data:    form.Data,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

func (h *Handler) List(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	attachments, err := h.service.ListAttachments(c.Request.Context(), c.Param("actionId"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": attachments})
}

func (h *Handler) ListEmpty(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	attachments, err := h.service.ListEmptySlots(c.Request.Context(), c.Param("actionId"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": attachments})
}

func (h *Handler) ShowBySlotKey(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	attachment, err := h.service.GetBySlotKey(c.Request.Context(), c.Param("actionId"), c.Param("slotKey"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, attachment)
}

func (h *Handler) Show(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	attachment, err := h.service.GetAttachment(c.Request.Context(), c.Param("actionId"), c.Param("id"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, attachment)
}

type FillAttachmentRequest struct {
	Data json.RawMessage `json:"data"`
}

func (h *Handler) Fill(c *gin.Context) {
	var form FillAttachmentRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	attachment, err := h.service.FillAttachment(c.Request.Context(), c.Param("actionId"), c.Param("id"), actor, form.Data)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, attachment)
}

func (h *Handler) Delete(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	if err := h.service.DeleteAttachment(c.Request.Context(), c.Param("actionId"), c.Param("id"), actor); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

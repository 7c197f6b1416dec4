package statusupdate

import (
	"net/http"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"
	"memorial-ledger-backend/internal/middleware"
	"memorial-ledger-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateNoteRequest struct {
	Message  string  `json:"message" binding:"required,min=1,max=2000"`
	ActionID *string `json:"action_id"`
}

func (h *Handler) CreateNote(c *gin.Context) {
	var form CreateNoteRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	update, err := h.service.CreateNote(c.Request.Context(), c.Param("ledgerId"), actor, NoteInput{
		Message:  form.Message,
		ActionID: form.ActionID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, update)
}

func (h *Handler) List(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	page, err := h.service.FindAll(c.Request.Context(), c.Param("ledgerId"), actor.UserID, listOptions(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) ListByAction(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	page, err := h.service.FindByAction(c.Request.Context(), c.Param("actionId"), actor.UserID, listOptions(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) ListRecent(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	page, err := h.service.FindRecent(c.Request.Context(), actor.UserID, listOptions(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) Show(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	update, err := h.service.FindOne(c.Request.Context(), c.Param("id"), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, update)
}

func listOptions(c *gin.Context) ListOptions {
	opts := ListOptions{
		Limit: utils.GetLimitParam(c, DefaultListLimit, 100),
	}
	if cursor := c.Query("cursor"); cursor != "" {
		opts.Cursor = &cursor
	}
	if t := c.Query("type"); t != "" {
		updateType := domain.StatusUpdateType(t)
		opts.Type = &updateType
	}
	return opts
}

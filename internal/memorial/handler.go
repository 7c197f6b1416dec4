package memorial

import (
	"net/http"
	"strconv"

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

type CreateMemorialRequest struct {
	DisplayName string   `json:"display_name" binding:"required,min=1,max=255"`
	Description *string  `json:"description"`
	Lat         *float64 `json:"lat" binding:"omitempty,min=-90,max=90"`
	Lng         *float64 `json:"lng" binding:"omitempty,min=-180,max=180"`
	Published   bool     `json:"published"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateMemorialRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	memorial, err := h.service.CreateMemorial(c.Request.Context(), actor, CreateMemorialInput{
		DisplayName: form.DisplayName,
		Description: form.Description,
		Lat:         form.Lat,
		Lng:         form.Lng,
		Published:   form.Published,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, memorial)
}

func (h *Handler) Feed(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)

	memorials, meta, err := h.service.ListFeed(c.Request.Context(), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": memorials, "meta": meta})
}

func (h *Handler) Nearby(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.Error(errors.BadRequest("lat must be a number", err))
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.Error(errors.BadRequest("lng must be a number", err))
		return
	}

	radiusKm := 50.0
	if raw := c.Query("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil || radiusKm <= 0 {
			c.Error(errors.BadRequest("radius_km must be a positive number", err))
			return
		}
	}

	limit := utils.GetLimitParam(c, 20, 100)

	memorials, err := h.service.Nearby(c.Request.Context(), lat, lng, radiusKm, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": memorials})
}

func (h *Handler) Show(c *gin.Context) {
	memorial, err := h.service.GetMemorial(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, memorial)
}

type UpdateMemorialRequest struct {
	DisplayName *string  `json:"display_name" binding:"omitempty,min=1,max=255"`
	Description *string  `json:"description"`
	Lat         *float64 `json:"lat" binding:"omitempty,min=-90,max=90"`
	Lng         *float64 `json:"lng" binding:"omitempty,min=-180,max=180"`
	Published   *bool    `json:"published"`
}

func (h *Handler) Update(c *gin.Context) {
	var form UpdateMemorialRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	memorial, err := h.service.UpdateMemorial(c.Request.Context(), c.Param("id"), actor, UpdateMemorialInput{
		DisplayName: form.DisplayName,
		Description: form.Description,
		Lat:         form.Lat,
		Lng:         form.Lng,
		Published:   form.Published,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, memorial)
}

func (h *Handler) Delete(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	if err := h.service.DeleteMemorial(c.Request.Context(), c.Param("id"), actor); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

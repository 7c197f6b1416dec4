package obituary

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Show handles GET /memorials/:id/obituary
func (h *Handler) Show(c *gin.Context) {
	memorialID := c.Param("id")

	obituary, err := h.service.GetObituary(c.Request.Context(), memorialID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, obituary)
}

package controllers

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) WSController(ctx *gin.Context) {
	h.Gateway.HandleWebSocket(ctx)
}

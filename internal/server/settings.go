package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brogergvhs/endless/internal/prefs"
)

type SettingsHandler struct {
	Prefs *prefs.Prefs
}

func NewSettingsHandler(p *prefs.Prefs) *SettingsHandler {
	return &SettingsHandler{Prefs: p}
}

func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings/autoload", h.get)
	rg.PUT("/settings/autoload", h.put)
}

type autoLoadReq struct {
	Enabled *bool `json:"enabled"`
}

func (h *SettingsHandler) get(c *gin.Context) {
	on, err := h.Prefs.AutoLoad()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": on})
}

func (h *SettingsHandler) put(c *gin.Context) {
	var req autoLoadReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled required"})
		return
	}
	if err := h.Prefs.SetAutoLoad(*req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

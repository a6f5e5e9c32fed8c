package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brogergvhs/endless/internal/library"
	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/store"
)

type NovelHandler struct {
	Library *library.Library
	Store   *store.Store
}

func NewNovelHandler(lib *library.Library, st *store.Store) *NovelHandler {
	return &NovelHandler{Library: lib, Store: st}
}

func (h *NovelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/library", h.groups)
	rg.POST("/library/refresh", h.refresh)

	rg.GET("/novels", h.list)
	rg.POST("/novels", h.add)
	rg.GET("/novels/:id", h.getOne)
	rg.PATCH("/novels/:id", h.update)
	rg.DELETE("/novels/:id", h.remove)
	rg.GET("/novels/:id/chapters", h.chapters)
	rg.GET("/novels/:id/progress", h.progress)
}

type addReq struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

type updateReq struct {
	Status string `json:"status"`
}

func (h *NovelHandler) list(c *gin.Context) {
	var status store.Status
	if q := strings.TrimSpace(c.Query("status")); q != "" {
		st, err := store.ParseStatus(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		status = st
	}

	items, err := h.Store.ListNovels(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *NovelHandler) groups(c *gin.Context) {
	groups, err := h.Library.Groups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	out := make([]gin.H, 0, len(groups))
	for _, g := range groups {
		out = append(out, gin.H{"status": g.Status, "label": g.Label, "novels": g.Novels})
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

func (h *NovelHandler) add(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url required"})
		return
	}

	n, err := h.Library.Add(c.Request.Context(), strings.TrimSpace(req.URL), store.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		var httpErr *providers.HTTPError
		switch {
		case errors.Is(err, store.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &httpErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NovelHandler) novel(c *gin.Context) (*store.Novel, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	n, err := h.Store.GetNovel(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return nil, false
	}
	if n == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return n, true
}

func (h *NovelHandler) getOne(c *gin.Context) {
	if n, ok := h.novel(c); ok {
		c.JSON(http.StatusOK, n)
	}
}

func (h *NovelHandler) update(c *gin.Context) {
	n, ok := h.novel(c)
	if !ok {
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	st, err := store.ParseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.UpdateNovel(c.Request.Context(), n.ID, store.NovelPatch{Status: &st}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	n.Status = st
	c.JSON(http.StatusOK, n)
}

func (h *NovelHandler) remove(c *gin.Context) {
	n, ok := h.novel(c)
	if !ok {
		return
	}
	if err := h.Library.Remove(c.Request.Context(), n.URI); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *NovelHandler) chapters(c *gin.Context) {
	n, ok := h.novel(c)
	if !ok {
		return
	}
	items, err := h.Store.ListChapters(c.Request.Context(), n.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *NovelHandler) progress(c *gin.Context) {
	n, ok := h.novel(c)
	if !ok {
		return
	}
	p, err := h.Store.Progress(c.Request.Context(), n.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "progress failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *NovelHandler) refresh(c *gin.Context) {
	res, err := h.Library.Refresh(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	failed := make([]string, 0, len(res.Failed))
	for uri := range res.Failed {
		failed = append(failed, uri)
	}
	c.JSON(http.StatusOK, gin.H{
		"updated":   res.Updated,
		"unchanged": len(res.Unchanged),
		"failed":    failed,
	})
}

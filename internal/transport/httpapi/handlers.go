package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-blog-store/blogservice"
	"github.com/goliatone/go-blog-store/blogstore"
	"github.com/goliatone/go-blog-store/record"
)

// Service is the facade the handlers adapt.
type Service interface {
	ListPosts(ctx context.Context, offset, limit int, categorySlug string) ([]record.PostSummary, error)
	GetPost(ctx context.Context, id int64) (record.PostDetail, error)
	ListCategories(ctx context.Context) ([]record.CategoryCount, error)
	CreatePost(ctx context.Context, author string, in blogservice.PostInput) (record.PostDetail, error)
	UpdatePost(ctx context.Context, username string, id int64, in blogservice.PostPatchInput) (record.PostDetail, error)
	DeletePost(ctx context.Context, username string, id int64) error
	RegisterUser(ctx context.Context, in blogservice.RegisterInput) (record.User, error)
	Login(ctx context.Context, in blogservice.Credentials) (blogservice.Session, error)
	GetUser(ctx context.Context, username string) (record.User, error)
	Health(ctx context.Context) blogservice.Health
}

var _ Service = (*blogservice.Service)(nil)

type handler struct {
	svc    Service
	logger zerolog.Logger
}

func (h *handler) listPosts(c *gin.Context) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	limit, err := queryInt(c, "limit", blogservice.DefaultLimit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	posts, err := h.svc.ListPosts(c.Request.Context(), offset, limit, c.Query("category"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *handler) getPost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	post, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *handler) listCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *handler) createPost(c *gin.Context) {
	var in blogservice.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, badRequest("malformed post payload"))
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), currentUser(c), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *handler) updatePost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	var in blogservice.PostPatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, badRequest("malformed post payload"))
		return
	}

	post, err := h.svc.UpdatePost(c.Request.Context(), currentUser(c), id, in)
	if blogstore.IsNoChanges(err) {
		c.JSON(http.StatusOK, gin.H{"message": "No changes"})
		return
	}
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *handler) deletePost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.svc.DeletePost(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) registerUser(c *gin.Context) {
	var in blogservice.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, badRequest("malformed user payload"))
		return
	}

	user, err := h.svc.RegisterUser(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *handler) login(c *gin.Context) {
	var in blogservice.Credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, badRequest("malformed login payload"))
		return
	}

	session, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *handler) getUser(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) health(c *gin.Context) {
	health := h.svc.Health(c.Request.Context())

	status, label := http.StatusOK, "ok"
	if !health.Healthy() {
		status, label = http.StatusServiceUnavailable, "unavailable"
	} else if !health.Cache {
		label = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   label,
		"database": health.Database,
		"cache":    health.Cache,
	})
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("id must be a positive integer")
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name + " must be an integer")
	}
	return v, nil
}

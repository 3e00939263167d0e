package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
)

const blogForbiddenMessage = "forbidden request"

// BlogHandler handles blog posts.
type BlogHandler struct {
	blogService core.BlogService
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(bs core.BlogService) *BlogHandler {
	return &BlogHandler{blogService: bs}
}

// ListAllBlogs handles GET /blogs/all
func (h *BlogHandler) ListAllBlogs(c *gin.Context) {
	posts, err := h.blogService.ListAll(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// ListBlogsByAuthor handles GET /blogs?uid=
func (h *BlogHandler) ListBlogsByAuthor(c *gin.Context) {
	posts, err := h.blogService.ListByAuthor(c.Request.Context(), c.Query("uid"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// SearchBlogs handles GET /blogs/search?q=
func (h *BlogHandler) SearchBlogs(c *gin.Context) {
	posts, err := h.blogService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetBlog handles GET /blogs/:id
func (h *BlogHandler) GetBlog(c *gin.Context) {
	post, err := h.blogService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreateBlog handles POST /blogs
func (h *BlogHandler) CreateBlog(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := h.blogService.Create(c.Request.Context(), middleware.IdentityFrom(c), doc)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateBlog handles PUT /blogs?uid=&editId=
func (h *BlogHandler) UpdateBlog(c *gin.Context) {
	fields, ok := bindDocument(c)
	if !ok {
		return
	}
	_, err := h.blogService.Update(c.Request.Context(), middleware.IdentityFrom(c), c.Query("uid"), c.Query("editId"), fields)
	if err != nil {
		mapSelfErrorToStatus(c, err, blogForbiddenMessage)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Updated blog successfully done."})
}

// DeleteBlog handles DELETE /blogs?uid=&deletedId=
func (h *BlogHandler) DeleteBlog(c *gin.Context) {
	_, err := h.blogService.Delete(c.Request.Context(), middleware.IdentityFrom(c), c.Query("uid"), c.Query("deletedId"))
	if err != nil {
		mapSelfErrorToStatus(c, err, blogForbiddenMessage)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Blog deleted successfully done."})
}

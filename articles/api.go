package articles

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// APIServer is the read-only HTTP API over a Store.
type APIServer struct {
	store Store
}

// NewAPIServer creates a new article API server.
func NewAPIServer(store Store) *APIServer {
	return &APIServer{
		store: store,
	}
}

// SetupRouter configures the Gin router with all article API routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/articles", s.HandleListArticles)
	api.GET("/articles/lookup", s.HandleLookupArticle)
	api.GET("/categories", s.HandleListCategories)
	api.GET("/stats", s.HandleStats)

	return router
}

// ListArticlesResponse represents the response for GET /api/v1/articles.
// Total counts the articles matching the category filter, ignoring paging.
type ListArticlesResponse struct {
	Articles []Article `json:"articles"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// CategoriesResponse represents the response for GET /api/v1/categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// StatsResponse represents the response for GET /api/v1/stats.
type StatsResponse struct {
	Articles   int64 `json:"articles"`
	Categories int   `json:"categories"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleError maps domain errors to HTTP responses.
func (s *APIServer) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrArticleNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, ErrEmptyURL):
		c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// HandleListArticles handles GET /api/v1/articles.
func (s *APIServer) HandleListArticles(c *gin.Context) {
	filter := Filter{
		Category: c.Query("category"),
		Limit:    50,
	}

	if limitParam := c.Query("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err != nil || parsedLimit < 1 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid limit parameter"))
			return
		}
		filter.Limit = min(parsedLimit, maxListLimit)
	}

	if offsetParam := c.Query("offset"); offsetParam != "" {
		parsedOffset, err := strconv.Atoi(offsetParam)
		if err != nil || parsedOffset < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid offset parameter"))
			return
		}
		filter.Offset = parsedOffset
	}

	list, err := s.store.List(c.Request.Context(), filter)
	if err != nil {
		s.handleError(c, err)
		return
	}

	total, err := s.store.CountCategory(c.Request.Context(), filter.Category)
	if err != nil {
		s.handleError(c, err)
		return
	}

	if list == nil {
		list = []Article{}
	}

	c.JSON(http.StatusOK, ListArticlesResponse{
		Articles: list,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// HandleLookupArticle handles GET /api/v1/articles/lookup?url=.
func (s *APIServer) HandleLookupArticle(c *gin.Context) {
	articleURL := c.Query("url")
	if articleURL == "" {
		s.handleError(c, ErrEmptyURL)
		return
	}

	article, err := s.store.Get(c.Request.Context(), articleURL)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, article)
}

// HandleListCategories handles GET /api/v1/categories.
func (s *APIServer) HandleListCategories(c *gin.Context) {
	categories, err := s.store.Categories(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	c.JSON(http.StatusOK, CategoriesResponse{Categories: categories})
}

// HandleStats handles GET /api/v1/stats.
func (s *APIServer) HandleStats(c *gin.Context) {
	count, err := s.store.Count(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}

	categories, err := s.store.Categories(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Articles:   count,
		Categories: len(categories),
	})
}

package articles

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Test helper: create a test router over a fresh store
func setupTestRouter(t *testing.T) (*gin.Engine, *SQLiteStore) {
	store := createTestStore(t)
	router := NewAPIServer(store).SetupRouter()
	return router, store
}

func doGet(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHandleListArticles_EmptyList verifies behavior with no articles
func TestHandleListArticles_EmptyList(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doGet(t, router, "/api/v1/articles")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListArticlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Articles)
	assert.Empty(t, resp.Articles)
	assert.Zero(t, resp.Total)
	assert.Equal(t, 50, resp.Limit)
}

// TestHandleListArticles_FilterAndPaging verifies category and paging
func TestHandleListArticles_FilterAndPaging(t *testing.T) {
	router, store := setupTestRouter(t)
	seedStore(t, store, 3, "tech")
	seedStore(t, store, 2, "business")

	w := doGet(t, router, "/api/v1/articles?category=TECH&limit=2&offset=1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListArticlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Articles, 2)
	assert.Equal(t, int64(3), resp.Total, "total counts only the filtered category")
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, 1, resp.Offset)
	for _, a := range resp.Articles {
		assert.Equal(t, "tech", a.Category)
	}

	w = doGet(t, router, "/api/v1/articles?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Articles, 1)
	assert.Equal(t, int64(5), resp.Total)
}

// TestHandleListArticles_InvalidParameters verifies parameter validation
func TestHandleListArticles_InvalidParameters(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, query := range []string{"limit=abc", "limit=0", "offset=-1", "offset=x"} {
		t.Run(query, func(t *testing.T) {
			w := doGet(t, router, "/api/v1/articles?"+query)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid_parameter")
		})
	}
}

// TestHandleListArticles_LimitCapped verifies the maximum page size
func TestHandleListArticles_LimitCapped(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doGet(t, router, "/api/v1/articles?limit=50000")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListArticlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, maxListLimit, resp.Limit)
}

// TestHandleLookupArticle verifies lookup by URL
func TestHandleLookupArticle(t *testing.T) {
	router, store := setupTestRouter(t)
	seedStore(t, store, 1, "tech")

	w := doGet(t, router, "/api/v1/articles/lookup?url="+url.QueryEscape("https://example.com/tech/0"))
	require.Equal(t, http.StatusOK, w.Code)

	var article Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &article))
	assert.Equal(t, "https://example.com/tech/0", article.URL)
	assert.Equal(t, "Légende", article.Images["image_1"].Caption)
}

// TestHandleLookupArticle_Errors verifies missing and unknown URLs
func TestHandleLookupArticle_Errors(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doGet(t, router, "/api/v1/articles/lookup")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doGet(t, router, "/api/v1/articles/lookup?url=https%3A%2F%2Fexample.com%2Fmissing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

// TestHandleListCategories verifies the distinct category list
func TestHandleListCategories(t *testing.T) {
	router, store := setupTestRouter(t)
	seedStore(t, store, 2, "tech")
	seedStore(t, store, 1, "business")

	w := doGet(t, router, "/api/v1/categories")
	require.Equal(t, http.StatusOK, w.Code)

	var resp CategoriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"business", "tech"}, resp.Categories)
}

// TestHandleStats verifies the counters
func TestHandleStats(t *testing.T) {
	router, store := setupTestRouter(t)
	seedStore(t, store, 2, "tech")
	seedStore(t, store, 1, "business")

	w := doGet(t, router, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Articles)
	assert.Equal(t, 2, resp.Categories)
}

// TestCORSPreflight verifies OPTIONS handling
func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/articles", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

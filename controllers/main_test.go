package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/maiaai/blog/config"
	"github.com/maiaai/blog/models"
	"github.com/maiaai/blog/routes"
	"github.com/maiaai/blog/utils"
)

const testPassword = "password123"

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "100000")
	os.Setenv("GIN_PATH", filepath.Join(os.TempDir(), "blog-test-gin.log"))
	// Point Redis at a closed port so the cache degrades to pass-through and
	// tests never observe each other's cached responses.
	os.Setenv("REDIS_PORT", "63790")

	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Topic{}, &models.Post{}))
	return db
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return routes.SetupRouter(db), db
}

func createUser(t *testing.T, db *gorm.DB, first, last, email string, staff bool) models.User {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	user := models.User{
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: hash,
		IsStaff:      staff,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTopic(t *testing.T, db *gorm.DB, name string) models.Topic {
	t.Helper()
	topic := models.Topic{Name: name, Slug: utils.Slugify(name)}
	require.NoError(t, db.Create(&topic).Error)
	return topic
}

func createPost(t *testing.T, db *gorm.DB, user models.User, topic models.Topic, title, content, status string) models.Post {
	t.Helper()
	post := models.Post{
		UserID:  user.ID,
		TopicID: topic.ID,
		Title:   title,
		Content: content,
		Status:  status,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Email, user.IsStaff, time.Hour)
	require.NoError(t, err)
	return token
}

// doRequest performs a request against the router. An empty token means an
// anonymous request.
func doRequest(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// dataObject returns data.<key> as a map from the response envelope.
func dataObject(t *testing.T, w *httptest.ResponseRecorder, key string) map[string]any {
	t.Helper()
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data object: %s", w.Body.String())
	obj, ok := data[key].(map[string]any)
	require.True(t, ok, "missing data.%s: %s", key, w.Body.String())
	return obj
}

// dataField returns data.<key> as-is from the response envelope.
func dataField(t *testing.T, w *httptest.ResponseRecorder, key string) any {
	t.Helper()
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data object: %s", w.Body.String())
	return data[key]
}

// dataItems returns the data.items list from a paginated response.
func dataItems(t *testing.T, w *httptest.ResponseRecorder) []any {
	t.Helper()
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data object: %s", w.Body.String())
	items, ok := data["items"].([]any)
	require.True(t, ok, "missing data.items: %s", w.Body.String())
	return items
}

// fieldErrors returns data.errors.<field> from a validation failure.
func fieldErrors(t *testing.T, w *httptest.ResponseRecorder, field string) []any {
	t.Helper()
	require.Equal(t, http.StatusBadRequest, w.Code, "body: %s", w.Body.String())
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data object: %s", w.Body.String())
	errs, ok := data["errors"].(map[string]any)
	require.True(t, ok, "missing data.errors: %s", w.Body.String())
	msgs, ok := errs[field].([]any)
	require.True(t, ok, "missing data.errors.%s: %s", field, w.Body.String())
	return msgs
}

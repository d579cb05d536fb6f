package controllers_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maiaai/blog/models"
)

func TestTopicReadIsPublic(t *testing.T) {
	r, db := newTestRouter(t)
	topic := createTopic(t, db, "Dragons")

	w := doRequest(r, http.MethodGet, "/api/v1/topics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := dataItems(t, w)
	require.Len(t, items, 1)
	got := items[0].(map[string]any)
	assert.Equal(t, "Dragons", got["name"])
	assert.Equal(t, fmt.Sprintf("/api/v1/topics/%d", topic.ID), got["url"])

	w = doRequest(r, http.MethodGet, fmt.Sprintf("/api/v1/topics/%d", topic.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dragons", dataObject(t, w, "topic")["name"])

	w = doRequest(r, http.MethodGet, "/api/v1/topics/99999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTopicCreateRequiresStaff(t *testing.T) {
	r, db := newTestRouter(t)
	regular := createUser(t, db, "Samwell", "Tarly", "sam@example.com", false)
	staff := createUser(t, db, "Maester", "Aemon", "aemon@example.com", true)
	body := map[string]any{"name": "White Walkers"}

	w := doRequest(r, http.MethodPost, "/api/v1/topics", "", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/topics", tokenFor(t, regular), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Topic{}).Count(&count).Error)
	assert.Zero(t, count)

	w = doRequest(r, http.MethodPost, "/api/v1/topics", tokenFor(t, staff), body)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	got := dataObject(t, w, "topic")
	assert.Equal(t, "White Walkers", got["name"])
	assert.Equal(t, "white-walkers", got["slug"])
}

func TestTopicIDMustBeNumeric(t *testing.T) {
	r, db := newTestRouter(t)
	staff := createUser(t, db, "Maester", "Wolkan", "wolkan@example.com", true)
	createTopic(t, db, "Dragons")
	token := tokenFor(t, staff)

	for _, id := range []string{"abc", "0", "1 OR 1=1"} {
		path := "/api/v1/topics/" + url.PathEscape(id)

		w := doRequest(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "GET id=%s body=%s", id, w.Body.String())

		w = doRequest(r, http.MethodPatch, path, token, map[string]any{"name": "Wights"})
		assert.Equal(t, http.StatusNotFound, w.Code, "PATCH id=%s", id)

		w = doRequest(r, http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "DELETE id=%s", id)
	}

	var count int64
	require.NoError(t, db.Model(&models.Topic{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTopicNameUniqueness(t *testing.T) {
	r, db := newTestRouter(t)
	staff := createUser(t, db, "Maester", "Luwin", "luwin@example.com", true)
	createTopic(t, db, "Dragons")

	w := doRequest(r, http.MethodPost, "/api/v1/topics", tokenFor(t, staff), map[string]any{"name": "Dragons"})
	msgs := fieldErrors(t, w, "name")
	assert.Contains(t, msgs[0], "already exists")

	var count int64
	require.NoError(t, db.Model(&models.Topic{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTopicRenameUpdatesSlug(t *testing.T) {
	r, db := newTestRouter(t)
	staff := createUser(t, db, "Maester", "Pycelle", "pycelle@example.com", true)
	topic := createTopic(t, db, "Dragons")

	w := doRequest(r, http.MethodPut, fmt.Sprintf("/api/v1/topics/%d", topic.ID), tokenFor(t, staff),
		map[string]any{"name": "Fire & Blood"})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	got := dataObject(t, w, "topic")
	assert.Equal(t, "Fire & Blood", got["name"])
	assert.Equal(t, "fire-blood", got["slug"])
}

func TestTopicUpdateRequiresStaff(t *testing.T) {
	r, db := newTestRouter(t)
	regular := createUser(t, db, "Gilly", "Craster", "gilly@example.com", false)
	topic := createTopic(t, db, "Dragons")

	w := doRequest(r, http.MethodPatch, fmt.Sprintf("/api/v1/topics/%d", topic.ID), tokenFor(t, regular),
		map[string]any{"name": "Wights"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var stored models.Topic
	require.NoError(t, db.First(&stored, topic.ID).Error)
	assert.Equal(t, "Dragons", stored.Name)
}

func TestTopicDeleteCascadesToPosts(t *testing.T) {
	r, db := newTestRouter(t)
	staff := createUser(t, db, "Maester", "Qyburn", "qyburn@example.com", true)
	author := createUser(t, db, "Euron", "Greyjoy", "euron@example.com", false)
	topic := createTopic(t, db, "Dragons")
	keep := createTopic(t, db, "Ships")
	createPost(t, db, author, topic, "Drogon", "", models.PostStatusDraft)
	createPost(t, db, author, keep, "Silence", "", models.PostStatusDraft)

	w := doRequest(r, http.MethodDelete, fmt.Sprintf("/api/v1/topics/%d", topic.ID), tokenFor(t, staff), nil)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var topicCount, postCount int64
	require.NoError(t, db.Model(&models.Topic{}).Count(&topicCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.Equal(t, int64(1), topicCount)
	assert.Equal(t, int64(1), postCount)

	var remaining models.Post
	require.NoError(t, db.First(&remaining).Error)
	assert.Equal(t, "Silence", remaining.Title)
}

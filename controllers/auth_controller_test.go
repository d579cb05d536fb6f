package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSuccess(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "Davos", "Seaworth", "davos@example.com", false)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "davos@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	token, ok := dataField(t, w, "token").(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	w = doRequest(r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "davos@example.com", dataObject(t, w, "user")["email"])
}

func TestLoginBadCredentials(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "Melisandre", "OfAsshai", "mel@example.com", false)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "mel@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown email produces the same generic denial.
	w = doRequest(r, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", decodeBody(t, w)["message"])
}

func TestLogoutRevokesToken(t *testing.T) {
	r, db := newTestRouter(t)
	user := createUser(t, db, "Tormund", "Giantsbane", "tormund@example.com", false)
	token := tokenFor(t, user)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token revoked", decodeBody(t, w)["message"])
}

func TestMeRequiresAuthentication(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvalidBearerTokenOnResourceRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/posts", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

package favorite

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFavorite(t *testing.T, handler echo.HandlerFunc, method, userID, listingID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/favorites/"+listingID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
		c.Set("role", "user")
	}
	c.SetParamNames("listing_id")
	c.SetParamValues(listingID)
	require.NoError(t, handler(c))
	return rec
}

func TestFavoritesRequireAuth(t *testing.T) {
	listingID := "8d4f2a1c-3b6e-4f7a-9c2d-1e5b7a9c3d6f"

	assert.Equal(t, http.StatusUnauthorized, runFavorite(t, GetFavorites, http.MethodGet, "", listingID).Code)
	assert.Equal(t, http.StatusUnauthorized, runFavorite(t, AddFavorite, http.MethodPost, "", listingID).Code)
	assert.Equal(t, http.StatusUnauthorized, runFavorite(t, RemoveFavorite, http.MethodDelete, "", listingID).Code)
	assert.Equal(t, http.StatusUnauthorized, runFavorite(t, CheckFavorite, http.MethodGet, "", listingID).Code)
	assert.Equal(t, http.StatusUnauthorized, runFavorite(t, ToggleFavorite, http.MethodPost, "", listingID).Code)
}

func TestFavoritesRejectMalformedListingID(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, runFavorite(t, AddFavorite, http.MethodPost, "u1", "abc").Code)
	assert.Equal(t, http.StatusBadRequest, runFavorite(t, RemoveFavorite, http.MethodDelete, "u1", "abc").Code)
	assert.Equal(t, http.StatusBadRequest, runFavorite(t, CheckFavorite, http.MethodGet, "u1", "abc").Code)
	assert.Equal(t, http.StatusBadRequest, runFavorite(t, ToggleFavorite, http.MethodPost, "u1", "abc").Code)
}

package savedsearch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/db"
)

// SearchParams mirrors the listing search filters so a saved search
// can be replayed against GET /search-listings.
type SearchParams struct {
	Query    string `json:"q,omitempty"`
	City     string `json:"city,omitempty"`
	MinPrice *int64 `json:"min_price,omitempty"`
	MaxPrice *int64 `json:"max_price,omitempty"`
	Bedrooms *int   `json:"bedrooms,omitempty"`
}

type SavedSearch struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Params    SearchParams `json:"params"`
	CreatedAt time.Time    `json:"created_at"`
}

type saveRequest struct {
	Name   string       `json:"name"`
	Params SearchParams `json:"params"`
}

func (r *saveRequest) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "name is required"
	}
	p := r.Params
	if p.Query == "" && p.City == "" && p.MinPrice == nil && p.MaxPrice == nil && p.Bedrooms == nil {
		return "at least one search filter is required"
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return "min_price cannot exceed max_price"
	}
	return ""
}

// GetSavedSearches returns the caller's saved searches
// GET /saved-searches
func GetSavedSearches(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, name, params, created_at FROM saved_searches
		 WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch saved searches"})
	}
	defer rows.Close()

	searches := []SavedSearch{}
	for rows.Next() {
		var s SavedSearch
		if err := rows.Scan(&s.ID, &s.Name, &s.Params, &s.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read saved search"})
		}
		searches = append(searches, s)
	}

	return c.JSON(http.StatusOK, echo.Map{"data": searches})
}

// CreateSavedSearch stores a named filter set
// POST /saved-searches
func CreateSavedSearch(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": msg})
	}

	searchID := uuid.New().String()
	_, err := db.Conn.Exec(context.Background(),
		`INSERT INTO saved_searches (id, user_id, name, params) VALUES ($1, $2, $3, $4)`,
		searchID, uid, req.Name, req.Params,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save search"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"search_id": searchID,
		"message":   "search saved",
	})
}

// UpdateSavedSearch renames or refilters an owned saved search
// PUT /saved-searches/:id
func UpdateSavedSearch(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	searchID := c.Param("id")

	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": msg})
	}

	ctx := context.Background()

	var ownerID string
	err := db.Conn.QueryRow(ctx,
		`SELECT user_id FROM saved_searches WHERE id = $1`, searchID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "saved search not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch saved search"})
	}
	if ownerID != uid {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "saved search not found"})
	}

	if _, err := db.Conn.Exec(ctx,
		`UPDATE saved_searches SET name = $2, params = $3 WHERE id = $1`,
		searchID, req.Name, req.Params,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update saved search"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "saved search updated"})
}

// DeleteSavedSearch removes an owned saved search
// DELETE /saved-searches/:id
func DeleteSavedSearch(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	searchID := c.Param("id")

	ct, err := db.Conn.Exec(context.Background(),
		`DELETE FROM saved_searches WHERE id = $1 AND user_id = $2`, searchID, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete saved search"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "saved search not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "saved search deleted"})
}

package favorite

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/db"
)

// GetFavorites returns the caller's saved listings, newest saved first
// GET /favorites
func GetFavorites(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT l.id, l.title, l.price, l.city, l.is_paid, f.created_at
		 FROM favorites f JOIN listings l ON l.id = f.listing_id
		 WHERE f.user_id = $1
		 ORDER BY f.created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch favorites"})
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var listingID, title string
		var price int64
		var city *string
		var isPaid bool
		var savedAt time.Time
		if err := rows.Scan(&listingID, &title, &price, &city, &isPaid, &savedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read favorite record"})
		}
		items = append(items, echo.Map{
			"listing_id": listingID,
			"title":      title,
			"price":      price,
			"city":       city,
			"is_paid":    isPaid,
			"saved_at":   savedAt,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

// AddFavorite saves a listing. Saving twice is a no-op.
// POST /favorites/:listing_id
func AddFavorite(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	listingID := c.Param("listing_id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	ctx := context.Background()

	var exists bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM listings WHERE id = $1)`, listingID).Scan(&exists); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}

	if _, err := db.Conn.Exec(ctx,
		`INSERT INTO favorites (user_id, listing_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, listing_id) DO NOTHING`,
		uid, listingID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save favorite"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "listing saved to favorites"})
}

// RemoveFavorite unsaves a listing
// DELETE /favorites/:listing_id
func RemoveFavorite(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	listingID := c.Param("listing_id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	ct, err := db.Conn.Exec(context.Background(),
		`DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`,
		uid, listingID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not remove favorite"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "favorite not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "favorite removed"})
}

// CheckFavorite reports whether the caller saved the listing
// GET /favorites/:listing_id/check
func CheckFavorite(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	listingID := c.Param("listing_id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	var saved bool
	if err := db.Conn.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND listing_id = $2)`,
		uid, listingID,
	).Scan(&saved); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check favorite"})
	}

	return c.JSON(http.StatusOK, echo.Map{"is_favorite": saved})
}

// ToggleFavorite flips the saved state and reports the new one
// POST /favorites/:listing_id/toggle
func ToggleFavorite(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	listingID := c.Param("listing_id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	ctx := context.Background()

	ct, err := db.Conn.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`, uid, listingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not toggle favorite"})
	}
	if ct.RowsAffected() > 0 {
		return c.JSON(http.StatusOK, echo.Map{"is_favorite": false, "message": "favorite removed"})
	}

	var exists bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM listings WHERE id = $1)`, listingID).Scan(&exists); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}

	if _, err := db.Conn.Exec(ctx,
		`INSERT INTO favorites (user_id, listing_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, listing_id) DO NOTHING`,
		uid, listingID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not toggle favorite"})
	}

	return c.JSON(http.StatusOK, echo.Map{"is_favorite": true, "message": "listing saved to favorites"})
}

package user

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/db"
)

// GetPublicProfile returns the public face of an account: name, role
// and how many listings they have live
// GET /users/:id
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")

	var name, role string
	var createdAt time.Time
	err := db.Conn.QueryRow(context.Background(),
		`SELECT name, role, created_at FROM users WHERE id = $1 AND is_active = TRUE`,
		userID,
	).Scan(&name, &role, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	var listingCount int
	if err := db.Conn.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM listings WHERE user_id = $1`, userID,
	).Scan(&listingCount); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":            userID,
		"name":          name,
		"role":          role,
		"listing_count": listingCount,
		"member_since":  createdAt,
	})
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateProfile edits the caller's own name and phone
// PUT /user/profile
func UpdateProfile(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name is required"})
	}

	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
	}

	if _, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET name = $2, phone = $3, updated_at = NOW() WHERE id = $1`,
		uid, req.Name, phone,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated successfully"})
}

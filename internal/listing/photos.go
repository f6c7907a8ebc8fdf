package listing

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/authz"
	"github.com/aqar-dev/aqarhub/internal/blobstore"
	"github.com/aqar-dev/aqarhub/internal/db"
)

const maxPhotoSize = 2 << 20 // 2MB, matches the client-side upload limit

// UploadPhoto attaches a photo to an owned listing
// POST /listings/:id/photos
func UploadPhoto(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	listingID := c.Param("id")

	ctx := context.Background()

	var ownerID string
	err := db.Conn.QueryRow(ctx, `SELECT user_id FROM listings WHERE id = $1`, listingID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}

	if err := authz.Authorize(
		authz.Actor{ID: uid, Role: role},
		authz.Resource{OwnerID: ownerID},
		authz.ActionMutate,
	); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unauthorized"})
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "photo file is required"})
	}
	if file.Size > maxPhotoSize {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "photo too large (max 2MB)"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read upload"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read upload"})
	}

	key, err := blobstore.Upload(ctx, "photos", file.Filename, data)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store photo"})
	}

	_, err = db.Conn.Exec(ctx,
		`UPDATE listings SET photos = array_append(photos, $2), updated_at = NOW() WHERE id = $1`,
		listingID, key,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not attach photo"})
	}

	InvalidateCache(ctx, listingID)

	return c.JSON(http.StatusCreated, echo.Map{"photo": key, "message": "photo uploaded successfully"})
}

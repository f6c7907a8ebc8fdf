package alerts

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/db"
)

// ListNotifications returns current user's notifications, newest first
// GET /notifications
func ListNotifications(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id::text, type, title, body, reference::text, created_at, read_at
         FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load notifications"})
	}
	defer rows.Close()

	var items []map[string]interface{}
	for rows.Next() {
		var id, ntype, title string
		var body, reference *string
		var createdAt time.Time
		var readAt *time.Time
		if err := rows.Scan(&id, &ntype, &title, &body, &reference, &createdAt, &readAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse notification"})
		}
		item := map[string]interface{}{
			"id":         id,
			"type":       ntype,
			"title":      title,
			"body":       body,
			"reference":  reference,
			"created_at": createdAt.UTC().Format(time.RFC3339),
		}
		if readAt != nil {
			item["read_at"] = readAt.UTC().Format(time.RFC3339)
		} else {
			item["read_at"] = nil
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": items})
}

// MarkNotificationRead marks specific notification as read
// POST /notifications/:id/read
func MarkNotificationRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	notifID := c.Param("id")
	if notifID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "notification id required"})
	}

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE notifications SET read_at = NOW() WHERE id = $1 AND user_id = $2 AND read_at IS NULL`,
		notifID, userID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update notification"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found or already read"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notification marked as read"})
}

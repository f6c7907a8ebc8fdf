package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/db"
)

// GetStats returns the dashboard counters
// GET /admin/stats
func GetStats(c echo.Context) error {
	ctx := context.Background()

	var (
		totalUsers      int
		activeUsers     int
		totalListings   int
		paidListings    int
		totalComments   int
		pendingComments int
		openReports     int
		totalPayments   int
		pendingPayments int
		revenue         *int64
	)

	row := db.Conn.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM listings),
			(SELECT COUNT(*) FROM listings WHERE is_paid = TRUE AND expiry_date > NOW()),
			(SELECT COUNT(*) FROM comments WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM comments WHERE is_approved = FALSE AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM comment_reports WHERE status = 'open'),
			(SELECT COUNT(*) FROM payments),
			(SELECT COUNT(*) FROM payments WHERE status = 'pending'),
			(SELECT SUM(amount) FROM payments WHERE status = 'completed' AND currency = 'egp')
	`)
	if err := row.Scan(
		&totalUsers, &activeUsers, &totalListings, &paidListings,
		&totalComments, &pendingComments, &openReports,
		&totalPayments, &pendingPayments, &revenue,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}

	var revenueEGP int64
	if revenue != nil {
		revenueEGP = *revenue
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users": echo.Map{
			"total":  totalUsers,
			"active": activeUsers,
		},
		"listings": echo.Map{
			"total":  totalListings,
			"active": paidListings,
		},
		"comments": echo.Map{
			"total":   totalComments,
			"pending": pendingComments,
		},
		"reports": echo.Map{
			"open": openReports,
		},
		"payments": echo.Map{
			"total":       totalPayments,
			"pending":     pendingPayments,
			"revenue_egp": revenueEGP,
		},
	})
}

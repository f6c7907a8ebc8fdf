package payment

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/authz"
	"github.com/aqar-dev/aqarhub/internal/db"
)

const pageSize = 10

// GetPayments returns the caller's payment history, newest first
// GET /payments
func GetPayments(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	page := 1
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	offset := (page - 1) * pageSize

	ctx := context.Background()

	var total int
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE user_id = $1`, uid,
	).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count payments"})
	}

	rows, err := db.Conn.Query(ctx,
		`SELECT p.id, p.user_id, p.listing_id, p.external_id, p.method, p.amount,
		        p.currency, p.status, p.receipt_key, p.notes, p.created_at, l.title
		 FROM payments p JOIN listings l ON l.id = p.listing_id
		 WHERE p.user_id = $1
		 ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`,
		uid, pageSize, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch payments"})
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var p Payment
		var listingTitle string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ListingID, &p.ExternalID, &p.Method,
			&p.Amount, &p.Currency, &p.Status, &p.ReceiptKey, &p.Notes, &p.CreatedAt,
			&listingTitle); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read payment record"})
		}
		items = append(items, echo.Map{
			"payment":       p,
			"listing_title": listingTitle,
		})
	}

	lastPage := (total + pageSize - 1) / pageSize
	if lastPage < 1 {
		lastPage = 1
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{
			"total":        total,
			"per_page":     pageSize,
			"current_page": page,
			"last_page":    lastPage,
		},
	})
}

// GetPayment returns a single payment visible to its payer or an admin
// GET /payments/:id
func GetPayment(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	paymentID := c.Param("id")
	if _, err := uuid.Parse(paymentID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id format"})
	}

	var p Payment
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, user_id, listing_id, external_id, method, amount, currency, status, receipt_key, notes, created_at
		 FROM payments WHERE id = $1`, paymentID,
	).Scan(&p.ID, &p.UserID, &p.ListingID, &p.ExternalID, &p.Method,
		&p.Amount, &p.Currency, &p.Status, &p.ReceiptKey, &p.Notes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch payment"})
	}

	if err := authz.Authorize(
		authz.Actor{ID: uid, Role: role},
		authz.Resource{OwnerID: p.UserID},
		authz.ActionRead,
	); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unauthorized"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

// GetPendingPayments lists manual payments awaiting review, oldest first
// GET /admin/payments/pending
func GetPendingPayments(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT p.id, p.user_id, p.listing_id, p.external_id, p.method, p.amount,
		        p.currency, p.status, p.receipt_key, p.notes, p.created_at, l.title
		 FROM payments p JOIN listings l ON l.id = p.listing_id
		 WHERE p.status = 'pending'
		 ORDER BY p.created_at ASC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch payments"})
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var p Payment
		var listingTitle string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ListingID, &p.ExternalID, &p.Method,
			&p.Amount, &p.Currency, &p.Status, &p.ReceiptKey, &p.Notes, &p.CreatedAt,
			&listingTitle); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read payment record"})
		}
		items = append(items, echo.Map{
			"payment":       p,
			"listing_title": listingTitle,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

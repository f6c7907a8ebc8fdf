package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/alerts"
	"github.com/aqar-dev/aqarhub/internal/authz"
	"github.com/aqar-dev/aqarhub/internal/blobstore"
	"github.com/aqar-dev/aqarhub/internal/db"
	"github.com/aqar-dev/aqarhub/internal/listing"
)

const maxReceiptSize = 4 << 20 // 4MB

type ConfirmRequest struct {
	Method     string `json:"method" form:"method"`
	ExternalID string `json:"external_id" form:"external_id"`
	Notes      string `json:"notes" form:"notes"`
}

// Confirm records a charge and, for auto-settling methods, activates
// the listing in the same transaction
// POST /listings/:id/payments/confirm
func Confirm(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, _ := c.Get("role").(string)

	listingID := c.Param("id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	status, err := StatusForMethod(req.Method)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	if err := ValidateExternalID(req.Method, req.ExternalID); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	// Manual methods must carry the transfer receipt before anything
	// touches storage.
	var receiptData []byte
	var receiptName string
	if RequiresProof(req.Method) {
		file, err := c.FormFile("receipt")
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ErrProofRequired.Error()})
		}
		if file.Size > maxReceiptSize {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "receipt too large (max 4MB)"})
		}
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read receipt"})
		}
		defer src.Close()
		receiptData, err = io.ReadAll(src)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read receipt"})
		}
		receiptName = file.Filename
	}

	ctx := context.Background()

	var ownerID, title string
	var isPaid bool
	var adTypePrice int64
	var durationDays int
	err = db.Conn.QueryRow(ctx,
		`SELECT l.user_id, l.title, l.is_paid, t.price, t.duration_days
		 FROM listings l JOIN ad_types t ON t.id = l.ad_type_id
		 WHERE l.id = $1`, listingID,
	).Scan(&ownerID, &title, &isPaid, &adTypePrice, &durationDays)
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

	if isPaid {
		return c.JSON(http.StatusConflict, echo.Map{"error": ErrAlreadyPaid.Error()})
	}
	if adTypePrice <= 0 {
		return c.JSON(http.StatusPreconditionFailed, echo.Map{"error": ErrFreeListing.Error()})
	}

	var receiptKey *string
	if receiptData != nil {
		key, err := blobstore.Upload(ctx, "receipts", receiptName, receiptData)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store receipt"})
		}
		receiptKey = &key
	}

	// The row keeps the catalog price; only the gateway-facing intent
	// descriptor speaks in cents.
	amount := adTypePrice
	currency := "egp"
	if req.Method == MethodStripe || req.Method == MethodPayPal {
		currency = "usd"
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	// The payment row and the activation land or roll back together.
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record payment"})
	}
	defer tx.Rollback(ctx)

	paymentID := uuid.New().String()
	_, err = tx.Exec(ctx,
		`INSERT INTO payments (id, user_id, listing_id, external_id, method, amount, currency, status, receipt_key, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		paymentID, uid, listingID, req.ExternalID, req.Method, amount, currency, status, receiptKey, notes,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record payment"})
	}

	now := time.Now()
	if status == StatusCompleted {
		activated, err := listing.Activate(ctx, tx, listingID, durationDays, now)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not activate listing"})
		}
		if !activated {
			// Lost the race to a concurrent confirmation.
			return c.JSON(http.StatusConflict, echo.Map{"error": ErrAlreadyPaid.Error()})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record payment"})
	}

	if status == StatusCompleted {
		listing.InvalidateCache(ctx, listingID)
		_ = alerts.CreateNotification(ownerID, "listing_activated",
			"Listing activated",
			fmt.Sprintf("Your listing %q is now live until %s.", title, now.AddDate(0, 0, durationDays).Format("2006-01-02")),
			&listingID)

		return c.JSON(http.StatusCreated, echo.Map{
			"payment_id": paymentID,
			"status":     status,
			"message":    "payment completed, listing activated",
			"expiry_date": now.AddDate(0, 0, durationDays),
		})
	}

	_ = alerts.EnqueueAdminAlert(uid, "info",
		fmt.Sprintf("Manual payment %s (%s) for listing %s awaits review.", paymentID, req.Method, listingID))

	return c.JSON(http.StatusCreated, echo.Map{
		"payment_id": paymentID,
		"status":     status,
		"message":    "payment submitted, awaiting manual review",
	})
}

// ApprovePayment completes a pending manual payment and activates the
// listing
// POST /admin/payments/:id/approve
func ApprovePayment(c echo.Context) error {
	paymentID := c.Param("id")
	if _, err := uuid.Parse(paymentID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id format"})
	}

	ctx := context.Background()

	var listingID, payerID, status string
	var durationDays int
	err := db.Conn.QueryRow(ctx,
		`SELECT p.listing_id, p.user_id, p.status, t.duration_days
		 FROM payments p
		 JOIN listings l ON l.id = p.listing_id
		 JOIN ad_types t ON t.id = l.ad_type_id
		 WHERE p.id = $1`, paymentID,
	).Scan(&listingID, &payerID, &status, &durationDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch payment"})
	}
	if status == StatusCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment already completed"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not approve payment"})
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE payments SET status = 'completed' WHERE id = $1`, paymentID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not approve payment"})
	}

	now := time.Now()
	activated, err := listing.Activate(ctx, tx, listingID, durationDays, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not activate listing"})
	}
	if !activated {
		return c.JSON(http.StatusConflict, echo.Map{"error": ErrAlreadyPaid.Error()})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not approve payment"})
	}

	listing.InvalidateCache(ctx, listingID)
	_ = alerts.CreateNotification(payerID, "payment_approved",
		"Payment approved", "Your payment was verified and your listing is now live.", &listingID)

	return c.JSON(http.StatusOK, echo.Map{"message": "payment approved, listing activated"})
}

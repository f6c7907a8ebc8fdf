package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/authz"
	"github.com/aqar-dev/aqarhub/internal/db"
)

// Intent is what the client needs to run a charge: a provider-shaped
// reference id plus the exact amount and currency to collect.
type Intent struct {
	ExternalID string `json:"external_id"`
	Method     string `json:"method"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Note       string `json:"note,omitempty"`
}

// intentPrefixes mimic the reference formats of the real providers so
// external ids stay recognizable in support tickets.
var intentPrefixes = map[string]string{
	MethodStripe:       "pi_",
	MethodVodafoneCash: "vc_",
	MethodBankTransfer: "bt_",
	MethodPayPal:       "pp_",
}

// BuildIntent prices a charge for the given ad tier. Card amounts are
// expressed in cents, wallet and bank amounts in whole EGP.
func BuildIntent(method string, adTypePrice int64) (Intent, error) {
	if adTypePrice <= 0 {
		return Intent{}, ErrFreeListing
	}

	ref := intentPrefixes[method] + strings.ReplaceAll(uuid.New().String(), "-", "")

	switch method {
	case MethodStripe:
		return Intent{ExternalID: ref, Method: method, Amount: adTypePrice * 100, Currency: "usd"}, nil
	case MethodPayPal:
		return Intent{ExternalID: ref, Method: method, Amount: adTypePrice, Currency: "usd"}, nil
	case MethodVodafoneCash:
		return Intent{
			ExternalID: ref, Method: method, Amount: adTypePrice, Currency: "egp",
			Note: "transfer the amount via Vodafone Cash and upload the receipt screenshot when confirming",
		}, nil
	case MethodBankTransfer:
		return Intent{
			ExternalID: ref, Method: method, Amount: adTypePrice, Currency: "egp",
			Note: "wire the amount to the account in your invoice and upload the transfer receipt when confirming",
		}, nil
	default:
		return Intent{}, ErrUnknownMethod
	}
}

// ValidateExternalID checks that a reference id carries the prefix of
// the method it claims to belong to.
func ValidateExternalID(method, externalID string) error {
	prefix, ok := intentPrefixes[method]
	if !ok {
		return ErrUnknownMethod
	}
	if !strings.HasPrefix(externalID, prefix) || len(externalID) <= len(prefix) {
		return ErrBadExternalID
	}
	return nil
}

type CreateIntentRequest struct {
	Method string `json:"method" form:"method"`
}

// CreateIntent starts a payment for an owned listing
// POST /listings/:id/payment-intent
func CreateIntent(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, _ := c.Get("role").(string)

	listingID := c.Param("id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	var req CreateIntentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if _, err := StatusForMethod(req.Method); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	ctx := context.Background()

	var ownerID, title string
	var isPaid bool
	var adTypePrice int64
	var adTypeName string
	err := db.Conn.QueryRow(ctx,
		`SELECT l.user_id, l.title, l.is_paid, t.price, t.name
		 FROM listings l JOIN ad_types t ON t.id = l.ad_type_id
		 WHERE l.id = $1`, listingID,
	).Scan(&ownerID, &title, &isPaid, &adTypePrice, &adTypeName)
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
		return c.JSON(http.StatusConflict, echo.Map{"error": "listing is already paid"})
	}

	intent, err := BuildIntent(req.Method, adTypePrice)
	if err != nil {
		if errors.Is(err, ErrFreeListing) {
			return c.JSON(http.StatusPreconditionFailed, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"intent": intent,
		"listing": echo.Map{
			"id":      listingID,
			"title":   title,
			"ad_type": adTypeName,
		},
	})
}

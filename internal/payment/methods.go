package payment

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetPaymentMethods returns the payment method catalog
// GET /payment-methods
func GetPaymentMethods(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"data": []echo.Map{
			{
				"id":             MethodStripe,
				"name":           "Credit / Debit Card",
				"currency":       "usd",
				"auto_approved":  true,
				"requires_proof": false,
			},
			{
				"id":             MethodPayPal,
				"name":           "PayPal",
				"currency":       "usd",
				"auto_approved":  true,
				"requires_proof": false,
			},
			{
				"id":             MethodVodafoneCash,
				"name":           "Vodafone Cash",
				"currency":       "egp",
				"auto_approved":  false,
				"requires_proof": true,
			},
			{
				"id":             MethodBankTransfer,
				"name":           "Bank Transfer",
				"currency":       "egp",
				"auto_approved":  false,
				"requires_proof": true,
			},
		},
	})
}

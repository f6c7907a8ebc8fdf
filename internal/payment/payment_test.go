package payment

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForMethod(t *testing.T) {
	cases := []struct {
		method string
		want   string
	}{
		{MethodStripe, StatusCompleted},
		{MethodPayPal, StatusCompleted},
		{MethodVodafoneCash, StatusPending},
		{MethodBankTransfer, StatusPending},
	}
	for _, tc := range cases {
		got, err := StatusForMethod(tc.method)
		require.NoError(t, err, tc.method)
		assert.Equal(t, tc.want, got, tc.method)
	}

	_, err := StatusForMethod("cash_on_delivery")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRequiresProof(t *testing.T) {
	assert.False(t, RequiresProof(MethodStripe))
	assert.False(t, RequiresProof(MethodPayPal))
	assert.True(t, RequiresProof(MethodVodafoneCash))
	assert.True(t, RequiresProof(MethodBankTransfer))
}

func TestBuildIntentCardChargesCents(t *testing.T) {
	intent, err := BuildIntent(MethodStripe, 50)
	require.NoError(t, err)

	assert.Equal(t, int64(5000), intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
	assert.True(t, strings.HasPrefix(intent.ExternalID, "pi_"), intent.ExternalID)
	assert.Empty(t, intent.Note)
}

func TestBuildIntentManualMethods(t *testing.T) {
	vc, err := BuildIntent(MethodVodafoneCash, 120)
	require.NoError(t, err)
	assert.Equal(t, int64(120), vc.Amount)
	assert.Equal(t, "egp", vc.Currency)
	assert.True(t, strings.HasPrefix(vc.ExternalID, "vc_"), vc.ExternalID)
	assert.NotEmpty(t, vc.Note)

	bt, err := BuildIntent(MethodBankTransfer, 120)
	require.NoError(t, err)
	assert.Equal(t, int64(120), bt.Amount)
	assert.Equal(t, "egp", bt.Currency)
	assert.True(t, strings.HasPrefix(bt.ExternalID, "bt_"), bt.ExternalID)

	pp, err := BuildIntent(MethodPayPal, 120)
	require.NoError(t, err)
	assert.Equal(t, int64(120), pp.Amount)
	assert.Equal(t, "usd", pp.Currency)
	assert.True(t, strings.HasPrefix(pp.ExternalID, "pp_"), pp.ExternalID)
}

func TestBuildIntentRejectsFreeTier(t *testing.T) {
	_, err := BuildIntent(MethodStripe, 0)
	assert.ErrorIs(t, err, ErrFreeListing)

	_, err = BuildIntent("telepathy", 50)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestValidateExternalID(t *testing.T) {
	assert.NoError(t, ValidateExternalID(MethodStripe, "pi_abc123"))
	assert.NoError(t, ValidateExternalID(MethodBankTransfer, "bt_9f2e"))

	assert.ErrorIs(t, ValidateExternalID(MethodStripe, "bt_abc123"), ErrBadExternalID)
	assert.ErrorIs(t, ValidateExternalID(MethodStripe, "pi_"), ErrBadExternalID)
	assert.ErrorIs(t, ValidateExternalID("telepathy", "pi_abc"), ErrUnknownMethod)
}

func newConfirmContext(t *testing.T, body, userID, listingID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/listings/"+listingID+"/payments/confirm", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
		c.Set("role", "user")
	}
	c.SetParamNames("id")
	c.SetParamValues(listingID)
	return c, rec
}

func TestConfirmRejectsBadInputBeforeRecordingAnything(t *testing.T) {
	listingID := "8d4f2a1c-3b6e-4f7a-9c2d-1e5b7a9c3d6f"

	c, rec := newConfirmContext(t, `{"method":"stripe","external_id":"pi_x1"}`, "", listingID)
	require.NoError(t, Confirm(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newConfirmContext(t, `{"method":"stripe","external_id":"pi_x1"}`, "u1", "nope")
	require.NoError(t, Confirm(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newConfirmContext(t, `{"method":"cheque","external_id":"pi_x1"}`, "u1", listingID)
	require.NoError(t, Confirm(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	c, rec = newConfirmContext(t, `{"method":"stripe","external_id":"bt_x1"}`, "u1", listingID)
	require.NoError(t, Confirm(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Manual method without an uploaded receipt stops at validation,
	// no payment row is ever written.
	c, rec = newConfirmContext(t, `{"method":"bank_transfer","external_id":"bt_x1"}`, "u1", listingID)
	require.NoError(t, Confirm(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "receipt")
}

func TestMalformedPaymentIDRejectedBeforeTouchingStorage(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/payments/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "u1")
	c.Set("role", "user")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, GetPayment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/payments/abc/approve", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set("user_id", "a1")
	c.Set("role", "admin")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, ApprovePayment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateIntentValidatesMethodFirst(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/listings/x/payment-intent", strings.NewReader(`{"method":"cheque"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "u1")
	c.Set("role", "user")
	c.SetParamNames("id")
	c.SetParamValues("8d4f2a1c-3b6e-4f7a-9c2d-1e5b7a9c3d6f")

	require.NoError(t, CreateIntent(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

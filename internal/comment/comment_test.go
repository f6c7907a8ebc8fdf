package comment

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqar-dev/aqarhub/internal/authz"
)

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("great place, responsive owner"))
	assert.NoError(t, ValidateContent(strings.Repeat("a", MaxContentLength)))

	assert.ErrorIs(t, ValidateContent(""), ErrEmptyContent)
	assert.ErrorIs(t, ValidateContent("   \n\t"), ErrEmptyContent)
	assert.ErrorIs(t, ValidateContent(strings.Repeat("a", MaxContentLength+1)), ErrContentTooLong)
}

func TestValidateContentCountsCharactersNotBytes(t *testing.T) {
	// Arabic text is two bytes per character; the cap is on characters.
	assert.NoError(t, ValidateContent(strings.Repeat("ش", 600)))
	assert.NoError(t, ValidateContent(strings.Repeat("ش", MaxContentLength)))
	assert.ErrorIs(t, ValidateContent(strings.Repeat("ش", MaxContentLength+1)), ErrContentTooLong)
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(nil))
	for r := 1; r <= 5; r++ {
		v := r
		assert.NoError(t, ValidateRating(&v))
	}

	zero, six := 0, 6
	assert.ErrorIs(t, ValidateRating(&zero), ErrInvalidRating)
	assert.ErrorIs(t, ValidateRating(&six), ErrInvalidRating)
}

func TestModerationPolicy(t *testing.T) {
	defer SetPolicy(false)

	SetPolicy(false)
	assert.True(t, initialApproval(), "open policy publishes immediately")

	SetPolicy(true)
	assert.False(t, initialApproval(), "strict policy holds comments for review")
}

func TestVisibleTo(t *testing.T) {
	author := authz.Actor{ID: "u1", Role: "user"}
	stranger := authz.Actor{ID: "u2", Role: "user"}
	admin := authz.Actor{ID: "a1", Role: "admin"}
	anonymous := authz.Actor{}

	approved := &Comment{UserID: "u1", IsApproved: true}
	pending := &Comment{UserID: "u1", IsApproved: false}

	now := time.Now()
	deleted := &Comment{UserID: "u1", IsApproved: true, DeletedAt: &now}

	assert.True(t, VisibleTo(anonymous, approved))
	assert.True(t, VisibleTo(stranger, approved))

	assert.True(t, VisibleTo(author, pending))
	assert.True(t, VisibleTo(admin, pending))
	assert.False(t, VisibleTo(stranger, pending))
	assert.False(t, VisibleTo(anonymous, pending))

	assert.False(t, VisibleTo(admin, deleted), "soft deleted comments are gone for everyone")
	assert.False(t, VisibleTo(author, deleted))
}

func postJSON(t *testing.T, handler echo.HandlerFunc, target, body, userID string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
		c.Set("role", "user")
	}
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, handler(c))
	return rec
}

func TestCreateCommentRejectsBadInputBeforeTouchingStorage(t *testing.T) {
	rec := postJSON(t, CreateComment, "/listings/abc/comments", `{"content":"hi"}`, "", map[string]string{"id": "abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, CreateComment, "/listings/abc/comments", `{"content":"hi"}`, "u1", map[string]string{"id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	listingID := "8d4f2a1c-3b6e-4f7a-9c2d-1e5b7a9c3d6f"
	rec = postJSON(t, CreateComment, "/listings/x/comments", `{"content":""}`, "u1", map[string]string{"id": listingID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	long := strings.Repeat("x", MaxContentLength+1)
	rec = postJSON(t, CreateComment, "/listings/x/comments", `{"content":"`+long+`"}`, "u1", map[string]string{"id": listingID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postJSON(t, CreateComment, "/listings/x/comments", `{"content":"fine","rating":9}`, "u1", map[string]string{"id": listingID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReportCommentRequiresReason(t *testing.T) {
	commentID := "3f1b2c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	rec := postJSON(t, ReportComment, "/comments/"+commentID+"/report", `{"reason":"  "}`, "u1", map[string]string{"id": commentID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMalformedIDsRejectedBeforeTouchingStorage(t *testing.T) {
	badID := map[string]string{"id": "not-a-uuid"}

	rec := postJSON(t, UpdateComment, "/comments/x", `{"content":"edited"}`, "u1", badID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, DeleteComment, "/comments/x", `{}`, "u1", badID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, ReportComment, "/comments/x/report", `{"reason":"spam"}`, "u1", badID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, ApproveComment, "/admin/comments/x/approve", `{}`, "a1", badID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, ResolveReport, "/admin/reports/x/resolve", `{}`, "a1", badID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/listings/x/comments/y", nil)
	recGet := httptest.NewRecorder()
	c := e.NewContext(req, recGet)
	c.SetParamNames("id", "comment_id")
	c.SetParamValues("8d4f2a1c-3b6e-4f7a-9c2d-1e5b7a9c3d6f", "not-a-uuid")
	require.NoError(t, GetComment(c))
	assert.Equal(t, http.StatusBadRequest, recGet.Code)
}

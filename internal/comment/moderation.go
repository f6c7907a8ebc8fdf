package comment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/alerts"
	"github.com/aqar-dev/aqarhub/internal/db"
)

type ReportCommentRequest struct {
	Reason string `json:"reason"`
}

// ReportComment flags a comment for admin review
// POST /comments/:id/report
func ReportComment(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	commentID := c.Param("id")
	if _, err := uuid.Parse(commentID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id format"})
	}

	var req ReportCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Reason) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "reason is required"})
	}

	ctx := context.Background()

	var authorID string
	var deletedAt *time.Time
	err := db.Conn.QueryRow(ctx,
		`SELECT user_id, deleted_at FROM comments WHERE id = $1`, commentID,
	).Scan(&authorID, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch comment"})
	}
	if deletedAt != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	}
	if authorID == uid {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "you cannot report your own comment"})
	}

	var alreadyOpen bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM comment_reports
		  WHERE comment_id = $1 AND reporter_id = $2 AND status = 'open')`,
		commentID, uid,
	).Scan(&alreadyOpen); err == nil && alreadyOpen {
		return c.JSON(http.StatusConflict, echo.Map{"error": "you already reported this comment"})
	}

	reportID := uuid.New().String()
	_, err = db.Conn.Exec(ctx,
		`INSERT INTO comment_reports (id, comment_id, reporter_id, reason)
		 VALUES ($1, $2, $3, $4)`,
		reportID, commentID, uid, req.Reason,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create report"})
	}

	// Moderation inbox is best effort; the report row is the source of truth.
	_ = alerts.EnqueueAdminAlert(uid, "warning",
		fmt.Sprintf("Comment %s was reported: %s", commentID, req.Reason))

	return c.JSON(http.StatusCreated, echo.Map{
		"report_id": reportID,
		"message":   "report submitted",
	})
}

// GetPendingComments lists comments awaiting approval, newest first
// GET /admin/comments/pending
func GetPendingComments(c echo.Context) error {
	ctx := context.Background()
	page := pageParam(c)
	offset := (page - 1) * pageSize

	var total int
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments WHERE is_approved = FALSE AND deleted_at IS NULL`,
	).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count pending comments"})
	}

	rows, err := db.Conn.Query(ctx,
		`SELECT `+selectColumns+`
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.is_approved = FALSE AND c.deleted_at IS NULL
		 ORDER BY c.created_at DESC LIMIT $1 OFFSET $2`,
		pageSize, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch pending comments"})
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		cm, err := scanComment(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read comment record"})
		}
		comments = append(comments, *cm)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": comments,
		"meta": pageMeta(total, page),
	})
}

// ApproveComment publishes a pending comment
// POST /admin/comments/:id/approve
func ApproveComment(c echo.Context) error {
	commentID := c.Param("id")
	if _, err := uuid.Parse(commentID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id format"})
	}

	ctx := context.Background()

	var authorID string
	var approved bool
	var deletedAt *time.Time
	err := db.Conn.QueryRow(ctx,
		`SELECT user_id, is_approved, deleted_at FROM comments WHERE id = $1`, commentID,
	).Scan(&authorID, &approved, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch comment"})
	}
	if deletedAt != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	}
	if approved {
		return c.JSON(http.StatusOK, echo.Map{"message": "comment already approved"})
	}

	if _, err := db.Conn.Exec(ctx,
		`UPDATE comments SET is_approved = TRUE, updated_at = NOW() WHERE id = $1`,
		commentID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not approve comment"})
	}

	_ = alerts.CreateNotification(authorID, "comment_approved",
		"Comment approved", "Your comment has been approved and is now public.", &commentID)

	return c.JSON(http.StatusOK, echo.Map{"message": "comment approved"})
}

// GetReports lists comment reports for admins, open first
// GET /admin/reports
func GetReports(c echo.Context) error {
	ctx := context.Background()
	page := pageParam(c)
	offset := (page - 1) * pageSize

	status := c.QueryParam("status")
	if status != "" && status != "open" && status != "resolved" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "status must be open or resolved"})
	}

	where := ""
	args := []any{}
	if status != "" {
		where = ` WHERE r.status = $1`
		args = append(args, status)
	}

	var total int
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM comment_reports r`+where, args...,
	).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count reports"})
	}

	query := fmt.Sprintf(
		`SELECT r.id, r.comment_id, r.reporter_id, u.name, r.reason, r.status, r.created_at, r.resolved_at
		 FROM comment_reports r JOIN users u ON u.id = r.reporter_id%s
		 ORDER BY (r.status = 'open') DESC, r.created_at DESC LIMIT %d OFFSET %d`,
		where, pageSize, offset)
	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reports"})
	}
	defer rows.Close()

	reports := []Report{}
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.CommentID, &r.ReporterID, &r.ReporterName,
			&r.Reason, &r.Status, &r.CreatedAt, &r.ResolvedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read report record"})
		}
		reports = append(reports, r)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": reports,
		"meta": pageMeta(total, page),
	})
}

// ResolveReport closes a report. Resolving one report closes every
// other open report against the same comment, and the transition is
// one way: a resolved report stays resolved.
// POST /admin/reports/:id/resolve
func ResolveReport(c echo.Context) error {
	adminID, _ := c.Get("user_id").(string)
	reportID := c.Param("id")
	if _, err := uuid.Parse(reportID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report id format"})
	}

	ctx := context.Background()

	var commentID, status, reporterID string
	err := db.Conn.QueryRow(ctx,
		`SELECT comment_id, status, reporter_id FROM comment_reports WHERE id = $1`, reportID,
	).Scan(&commentID, &status, &reporterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch report"})
	}
	if status == "resolved" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "report already resolved"})
	}

	ct, err := db.Conn.Exec(ctx,
		`UPDATE comment_reports
		 SET status = 'resolved', resolved_by = $2, resolved_at = NOW()
		 WHERE comment_id = $1 AND status = 'open'`,
		commentID, adminID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not resolve report"})
	}

	_ = alerts.CreateNotification(reporterID, "report_resolved",
		"Report reviewed", "Thanks for the report. A moderator has reviewed it.", &commentID)

	return c.JSON(http.StatusOK, echo.Map{
		"message":          "report resolved",
		"reports_resolved": ct.RowsAffected(),
	})
}

package comment

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/authz"
	"github.com/aqar-dev/aqarhub/internal/db"
)

const pageSize = 15

const selectColumns = `c.id, c.listing_id, c.user_id, u.name, c.content, c.rating,
       c.is_approved, c.created_at, c.updated_at, c.deleted_at`

func scanComment(row pgx.Row) (*Comment, error) {
	var cm Comment
	err := row.Scan(
		&cm.ID, &cm.ListingID, &cm.UserID, &cm.AuthorName, &cm.Content, &cm.Rating,
		&cm.IsApproved, &cm.CreatedAt, &cm.UpdatedAt, &cm.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

func pageParam(c echo.Context) int {
	page := 1
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	return page
}

func pageMeta(total, page int) echo.Map {
	lastPage := (total + pageSize - 1) / pageSize
	if lastPage < 1 {
		lastPage = 1
	}
	return echo.Map{
		"total":        total,
		"per_page":     pageSize,
		"current_page": page,
		"last_page":    lastPage,
	}
}

func actorFromContext(c echo.Context) authz.Actor {
	uid, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	return authz.Actor{ID: uid, Role: role}
}

// listingExists guards comment routes nested under a listing.
func listingExists(ctx context.Context, listingID string) (bool, error) {
	var exists bool
	err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM listings WHERE id = $1)`, listingID).Scan(&exists)
	return exists, err
}

// GetListingComments returns approved comments for a listing, newest first
// GET /listings/:id/comments
func GetListingComments(c echo.Context) error {
	listingID := c.Param("id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	ctx := context.Background()

	exists, err := listingExists(ctx, listingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}

	page := pageParam(c)
	offset := (page - 1) * pageSize

	var total int
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments
		 WHERE listing_id = $1 AND is_approved = TRUE AND deleted_at IS NULL`,
		listingID).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count comments"})
	}

	rows, err := db.Conn.Query(ctx,
		`SELECT `+selectColumns+`
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.listing_id = $1 AND c.is_approved = TRUE AND c.deleted_at IS NULL
		 ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`,
		listingID, pageSize, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch comments"})
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

// GetComment returns a single comment belonging to a listing
// GET /listings/:id/comments/:comment_id
func GetComment(c echo.Context) error {
	listingID := c.Param("id")
	commentID := c.Param("comment_id")
	if _, err := uuid.Parse(commentID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id format"})
	}

	ctx := context.Background()

	cm, err := scanComment(db.Conn.QueryRow(ctx,
		`SELECT `+selectColumns+`
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.id = $1`, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch comment"})
	}

	// A comment fetched through the wrong listing path does not exist
	// as far as the caller is concerned.
	if cm.ListingID != listingID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	}

	if !VisibleTo(actorFromContext(c), cm) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": cm})
}

type CreateCommentRequest struct {
	Content string `json:"content"`
	Rating  *int   `json:"rating"`
}

// CreateComment posts a comment on a listing
// POST /listings/:id/comments
func CreateComment(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	listingID := c.Param("id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	var req CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := ValidateContent(req.Content); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	if err := ValidateRating(req.Rating); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	ctx := context.Background()

	exists, err := listingExists(ctx, listingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}

	commentID := uuid.New().String()
	approved := initialApproval()
	_, err = db.Conn.Exec(ctx,
		`INSERT INTO comments (id, listing_id, user_id, content, rating, is_approved)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		commentID, listingID, uid, req.Content, req.Rating, approved,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create comment"})
	}

	msg := "comment published"
	if !approved {
		msg = "comment submitted for review"
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"comment_id":  commentID,
		"is_approved": approved,
		"message":     msg,
	})
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateComment edits a comment's content. Editing does not reset the
// approval state.
// PUT /comments/:id
func UpdateComment(c echo.Context) error {
	commentID := c.Param("id")
	if _, err := uuid.Parse(commentID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id format"})
	}

	var req UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := ValidateContent(req.Content); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	ctx := context.Background()

	var ownerID string
	var deletedAt *time.Time
	err := db.Conn.QueryRow(ctx,
		`SELECT user_id, deleted_at FROM comments WHERE id = $1`, commentID,
	).Scan(&ownerID, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch comment"})
	}
	if deletedAt != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	}

	if err := authz.Authorize(actorFromContext(c), authz.Resource{OwnerID: ownerID}, authz.ActionMutate); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unauthorized"})
	}

	if _, err := db.Conn.Exec(ctx,
		`UPDATE comments SET content = $2, updated_at = NOW() WHERE id = $1`,
		commentID, req.Content,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update comment"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "comment updated successfully"})
}

// DeleteComment soft deletes a comment
// DELETE /comments/:id
func DeleteComment(c echo.Context) error {
	commentID := c.Param("id")
	if _, err := uuid.Parse(commentID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id format"})
	}

	ctx := context.Background()

	var ownerID string
	var deletedAt *time.Time
	err := db.Conn.QueryRow(ctx,
		`SELECT user_id, deleted_at FROM comments WHERE id = $1`, commentID,
	).Scan(&ownerID, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch comment"})
	}
	if deletedAt != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	}

	if err := authz.Authorize(actorFromContext(c), authz.Resource{OwnerID: ownerID}, authz.ActionDelete); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unauthorized"})
	}

	if _, err := db.Conn.Exec(ctx,
		`UPDATE comments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		commentID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete comment"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "comment deleted successfully"})
}

// GetListingRating returns the average rating over approved comments
// GET /listings/:id/rating
func GetListingRating(c echo.Context) error {
	listingID := c.Param("id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	ctx := context.Background()

	exists, err := listingExists(ctx, listingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}

	var avg *float64
	var count int
	err = db.Conn.QueryRow(ctx,
		`SELECT AVG(rating), COUNT(rating) FROM comments
		 WHERE listing_id = $1 AND is_approved = TRUE AND deleted_at IS NULL AND rating IS NOT NULL`,
		listingID,
	).Scan(&avg, &count)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute rating"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"listing_id":     listingID,
		"average_rating": avg,
		"ratings_count":  count,
	})
}

// GetMyListingsComments returns comments left on the caller's listings
// GET /user/listings/comments
func GetMyListingsComments(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := context.Background()
	page := pageParam(c)
	offset := (page - 1) * pageSize

	var total int
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments c
		 JOIN listings l ON l.id = c.listing_id
		 WHERE l.user_id = $1 AND c.is_approved = TRUE AND c.deleted_at IS NULL`,
		uid).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count comments"})
	}

	rows, err := db.Conn.Query(ctx,
		`SELECT `+selectColumns+`, l.title
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 JOIN listings l ON l.id = c.listing_id
		 WHERE l.user_id = $1 AND c.is_approved = TRUE AND c.deleted_at IS NULL
		 ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`,
		uid, pageSize, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch comments"})
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var cm Comment
		var listingTitle string
		if err := rows.Scan(
			&cm.ID, &cm.ListingID, &cm.UserID, &cm.AuthorName, &cm.Content, &cm.Rating,
			&cm.IsApproved, &cm.CreatedAt, &cm.UpdatedAt, &cm.DeletedAt, &listingTitle,
		); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read comment record"})
		}
		items = append(items, echo.Map{
			"comment":       cm,
			"listing_title": listingTitle,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": pageMeta(total, page),
	})
}

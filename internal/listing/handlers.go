package listing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/authz"
	"github.com/aqar-dev/aqarhub/internal/db"
)

const pageSize = 15

const selectColumns = `id, user_id, ad_type_id, title, description, price, address, city,
       bedrooms, bathrooms, area_sqm, photos, is_paid, expiry_date, created_at, updated_at`

func scanListing(row pgx.Row) (*Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID, &l.UserID, &l.AdTypeID, &l.Title, &l.Description, &l.Price,
		&l.Address, &l.City, &l.Bedrooms, &l.Bathrooms, &l.AreaSqm, &l.Photos,
		&l.IsPaid, &l.ExpiryDate, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetListings returns listings with optional filters, newest first
// GET /listings
func GetListings(c echo.Context) error {
	return listListings(c)
}

// SearchListings is the filtered search endpoint; a text query is required
// GET /search-listings
func SearchListings(c echo.Context) error {
	if c.QueryParam("q") == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "search query 'q' is required"})
	}
	return listListings(c)
}

func listListings(c echo.Context) error {
	q := c.QueryParam("q")
	city := c.QueryParam("city")
	minPrice := c.QueryParam("min_price")
	maxPrice := c.QueryParam("max_price")
	bedrooms := c.QueryParam("bedrooms")

	page := 1
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	offset := (page - 1) * pageSize

	var where []string
	var args []any
	addCond := func(cond string, vals ...any) {
		placeholders := make([]any, len(vals))
		for i := range vals {
			args = append(args, vals[i])
			placeholders[i] = len(args)
		}
		where = append(where, fmt.Sprintf(cond, placeholders...))
	}

	if q != "" {
		qArg := "%" + q + "%"
		addCond("(title ILIKE $%d OR description ILIKE $%d)", qArg, qArg)
	}
	if city != "" {
		addCond("city ILIKE $%d", city)
	}
	if minPrice != "" {
		if v, err := strconv.ParseInt(minPrice, 10, 64); err == nil {
			addCond("price >= $%d", v)
		}
	}
	if maxPrice != "" {
		if v, err := strconv.ParseInt(maxPrice, 10, 64); err == nil {
			addCond("price <= $%d", v)
		}
	}
	if bedrooms != "" {
		if v, err := strconv.Atoi(bedrooms); err == nil {
			addCond("bedrooms >= $%d", v)
		}
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	ctx := context.Background()

	var total int
	if err := db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM listings`+whereClause, args...).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count listings"})
	}

	query := fmt.Sprintf(`SELECT %s FROM listings%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		selectColumns, whereClause, pageSize, offset)
	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listings"})
	}
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read listing record"})
		}
		listings = append(listings, *l)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": listings,
		"meta": pageMeta(total, page),
	})
}

// GetFeaturedListings returns active paid listings, newest first
// GET /featured-listings
func GetFeaturedListings(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		fmt.Sprintf(`SELECT %s FROM listings
		 WHERE is_paid = TRUE AND expiry_date > NOW()
		 ORDER BY created_at DESC LIMIT 10`, selectColumns))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch featured listings"})
	}
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read listing record"})
		}
		listings = append(listings, *l)
	}

	return c.JSON(http.StatusOK, echo.Map{"data": listings})
}

// GetListing returns a single listing, served from cache when possible
// GET /listings/:id
func GetListing(c echo.Context) error {
	listingID := c.Param("id")
	if _, err := uuid.Parse(listingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id format"})
	}

	ctx := context.Background()

	if l := cacheGet(ctx, listingID); l != nil {
		return c.JSON(http.StatusOK, echo.Map{"data": l})
	}

	l, err := scanListing(db.Conn.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM listings WHERE id = $1`, selectColumns), listingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}

	cacheSet(ctx, l)

	return c.JSON(http.StatusOK, echo.Map{"data": l})
}

type CreateListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Bedrooms    *int   `json:"bedrooms"`
	Bathrooms   *int   `json:"bathrooms"`
	AreaSqm     *int   `json:"area_sqm"`
	AdTypeID    int    `json:"ad_type_id"`
}

// CreateListing publishes a new property advertisement
// POST /listings
func CreateListing(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.Price < 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "title and a non-negative price are required"})
	}

	ctx := context.Background()

	var adTypeExists bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM ad_types WHERE id = $1)`, req.AdTypeID,
	).Scan(&adTypeExists); err != nil || !adTypeExists {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unknown ad type"})
	}

	listingID := uuid.New().String()
	_, err := db.Conn.Exec(ctx,
		`INSERT INTO listings (id, user_id, ad_type_id, title, description, price, address, city, bedrooms, bathrooms, area_sqm)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		listingID, uid, req.AdTypeID, req.Title, req.Description, req.Price,
		req.Address, req.City, req.Bedrooms, req.Bathrooms, req.AreaSqm,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create listing"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"listing_id": listingID,
		"message":    "listing created successfully",
	})
}

// UpdateListing edits an owned listing
// PUT /listings/:id
func UpdateListing(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	listingID := c.Param("id")

	ctx := context.Background()

	l, err := scanListing(db.Conn.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM listings WHERE id = $1`, selectColumns), listingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}

	if err := authz.Authorize(
		authz.Actor{ID: uid, Role: role},
		authz.Resource{OwnerID: l.UserID},
		authz.ActionMutate,
	); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unauthorized"})
	}

	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.Price < 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "title and a non-negative price are required"})
	}

	_, err = db.Conn.Exec(ctx,
		`UPDATE listings
		 SET title = $2, description = $3, price = $4, address = $5, city = $6,
		     bedrooms = $7, bathrooms = $8, area_sqm = $9, updated_at = NOW()
		 WHERE id = $1`,
		listingID, req.Title, req.Description, req.Price, req.Address, req.City,
		req.Bedrooms, req.Bathrooms, req.AreaSqm,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update listing"})
	}

	InvalidateCache(ctx, listingID)

	return c.JSON(http.StatusOK, echo.Map{"message": "listing updated successfully"})
}

// DeleteListing removes an owned listing
// DELETE /listings/:id
func DeleteListing(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	listingID := c.Param("id")

	ctx := context.Background()

	var ownerID string
	err := db.Conn.QueryRow(ctx, `SELECT user_id FROM listings WHERE id = $1`, listingID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing"})
	}

	if err := authz.Authorize(
		authz.Actor{ID: uid, Role: role},
		authz.Resource{OwnerID: ownerID},
		authz.ActionDelete,
	); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unauthorized"})
	}

	if _, err := db.Conn.Exec(ctx, `DELETE FROM listings WHERE id = $1`, listingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete listing"})
	}

	InvalidateCache(ctx, listingID)

	return c.JSON(http.StatusOK, echo.Map{"message": "listing deleted successfully"})
}

// GetUserListings returns the caller's listings
// GET /user/listings
func GetUserListings(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		fmt.Sprintf(`SELECT %s FROM listings WHERE user_id = $1 ORDER BY created_at DESC`, selectColumns), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listings"})
	}
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read listing record"})
		}
		listings = append(listings, *l)
	}

	return c.JSON(http.StatusOK, echo.Map{"data": listings})
}

// GetAdTypes returns the ad type catalog
// GET /ad-types
func GetAdTypes(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, name, price, duration_days FROM ad_types ORDER BY price`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ad types"})
	}
	defer rows.Close()

	types := []AdType{}
	for rows.Next() {
		var t AdType
		if err := rows.Scan(&t.ID, &t.Name, &t.Price, &t.DurationDays); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read ad type"})
		}
		types = append(types, t)
	}

	return c.JSON(http.StatusOK, echo.Map{"data": types})
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

package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/aqar-dev/aqarhub/internal/alerts"
	"github.com/aqar-dev/aqarhub/internal/db"
)

const pageSize = 15

// ListUsers returns accounts for the admin console, newest first
// GET /admin/users
func ListUsers(c echo.Context) error {
	page := 1
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	offset := (page - 1) * pageSize

	role := c.QueryParam("role")
	if role != "" && role != "admin" && role != "owner" && role != "user" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "role must be admin, owner or user"})
	}

	where := ""
	args := []any{}
	if role != "" {
		where = ` WHERE role = $1`
		args = append(args, role)
	}

	ctx := context.Background()

	var total int
	if err := db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count users"})
	}

	args = append(args, pageSize, offset)
	rows, err := db.Conn.Query(ctx,
		`SELECT id, name, email, phone, role, is_active, created_at FROM users`+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch users"})
	}
	defer rows.Close()

	users := []echo.Map{}
	for rows.Next() {
		var id, name, email, userRole string
		var phone *string
		var isActive bool
		var createdAt time.Time
		if err := rows.Scan(&id, &name, &email, &phone, &userRole, &isActive, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, echo.Map{
			"id":         id,
			"name":       name,
			"email":      email,
			"phone":      phone,
			"role":       userRole,
			"is_active":  isActive,
			"created_at": createdAt,
		})
	}

	lastPage := (total + pageSize - 1) / pageSize
	if lastPage < 1 {
		lastPage = 1
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": users,
		"meta": echo.Map{
			"total":        total,
			"per_page":     pageSize,
			"current_page": page,
			"last_page":    lastPage,
		},
	})
}

func setUserActive(c echo.Context, active bool) error {
	adminID, _ := c.Get("user_id").(string)
	userID := c.Param("id")

	if !active && userID == adminID {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "you cannot suspend your own account"})
	}

	ctx := context.Background()

	var role string
	err := db.Conn.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}
	if !active && role == "admin" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "admins cannot be suspended"})
	}

	if _, err := db.Conn.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`,
		userID, active,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update user"})
	}

	if active {
		_ = alerts.CreateNotification(userID, "account_reactivated",
			"Account reactivated", "Your account has been reactivated. Welcome back.", nil)
		return c.JSON(http.StatusOK, echo.Map{"message": "user activated"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user suspended"})
}

// SuspendUser blocks an account from logging in
// POST /admin/users/:id/suspend
func SuspendUser(c echo.Context) error {
	return setUserActive(c, false)
}

// ActivateUser lifts a suspension
// POST /admin/users/:id/activate
func ActivateUser(c echo.Context) error {
	return setUserActive(c, true)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetUserRole switches an account between user and owner
// POST /admin/users/:id/role
func SetUserRole(c echo.Context) error {
	userID := c.Param("id")

	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Role != "user" && req.Role != "owner" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "role must be user or owner"})
	}

	ctx := context.Background()

	var current string
	err := db.Conn.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}
	if current == "admin" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "admin role cannot be changed here"})
	}

	if _, err := db.Conn.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`,
		userID, req.Role,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update user"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "user role updated", "role": req.Role})
}

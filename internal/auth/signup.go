package auth

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/aqar-dev/aqarhub/internal/alerts"
	"github.com/aqar-dev/aqarhub/internal/db"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type SignupResponse struct {
	Token string `json:"token"`
}

// ===== Signup =====
func Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name and a valid email are required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "password must be at least 8 characters"})
	}

	// Self-registration only covers owners and regular users.
	role := req.Role
	if role == "" {
		role = "user"
	}
	if role != "user" && role != "owner" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "role must be 'user' or 'owner'"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ctx := context.Background()

	var userID string
	err = db.Conn.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, uuid.New().String(), req.Name, req.Email, string(hashed), req.Phone, role).Scan(&userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
	}

	_ = alerts.EnqueueWelcomeEmail(userID, req.Email, req.Name)

	signed, err := issueToken(userID, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusCreated, SignupResponse{Token: signed})
}

// issueToken signs a 72h session token carrying user id and role.
func issueToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

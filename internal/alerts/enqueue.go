package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aqar-dev/aqarhub/internal/db"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	subject := fmt.Sprintf("Welcome to AqarHub, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining AqarHub.\n\nBrowse listings: %s\n\nIf the link doesn't work, copy and paste the URL above.", name, base)

	env := EmailEnvelope{
		To:      email,
		Subject: subject,
		Body:    body,
	}
	payload := WelcomeEmailPayload{UserID: userID, Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueuePasswordReset schedules a password reset notification
func EnqueuePasswordReset(userID, email, resetURL, name string) error {
	expiry := os.Getenv("PASSWORD_RESET_EXP_MINUTES")
	if expiry == "" {
		expiry = "30"
	}
	subject := "Password reset instructions"
	body := fmt.Sprintf("Hello %s,\n\nWe received a request to reset your AqarHub password.\n\nTo proceed, open the link below:\n%s\n\nThis link expires in %s minutes. If you did not request this, no action is required.\n\n— AqarHub Team", name, resetURL, expiry)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	payload := PasswordResetPayload{UserID: userID, Email: email, ResetURL: resetURL, Envelope: env, Requested: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskPasswordReset, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueAdminAlert sends an alert to the moderation inbox
func EnqueueAdminAlert(actorID, severity, message string) error {
	to := os.Getenv("ADMIN_ALERT_EMAIL")
	if to == "" {
		to = "admin@aqarhub.local"
	}
	env := EmailEnvelope{To: to, Subject: "Admin Alert", Body: message}
	payload := AdminAlertPayload{ActorID: actorID, Severity: severity, Message: message, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskAdminAlert, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}

// CreateNotification records an in-app notification for a user
func CreateNotification(userID, ntype, title, body string, reference *string) error {
	_, err := db.Conn.Exec(context.Background(),
		`INSERT INTO notifications (user_id, type, title, body, reference)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, ntype, title, body, reference,
	)
	return err
}

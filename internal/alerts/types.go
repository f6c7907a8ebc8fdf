package alerts

import "time"

// Task type names routed through asynq.
const (
	TaskWelcomeEmail  = "email:welcome"
	TaskPasswordReset = "email:password_reset"
	TaskAdminAlert    = "alert:admin"
)

// EmailEnvelope is the rendered message handed to the mailer.
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

type PasswordResetPayload struct {
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	ResetURL  string        `json:"reset_url"`
	Envelope  EmailEnvelope `json:"envelope"`
	Requested time.Time     `json:"requested"`
}

// AdminAlertPayload notifies admins about events needing manual work:
// a payment awaiting verification or a newly reported comment.
type AdminAlertPayload struct {
	ActorID  string        `json:"actor_id"`
	Severity string        `json:"severity"`
	Message  string        `json:"message"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

package comment

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aqar-dev/aqarhub/internal/authz"
)

// MaxContentLength caps comment bodies.
const MaxContentLength = 1000

var (
	ErrEmptyContent   = errors.New("content is required")
	ErrContentTooLong = errors.New("content too long")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// Comment is a user review on a listing. Deleted comments keep their
// row with deleted_at set.
type Comment struct {
	ID         string     `json:"id"`
	ListingID  string     `json:"listing_id"`
	UserID     string     `json:"user_id"`
	AuthorName string     `json:"author_name,omitempty"`
	Content    string     `json:"content"`
	Rating     *int       `json:"rating"`
	IsApproved bool       `json:"is_approved"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"-"`
}

// Report is a user flag against a comment. Resolution is monotonic:
// open reports become resolved, never the reverse.
type Report struct {
	ID           string     `json:"id"`
	CommentID    string     `json:"comment_id"`
	ReporterID   string     `json:"reporter_id"`
	ReporterName string     `json:"reporter_name,omitempty"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
}

// requireApproval is the moderation policy: when true, new comments
// land in the admin queue instead of publishing immediately.
var requireApproval bool

// SetPolicy configures the moderation policy at startup.
func SetPolicy(approvalRequired bool) {
	requireApproval = approvalRequired
}

// initialApproval decides the state a new comment is created in.
func initialApproval() bool {
	return !requireApproval
}

// ValidateContent enforces the comment body constraints. The length
// cap counts characters, not bytes, so Arabic text is not penalized.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

// ValidateRating checks an optional 1..5 rating.
func ValidateRating(rating *int) error {
	if rating == nil {
		return nil
	}
	if *rating < 1 || *rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// VisibleTo reports whether actor may read the comment. Deleted
// comments are visible to nobody; unapproved ones only to their
// author and admins.
func VisibleTo(actor authz.Actor, cm *Comment) bool {
	if cm.DeletedAt != nil {
		return false
	}
	if cm.IsApproved {
		return true
	}
	return authz.Authorize(actor, authz.Resource{OwnerID: cm.UserID}, authz.ActionRead) == nil
}

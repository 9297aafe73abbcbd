package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the verification verdict of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a status string coming from outside the core.
func ParseStatus(value string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}

// Article is a user submission under verification.
type Article struct {
	ID          string
	Title       string
	Content     string
	MediaPath   string
	Status      Status
	TextResult  *AnalysisResult
	MediaResult *AnalysisResult
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMedia reports whether a file was attached on submission.
func (a Article) HasMedia() bool {
	return a.MediaPath != ""
}

// AnalysisOutcome is the set of fields written by the final update.
type AnalysisOutcome struct {
	Status      Status
	TextResult  AnalysisResult
	MediaResult AnalysisResult
}

// ListFilter narrows article listings; zero values mean no restriction.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// MediaUpload references a file already written to disk by the ingress layer.
type MediaUpload struct {
	Path         string
	OriginalName string
	PublicPath   string
}

// VerdictEvent is emitted once per decided submission.
type VerdictEvent struct {
	ArticleID  string    `json:"articleId"`
	Status     Status    `json:"status"`
	TextLabel  string    `json:"textLabel"`
	MediaLabel string    `json:"mediaLabel"`
	HasMedia   bool      `json:"hasMedia"`
	DecidedAt  time.Time `json:"decidedAt"`
}

// PendingDigest summarizes submissions still waiting for a moderator.
type PendingDigest struct {
	GeneratedAt time.Time
	Items       []PendingItem
	// Truncated is set when more pending submissions exist than Items holds.
	Truncated bool
}

// PendingItem is one waiting submission. Results are nil until analysis ran.
type PendingItem struct {
	ID    string
	Title string
	Text  *AnalysisResult
	Media *AnalysisResult
}

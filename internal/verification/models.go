package verification

import (
	"errors"

	"eco-proof/community-portal/community-portal-backend/internal/award"
	"eco-proof/community-portal/community-portal-backend/internal/upload"
)

// Collection is the record store collection verifications are kept in.
const Collection = "verifications"

// ErrMissingFields is returned when a submission lacks its user, action or
// proof image.
var ErrMissingFields = errors.New("user, action and photo are required")

// Status is the lifecycle state of a verification.
type Status string

const (
	// StatusPending marks a submission waiting for administrator review.
	StatusPending Status = "pending"
	// StatusAccepted marks a submission whose award has been credited.
	StatusAccepted Status = "accepted"
)

// Verification is a single proof-of-action submission.
type Verification struct {
	ID        int64             `json:"id"`
	User      string            `json:"user"`
	Action    string            `json:"action"`
	File      upload.StoredFile `json:"file"`
	Status    Status            `json:"status"`
	Award     *award.Award      `json:"award,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// SubmitInput carries a stored proof image into the workflow.
type SubmitInput struct {
	User   string
	Action string
	File   *upload.StoredFile
}

// SubmitResult is the caller-facing outcome of a submission. Accepted
// submissions carry the granted award, pending ones the stored filename.
type SubmitResult struct {
	Status   Status       `json:"status"`
	ID       int64        `json:"id"`
	Award    *award.Award `json:"award,omitempty"`
	Filename string       `json:"filename,omitempty"`
}

// ApproveResult reports an administrative approval. Credited is false when
// the verification had already been accepted.
type ApproveResult struct {
	Verification Verification `json:"verification"`
	Credited     bool         `json:"credited"`
}

// Filter narrows verification listings. Zero values match everything.
type Filter struct {
	Status Status
	Action string
	User   string
}

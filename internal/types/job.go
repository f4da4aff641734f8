package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

// Job state machine: pending → processing → {completed, failed, retry}.
// retry is claimable again; completed and failed are terminal.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetry      JobStatus = "retry"
)

// Known job types. The worker registry is the authority; these constants
// exist so enqueue sites and handlers agree on spelling.
const (
	JobTypeClipScore    = "clip_score"
	JobTypeClipPublish  = "clip_publish"
	JobTypeWeightsTrain = "weights_train"
)

// Job is one unit of asynchronous work in the persistent queue. A row is
// claimed by at most one worker per processing attempt; the claim itself is
// the status transition to processing.
type Job struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobType string    `gorm:"column:job_type;not null;index" json:"job_type"`
	Status  JobStatus `gorm:"column:status;not null;default:pending;index" json:"status"`

	// DedupKey enforces at most one live (pending/processing/retry) job per
	// logical request. Checked transactionally at enqueue.
	DedupKey *string `gorm:"column:dedup_key;index" json:"dedup_key,omitempty"`

	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	Result    datatypes.JSON `gorm:"column:result" json:"result,omitempty"`
	Error     string         `gorm:"column:error" json:"error,omitempty"`
	Attempts  int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LockedAt  *time.Time     `gorm:"column:locked_at" json:"locked_at,omitempty"`
	ElapsedMs int64          `gorm:"column:elapsed_ms;not null;default:0" json:"elapsed_ms"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Job) TableName() string { return "job" }

// Live reports whether the job still occupies its dedup key.
func (j *Job) Live() bool {
	switch j.Status {
	case JobStatusPending, JobStatusProcessing, JobStatusRetry:
		return true
	default:
		return false
	}
}

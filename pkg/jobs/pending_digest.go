package jobs

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/pkg/email"
)

// PendingApprovalsDigestJob emails instructors a digest of watch reports that
// have been waiting for approval longer than the configured threshold.
type PendingApprovalsDigestJob struct {
	db          *gorm.DB
	emailClient *email.Client
	logger      *slog.Logger
	minWaiting  time.Duration
}

// NewPendingApprovalsDigestJob creates a new pending approvals digest job.
func NewPendingApprovalsDigestJob(db *gorm.DB, emailClient *email.Client, logger *slog.Logger, minWaiting time.Duration) *PendingApprovalsDigestJob {
	if minWaiting <= 0 {
		minWaiting = time.Hour
	}
	return &PendingApprovalsDigestJob{
		db:          db,
		emailClient: emailClient,
		logger:      logger,
		minWaiting:  minWaiting,
	}
}

// Name returns the job name.
func (j *PendingApprovalsDigestJob) Name() string {
	return "pending_approvals_digest"
}

// Execute collects stale pending entries grouped by course instructor and
// sends one digest email per instructor. Courses without an assigned
// instructor are skipped.
func (j *PendingApprovalsDigestJob) Execute(ctx context.Context) error {
	cutoff := time.Now().Add(-j.minWaiting)

	rows, err := j.db.WithContext(ctx).
		Raw(`SELECT i.email, s.full_name, c.name, v.title, p.created_at
			 FROM progress p
			 JOIN courses c ON c.id = p.course_id
			 JOIN users i ON i.id = c.instructor_id
			 JOIN users s ON s.id = p.user_id
			 JOIN videos v ON v.id = p.video_id
			 WHERE p.completed = false
			   AND p.video_id IS NOT NULL
			   AND p.created_at < ?
			 ORDER BY i.email, p.created_at ASC`, cutoff).
		Rows()
	if err != nil {
		return fmt.Errorf("failed to query pending entries: %w", err)
	}
	defer rows.Close()

	digests := make(map[string][]email.PendingDigestRow)
	now := time.Now()

	for rows.Next() {
		var instructorEmail, studentName, courseName, videoTitle string
		var createdAt time.Time
		if err := rows.Scan(&instructorEmail, &studentName, &courseName, &videoTitle, &createdAt); err != nil {
			j.logger.Error("failed to scan pending entry row", "error", err)
			continue
		}

		digests[instructorEmail] = append(digests[instructorEmail], email.PendingDigestRow{
			StudentName: studentName,
			CourseName:  courseName,
			VideoTitle:  videoTitle,
			WaitingFor:  now.Sub(createdAt),
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate pending entries: %w", err)
	}

	sent := 0
	for instructorEmail, digestRows := range digests {
		if err := j.emailClient.SendPendingApprovalsDigest(instructorEmail, digestRows); err != nil {
			j.logger.Error("failed to send pending approvals digest",
				"instructor", instructorEmail, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		j.logger.Info("pending approvals digest sent", "instructors", sent)
	}

	return nil
}

package progress

import (
	"errors"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/video"
	"github.com/courseflow/courseflow-server/pkg/metrics"
)

// ApprovalResult reports what an approval did.
type ApprovalResult struct {
	Entry     Progress     `json:"entry"`
	NextVideo *video.Video `json:"nextVideo,omitempty"`
	NextEntry *Progress    `json:"nextEntry,omitempty"`
}

// Approve marks a pending entry as completed and provisions the next video's
// ledger row. The next video is the one with the smallest order strictly
// greater than the approved video's persisted order.
//
// By default a failure in the provisioning step is logged and the approval
// still succeeds, so a student is never blocked on an already-earned
// completion; the row reappears on the next approval because provisioning is
// an upsert. With strict=true both steps run in a single transaction.
func Approve(db *gorm.DB, logger *slog.Logger, entryID uuid.UUID, strict bool) (ApprovalResult, error) {
	if strict {
		var result ApprovalResult
		err := db.Transaction(func(tx *gorm.DB) error {
			res, err := approve(tx, logger, entryID, true)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
		if err != nil {
			metrics.RecordApproval("failed")
			return ApprovalResult{}, err
		}
		return result, nil
	}

	result, err := approve(db, logger, entryID, false)
	if err != nil {
		metrics.RecordApproval("failed")
		return ApprovalResult{}, err
	}
	return result, nil
}

func approve(db *gorm.DB, logger *slog.Logger, entryID uuid.UUID, strict bool) (ApprovalResult, error) {
	entry, err := Get(db, entryID)
	if err != nil {
		return ApprovalResult{}, err
	}

	if entry.VideoID == nil || entry.Video == nil {
		// Enrollment markers are not approvable.
		return ApprovalResult{}, ErrEntryNotFound
	}

	if err := db.Model(&Progress{}).
		Where("id = ?", entry.ID).
		Update("completed", true).Error; err != nil {
		return ApprovalResult{}, err
	}
	entry.Completed = true

	result := ApprovalResult{Entry: entry}

	next, err := video.NextAfter(db, entry.CourseID, entry.Video.Order)
	if err != nil {
		if errors.Is(err, video.ErrNoNextVideo) {
			metrics.RecordApproval("none")
			return result, nil
		}
		if strict {
			return ApprovalResult{}, err
		}
		logger.Error("failed to look up next video after approval",
			slog.String("progress_id", entry.ID.String()),
			slog.String("course_id", entry.CourseID.String()),
			slog.String("error", err.Error()),
		)
		metrics.RecordApproval("failed")
		return result, nil
	}

	nextEntry, err := Upsert(db, UpsertInput{
		UserID:    entry.UserID,
		CourseID:  entry.CourseID,
		VideoID:   next.ID,
		Completed: false,
	})
	if err != nil {
		if strict {
			return ApprovalResult{}, err
		}
		logger.Error("failed to provision next video entry after approval",
			slog.String("progress_id", entry.ID.String()),
			slog.String("next_video_id", next.ID.String()),
			slog.String("error", err.Error()),
		)
		metrics.RecordApproval("failed")
		return result, nil
	}

	result.NextVideo = &next
	result.NextEntry = &nextEntry
	metrics.RecordApproval("unlocked")
	return result, nil
}

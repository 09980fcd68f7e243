package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/utils"
)

// SessionRun is the persisted history entry of a finished run.
type SessionRun struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey"`
	RunID          string         `gorm:"column:run_id;type:varchar(50);uniqueIndex;not null"`
	AccountAddress string         `gorm:"column:account_address;type:varchar(255);index"`
	Status         enum.RunStatus `gorm:"column:status;type:varchar(20);index;not null"`
	Trigger        string         `gorm:"column:trigger;type:varchar(20)"`
	DryRun         bool           `gorm:"column:dry_run;default:false"`
	Folders        string         `gorm:"column:folders;type:text"`
	Total          int            `gorm:"column:total"`
	Processed      int            `gorm:"column:processed"`
	CCMoved        int            `gorm:"column:cc_moved"`
	RulesApplied   int            `gorm:"column:rules_applied"`
	ChainsApplied  int            `gorm:"column:chains_applied"`
	Errors         int            `gorm:"column:errors"`
	Error          string         `gorm:"column:error;type:text"`
	StartedAt      time.Time      `gorm:"column:started_at;type:timestamp;index"`
	FinishedAt     time.Time      `gorm:"column:finished_at;type:timestamp"`
	CreatedAt      time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (SessionRun) TableName() string {
	return "session_runs"
}

func (r *SessionRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func NewSessionRun(accountAddress string, report SessionReport) *SessionRun {
	return &SessionRun{
		RunID:          report.RunID,
		AccountAddress: accountAddress,
		Status:         report.Status,
		Trigger:        report.Trigger.String(),
		DryRun:         report.DryRun,
		Folders:        utils.SliceToString(report.Folders),
		Total:          report.Stats.Total,
		Processed:      report.Stats.Processed,
		CCMoved:        report.Stats.CCMoved,
		RulesApplied:   report.Stats.RulesApplied,
		ChainsApplied:  report.Stats.ChainsApplied,
		Errors:         report.Stats.Errors,
		Error:          report.Error,
		StartedAt:      report.StartedAt,
		FinishedAt:     report.FinishedAt,
	}
}

// Report converts the stored run back into a report.
func (r *SessionRun) Report() SessionReport {
	return SessionReport{
		RunID:   r.RunID,
		Status:  r.Status,
		Trigger: enum.RunTrigger(r.Trigger),
		DryRun:  r.DryRun,
		Folders: utils.StringToSlice(r.Folders),
		Stats: SessionStats{
			Total:         r.Total,
			Processed:     r.Processed,
			CCMoved:       r.CCMoved,
			RulesApplied:  r.RulesApplied,
			ChainsApplied: r.ChainsApplied,
			Errors:        r.Errors,
		},
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Error:      r.Error,
	}
}

package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	RunRunning   string = "RUNNING"
	RunCompleted string = "COMPLETED"
)

// PipelineRun is one batch invocation of the pipeline.
type PipelineRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	StartTime time.Time
	EndTime   sql.NullTime
	Status    string `gorm:"size:20;not null"`

	Total     int
	Succeeded int
	Failed    int

	Samples []SampleResult `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

// SampleResult is the terminal state of one sample within a run.
type SampleResult struct {
	RunId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	SampleId string    `gorm:"primaryKey"`

	Status string `gorm:"size:20;not null"`
	Error  string
}

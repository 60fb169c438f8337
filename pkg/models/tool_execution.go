package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ToolExecution is one MCP tool call as stored in the history database.
type ToolExecution struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	RunID        string         `gorm:"type:varchar(36);uniqueIndex" json:"run_id"`
	SessionID    string         `gorm:"type:varchar(64);index" json:"session_id,omitempty"`
	ToolName     string         `gorm:"type:varchar(255);index;not null" json:"tool_name"`
	Target       string         `gorm:"type:varchar(255);index" json:"target,omitempty"`
	CommandLine  string         `gorm:"type:text" json:"command_line,omitempty"`
	ExitCode     int            `json:"exit_code"`
	TimedOut     bool           `json:"timed_out"`
	InputJSON    string         `gorm:"type:text" json:"input_json"`
	OutputJSON   string         `gorm:"type:text" json:"output_json,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	Success      bool           `gorm:"index" json:"success"`
}

// BeforeCreate assigns a run id to records that do not have one yet.
func (e *ToolExecution) BeforeCreate(_ *gorm.DB) error {
	if e.RunID == "" {
		e.RunID = uuid.NewString()
	}
	return nil
}

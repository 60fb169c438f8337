package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestToolExecution_JSONFieldNames(t *testing.T) {
	exec := ToolExecution{
		ID:          1,
		CreatedAt:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		RunID:       "0b7c4a52-3c2d-4f5e-8a5e-8d3f3c1f2a10",
		ToolName:    "nmap_scan",
		Target:      "192.168.1.5",
		CommandLine: "nmap -v -sS -T4 -p 22 192.168.1.5",
		ExitCode:    1,
		TimedOut:    true,
		DurationMs:  60000,
	}

	data, err := json.Marshal(exec)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	for _, key := range []string{"run_id", "tool_name", "target", "command_line", "exit_code", "timed_out", "duration_ms", "success"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("expected key %q in JSON output", key)
		}
	}
	if fields["exit_code"].(float64) != 1 {
		t.Errorf("expected exit_code 1, got %v", fields["exit_code"])
	}
}

func TestToolExecution_OmitEmpty(t *testing.T) {
	data, err := json.Marshal(ToolExecution{ToolName: "history"})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	for _, key := range []string{"session_id", "target", "command_line", "output_json", "error_message"} {
		if _, ok := fields[key]; ok {
			t.Errorf("expected %q to be omitted when empty", key)
		}
	}
}

func TestToolExecution_BeforeCreate(t *testing.T) {
	exec := &ToolExecution{ToolName: "nmap_scan"}
	if err := exec.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(exec.RunID); err != nil {
		t.Errorf("expected a UUID run id, got %q", exec.RunID)
	}

	exec = &ToolExecution{RunID: "preset"}
	if err := exec.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.RunID != "preset" {
		t.Errorf("expected preset run id to be kept, got %q", exec.RunID)
	}
}

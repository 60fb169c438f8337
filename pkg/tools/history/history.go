package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/models"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/storage"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
)

const defaultLimit = 10

type Input struct {
	Action  string `json:"action" jsonschema:"list, get, delete, clear, by_tool, by_target or by_session" validate:"required,oneof=list get delete clear by_tool by_target by_session"`
	ID      uint   `json:"id,omitempty"`
	Tool    string `json:"tool,omitempty" jsonschema:"MCP tool name for by_tool" validate:"required_if=Action by_tool"`
	Target  string `json:"target,omitempty" jsonschema:"scan target for by_target" validate:"required_if=Action by_target"`
	Session string `json:"session,omitempty" jsonschema:"session id for by_session" validate:"required_if=Action by_session"`
	Limit   int    `json:"limit,omitempty" validate:"min=0,max=100"`
	Offset  int    `json:"offset,omitempty" validate:"min=0"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	store     storage.Storage
}

func (t *Tool) Register(srv *server.Server) error {
	if srv.Storage() == nil {
		return fmt.Errorf("history requires storage")
	}

	tool := &mcp.Tool{
		Name: "history",
		Description: "Browse and manage tool execution history. Actions: list (paginated), get (by ID), delete (by ID), clear (all), " +
			"by_tool, by_target and by_session (filtered, newest first).",
	}

	t.store = srv.Storage()

	mcp.AddTool(srv.Server, tool, t.HistoryHandler)
	t.logger.Debug().Msg("history tool registered")

	return nil
}

func (t *Tool) HistoryHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	limit := input.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	var resultText string

	switch input.Action {
	case "list":
		executions, total, err := t.store.GetToolExecutions(ctx, limit, input.Offset)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list executions: %w", err)
		}
		resultText = marshal(map[string]any{
			"total":      total,
			"limit":      limit,
			"offset":     input.Offset,
			"executions": executions,
		})

	case "get":
		if input.ID == 0 {
			return nil, nil, fmt.Errorf("id is required for get action")
		}
		exec, err := t.store.GetToolExecution(ctx, input.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("execution not found: %w", err)
		}
		resultText = marshal(exec)

	case "delete":
		if input.ID == 0 {
			return nil, nil, fmt.Errorf("id is required for delete action")
		}
		if err := t.store.DeleteToolExecution(ctx, input.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to delete execution: %w", err)
		}
		resultText = fmt.Sprintf("Execution %d deleted successfully", input.ID)

	case "clear":
		if err := t.store.DeleteAllToolExecutions(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to clear executions: %w", err)
		}
		resultText = "All execution history cleared"

	case "by_tool":
		executions, err := t.store.GetToolExecutionsByTool(ctx, input.Tool, limit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get executions for tool %s: %w", input.Tool, err)
		}
		resultText = filtered("tool", input.Tool, executions)

	case "by_target":
		executions, err := t.store.GetToolExecutionsByTarget(ctx, input.Target, limit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get executions for target %s: %w", input.Target, err)
		}
		resultText = filtered("target", input.Target, executions)

	case "by_session":
		executions, err := t.store.GetToolExecutionsBySession(ctx, input.Session)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get executions for session %s: %w", input.Session, err)
		}
		resultText = filtered("session", input.Session, executions)
	}

	return tools.TextResult(resultText), nil, nil
}

func filtered(key, value string, executions []models.ToolExecution) string {
	return marshal(map[string]any{
		key:          value,
		"count":      len(executions),
		"executions": executions,
	})
}

func marshal(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "history").Logger(),
		validator: validator.New(),
	}
}

package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	claudeagent "github.com/kazz187/claude-agent-sdk-go"

	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/pkg/cerr"
)

const draftSystemPrompt = "You are a task planning assistant. " +
	"Given a description of something the user wants to get done, respond with " +
	"ONLY a JSON object of the shape " +
	`{"title": string, "subtasks": [string], "tags": [string], "deadline": string, "priority": string}. ` +
	"The title is at most 50 characters. Each subtask is a short actionable step of at most 84 characters. " +
	"Tags are at most 2 single lowercase words. Deadline is a YYYY-MM-DD date or an empty string. " +
	"Priority is one of high, medium, low or an empty string. No explanation, no markdown fences."

// ClaudeGenerator produces drafts through a single-turn query against the
// Claude agent runtime.
type ClaudeGenerator struct {
	env *config.AssistEnv
}

func NewClaudeGenerator(env *config.AssistEnv) *ClaudeGenerator {
	return &ClaudeGenerator{env: env}
}

func (g *ClaudeGenerator) GenerateDraft(ctx context.Context, description string) (*Draft, error) {
	prompt := fmt.Sprintf("Create a task draft for the following description.\n\nDescription: %s", description)
	maxTurns := 1
	opts := &claudeagent.ClaudeAgentOptions{
		SystemPrompt: draftSystemPrompt,
		Model:        g.env.Model,
		Cwd:          g.env.WorkDir,
		MaxTurns:     &maxTurns,
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, g.env.Timeout)
	defer cancel()

	result, err := claudeagent.RunQuerySync(timeoutCtx, prompt, opts)
	if err != nil {
		return nil, cerr.NewError(cerr.Unavailable, "draft generation failed", err)
	}
	if result.Result == nil {
		return nil, cerr.NewError(cerr.Unavailable, "draft generation returned no result", nil)
	}

	raw := stripFences(strings.TrimSpace(result.Result.Result))
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to parse generated draft: %w", err))
	}
	return &d, nil
}

// stripFences tolerates a model that wraps its JSON in a markdown code block
// despite the instructions.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

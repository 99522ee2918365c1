// Package executor runs one conversational turn: it asks the model for a
// reply, resolves the turn's actions and dispatches them through the
// automation controller.
package executor

import (
	"context"
	"fmt"
	"strings"

	"browser-pilot/internal/application/port/input"
	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/application/service"
	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/domain/grammar"
	"browser-pilot/internal/usecase/intent"

	"github.com/google/uuid"
)

var _ input.TurnExecutor = (*UseCase)(nil)

// Automation is the slice of the controller a turn needs.
type Automation interface {
	Running() bool
	Perception(ctx context.Context) entity.PerceptionResult
	Context(ctx context.Context) entity.PageContext
	SubmitBatch(ctx context.Context, actions []entity.Action) []entity.StepResult
}

// PromptFunc builds the system prompt for a mode. pageContext is empty when
// no perception is attached.
type PromptFunc func(mode string, browser bool, pageContext string) (string, error)

type Config struct {
	Policy      intent.Policy
	Temperature float32
	MaxTokens   int
}

func DefaultConfig() Config {
	return Config{
		Policy:      intent.PreferMessage,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

type UseCase struct {
	llm       output.LLMPort
	automator Automation
	validator *service.ActionValidator
	audit     output.AuditPort
	logger    output.LoggerPort
	prompt    PromptFunc
	resolver  *intent.Resolver
	cfg       Config
}

func New(
	llm output.LLMPort,
	automator Automation,
	validator *service.ActionValidator,
	audit output.AuditPort,
	logger output.LoggerPort,
	prompt PromptFunc,
	cfg Config,
) *UseCase {
	if validator == nil {
		validator = service.NewActionValidator(nil)
	}
	return &UseCase{
		llm:       llm,
		automator: automator,
		validator: validator,
		audit:     audit,
		logger:    logger,
		prompt:    prompt,
		resolver:  intent.NewResolver(cfg.Policy),
		cfg:       cfg,
	}
}

func (uc *UseCase) Execute(ctx context.Context, turn entity.Turn) (*entity.TurnResult, error) {
	if strings.TrimSpace(turn.Message) == "" {
		return nil, fmt.Errorf("empty message")
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Mode == "" {
		turn.Mode = entity.DefaultMode
	}

	log := uc.logger.WithFields(map[string]any{"turn": turn.ID, "mode": turn.Mode})

	messages, err := uc.buildMessages(ctx, turn)
	if err != nil {
		return nil, err
	}

	resp, err := uc.llm.Chat(ctx, output.ChatRequest{
		Messages:    messages,
		Temperature: uc.cfg.Temperature,
		MaxTokens:   uc.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}

	raw := resp.Message.Content
	res := uc.resolver.Resolve(turn.Message, raw)
	if res.Skipped > 0 {
		log.Warn("Skipped malformed action tags", "skipped", res.Skipped)
	}

	allowed, blocked := uc.validator.Filter(res.Actions)
	for _, action := range blocked {
		reason := uc.validator.Validate(action)
		log.Warn("Action blocked", "action", action.Kind, "reason", reason)
		if uc.audit != nil {
			uc.audit.Blocked(output.AuditRecord{
				TurnID: turn.ID,
				Action: action,
				Source: string(res.Source),
			}, reason)
		}
	}

	log.Info("Turn resolved",
		"source", res.Source,
		"actions", len(allowed),
		"blocked", len(blocked))

	steps := uc.automator.SubmitBatch(ctx, allowed)
	if len(steps) > 0 && uc.audit != nil {
		pageURL := uc.automator.Context(ctx).URL
		for _, step := range steps {
			uc.audit.Record(output.AuditRecord{
				TurnID:   turn.ID,
				Action:   step.Action,
				Result:   step.Result,
				Duration: step.Elapsed,
				PageURL:  pageURL,
				Source:   string(res.Source),
			})
		}
	}

	return &entity.TurnResult{
		TurnID:  turn.ID,
		Reply:   grammar.Strip(raw),
		Mode:    turn.Mode,
		Source:  res.Source,
		Skipped: res.Skipped,
		Blocked: blocked,
		Steps:   steps,
	}, nil
}

// buildMessages attaches the action vocabulary when the message looks like a
// browser request, and the rendered page when the user asks about it.
func (uc *UseCase) buildMessages(ctx context.Context, turn entity.Turn) ([]entity.Message, error) {
	browser := intent.ShouldTriggerAutomation(turn.Message)

	var pageContext string
	if intent.AsksAboutPage(turn.Message) && uc.automator.Running() {
		if p := uc.automator.Perception(ctx); p.Success {
			pageContext = p.Text
		}
	}

	system, err := uc.prompt(turn.Mode, browser, pageContext)
	if err != nil {
		return nil, fmt.Errorf("build system prompt: %w", err)
	}

	return []entity.Message{
		{Role: entity.RoleSystem, Content: system},
		{Role: entity.RoleUser, Content: turn.Message},
	}, nil
}

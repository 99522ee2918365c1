package output

import (
	"context"

	"browser-pilot/internal/domain/entity"
)

type UserInteractionPort interface {
	AskQuestion(ctx context.Context, question string) (string, error)

	ShowReply(ctx context.Context, reply string)
	ShowStep(ctx context.Context, index int, step entity.StepResult)
	ShowNotice(ctx context.Context, message string)
}

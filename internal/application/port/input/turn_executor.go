package input

import (
	"context"

	"browser-pilot/internal/domain/entity"
)

// TurnExecutor runs one conversational turn: model reply, action resolution
// and dispatch.
type TurnExecutor interface {
	Execute(ctx context.Context, turn entity.Turn) (*entity.TurnResult, error)
}

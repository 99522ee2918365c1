package output

import (
	"time"

	"browser-pilot/internal/domain/entity"
)

type AuditRecord struct {
	TurnID   string
	Action   entity.Action
	Result   entity.ActionResult
	Duration time.Duration
	PageURL  string
	Source   string
}

// AuditPort receives one record per dispatched action.
type AuditPort interface {
	Record(rec AuditRecord)
	// Blocked notes an action rejected before dispatch; Result is ignored.
	Blocked(rec AuditRecord, reason error)
	Close() error
}

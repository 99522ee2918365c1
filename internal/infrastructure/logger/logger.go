package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
)

var _ output.AuditPort = (*AuditLogger)(nil)

// AuditEntry is one line of the audit log.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	TurnID    string         `json:"turn_id,omitempty"`
	Source    string         `json:"source,omitempty"`
	Action    string         `json:"action"`
	Params    *entity.Params `json:"params,omitempty"`
	Message   string         `json:"message"`
	Duration  int64          `json:"duration_ms"`
	PageURL   string         `json:"page_url,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// AuditLogger writes one JSON line per dispatched action.
type AuditLogger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewAuditLogger writes to a rotated file at path.
func NewAuditLogger(path string, maxSizeMB, maxBackups int) *AuditLogger {
	return NewAuditWriter(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	})
}

func NewAuditWriter(w io.Writer) *AuditLogger {
	return &AuditLogger{w: w, now: time.Now}
}

func (l *AuditLogger) Record(rec output.AuditRecord) {
	entry := &AuditEntry{
		Timestamp: l.now(),
		Level:     "INFO",
		TurnID:    rec.TurnID,
		Source:    rec.Source,
		Action:    rec.Action.Kind.String(),
		Params:    auditParams(rec.Action.Params),
		Message:   "action completed",
		Duration:  rec.Duration.Milliseconds(),
		PageURL:   rec.PageURL,
	}
	if !rec.Result.Success {
		entry.Level = "WARN"
		entry.Message = "action failed"
		entry.Error = rec.Result.Error
	}
	l.write(entry)
}

// Blocked records an action rejected before dispatch.
func (l *AuditLogger) Blocked(rec output.AuditRecord, reason error) {
	entry := &AuditEntry{
		Timestamp: l.now(),
		Level:     "WARN",
		TurnID:    rec.TurnID,
		Source:    rec.Source,
		Action:    rec.Action.Kind.String(),
		Params:    auditParams(rec.Action.Params),
		Message:   "action blocked",
	}
	if reason != nil {
		entry.Error = reason.Error()
	}
	l.write(entry)
}

// auditParams keeps the call's parameter order in the written line.
func auditParams(p entity.Params) *entity.Params {
	if p.Len() == 0 {
		return nil
	}
	return &p
}

func (l *AuditLogger) write(entry *AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.w, `{"timestamp":"%s","level":"ERROR","message":"marshal audit entry: %s"}`+"\n",
			l.now().Format(time.RFC3339), strings.ReplaceAll(err.Error(), `"`, `\"`))
		return
	}
	l.w.Write(append(data, '\n'))
}

func (l *AuditLogger) Close() error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

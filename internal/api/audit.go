package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-inventory/internal/audit"
	"github.com/nerrad567/gray-logic-inventory/internal/entity"
)

// auditChanSize is the buffer size for the async audit log channel.
// Entries beyond this are dropped to avoid back-pressure on requests.
const auditChanSize = 256

// auditLog enqueues an audit entry for ev. If the channel is full the
// entry is dropped and a warning is logged.
func (s *Server) auditLog(ev entity.Event) {
	if s.auditCh == nil {
		return
	}

	entry := &audit.AuditLog{
		Action:    string(ev.Action),
		Driver:    ev.Driver,
		Name:      ev.Name,
		Source:    audit.SourceAPI,
		CreatedAt: ev.Timestamp,
	}
	if ev.Container != "" {
		entry.Details = map[string]any{"container": ev.Container}
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit log channel full, dropping entry",
			"action", ev.Action,
			"driver", ev.Driver,
			"name", ev.Name,
		)
	}
}

// drainAuditLog writes queued entries one at a time until ctx is
// cancelled, then flushes what is left.
func (s *Server) drainAuditLog(ctx context.Context) {
	for {
		select {
		case entry := <-s.auditCh:
			s.writeAuditEntry(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.auditCh:
					s.writeAuditEntry(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *Server) writeAuditEntry(entry *audit.AuditLog) {
	if err := s.auditRepo.Create(context.Background(), entry); err != nil {
		s.logger.Error("audit log write failed",
			"action", entry.Action,
			"driver", entry.Driver,
			"name", entry.Name,
			"error", err,
		)
	}
}

// handleListAuditLogs returns audit entries, most recent first.
//
// Query parameters:
//   - action: created, deleted or inserted
//   - driver: entity driver
//   - name: entity name
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusServiceUnavailable, "audit trail not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		Driver: q.Get("driver"),
		Name:   q.Get("name"),
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

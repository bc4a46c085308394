package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/homegraph/internal/audit"
)

// auditChanSize is the buffer size for the async audit channel. Entries
// beyond this are dropped.
const auditChanSize = 256

// auditWrite enqueues a record of one light write. Best-effort: a full
// channel drops the entry with a warning.
func (s *Server) auditWrite(r *http.Request, lightID string, wr fieldWrite, outcome string, err error) {
	if s.auditRepo == nil {
		return
	}

	entry := &audit.Entry{
		LightID:   lightID,
		Field:     wr.field,
		Value:     wr.value,
		Subject:   subjectFrom(r.Context()),
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit channel full, dropping entry",
			"light_id", lightID,
			"field", wr.field,
		)
	}
}

// drainAuditLog writes queued entries serially until ctx is cancelled, then
// flushes what is left and closes done.
func (s *Server) drainAuditLog(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	write := func(e *audit.Entry) {
		if err := s.auditRepo.Create(context.Background(), e); err != nil {
			s.logger.Error("audit write failed", "light_id", e.LightID, "error", err)
		}
	}

	for {
		select {
		case e := <-s.auditCh:
			write(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-s.auditCh:
					write(e)
				default:
					return
				}
			}
		}
	}
}

// handleListAudit returns recorded light writes, newest first.
//
// Query parameters: light_id, subject, outcome, since (RFC 3339), limit
// (default 50, max 200) and offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeNotFound(w, "audit log not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		LightID: q.Get("light_id"),
		Subject: q.Get("subject"),
		Outcome: q.Get("outcome"),
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
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
		s.logger.Error("failed to list audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

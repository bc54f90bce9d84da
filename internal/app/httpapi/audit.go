package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/pkg/logger"
)

// AuditEntry records one API request.
type AuditEntry struct {
	Time       time.Time `json:"time"`
	UserID     int64     `json:"user_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	TraceID    string    `json:"trace_id,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// AuditSink persists entries beyond the in-memory ring.
type AuditSink interface {
	Write(entry AuditEntry) error
}

// AuditLog keeps the most recent entries in memory.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	max     int
	sink    AuditSink
}

// NewAuditLog keeps up to max entries. sink may be nil.
func NewAuditLog(max int, sink AuditSink) *AuditLog {
	if max <= 0 {
		max = 200
	}
	return &AuditLog{max: max, sink: sink}
}

func (l *AuditLog) add(entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	if l.sink != nil {
		// Best-effort persistence; ignore errors to avoid impacting request flow.
		_ = l.sink.Write(entry)
	}
}

// Recent returns up to limit of the newest entries, oldest first.
func (l *AuditLog) Recent(limit int) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]AuditEntry, limit)
	copy(out, l.entries[len(l.entries)-limit:])
	return out
}

// ZapAuditSink appends entries as JSON lines through zap.
type ZapAuditSink struct {
	log *zap.Logger
}

// NewZapAuditSink opens path for appending. An empty path yields a nil sink.
func NewZapAuditSink(path string) (*ZapAuditSink, error) {
	if path == "" {
		return nil, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "logged_at"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapAuditSink{log: l}, nil
}

func (s *ZapAuditSink) Write(e AuditEntry) error {
	if s == nil || s.log == nil {
		return nil
	}
	s.log.Info("audit",
		zap.Time("time", e.Time),
		zap.Int64("user_id", e.UserID),
		zap.String("role", e.Role),
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.Int("status", e.Status),
		zap.String("trace_id", e.TraceID),
		zap.String("remote_addr", e.RemoteAddr),
		zap.String("user_agent", e.UserAgent),
	)
	return nil
}

// Close flushes buffered entries.
func (s *ZapAuditSink) Close() error {
	if s == nil || s.log == nil {
		return nil
	}
	return s.log.Sync()
}

type auditHolderKey struct{}

// auditHolder lets inner auth middleware report the caller to the outer
// audit wrapper.
type auditHolder struct {
	user user.User
	set  bool
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func wrapWithAudit(next http.Handler, audit *AuditLog) http.Handler {
	if audit == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		holder := &auditHolder{}
		r = r.WithContext(context.WithValue(r.Context(), auditHolderKey{}, holder))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		entry := AuditEntry{
			Time:       time.Now().UTC(),
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     rec.status,
			TraceID:    logger.GetTraceID(r.Context()),
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		}
		if holder.set {
			entry.UserID = holder.user.ID
			entry.Role = string(holder.user.Role)
		}
		audit.add(entry)
	})
}

func noteAuditUser(ctx context.Context, u user.User) {
	if holder, ok := ctx.Value(auditHolderKey{}).(*auditHolder); ok {
		holder.user = u
		holder.set = true
	}
}

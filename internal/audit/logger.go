package audit

import (
	"context"
	"log/slog"

	"github.com/dangerclosesec/bizcontrol/internal/model"
)

// Entity is the object an audited decision is about.
type Entity struct {
	Type string
	ID   string
}

// Subject is the user or system principal acting on an Entity.
type Subject struct {
	Type string
	ID   string
}

// Logger defines the interface for auditing operations
type Logger interface {
	// LogPolicyCheck records the outcome of a policy decision.
	LogPolicyCheck(
		ctx context.Context,
		subject Subject,
		permission string,
		object Entity,
		allowed bool,
		reason string,
		contextData map[string]interface{},
	) error

	// LogRelation records a relationship write or delete against the mirror.
	LogRelation(
		ctx context.Context,
		action string,
		object Entity,
		relation string,
		subject Subject,
		failure error,
	) error

	// LogEvent records a system action such as a sweep or an invite acceptance.
	LogEvent(
		ctx context.Context,
		action string,
		object Entity,
		subject Subject,
		contextData map[string]interface{},
	) error
}

// Store persists audit entries.
type Store interface {
	Create(ctx context.Context, log *model.AuthzAuditLog) error
}

// DBLogger writes every entry to the authz_audit_logs table. Write failures
// are logged and returned, callers treat them as non-fatal.
type DBLogger struct {
	store Store
}

func NewDBLogger(store Store) *DBLogger {
	return &DBLogger{store: store}
}

func (l *DBLogger) write(ctx context.Context, entry *model.AuthzAuditLog) error {
	meta := RequestMetaFrom(ctx)
	entry.RequestID = meta.RequestID
	entry.ClientIP = meta.ClientIP
	entry.UserAgent = meta.UserAgent

	if err := l.store.Create(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "Failed to write audit log",
			"error", err,
			"action", entry.ActionType,
			"requestID", meta.RequestID,
		)
		return err
	}
	return nil
}

func (l *DBLogger) LogPolicyCheck(
	ctx context.Context,
	subject Subject,
	permission string,
	object Entity,
	allowed bool,
	reason string,
	contextData map[string]interface{},
) error {
	return l.write(ctx, &model.AuthzAuditLog{
		ActionType:  model.ActionPolicyCheck,
		Result:      &allowed,
		EntityType:  object.Type,
		EntityID:    object.ID,
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		Permission:  permission,
		Reason:      reason,
		Context:     contextData,
	})
}

func (l *DBLogger) LogRelation(
	ctx context.Context,
	action string,
	object Entity,
	relation string,
	subject Subject,
	failure error,
) error {
	ok := failure == nil
	entry := &model.AuthzAuditLog{
		ActionType:  action,
		Result:      &ok,
		EntityType:  object.Type,
		EntityID:    object.ID,
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		Permission:  relation,
	}
	if failure != nil {
		entry.Reason = failure.Error()
	}
	return l.write(ctx, entry)
}

func (l *DBLogger) LogEvent(
	ctx context.Context,
	action string,
	object Entity,
	subject Subject,
	contextData map[string]interface{},
) error {
	ok := true
	return l.write(ctx, &model.AuthzAuditLog{
		ActionType:  action,
		Result:      &ok,
		EntityType:  object.Type,
		EntityID:    object.ID,
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		Context:     contextData,
	})
}

// NoOpLogger is a logger that does nothing
type NoOpLogger struct{}

func (NoOpLogger) LogPolicyCheck(context.Context, Subject, string, Entity, bool, string, map[string]interface{}) error {
	return nil
}

func (NoOpLogger) LogRelation(context.Context, string, Entity, string, Subject, error) error {
	return nil
}

func (NoOpLogger) LogEvent(context.Context, string, Entity, Subject, map[string]interface{}) error {
	return nil
}

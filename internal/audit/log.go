// Package audit emits structured audit events for security-relevant
// mutations: registrations, logins, account and membership changes.
package audit

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"missio.app/internal/obs"
)

// Event names follow a dotted subject.verb form, e.g. "auth.login".
type Event string

const (
	EventUserRegistered   Event = "auth.register"
	EventUserLogin        Event = "auth.login"
	EventTokenRefreshed   Event = "auth.refresh"
	EventAccountSwitched  Event = "auth.switch_account"
	EventAccountCreated   Event = "account.create"
	EventAccountUpdated   Event = "account.update"
	EventAccountDisabled  Event = "account.deactivate"
	EventAccountJoined    Event = "account.join"
	EventMissionCreated   Event = "mission.create"
	EventMissionDeleted   Event = "mission.delete"
	EventMemberAdded      Event = "mission.member_add"
	EventExpenseRecorded  Event = "expense.create"
	EventExpenseDeleted   Event = "expense.delete"
	EventOutreachRecorded Event = "outreach.record"
)

type requestIDKey struct{}

// ContextWithRequestID stores the request id the middleware assigned.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Log records one audit event. Fields may be nil. Malformed event names
// are logged anyway, flagged so they can be found and fixed.
func Log(ctx context.Context, event Event, actorID string, fields map[string]any) {
	entry := obs.Logger().WithField("audit_event", string(event))
	if !validName(string(event)) {
		entry = entry.WithField("audit_event_malformed", true)
	}
	if actorID != "" {
		entry = entry.WithField("actor_id", actorID)
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry = entry.WithField("request_id", rid)
	}
	for k, v := range fields {
		entry = entry.WithField(k, v)
	}
	entry.Log(logrus.InfoLevel, "audit")
}

func validName(name string) bool {
	subject, verb, ok := strings.Cut(name, ".")
	return ok && subject != "" && verb != "" && !strings.Contains(verb, ".")
}

package middleware

import "context"

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxPersonID    contextKey = "person_id"
	ctxTeamID      contextKey = "team_id"
	ctxRole        contextKey = "actor_role"
	ctxSystemAdmin contextKey = "system_admin"
)

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func PersonIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxPersonID)
}

func TeamIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxTeamID)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

func IsSystemAdmin(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, ok := ctx.Value(ctxSystemAdmin).(bool)
	return ok && v
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithPersonID injects the person identifier for downstream handlers.
func WithPersonID(ctx context.Context, personID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPersonID, personID)
}

// WithTeamID injects the active team identifier.
func WithTeamID(ctx context.Context, teamID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTeamID, teamID)
}

// WithRole injects the team-level role.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithSystemAdmin marks the request as coming from a platform operator.
func WithSystemAdmin(ctx context.Context, admin bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSystemAdmin, admin)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

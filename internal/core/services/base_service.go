package services

import (
	"context"
	"log/slog"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portssvc "github.com/ledgerkeep/ledgerkeep/internal/core/ports/services"
	"github.com/ledgerkeep/ledgerkeep/internal/platform/logging"
)

// BaseService holds the pieces every service shares: the context-scoped
// logger helpers and the entity membership check.
type BaseService struct {
	EntityAuthorizer portssvc.EntityAuthorizerSvc
}

// GetLogger returns the request logger from the context. The logging package
// already falls back to the process default when none was attached.
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return logging.GetLoggerFromCtx(ctx)
}

// LogError logs msg at error level with the error attached as a field.
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs msg at info level.
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs msg at debug level.
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// AuthorizeUser checks that userID holds at least requiredRole in the entity.
// A service wired without an authorizer grants everything, which is only
// meant for tests that exercise a single service in isolation.
func (s *BaseService) AuthorizeUser(ctx context.Context, userID, entityID string, requiredRole domain.UserEntityRole) error {
	if s.EntityAuthorizer == nil {
		s.LogDebug(ctx, "No entity authorizer configured, allowing access",
			slog.String("user_id", userID),
			slog.String("entity_id", entityID),
			slog.String("required_role", string(requiredRole)))
		return nil
	}
	return s.EntityAuthorizer.AuthorizeUserAction(ctx, userID, entityID, requiredRole)
}

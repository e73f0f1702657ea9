// audit/service.go
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
)

type Service interface {
	LogAccess(ctx context.Context, log AccessLog) error
	QueryLogs(ctx context.Context, from, to time.Time, subject, resourceID string) ([]AccessLog, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogAccess(ctx context.Context, log AccessLog) error {
	if err := s.repo.LogAccess(ctx, log); err != nil {
		// Auditing never affects the request outcome.
		logger.Warn("Failed to index access log",
			zap.String("subject", log.Subject),
			zap.String("resource", log.ResourceID),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *service) QueryLogs(ctx context.Context, from, to time.Time, subject, resourceID string) ([]AccessLog, error) {
	return s.repo.QueryLogs(ctx, from, to, subject, resourceID)
}

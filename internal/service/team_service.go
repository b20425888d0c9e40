package service

import (
	"context"
	"log/slog"

	"statsboard/internal/entity"
	"statsboard/internal/observability"
)

type TeamSource interface {
	DistinctTeams(ctx context.Context) ([]entity.Team, error)
}

// TeamService feeds the dashboard's team filter. It never fails: a lookup
// error is logged and the page gets an empty list.
type TeamService struct {
	source  TeamSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewTeamService(source TeamSource, logger *slog.Logger, metrics *observability.Metrics) *TeamService {
	return &TeamService{source: source, logger: logger, metrics: metrics}
}

func (s *TeamService) Teams(ctx context.Context) []entity.Team {
	teams, err := s.source.DistinctTeams(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "team lookup failed, serving empty list", "error", err)
		s.metrics.RecordTeamLookupFailure()
		return []entity.Team{}
	}
	return teams
}

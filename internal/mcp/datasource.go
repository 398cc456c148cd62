package mcp

import (
	"context"
	"time"

	"github.com/claude/matlog/internal/models"
	"github.com/claude/matlog/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools.
type DataSource interface {
	QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID, userID int) (*models.Session, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingPeriodSummary, error)
	GetZonesForSessions(ctx context.Context, sessionIDs []uuid.UUID, userID int) (map[uuid.UUID]models.WearableWorkout, error)
	ListPartnerSources(ctx context.Context, userID int) (manual, instructors, social []models.Partner, err error)
	SearchMovements(ctx context.Context, query string, limit int) ([]models.Movement, error)
}

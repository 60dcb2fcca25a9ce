package report

import (
	"context"

	"go.uber.org/zap"

	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/aggregator"
	"law-reports-backend/internal/services/datamanager"
)

// Result is the body of a report query.
type Result struct {
	Report  models.Report         `json:"report"`
	Filter  Filter                `json:"filter"`
	GroupBy []models.Dimension    `json:"group_by"`
	Rows    []models.AggregateRow `json:"rows"`
	Totals  models.AggregateRow   `json:"totals"`
}

type Service struct {
	data *datamanager.Manager
	log  *zap.Logger
}

func NewService(data *datamanager.Manager, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{data: data, log: log}
}

// Records reads a report's stored records and applies the filter.
func (s *Service) Records(ctx context.Context, sess *datamanager.Session, report models.Report, f Filter) ([]models.Record, error) {
	stamped, err := s.data.ReadRecords(ctx, sess, report)
	if err != nil {
		return nil, err
	}
	records := make([]models.Record, len(stamped))
	for i, r := range stamped {
		records[i] = r.Record
	}
	return Apply(records, f)
}

// Query aggregates the filtered records. An empty groupBy groups by period,
// category and name.
func (s *Service) Query(ctx context.Context, sess *datamanager.Session, report models.Report, f Filter, groupBy []models.Dimension) (*Result, error) {
	if len(groupBy) == 0 {
		groupBy = []models.Dimension{models.DimPeriod, models.DimCategory, models.DimName}
	}
	records, err := s.Records(ctx, sess, report, f)
	if err != nil {
		return nil, err
	}
	rows := aggregator.Aggregate(records, groupBy...)
	s.log.Debug("report query",
		zap.String("report", string(report)),
		zap.Int("records", len(records)),
		zap.Int("rows", len(rows)))
	return &Result{
		Report:  report,
		Filter:  f,
		GroupBy: groupBy,
		Rows:    rows,
		Totals:  aggregator.Totals(rows),
	}, nil
}

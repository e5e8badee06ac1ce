package store

import (
	"context"
	"fmt"

	"github.com/pavelanni/lumira/internal/model"
)

// ExportResults builds the export document from the whole journal.
func (s *Store) ExportResults(ctx context.Context) (model.ResultsExport, error) {
	info, err := s.GetRunInfo(ctx)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("get run info: %w", err)
	}
	exams, err := s.ListExams(ctx)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list exams: %w", err)
	}
	results, err := s.ListResults(ctx, "")
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list results: %w", err)
	}

	if exams == nil {
		exams = []model.ExamRecord{}
	}
	if results == nil {
		results = []model.ResultRecord{}
	}
	return model.ResultsExport{
		GeneratedAt: s.now().UTC(),
		Run:         info,
		Exams:       exams,
		Results:     results,
	}, nil
}

package service

import (
	"context"

	"kasirlite/internal/report"
)

// Report builds the sales report for period as of now in the service's
// time zone. topN limits the top-products ranking; zero means no limit.
func (s *Service) Report(ctx context.Context, period report.Period, topN int) (report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return report.Report{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(period, sales, products, s.now(), topN), nil
}

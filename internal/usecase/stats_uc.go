package usecase

import (
	"context"
	"time"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type Stats struct {
	Users         int                         `json:"users"`
	Enrollments   int                         `json:"free_enrollments"`
	Requests      map[model.RequestStatus]int `json:"requests"`
	RevenueByKind map[model.RequestKind]int64 `json:"revenue_by_kind"`
	RevenueTotal  int64                       `json:"revenue_total"`
	RevenueWeek   int64                       `json:"revenue_week"`
	RevenueMonth  int64                       `json:"revenue_month"`
	RevenueYear   int64                       `json:"revenue_year"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (*Stats, error)
	// Revenue sums approved amounts decided in the last week, month and year.
	Revenue(ctx context.Context) (week int64, month int64, year int64, err error)
}

type statsUC struct {
	users       repository.UserRepository
	requests    repository.PaymentRequestRepository
	enrollments repository.EnrollmentRepository

	now func() time.Time
	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, requests repository.PaymentRequestRepository, enrollments repository.EnrollmentRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, requests: requests, enrollments: enrollments, now: time.Now, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (*Stats, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.enrollments.CountAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.requests.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	byKind, err := s.requests.SumApprovedByKind(ctx, repository.NoTX, time.Time{})
	if err != nil {
		return nil, err
	}
	metrics.SetRequestsByStatus(byStatus)

	out := &Stats{
		Users:         users,
		Enrollments:   enrolled,
		Requests:      byStatus,
		RevenueByKind: byKind,
	}
	for _, v := range byKind {
		out.RevenueTotal += v
	}
	out.RevenueWeek, out.RevenueMonth, out.RevenueYear, err = s.Revenue(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	now := s.now().UTC()
	sum := func(since time.Time) (int64, error) {
		byKind, err := s.requests.SumApprovedByKind(ctx, repository.NoTX, since)
		if err != nil {
			return 0, err
		}
		var total int64
		for _, v := range byKind {
			total += v
		}
		return total, nil
	}
	w, err := sum(now.AddDate(0, 0, -7))
	if err != nil {
		return 0, 0, 0, err
	}
	m, err := sum(now.AddDate(0, -1, 0))
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := sum(now.AddDate(-1, 0, 0))
	if err != nil {
		return 0, 0, 0, err
	}
	return w, m, y, nil
}

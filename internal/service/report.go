package service

import (
	"context"
	"errors"
	"fmt"
	"food-storefront/internal/config"
	"food-storefront/internal/model"
	"food-storefront/internal/repository"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const reportDateLayout = "2006-01-02"

type ReportService interface {
	// Calculate computes the metrics of the store-local day containing day.
	Calculate(ctx context.Context, day time.Time) (*model.DailyReport, error)
	// GenerateAndSave computes today's report and upserts it, retrying
	// transient lock contention with exponential backoff.
	GenerateAndSave(ctx context.Context) (*model.DailyReport, error)
	List(ctx context.Context, limit int) ([]*model.DailyReport, error)
	Get(ctx context.Context, reportID uint) (*model.DailyReport, error)
	Location() *time.Location
}

type reportServiceImpl struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	reportRepo  repository.ReportRepository
	location    *time.Location
	maxAttempts int
	baseBackoff time.Duration
	logger      *slog.Logger
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewReportService(
	cfg config.Report,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	reportRepo repository.ReportRepository,
	logger *slog.Logger,
) (ReportService, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load report time zone %q: %w", cfg.TimeZone, err)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &reportServiceImpl{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		reportRepo:  reportRepo,
		location:    loc,
		maxAttempts: maxAttempts,
		baseBackoff: cfg.BaseBackoff,
		logger:      logger,
		now:         time.Now,
		sleep:       sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *reportServiceImpl) Location() *time.Location {
	return s.location
}

func (s *reportServiceImpl) Calculate(ctx context.Context, day time.Time) (*model.DailyReport, error) {
	local := day.In(s.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	end := start.AddDate(0, 0, 1)

	orders, err := s.orderRepo.List(ctx, repository.OrderFilter{
		CreatedFrom: start,
		CreatedTo:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders of %s: %w", start.Format(reportDateLayout), err)
	}

	stats, err := s.productRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}

	report := &model.DailyReport{
		Date:                     start.Format(reportDateLayout),
		QuantityOrders:           int64(len(orders)),
		RevenueToday:             decimal.Zero,
		RevenuePendingToday:      decimal.Zero,
		QuantityProducts:         stats.Total,
		QuantityProductsActive:   stats.Active,
		QuantityProductsInactive: stats.Inactive,
		AverageTicket:            decimal.Zero,
		CompletionRate:           decimal.Zero,
		CancellationRate:         decimal.Zero,
	}

	now := s.now()
	for _, order := range orders {
		switch order.Status {
		case model.OrderStatusCompleted:
			report.QuantityOrdersCompleted++
		case model.OrderStatusCancelled:
			report.QuantityOrdersCancelled++
		case model.OrderStatusPending:
			report.QuantityOrdersPending++
		}
		if order.IsLate(now) {
			report.QuantityOrdersLate++
		}

		switch order.PaymentStatus {
		case model.PaymentStatusPaid:
			report.RevenueToday = report.RevenueToday.Add(order.TotalPrice())
		case model.PaymentStatusPending:
			report.RevenuePendingToday = report.RevenuePendingToday.Add(order.TotalPrice())
		}
	}

	if report.QuantityOrdersCompleted > 0 {
		report.AverageTicket = report.RevenueToday.
			Div(decimal.NewFromInt(report.QuantityOrdersCompleted)).
			Round(2)
	}
	if report.QuantityOrders > 0 {
		total := decimal.NewFromInt(report.QuantityOrders)
		hundred := decimal.NewFromInt(100)
		report.CompletionRate = decimal.NewFromInt(report.QuantityOrdersCompleted).Mul(hundred).Div(total).Round(2)
		report.CancellationRate = decimal.NewFromInt(report.QuantityOrdersCancelled).Mul(hundred).Div(total).Round(2)
	}

	return report, nil
}

func (s *reportServiceImpl) GenerateAndSave(ctx context.Context) (*model.DailyReport, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			// 1x, 2x, 4x ... the base backoff
			delay := s.baseBackoff << (attempt - 2)
			s.logger.Warn("daily report hit lock contention, retrying",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", lastErr),
			)
			if err := s.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("generate daily report: %w", err)
			}
		}

		report, err := s.generateOnce(ctx)
		if err == nil {
			s.logger.Info("daily report saved",
				slog.String("date", report.Date),
				slog.Int64("orders", report.QuantityOrders),
				slog.String("revenue", report.RevenueToday.StringFixed(2)),
			)
			return report, nil
		}
		if !repository.IsLockContention(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("generate daily report after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *reportServiceImpl) generateOnce(ctx context.Context) (*model.DailyReport, error) {
	report, err := s.Calculate(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.reportRepo.Upsert(ctx, report); err != nil {
		return nil, fmt.Errorf("store daily report %s: %w", report.Date, err)
	}
	return report, nil
}

func (s *reportServiceImpl) List(ctx context.Context, limit int) ([]*model.DailyReport, error) {
	reports, err := s.reportRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list daily reports: %w", err)
	}
	return reports, nil
}

func (s *reportServiceImpl) Get(ctx context.Context, reportID uint) (*model.DailyReport, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find daily report %d: %w", reportID, err)
	}
	return report, nil
}

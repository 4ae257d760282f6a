package repository

import (
	"context"
	"food-storefront/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository interface {
	// Upsert creates the report for its date or overwrites the stored metrics.
	Upsert(ctx context.Context, report *model.DailyReport) error
	FindByDate(ctx context.Context, date string) (*model.DailyReport, error)
	FindByID(ctx context.Context, id uint) (*model.DailyReport, error)
	// List returns the most recent reports first.
	List(ctx context.Context, limit int) ([]*model.DailyReport, error)
}

type reportRepoImpl struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepoImpl{
		db: db,
	}
}

func (r *reportRepoImpl) Upsert(ctx context.Context, report *model.DailyReport) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity_orders":            report.QuantityOrders,
			"quantity_orders_completed":  report.QuantityOrdersCompleted,
			"quantity_orders_cancelled":  report.QuantityOrdersCancelled,
			"quantity_orders_pending":    report.QuantityOrdersPending,
			"quantity_orders_late":       report.QuantityOrdersLate,
			"revenue_today":              report.RevenueToday,
			"revenue_pending_today":      report.RevenuePendingToday,
			"quantity_products":          report.QuantityProducts,
			"quantity_products_active":   report.QuantityProductsActive,
			"quantity_products_inactive": report.QuantityProductsInactive,
			"average_ticket":             report.AverageTicket,
			"completion_rate":            report.CompletionRate,
			"cancellation_rate":          report.CancellationRate,
			"updated_at":                 time.Now(),
		}),
	}).Create(report).Error
}

func (r *reportRepoImpl) FindByDate(ctx context.Context, date string) (*model.DailyReport, error) {
	var report model.DailyReport
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		First(&report).Error

	if err != nil {
		return nil, err
	}

	return &report, nil
}

func (r *reportRepoImpl) FindByID(ctx context.Context, id uint) (*model.DailyReport, error) {
	var report model.DailyReport
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, err
	}

	return &report, nil
}

func (r *reportRepoImpl) List(ctx context.Context, limit int) ([]*model.DailyReport, error) {
	var reports []*model.DailyReport
	query := r.db.WithContext(ctx).Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}

	return reports, nil
}

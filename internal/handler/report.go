package handler

import (
	"food-storefront/internal/dto"
	"food-storefront/internal/service"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultReportLimit = 30

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// Daily computes the live metrics of a store-local day without persisting
// them. The day defaults to today; ?date=YYYY-MM-DD picks another.
func (h *ReportHandler) Daily(c echo.Context) error {
	ctx := c.Request().Context()
	loc := h.reportService.Location()

	day := time.Now().In(loc)
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		day = parsed
	}

	report, err := h.reportService.Calculate(ctx, day)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewDailyReportResponse(report))
}

func (h *ReportHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultReportLimit
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = v
	}

	reports, err := h.reportService.List(ctx, limit)
	if err != nil {
		return err
	}

	resp := make([]dto.DailyReportResponse, 0, len(reports))
	for _, r := range reports {
		resp = append(resp, dto.NewDailyReportResponse(r))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReportHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	reportID, err := uintParam(c, "reportID")
	if err != nil {
		return err
	}

	report, err := h.reportService.Get(ctx, reportID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewDailyReportResponse(report))
}

// Generate runs the daily report job on demand.
func (h *ReportHandler) Generate(c echo.Context) error {
	ctx := c.Request().Context()

	report, err := h.reportService.GenerateAndSave(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewDailyReportResponse(report))
}

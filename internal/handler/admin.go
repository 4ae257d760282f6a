package handler

import (
	"context"
	"food-storefront/internal/dto"
	"food-storefront/internal/model"
	"food-storefront/internal/service"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// AdminHandler serves the staff dashboard: login, order management and the
// product catalog.
type AdminHandler struct {
	authService    service.AuthService
	orderService   service.OrderService
	productService service.ProductService
}

func NewAdminHandler(
	authService service.AuthService,
	orderService service.OrderService,
	productService service.ProductService,
) *AdminHandler {
	return &AdminHandler{
		authService:    authService,
		orderService:   orderService,
		productService: productService,
	}
}

func (h *AdminHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	token, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	filter := service.AdminOrderFilter{
		Status:        model.OrderStatus(c.QueryParam("status")),
		PaymentStatus: model.PaymentStatus(c.QueryParam("payment_status")),
	}
	if late := c.QueryParam("late"); late != "" {
		v, err := strconv.ParseBool(late)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid late filter")
		}
		filter.Late = v
	}

	orders, err := h.orderService.List(ctx, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderListResponse(orders, time.Now()))
}

func (h *AdminHandler) GetOrder(c echo.Context) error {
	return h.orderAction(c, h.orderService.Get)
}

func (h *AdminHandler) ToggleStatus(c echo.Context) error {
	return h.orderAction(c, h.orderService.ToggleStatus)
}

func (h *AdminHandler) TogglePaymentStatus(c echo.Context) error {
	return h.orderAction(c, h.orderService.TogglePaymentStatus)
}

func (h *AdminHandler) CancelPayment(c echo.Context) error {
	return h.orderAction(c, h.orderService.CancelPayment)
}

func (h *AdminHandler) CancelOrder(c echo.Context) error {
	return h.orderAction(c, h.orderService.Cancel)
}

func (h *AdminHandler) UpdateOrderInfo(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := uintParam(c, "orderID")
	if err != nil {
		return err
	}

	var req dto.UpdateOrderInfoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.orderService.UpdateBasicInfo(ctx, orderID, model.BasicInfo{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order, time.Now()))
}

func (h *AdminHandler) ReplaceOrderItems(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := uintParam(c, "orderID")
	if err != nil {
		return err
	}

	var req dto.ReplaceItemsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	items := make([]service.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		if item == nil {
			continue
		}
		items = append(items, service.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orderService.ReplaceItems(ctx, orderID, items)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order, time.Now()))
}

func (h *AdminHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.productService.List(ctx, false)
	if err != nil {
		return err
	}

	resp := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, dto.NewProductResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(req.Price), ",", "."))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid price")
	}

	product, err := h.productService.Create(ctx, req.Name, price)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewProductResponse(product))
}

func (h *AdminHandler) SetProductActive(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := uintParam(c, "productID")
	if err != nil {
		return err
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.productService.SetActive(ctx, productID, req.Active); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) orderAction(c echo.Context, action func(context.Context, uint) (*model.Order, error)) error {
	orderID, err := uintParam(c, "orderID")
	if err != nil {
		return err
	}

	order, err := action(c.Request().Context(), orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order, time.Now()))
}

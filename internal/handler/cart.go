package handler

import (
	"food-storefront/internal/dto"
	"food-storefront/internal/middleware"
	"food-storefront/internal/service"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService    service.CartService
	productService service.ProductService
}

func NewCartHandler(cartService service.CartService, productService service.ProductService) *CartHandler {
	return &CartHandler{
		cartService:    cartService,
		productService: productService,
	}
}

func (h *CartHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.productService.List(ctx, true)
	if err != nil {
		return err
	}

	resp := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, dto.NewProductResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	cart, err := h.cartService.Get(ctx, session.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	var req dto.Item
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.cartService.AddItem(ctx, session.ID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	productID, err := uintParam(c, "productID")
	if err != nil {
		return err
	}

	var req dto.Item
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	cart, err := h.cartService.UpdateItem(ctx, session.ID, productID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	productID, err := uintParam(c, "productID")
	if err != nil {
		return err
	}

	cart, err := h.cartService.RemoveItem(ctx, session.ID, productID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	if err := h.cartService.Clear(ctx, session.ID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}

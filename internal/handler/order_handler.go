package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/unimart-backend/internal/chatgate"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	coord service.DeliveryCoordinator
	log   logrus.FieldLogger
}

func NewOrderHandler(coord service.DeliveryCoordinator, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{coord: coord, log: log}
}

type PartyResponse struct {
	Username string `json:"username"`
	Campus   string `json:"campus"`
}

type ProductSnapshotResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Images    []string        `json:"images"`
	Condition string          `json:"condition"`
}

type OrderResponse struct {
	ID           string                  `json:"id"`
	Product      ProductSnapshotResponse `json:"product"`
	Buyer        PartyResponse           `json:"buyer"`
	Seller       PartyResponse           `json:"seller"`
	Status       string                  `json:"status"`
	OTPIssuedAt  *string                 `json:"otpIssuedAt,omitempty"`
	CreatedAt    string                  `json:"createdAt"`
	DeliveredAt  *string                 `json:"deliveredAt"`
	CancelledAt  *string                 `json:"cancelledAt,omitempty"`
	UpdatedAt    string                  `json:"updatedAt"`
	ChatReadOnly bool                    `json:"chatReadOnly"`
	CanSend      bool                    `json:"canSend"`
	Warnings     []string                `json:"warnings,omitempty"`
}

func toOrderResponse(o *model.Order) OrderResponse {
	images := []string(o.Product.Images)
	if images == nil {
		images = []string{}
	}
	return OrderResponse{
		ID: o.ID,
		Product: ProductSnapshotResponse{
			ID:        o.Product.ID,
			Title:     o.Product.Title,
			Price:     o.Product.Price,
			Images:    images,
			Condition: o.Product.Condition,
		},
		Buyer:        PartyResponse{Username: o.Buyer.Username, Campus: o.Buyer.Campus},
		Seller:       PartyResponse{Username: o.Seller.Username, Campus: o.Seller.Campus},
		Status:       string(o.Status),
		OTPIssuedAt:  formatTime(o.OTPIssuedAt),
		CreatedAt:    o.CreatedAt.UTC().Format(time.RFC3339),
		DeliveredAt:  formatTime(o.DeliveredAt),
		CancelledAt:  formatTime(o.CancelledAt),
		UpdatedAt:    o.UpdatedAt.UTC().Format(time.RFC3339),
		ChatReadOnly: chatgate.IsReadOnly(o),
		CanSend:      chatgate.CanSend(o),
	}
}

func toResultResponse(res *service.Result) OrderResponse {
	resp := toOrderResponse(res.Order)
	resp.Warnings = res.Warnings
	return resp
}

// OTPAckResponse acknowledges issuance. Code is present only in demo mode.
type OTPAckResponse struct {
	OrderID   string   `json:"orderId"`
	Status    string   `json:"status"`
	ExpiresAt *string  `json:"expiresAt,omitempty"`
	Code      string   `json:"code,omitempty"`
	Warnings  []string `json:"warnings"`
}

type CreateOrderRequest struct {
	ProductID string `json:"productId"`
}

type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "productId is required"))
	}
	res, err := h.coord.PlaceOrder(c.Request().Context(), req.ProductID, actor)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toResultResponse(res))
}

// List requires exactly one of ?buyer= or ?seller=, naming the caller.
func (h *OrderHandler) List(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	buyer, seller := c.QueryParam("buyer"), c.QueryParam("seller")
	var (
		role service.OrderRole
		who  string
	)
	switch {
	case buyer != "" && seller == "":
		role, who = service.RoleBuyer, buyer
	case seller != "" && buyer == "":
		role, who = service.RoleSeller, seller
	default:
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "specify exactly one of buyer or seller"))
	}
	if who != actor.Username {
		return c.JSON(http.StatusForbidden, NewErrorResponse("unauthorized", "You can only list your own orders."))
	}
	list, err := h.coord.ListOrders(c.Request().Context(), actor, role)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Get(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	o, err := h.coord.GetOrder(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) Accept(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	res, err := h.coord.AcceptOrder(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toResultResponse(res))
}

func (h *OrderHandler) GenerateOTP(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	res, err := h.coord.InitiateDelivery(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return c.JSON(http.StatusAccepted, OTPAckResponse{
		OrderID:   res.Order.ID,
		Status:    string(res.Order.Status),
		ExpiresAt: formatTime(res.ExpiresAt),
		Code:      res.Code,
		Warnings:  warnings,
	})
}

func (h *OrderHandler) VerifyOTP(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	res, err := h.coord.ConfirmDelivery(c.Request().Context(), c.Param("id"), actor, req.OTP)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toResultResponse(res))
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	res, err := h.coord.CancelOrder(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toResultResponse(res))
}

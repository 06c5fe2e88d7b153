package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	svc service.ProductService
	log logrus.FieldLogger
}

func NewProductHandler(svc service.ProductService, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{svc: svc, log: log}
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Seller      PartyResponse   `json:"seller"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Condition   string          `json:"condition"`
	Status      string          `json:"status"`
	SoldAt      *string         `json:"soldAt,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
}

type CreateProductRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Condition   string          `json:"condition"`
}

func toProductResponse(p *model.Product) ProductResponse {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Seller:      PartyResponse{Username: p.Seller.Username, Campus: p.Seller.Campus},
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Images:      images,
		Condition:   p.Condition,
		Status:      string(p.Status),
		SoldAt:      formatTime(p.SoldAt),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ProductHandler) Create(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	p, err := h.svc.Create(c.Request().Context(), actor, service.ProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
		Condition:   req.Condition,
	})
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toProductResponse(p))
}

func (h *ProductHandler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *ProductHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	status := model.ProductStatus(strings.ToUpper(c.QueryParam("status")))
	products, total, err := h.svc.List(c.Request().Context(), limit, offset, status)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	resp := ProductListResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Total:    total,
	}
	for i := range products {
		resp.Products = append(resp.Products, toProductResponse(&products[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

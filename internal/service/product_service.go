package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type ProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Images      []string
	Condition   string
}

type ProductService interface {
	Create(ctx context.Context, seller model.Identity, in ProductInput) (*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, limit, offset int, status model.ProductStatus) ([]model.Product, int64, error)
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) Create(ctx context.Context, seller model.Identity, in ProductInput) (*model.Product, error) {
	if seller.Username == "" {
		return nil, ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 120 {
		return nil, fmt.Errorf("%w: invalid title", ErrValidation)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if strings.HasPrefix(img, "data:") {
			return nil, fmt.Errorf("%w: images must be URLs, not data URIs", ErrValidation)
		}
		images = append(images, img)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	p := &model.Product{
		ID:          id.String(),
		Seller:      seller.Party(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		Images:      images,
		Condition:   strings.TrimSpace(in.Condition),
		Status:      model.ProductStatusAvailable,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, limit, offset int, status model.ProductStatus) ([]model.Product, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	switch status {
	case "", model.ProductStatusAvailable, model.ProductStatusReserved, model.ProductStatusSold:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.repo.List(ctx, limit, offset, status)
}

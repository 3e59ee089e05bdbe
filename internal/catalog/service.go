package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridersroast/motocafe-backend/pkg/db"
	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
)

// Service exposes the storefront and back-office catalog operations.
type Service interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListDeliveryOptions(ctx context.Context) ([]DeliveryOptionDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	ReplenishStock(ctx context.Context, input ReplenishStockInput) (*ProductDTO, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	stock    *StockAdjuster
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client, stock *StockAdjuster) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	return &service{repo: repo, dbClient: dbClient, stock: stock}, nil
}

func (s *service) ListProducts(ctx context.Context, activeOnly bool) ([]ProductDTO, error) {
	rows, err := s.repo.ListProducts(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toProductDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return toProductDTO(product), nil
}

func (s *service) ListDeliveryOptions(ctx context.Context) ([]DeliveryOptionDTO, error) {
	rows, err := s.repo.ListDeliveryOptions(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list delivery options")
	}
	out := make([]DeliveryOptionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDeliveryOptionDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Active:      input.Active,
		StockQty:    input.StockQty,
	}
	for _, size := range input.Sizes {
		product.Sizes = append(product.Sizes, models.ProductSize{
			Label:    strings.TrimSpace(size.Label),
			StockQty: size.StockQty,
		})
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_product_sizes_product_label") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate size label")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return toProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.StockQty = *input.StockQty
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product.Sizes = nil
		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			return err
		}
		if input.Sizes != nil {
			sizes := make([]models.ProductSize, 0, len(*input.Sizes))
			for _, size := range *input.Sizes {
				label := strings.TrimSpace(size.Label)
				if label == "" {
					return pkgerrors.New(pkgerrors.CodeValidation, "size label cannot be empty")
				}
				if size.StockQty < 0 {
					return pkgerrors.New(pkgerrors.CodeValidation, "size stock cannot be negative")
				}
				sizes = append(sizes, models.ProductSize{
					ProductID: product.ID,
					Label:     label,
					StockQty:  size.StockQty,
				})
			}
			if err := txRepo.ReplaceSizes(ctx, product.ID, sizes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	return s.GetProduct(ctx, id)
}

func (s *service) ReplenishStock(ctx context.Context, input ReplenishStockInput) (*ProductDTO, error) {
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if input.SizeID != nil {
			return s.stock.ReplenishSize(ctx, tx, *input.SizeID, input.Qty)
		}
		return s.stock.ReplenishProduct(ctx, tx, input.ProductID, input.Qty)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replenish stock")
	}

	return s.GetProduct(ctx, input.ProductID)
}

func validateCreateInput(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.PriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.StockQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	seen := map[string]struct{}{}
	for _, size := range input.Sizes {
		label := strings.TrimSpace(size.Label)
		if label == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "size label cannot be empty")
		}
		if size.StockQty < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "size stock cannot be negative")
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate size label %q", label))
		}
		seen[key] = struct{}{}
	}
	return nil
}

package service

import (
	"context"
	"time"

	"loyalty-service/internal/ledger"
	"loyalty-service/internal/models"
	"loyalty-service/internal/store"
	"loyalty-service/internal/util"

	"go.uber.org/zap"
)

// PreorderService takes customer pickup requests for catalog products.
type PreorderService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewPreorderService creates a new preorder service
func NewPreorderService(store *store.Store) *PreorderService {
	return &PreorderService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// PreorderRequest represents a customer's pickup request
type PreorderRequest struct {
	DesiredAt *time.Time            `json:"desired_at,omitempty"`
	Items     []PreorderItemRequest `json:"items" binding:"required,min=1"`
}

// PreorderItemRequest is one requested line item
type PreorderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreatePreorder validates the requested quantities against each product's
// step size and inserts the preorder. A 150 g request against a 100 g step
// is rejected, never rounded.
func (s *PreorderService) CreatePreorder(ctx context.Context, customerID int64, req *PreorderRequest) (*models.Preorder, error) {
	ctx, span := util.StartSpan(ctx, "PreorderService.CreatePreorder")
	defer span.End()

	productIDs := make([]int64, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	lines := make([]store.PreorderLine, 0, len(req.Items))
	for _, item := range req.Items {
		product, ok := productMap[item.ProductID]
		if !ok {
			return nil, ledger.ErrProductNotFound
		}
		if !product.Active {
			return nil, ledger.ErrProductInactive
		}

		step := 1
		if product.Unit == models.ProductUnitWeight {
			step = product.StepInt
		}
		if !ledger.ValidStepQuantity(item.Quantity, step) {
			s.logger.Info("Preorder quantity rejected",
				zap.Int64("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Int("step", step))
			return nil, ledger.ErrInvalidQuantity
		}

		lines = append(lines, store.PreorderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
		})
	}

	preorder, err := s.store.CreatePreorder(ctx, customerID, req.DesiredAt, lines)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Preorder created",
		zap.Int64("preorder_id", preorder.ID),
		zap.Int64("customer_id", customerID),
		zap.Int("items", len(lines)))
	return preorder, nil
}

// GetPreorder retrieves a preorder with its line items
func (s *PreorderService) GetPreorder(ctx context.Context, preorderID int64) (*models.Preorder, []models.PreorderItem, error) {
	preorder, err := s.store.GetPreorderByID(ctx, preorderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetPreorderItems(ctx, preorderID)
	if err != nil {
		return nil, nil, err
	}

	return preorder, items, nil
}

// ListPreorders retrieves a customer's preorders
func (s *PreorderService) ListPreorders(ctx context.Context, customerID int64) ([]models.Preorder, error) {
	return s.store.GetPreordersByCustomer(ctx, customerID)
}

// ListOpenPreorders retrieves the staff work queue
func (s *PreorderService) ListOpenPreorders(ctx context.Context) ([]models.Preorder, error) {
	return s.store.GetOpenPreorders(ctx)
}

package product

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockroom/internal/database"
	"stockroom/pkg/utils"
)

const ItemsPerPage = 20

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidAction   = errors.New("invalid stock action")
	ErrCodeTaken       = errors.New("product code already exists")
)

type InsufficientStockError struct {
	Stock     int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("current stock (%d) is less than requested quantity (%d)", e.Stock, e.Requested)
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, product *database.Product) error {
	result := s.db.WithContext(ctx).Create(product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrCodeTaken
		}
		return fmt.Errorf("failed to create product: %w", result.Error)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int) (*database.Product, error) {
	var product database.Product

	result := s.db.WithContext(ctx).First(&product, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}
	return &product, nil
}

// UpdateInput holds the fields of a partial product update. Nil fields are
// left untouched.
type UpdateInput struct {
	Code          *string  `json:"code" validate:"omitempty,min=1"`
	Name          *string  `json:"name" validate:"omitempty,min=1"`
	UOM           *string  `json:"uom" validate:"omitempty,min=1"`
	Price         *float64 `json:"price" validate:"omitempty,min=0"`
	Stock         *int     `json:"stock"`
	RestockLevel  *int     `json:"restock_level" validate:"omitempty,min=0"`
	StockLocation *string  `json:"stock_location"`
	SuppliedBy    *string  `json:"supplied_by"`
	Notes         *string  `json:"notes"`
}

func (in UpdateInput) updates() map[string]any {
	updates := map[string]any{}
	if in.Code != nil {
		updates["code"] = *in.Code
	}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.UOM != nil {
		updates["uom"] = *in.UOM
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.RestockLevel != nil {
		updates["restock_level"] = *in.RestockLevel
	}
	if in.StockLocation != nil {
		updates["stock_location"] = *in.StockLocation
	}
	if in.SuppliedBy != nil {
		updates["supplied_by"] = *in.SuppliedBy
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	return updates
}

func (s *Service) Update(ctx context.Context, id int, input UpdateInput) (*database.Product, error) {
	updates := input.updates()
	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&database.Product{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return nil, ErrCodeTaken
			}
			return nil, fmt.Errorf("failed to update product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrProductNotFound
		}
	}
	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&database.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&database.Product{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *Service) All(ctx context.Context) ([]database.Product, error) {
	var products []database.Product

	result := s.db.WithContext(ctx).Order("code").Find(&products)
	if result.Error != nil {
		return nil, result.Error
	}
	return products, nil
}

// AdjustStock adds to or removes from the stock of a product. Removal is a
// single conditional UPDATE so the stock never goes negative under
// concurrent requests.
func (s *Service) AdjustStock(ctx context.Context, id int, action string, quantity int) (*database.Product, error) {
	switch action {
	case ActionAdd:
		return s.applyStock(ctx, "id", id, "stock + ?", false, quantity)
	case ActionRemove:
		return s.applyStock(ctx, "id", id, "stock - ?", true, quantity)
	default:
		return nil, ErrInvalidAction
	}
}

// DeductStock removes quantity from the product identified by code.
func (s *Service) DeductStock(ctx context.Context, code string, quantity int) (*database.Product, error) {
	return s.applyStock(ctx, "code", code, "stock - ?", true, quantity)
}

// applyStock runs "UPDATE products SET stock = <expr> WHERE <column> = key",
// adding "AND stock >= quantity" when requireStock is set.
func (s *Service) applyStock(ctx context.Context, column string, key any, expr string, requireStock bool, quantity int) (*database.Product, error) {
	var updated []database.Product

	query := s.db.WithContext(ctx).Model(&updated).Clauses(clause.Returning{}).Where(column+" = ?", key)
	if requireStock {
		query = query.Where("stock >= ?", quantity)
	}

	result := query.Updates(map[string]any{"stock": gorm.Expr(expr, quantity)})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update stock: %w", result.Error)
	}
	if result.RowsAffected > 0 && len(updated) > 0 {
		return &updated[0], nil
	}

	// Nothing matched: either the product does not exist or stock is short.
	var current database.Product
	lookup := s.db.WithContext(ctx).First(&current, column+" = ?", key)
	if lookup.Error != nil {
		if errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, lookup.Error
	}
	return nil, &InsufficientStockError{Stock: current.Stock, Requested: quantity}
}

const searchCondition = `LOWER(name) LIKE LOWER(?) OR LOWER(code) LIKE LOWER(?) OR LOWER(uom) LIKE LOWER(?)
	OR CAST(price AS TEXT) LIKE ? OR CAST(stock AS TEXT) LIKE ? OR CAST(restock_level AS TEXT) LIKE ?`

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

type SearchResult struct {
	Products   []database.Product `json:"products"`
	Pagination Pagination         `json:"pagination"`
}

// Search matches every fuzzy pattern of query against the text columns and
// the numeric columns rendered as text. Pages are 1-based.
func (s *Service) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}

	scope := s.db.WithContext(ctx).Model(&database.Product{})

	if patterns := utils.FuzzyPatterns(query); len(patterns) > 0 {
		var cond *gorm.DB
		for i, pattern := range patterns {
			args := []any{pattern, pattern, pattern, pattern, pattern, pattern}
			if i == 0 {
				cond = s.db.Where(searchCondition, args...)
			} else {
				cond = cond.Or(searchCondition, args...)
			}
		}
		scope = scope.Where(cond)
	}

	var total int64
	if err := scope.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	products := []database.Product{}
	result := scope.Session(&gorm.Session{}).
		Order("id").
		Limit(ItemsPerPage).
		Offset((page - 1) * ItemsPerPage).
		Find(&products)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to search products: %w", result.Error)
	}

	return &SearchResult{
		Products: products,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  int(math.Ceil(float64(total) / ItemsPerPage)),
			TotalItems:  total,
		},
	}, nil
}

type StockStats struct {
	SoldOut     int64 `json:"soldOut"`
	LowStock    int64 `json:"lowStock"`
	MediumStock int64 `json:"mediumStock"`
	HighStock   int64 `json:"highStock"`
}

// StockStats buckets products by stock relative to their restock level.
// Medium stock ends at restock level times multiplier.
func (s *Service) StockStats(ctx context.Context, multiplier float64) (*StockStats, error) {
	var stats StockStats

	result := s.db.WithContext(ctx).Raw(`
		SELECT  count(CASE WHEN stock <= 0 THEN 1 END) AS sold_out,
				count(CASE WHEN stock > 0 AND stock < restock_level THEN 1 END) AS low_stock,
				count(CASE WHEN stock >= restock_level AND stock < (restock_level * ?) THEN 1 END) AS medium_stock,
				count(CASE WHEN stock >= (restock_level * ?) THEN 1 END) AS high_stock
		FROM    products`, multiplier, multiplier).Scan(&stats)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to compute stock stats: %w", result.Error)
	}
	return &stats, nil
}

package models

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product lookup matches no row.
var ErrProductNotFound = errors.New("product not found")

// ErrDuplicateProduct is returned when an insert collides with an
// existing (sku, qty) pair.
var ErrDuplicateProduct = errors.New("sku and quantity tier already exist")

// ProductPageSize is the fixed page size for the product list.
const ProductPageSize = 10

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// List returns one page of products whose name or SKU contains the
// search term (case-insensitive), plus the total number of matching
// rows. Page is 1-based; ordering is by id ascending.
func (r *ProductsRepository) List(search string, page int) ([]Product, int64, error) {
	if page < 1 {
		page = 1
	}
	pattern := "%" + search + "%"

	query := r.db.Model(&Product{}).
		Where("product_name ILIKE ? OR sku ILIKE ?", pattern, pattern)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []Product
	offset := (page - 1) * ProductPageSize
	if err := query.Order("id ASC").Offset(offset).Limit(ProductPageSize).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Search is the capped variant used by the ajax endpoint; no
// pagination metadata, same filter and ordering as List.
func (r *ProductsRepository) Search(term string, limit int) ([]Product, error) {
	pattern := "%" + term + "%"
	var products []Product
	if err := r.db.
		Where("product_name ILIKE ? OR sku ILIKE ?", pattern, pattern).
		Order("id ASC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductsRepository) GetByID(id uint) (*Product, error) {
	var product Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductsRepository) GetBySKU(sku string) (*Product, error) {
	var product Product
	if err := r.db.Where("sku = ?", sku).Order("id ASC").First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// UpdateFields writes the editable columns of a single row and bumps
// the timestamp.
func (r *ProductsRepository) UpdateFields(id uint, qty int, minimumPrice decimal.Decimal, updateInterval int) error {
	return r.db.Model(&Product{}).Where("id = ?", id).Updates(map[string]any{
		"qty":             qty,
		"minimum_price":   minimumPrice,
		"update_interval": updateInterval,
		"updated_at":      time.Now(),
	}).Error
}

func (r *ProductsRepository) UpdateActive(id uint, active int) error {
	return r.db.Model(&Product{}).Where("id = ?", id).Updates(map[string]any{
		"active":     active,
		"updated_at": time.Now(),
	}).Error
}

func (r *ProductsRepository) UpdateInventory(id uint, inventory int) error {
	return r.db.Model(&Product{}).Where("id = ?", id).Updates(map[string]any{
		"inventory":  inventory,
		"updated_at": time.Now(),
	}).Error
}

func (r *ProductsRepository) Delete(id uint) error {
	return r.db.Delete(&Product{}, id).Error
}

// ExistsSKUQty reports whether a row already occupies the given
// (sku, qty) tier.
func (r *ProductsRepository) ExistsSKUQty(sku string, qty int) (bool, error) {
	var count int64
	if err := r.db.Model(&Product{}).
		Where("sku = ? AND qty = ?", sku, qty).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateAll inserts every row in one transaction, so a failure leaves
// zero rows behind. Unique violations are mapped to
// ErrDuplicateProduct.
func (r *ProductsRepository) CreateAll(products []Product) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&products).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateProduct
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

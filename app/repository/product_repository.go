package repository

import (
	"github.com/ManuelReschke/PixCheckout/app/models"
	"gorm.io/gorm"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product in the database
func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetByID retrieves a product by its ID
func (r *productRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetAll retrieves all products, active or not
func (r *productRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Order("id ASC").Find(&products).Error
	return products, err
}

// GetActive retrieves the storefront catalog. Categories sort descending so
// that the main offer ("principal") comes before the order bumps.
func (r *productRepository) GetActive() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("active = ?", true).Order("type DESC").Order("id ASC").Find(&products).Error
	return products, err
}

// Update saves all product fields
func (r *productRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// Delete removes a product by its ID
func (r *productRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

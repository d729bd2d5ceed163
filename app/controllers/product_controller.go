package controllers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixCheckout/app/models"
	"github.com/ManuelReschke/PixCheckout/app/repository"
)

const (
	productActionCreate = "create"
	productActionEdit   = "edit"
	productActionDelete = "delete"
)

// ProductController serves the storefront catalog and the admin product
// maintenance endpoint.
type ProductController struct {
	repos *repository.Repositories
}

// NewProductController creates a new product controller with repository dependencies
func NewProductController(repos *repository.Repositories) *ProductController {
	return &ProductController{
		repos: repos,
	}
}

// HandleListProducts returns the active catalog. A failing store yields an
// empty catalog rather than an error page.
func (pc *ProductController) HandleListProducts(c *fiber.Ctx) error {
	products, err := pc.repos.Product.GetActive()
	if err != nil {
		log.Errorf("[Products] Failed to load catalog: %v", err)
		products = nil
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(products)
}

// priceInput accepts a price either as integer cents or as a reais string
// ("47,90", "1.234,56", "12.50").
type priceInput struct {
	Cents int64
	Set   bool
}

func (p *priceInput) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return p.parseString(s)
	}

	var cents int64
	if err := json.Unmarshal(b, &cents); err != nil || cents < 0 {
		return models.ErrInvalidPrice
	}
	p.Cents, p.Set = cents, true
	return nil
}

func (p *priceInput) parseString(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	cents, err := models.ParsePriceCents(s)
	if err != nil {
		return err
	}
	p.Cents, p.Set = cents, true
	return nil
}

type adminProductRequest struct {
	Action      string     `json:"action" form:"action"`
	ID          uint       `json:"id" form:"id"`
	Type        string     `json:"type" form:"type"`
	Name        string     `json:"name" form:"name"`
	Price       priceInput `json:"price" form:"-"`
	Image       string     `json:"image" form:"image"`
	Description string     `json:"description" form:"description"`
}

func (r *adminProductRequest) apply(p *models.Product) {
	p.Type = strings.TrimSpace(r.Type)
	p.Name = strings.TrimSpace(r.Name)
	p.PriceCents = r.Price.Cents
	p.ImageURL = strings.TrimSpace(r.Image)
	p.Description = strings.TrimSpace(r.Description)
}

// HandleAdminProduct creates, edits or deletes a product depending on the
// requested action.
func (pc *ProductController) HandleAdminProduct(c *fiber.Ctx) error {
	var req adminProductRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	// form posts carry the price as text
	if !c.Is("json") {
		if err := req.Price.parseString(c.FormValue("price")); err != nil {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case productActionCreate:
		product := &models.Product{Active: true}
		req.apply(product)
		if err := product.Validate(); err != nil {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
		if err := pc.repos.Product.Create(product); err != nil {
			return pc.handleError(c, "Failed to create product", err)
		}
		log.Infof("[Products] Created product %d (%s)", product.ID, product.Name)
		return c.JSON(fiber.Map{"success": true, "id": product.ID})

	case productActionEdit:
		product, err := pc.repos.Product.GetByID(req.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return jsonError(c, fiber.StatusNotFound, "product not found")
			}
			return pc.handleError(c, "Failed to load product", err)
		}
		req.apply(product)
		if err := product.Validate(); err != nil {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
		if err := pc.repos.Product.Update(product); err != nil {
			return pc.handleError(c, "Failed to update product", err)
		}
		log.Infof("[Products] Updated product %d", product.ID)
		return c.JSON(fiber.Map{"success": true, "id": product.ID})

	case productActionDelete:
		if req.ID == 0 {
			return jsonError(c, fiber.StatusBadRequest, "id is required")
		}
		if err := pc.repos.Product.Delete(req.ID); err != nil {
			return pc.handleError(c, "Failed to delete product", err)
		}
		log.Infof("[Products] Deleted product %d", req.ID)
		return c.JSON(fiber.Map{"success": true})

	default:
		return jsonError(c, fiber.StatusBadRequest, "unknown action")
	}
}

func (pc *ProductController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Products] %s: %v", message, err)
	return jsonError(c, fiber.StatusInternalServerError, message)
}

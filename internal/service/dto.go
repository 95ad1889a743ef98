package service

import (
	"time"

	"catalog/internal/domain"

	"github.com/shopspring/decimal"
)

// CategoryDTO is the transfer form of a category
type CategoryDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" validate:"required,min=2,max=100"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductDTO is the transfer form of a product. Only category ids are read on input.
type ProductDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name" validate:"required,min=2,max=255"`
	Description string          `json:"description" validate:"max=10000"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	ImgURL      string          `json:"img_url" validate:"omitempty,url,max=500"`
	Date        time.Time       `json:"date"`
	Categories  []CategoryDTO   `json:"categories"`
}

// CategoryIDs returns the referenced category ids in request order, without duplicates.
func (d ProductDTO) CategoryIDs() []int64 {
	seen := make(map[int64]bool, len(d.Categories))
	ids := make([]int64, 0, len(d.Categories))
	for _, c := range d.Categories {
		if !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func newCategoryDTO(c domain.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func newProductDTO(p domain.Product) ProductDTO {
	categories := make([]CategoryDTO, 0, len(p.Categories))
	for _, c := range p.Categories {
		categories = append(categories, newCategoryDTO(c))
	}

	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImgURL:      p.ImgURL,
		Date:        p.Date,
		Categories:  categories,
	}
}

// applyProductDTO copies the writable fields of dto onto p, using the already resolved categories.
func applyProductDTO(p *domain.Product, dto ProductDTO, categories []domain.Category) {
	p.Name = dto.Name
	p.Description = dto.Description
	p.Price = dto.Price
	p.ImgURL = dto.ImgURL
	p.Categories = categories
}

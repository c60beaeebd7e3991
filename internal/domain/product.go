package domain

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Category groups catalog entries on the storefront.
type Category string

const (
	CategoryCake  Category = "cake"
	CategorySweet Category = "sweet"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryCake || c == CategorySweet
}

// ParseCategory normalizes user input; empty input defaults to cake.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CategoryCake, nil
	}
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Message: "category must be 'cake' or 'sweet'"}
	}
	return c, nil
}

// Product is a catalog entry shown on the storefront
type Product struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	Name        string     `gorm:"index;size:200" json:"name"`
	Price       float64    `json:"price"` // price in reais
	Description string     `gorm:"size:2000" json:"description"`
	Category    Category   `gorm:"size:16;index" json:"category"`
	ImageURL    string     `gorm:"size:1024" json:"imageURL"` // external link or uploaded object URL
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "catalog_product"
}

// ProductInput holds the writable fields of a new product.
type ProductInput struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	ImageURL    string   `json:"imageURL"`
}

// Normalize trims text fields, defaults the category and rejects invalid values.
// Price conversion from locale text happens before this point; only the number is checked.
func (in ProductInput) Normalize() (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Name == "" {
		return in, &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := checkPrice(in.Price); err != nil {
		return in, err
	}
	cat, err := ParseCategory(string(in.Category))
	if err != nil {
		return in, err
	}
	in.Category = cat
	return in, nil
}

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string   `json:"name"`
	Price       *float64  `json:"price"`
	Description *string   `json:"description"`
	Category    *Category `json:"category"`
	ImageURL    *string   `json:"imageURL"`
}

// Normalize applies the same rules as ProductInput to the fields that are present.
func (p ProductPatch) Normalize() (ProductPatch, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return p, &ValidationError{Field: "name", Message: "name is required"}
		}
		p.Name = &name
	}
	if p.Price != nil {
		if err := checkPrice(*p.Price); err != nil {
			return p, err
		}
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		p.Description = &d
	}
	if p.Category != nil {
		cat, err := ParseCategory(string(*p.Category))
		if err != nil {
			return p, err
		}
		p.Category = &cat
	}
	if p.ImageURL != nil {
		u := strings.TrimSpace(*p.ImageURL)
		p.ImageURL = &u
	}
	return p, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Description == nil && p.Category == nil && p.ImageURL == nil
}

// Apply merges the patch into p. Timestamps are left to the caller.
func (p ProductPatch) Apply(dst *Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.ImageURL != nil {
		dst.ImageURL = *p.ImageURL
	}
}

// Fields returns the patch as a column/field map keyed by the given naming function.
func (p ProductPatch) Fields(name func(field string) string) map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Name != nil {
		fields[name("name")] = *p.Name
	}
	if p.Price != nil {
		fields[name("price")] = *p.Price
	}
	if p.Description != nil {
		fields[name("description")] = *p.Description
	}
	if p.Category != nil {
		fields[name("category")] = string(*p.Category)
	}
	if p.ImageURL != nil {
		fields[name("image_url")] = *p.ImageURL
	}
	return fields
}

// NewProduct builds a record from normalized input. ID and CreatedAt are set by the backend.
func NewProduct(in ProductInput) Product {
	return Product{
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
	}
}

func checkPrice(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: "price", Message: "price must be a number"}
	}
	if v < 0 {
		return &ValidationError{Field: "price", Message: "price must be >= 0"}
	}
	return nil
}

var priceChars = regexp.MustCompile(`[^0-9.,]`)

// ParsePrice reads a price typed in the admin form. Both "12,50" and "12.50" are accepted.
func ParsePrice(s string) (float64, error) {
	clean := strings.Replace(priceChars.ReplaceAllString(s, ""), ",", ".", 1)
	if clean == "" {
		return 0, &ValidationError{Field: "price", Message: "price is required"}
	}
	v, err := cast.ToFloat64E(clean)
	if err != nil {
		return 0, &ValidationError{Field: "price", Message: "price must be a number"}
	}
	return v, checkPrice(v)
}

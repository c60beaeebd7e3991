package localstore

import (
	"time"

	"github.com/silmarabolos/storefront/internal/domain"
)

// seedCreatedAt is fixed so the seed set is identical on every first run
var seedCreatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// seedProducts returns the example catalog written when the store is empty.
func seedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "seed-bolo-chocolate",
			Name:        "Bolo de Chocolate",
			Price:       45.99,
			Description: "Delicioso bolo de chocolate com cobertura cremosa",
			Category:    domain.CategoryCake,
			ImageURL:    "https://images.unsplash.com/photo-1578985545062-69928b1d9587?auto=format&fit=crop&w=1089&q=80",
			CreatedAt:   seedCreatedAt,
		},
		{
			ID:          "seed-brigadeiros",
			Name:        "Brigadeiros Gourmet",
			Price:       2.99,
			Description: "Brigadeiros artesanais com chocolate belga",
			Category:    domain.CategorySweet,
			ImageURL:    "https://images.unsplash.com/photo-1589375045402-0d8f1b33b229?auto=format&fit=crop&w=1170&q=80",
			CreatedAt:   seedCreatedAt,
		},
	}
}

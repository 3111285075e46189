package catalog

import "github.com/MohitNegi1997/MoltenMotion/internal/domain"

// ProductsByCategory keeps the products of categoryID in input order. An
// empty categoryID means all categories and returns products unchanged.
func ProductsByCategory(categoryID string, products []domain.Product) []domain.Product {
	if categoryID == "" {
		return products
	}
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

// ProductByID returns the first product with id.
func ProductByID(id string, products []domain.Product) (domain.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

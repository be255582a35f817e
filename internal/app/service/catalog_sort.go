package service

import (
	"sort"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
)

// sortByRating orders by mean rating, ties broken by review count.
// Descending reverses both keys.
func sortByRating(products []model.Product, ascending bool) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.AverageRating != b.AverageRating {
			if ascending {
				return a.AverageRating < b.AverageRating
			}
			return a.AverageRating > b.AverageRating
		}
		if ascending {
			return a.ReviewCount < b.ReviewCount
		}
		return a.ReviewCount > b.ReviewCount
	})
}

// sortBySize orders by the smallest mapped size label. Products without a
// mappable label go last in both directions.
func sortBySize(products []model.Product, ascending bool) {
	type keyed struct {
		product model.Product
		idx     int
		ok      bool
	}
	items := make([]keyed, len(products))
	for i, p := range products {
		idx, ok := model.MinSizeIndex(p.Category, p.Sizes)
		items[i] = keyed{product: p, idx: idx, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok || a.idx == b.idx {
			return false
		}
		if ascending {
			return a.idx < b.idx
		}
		return a.idx > b.idx
	})

	for i, item := range items {
		products[i] = item.product
	}
}

func applyInMemorySort(products []model.Product, by repository.ProductSort, ascending bool) {
	switch by {
	case repository.ProductSortRating:
		sortByRating(products, ascending)
	case repository.ProductSortSize:
		sortBySize(products, ascending)
	}
}

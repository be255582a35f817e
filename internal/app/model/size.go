package model

import "strings"

var (
	ClothingSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}
	FootwearSizes = []string{"36", "37", "38", "39", "40", "41", "42", "43", "44", "45"}
)

// SizeOrder returns the canonical label ordering for a category. Clothing
// uses letter sizes; every other category uses the footwear scale.
func SizeOrder(category string) []string {
	if strings.EqualFold(category, CategoryClothing) {
		return ClothingSizes
	}
	return FootwearSizes
}

// MinSizeIndex returns the smallest position of any label in the category's
// ordering. Labels outside the ordering are ignored; ok is false when no
// label maps.
func MinSizeIndex(category string, sizes []string) (idx int, ok bool) {
	order := SizeOrder(category)
	idx = len(order)
	for _, s := range sizes {
		label := strings.ToUpper(strings.TrimSpace(s))
		for i, o := range order {
			if o == label && i < idx {
				idx = i
				ok = true
			}
		}
	}
	return idx, ok
}

// InvalidSizes returns the labels not allowed for the category together
// with the allowed set. Categories without a fixed scale accept any label
// and return a nil allowed set.
func InvalidSizes(category string, sizes []string) (invalid []string, allowed []string) {
	switch {
	case strings.EqualFold(category, CategoryClothing):
		allowed = ClothingSizes
	case strings.EqualFold(category, CategoryFootwear):
		allowed = FootwearSizes
	default:
		return nil, nil
	}

	for _, s := range sizes {
		label := strings.ToUpper(strings.TrimSpace(s))
		found := false
		for _, a := range allowed {
			if a == label {
				found = true
				break
			}
		}
		if !found {
			invalid = append(invalid, s)
		}
	}
	return invalid, allowed
}

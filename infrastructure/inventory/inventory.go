package inventory

import (
	"strings"

	"depalletconsole/models"
)

// StockLevel is the display tier of a product's stock.
type StockLevel string

const (
	StockLow     StockLevel = "low"
	StockWarning StockLevel = "warning"
	StockNormal  StockLevel = "normal"
)

// ClassifyStock tiers a stock count: 2 or fewer is low, exactly 3 is a
// warning and anything above is normal.
func ClassifyStock(stock int) StockLevel {
	switch {
	case stock <= 2:
		return StockLow
	case stock == 3:
		return StockWarning
	default:
		return StockNormal
	}
}

// Filter returns the products whose item code, name, brand, color, size or
// category contains term, ignoring case. A blank term returns products as is.
func Filter(products []models.Product, term string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if matches(p, term) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p models.Product, term string) bool {
	for _, field := range [...]string{p.ItemCode, p.ProductName, p.Brand, p.Color, p.Size, p.Category} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Row is a product with its stock tier.
type Row struct {
	models.Product
	Level StockLevel
}

func Classify(products []models.Product) []Row {
	rows := make([]Row, len(products))
	for i, p := range products {
		rows[i] = Row{Product: p, Level: ClassifyStock(p.Stock)}
	}
	return rows
}

// Summary counts products per tier.
type Summary struct {
	Total   int
	Low     int
	Warning int
	Normal  int
}

func Summarize(products []models.Product) Summary {
	s := Summary{Total: len(products)}
	for _, p := range products {
		switch ClassifyStock(p.Stock) {
		case StockLow:
			s.Low++
		case StockWarning:
			s.Warning++
		default:
			s.Normal++
		}
	}
	return s
}

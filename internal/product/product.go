package product

import "github.com/shopspring/decimal"

// Product is one sellable item in a shop category. Quantities and prices are
// never negative.
type Product struct {
	Shop            string          `json:"shopname"`
	Category        string          `json:"category"`
	Name            string          `json:"productName"`
	NumRemainPack   int64           `json:"numRemainPack"`
	NumPerPack      int64           `json:"numPerPack"`
	Unit            string          `json:"unit"`
	PricePerPack    decimal.Decimal `json:"pricePerPack"`
	NumRemainSingle int64           `json:"numRemainSingle"`
	PricePerSingle  decimal.Decimal `json:"pricePerSingle"`
	ImageURL        string          `json:"imageUrl"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// Field names accepted by UpsertProduct.
const (
	FieldNumRemainPack   = "numRemainPack"
	FieldNumPerPack      = "numPerPack"
	FieldUnit            = "unit"
	FieldPricePerPack    = "pricePerPack"
	FieldNumRemainSingle = "numRemainSingle"
	FieldPricePerSingle  = "pricePerSingle"
	FieldImageURL        = "imageUrl"
)

var (
	intFields     = []string{FieldNumRemainPack, FieldNumPerPack, FieldNumRemainSingle}
	decimalFields = []string{FieldPricePerPack, FieldPricePerSingle}
	stringFields  = []string{FieldUnit, FieldImageURL}
)

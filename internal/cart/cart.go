package cart

// Size is the portion variant of a menu item.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeFamily Size = "family"
	SizeDeal   Size = "deal"
)

func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeFamily, SizeDeal:
		return true
	}
	return false
}

func (s Size) String() string {
	return string(s)
}

// Variant distinguishes lines of the same product. It is part of the line
// identity key: the same product in a different size or spiciness is a
// separate line and is never merged.
type Variant struct {
	Spicy bool `json:"isSpicy"`
	Size  Size `json:"size"`
}

// Line is a single cart entry. UnitPrice is copied from the catalog when the
// line is first added; later catalog price changes do not affect it.
type Line struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Variant
	ImageRef string `json:"pic,omitempty"`
}

func (l Line) matches(productID string, v Variant) bool {
	return l.ProductID == productID && l.Spicy == v.Spicy && l.Size == v.Size
}

// LineTotal is the extended price of the line.
func (l Line) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// ProductInfo is the catalog data captured into a new line.
type ProductInfo struct {
	ID    string
	Name  string
	Price float64
	Pic   string
}

// Totals holds the derived money values of a cart. DiscountAmount is clamped
// so the total is never negative.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	Total          float64 `json:"total"`
}

func computeTotals(lines []Line, discount float64) Totals {
	subtotal := 0.0
	for _, l := range lines {
		subtotal += l.LineTotal()
	}

	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          subtotal - discount,
	}
}

package domain

// LineItem is one product in a cart. The JSON layout is the persisted one.
type LineItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price times quantity for this line.
func (i LineItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

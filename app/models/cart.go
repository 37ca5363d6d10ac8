package models

// Product is the snapshot of a catalogue entry captured when a line is added
// to the cart. It is deliberately not live-synced: price and title stay as
// they were at add time.
type Product struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

// CartLine is one product entry in a cart. Quantity is always >= 1; a line
// that would drop to zero is removed instead of stored.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal is the snapshot price multiplied by the quantity.
func (l CartLine) LineTotal() float64 {
	return l.Price * float64(l.Quantity)
}

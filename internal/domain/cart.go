package domain

import "time"

// Cart is a user's shopping cart. Every mutation persists the full cart; a
// missing or corrupt stored entry rehydrates as an empty cart.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is a motor snapshot with the requested quantity.
type CartItem struct {
	MotorID  string `json:"motor_id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// NewCart returns an empty cart for the given user.
func NewCart(userID string) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     []CartItem{},
		UpdatedAt: time.Now().UTC(),
	}
}

// TotalItems returns the sum of all item quantities.
func (c *Cart) TotalItems() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// TotalPrice returns the sum of price times quantity over all items.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// FindItemIndex returns the index of the item with the given motor ID, or -1.
func (c *Cart) FindItemIndex(motorID string) int {
	for i := range c.Items {
		if c.Items[i].MotorID == motorID {
			return i
		}
	}
	return -1
}

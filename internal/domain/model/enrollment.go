package model

import "time"

// Enrollment records immediate access to a free course. There is no review step.
type Enrollment struct {
	UserID     string
	CourseID   string
	EnrolledAt time.Time
}

// CartItem is a course line in a user's cart, priced from the live catalog.
type CartItem struct {
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
}

// Cart is the ephemeral checkout intent of one user.
type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

func (c *Cart) Total() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.Price
	}
	return sum
}

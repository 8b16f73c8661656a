package model

import (
	"time"

	"course-marketplace/internal/domain"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "Beginner"
	LevelIntermediate CourseLevel = "Intermediate"
	LevelAdvanced     CourseLevel = "Advanced"
)

// Course is a catalog entry. Price is in whole rupees; free courses have IsFree set
// and are handled by enrollment rather than payment requests.
type Course struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Level       CourseLevel `json:"level"`
	Price       int64       `json:"price"`
	IsFree      bool        `json:"is_free"`
	Instructor  string      `json:"instructor,omitempty"`
	CourseLink  string      `json:"course_link,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }

// NewCourse validates and constructs a catalog course.
func NewCourse(id, title, category string, level CourseLevel, price int64, isFree bool) (*Course, error) {
	if id == "" || title == "" || price < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if !isFree && price == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if isFree {
		price = 0
	}
	return &Course{
		ID:        id,
		Title:     title,
		Category:  category,
		Level:     level,
		Price:     price,
		IsFree:    isFree,
		CreatedAt: time.Now(),
	}, nil
}

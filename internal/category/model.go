package category

import "time"

// Uncategorized is used when an imported product carries no category name.
const Uncategorized = "미분류"

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

package product

import "time"

type Status string

const (
	StatusActive   Status = "a"
	StatusSoldOut  Status = "s"
	StatusObsolete Status = "o"
	StatusInactive Status = "i"
)

var statusLabels = map[Status]string{
	StatusActive:   "정상",
	StatusSoldOut:  "품절",
	StatusObsolete: "단종",
	StatusInactive: "비활성화",
}

// Label returns the display label; unknown values fall back to the raw code.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

type Product struct {
	ID           int64     `json:"id"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

// PageSize is the number of products per catalog page.
const PageSize = 4

type ListQuery struct {
	Search string
	Page   int
}

type ListResult struct {
	Items      []*Product `json:"items"`
	Page       int        `json:"page"`
	TotalCount int64      `json:"total_count"`
	HasNext    bool       `json:"has_next"`
}

// SeedItem is one entry of the catalog import feed.
type SeedItem struct {
	CategoryName string `json:"category_name"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	PriceUnit    string `json:"priceUnit"`
	Desc         string `json:"desc"`
	PhotoPath    string `json:"photo_path"`
}

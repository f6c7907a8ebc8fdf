package listing

import "time"

// Listing is a property advertisement owned by a user. Visibility of
// the paid placement is governed by is_paid and expiry_date.
type Listing struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	AdTypeID    int        `json:"ad_type_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Bedrooms    *int       `json:"bedrooms"`
	Bathrooms   *int       `json:"bathrooms"`
	AreaSqm     *int       `json:"area_sqm"`
	Photos      []string   `json:"photos"`
	IsPaid      bool       `json:"is_paid"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AdType is a static catalog entry defining price and active duration
// for a listing tier.
type AdType struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	DurationDays int    `json:"duration_days"`
}

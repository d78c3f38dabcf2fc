package models

// Spot is a parking spot exactly as the upstream API reports it.
type Spot struct {
	SpotID       int     `json:"spot_id"`
	Price        float64 `json:"price"`
	Availability bool    `json:"availability"`
	UserSpot     string  `json:"user_spot"`
}

// PricedSpot is a spot with the time-of-day multiplier applied,
// ready for display. BasePrice is the upstream price, CurrentPrice
// the multiplied one rounded to cents.
type PricedSpot struct {
	ID                  int     `json:"id"`
	BasePrice           float64 `json:"base_price"`
	CurrentPrice        float64 `json:"current_price"`
	BasePriceDisplay    string  `json:"base_price_display"`
	CurrentPriceDisplay string  `json:"current_price_display"`
	Reserved            bool    `json:"reserved"`
	ReservedBy          string  `json:"reserved_by,omitempty"`
}

// ReservedSpot is one entry of a user's reservation listing.
// Price is the value stored upstream at reservation time; the live
// multiplier is not re-applied here.
type ReservedSpot struct {
	SpotID int     `json:"spot_id"`
	Price  float64 `json:"price"`
}

// AddSpotRequest carries the admin-entered price for a new spot.
// The price arrives as the raw input string and is validated
// server-side before any upstream call.
type AddSpotRequest struct {
	Price string `json:"price" binding:"required"`
}

package models

// AddFundsRequest carries the raw top-up amount. The amount is
// forwarded to the upstream unparsed; the upstream enforces that it
// is a positive number.
type AddFundsRequest struct {
	Amount string `json:"amount" binding:"required"`
}

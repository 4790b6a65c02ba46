package domain

// Gig is a seller's listing. Rating and TotalReviews are derived from its
// reviews and only written by the aggregate recomputation.
type Gig struct {
	ID           string    `json:"id"`
	SellerID     string    `json:"seller_id"`
	Title        string    `json:"title"`
	Packages     []Package `json:"packages"`
	Rating       float64   `json:"rating"`
	TotalReviews int       `json:"total_reviews"`
}

package models

// Flight is a static catalog entry, read-only from the API's perspective.
type Flight struct {
	ID             string  `json:"id" bson:"_id"`
	Airline        string  `json:"airline" bson:"airline"`
	FlightNumber   string  `json:"flight_number" bson:"flight_number"`
	Origin         string  `json:"origin" bson:"origin"`
	Destination    string  `json:"destination" bson:"destination"`
	DepartureDate  string  `json:"departure_date" bson:"departure_date"`
	CabinClass     string  `json:"cabin_class" bson:"cabin_class"`
	Price          float64 `json:"price" bson:"price"`
	PointsRequired int     `json:"points_required" bson:"points_required"`
}

// Hotel is a static catalog entry.
type Hotel struct {
	ID             string  `json:"id" bson:"_id"`
	Name           string  `json:"name" bson:"name"`
	City           string  `json:"city" bson:"city"`
	PricePerNight  float64 `json:"price_per_night" bson:"price_per_night"`
	Rating         float64 `json:"rating" bson:"rating"`
	PointsRequired int     `json:"points_required" bson:"points_required"`
}

// ShoppingOffer is a static catalog entry.
type ShoppingOffer struct {
	ID          string  `json:"id" bson:"_id"`
	Merchant    string  `json:"merchant" bson:"merchant"`
	Title       string  `json:"title" bson:"title"`
	Category    string  `json:"category" bson:"category"`
	CashbackPct float64 `json:"cashback_pct" bson:"cashback_pct"`
	ValidUntil  string  `json:"valid_until" bson:"valid_until"`
}

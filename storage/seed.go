package storage

import "cardsavvy/api/models"

// Deterministic demo catalog for the in-memory backend. The relational and
// document backends read whatever their external stores hold and seed
// nothing.

func seedFlights() []models.Flight {
	return []models.Flight{
		{ID: "fl-001", Airline: "IndiGo", FlightNumber: "6E 302", Origin: "BOM", Destination: "DEL", DepartureDate: "2025-10-04", CabinClass: "economy", Price: 5400, PointsRequired: 10800},
		{ID: "fl-002", Airline: "Air India", FlightNumber: "AI 864", Origin: "DEL", Destination: "SIN", DepartureDate: "2025-10-12", CabinClass: "economy", Price: 18900, PointsRequired: 37800},
		{ID: "fl-003", Airline: "Vistara", FlightNumber: "UK 996", Origin: "BOM", Destination: "DXB", DepartureDate: "2025-10-18", CabinClass: "premium_economy", Price: 24500, PointsRequired: 49000},
		{ID: "fl-004", Airline: "Emirates", FlightNumber: "EK 501", Origin: "BOM", Destination: "LHR", DepartureDate: "2025-11-02", CabinClass: "business", Price: 148000, PointsRequired: 296000},
		{ID: "fl-005", Airline: "Singapore Airlines", FlightNumber: "SQ 423", Origin: "BLR", Destination: "SIN", DepartureDate: "2025-11-09", CabinClass: "economy", Price: 21300, PointsRequired: 42600},
	}
}

func seedHotels() []models.Hotel {
	return []models.Hotel{
		{ID: "ht-001", Name: "Taj Mahal Palace", City: "Mumbai", PricePerNight: 24000, Rating: 4.8, PointsRequired: 48000},
		{ID: "ht-002", Name: "The Leela Palace", City: "Bengaluru", PricePerNight: 16500, Rating: 4.7, PointsRequired: 33000},
		{ID: "ht-003", Name: "ITC Grand Chola", City: "Chennai", PricePerNight: 13200, Rating: 4.6, PointsRequired: 26400},
		{ID: "ht-004", Name: "Marina Bay Sands", City: "Singapore", PricePerNight: 38500, Rating: 4.5, PointsRequired: 77000},
		{ID: "ht-005", Name: "Atlantis The Palm", City: "Dubai", PricePerNight: 45200, Rating: 4.4, PointsRequired: 90400},
	}
}

func seedShoppingOffers() []models.ShoppingOffer {
	return []models.ShoppingOffer{
		{ID: "so-001", Merchant: "Amazon", Title: "10% cashback on electronics", Category: "electronics", CashbackPct: 10, ValidUntil: "2025-12-31"},
		{ID: "so-002", Merchant: "Myntra", Title: "Flat 15% off fashion", Category: "fashion", CashbackPct: 15, ValidUntil: "2025-11-30"},
		{ID: "so-003", Merchant: "BigBasket", Title: "5% back on groceries", Category: "groceries", CashbackPct: 5, ValidUntil: "2025-12-15"},
		{ID: "so-004", Merchant: "MakeMyTrip", Title: "12% off hotel bookings", Category: "travel", CashbackPct: 12, ValidUntil: "2026-01-31"},
		{ID: "so-005", Merchant: "Swiggy", Title: "20% back on dining", Category: "dining", CashbackPct: 20, ValidUntil: "2025-11-15"},
	}
}

package vector

import (
	"context"

	"cardsavvy/api/models"
)

// StaticSource serves the builtin card corpus without a vector database. It
// is the fallback candidate source when QDRANT_URL is unset; Query ignores
// the vector and returns the corpus head, which keeps the pipeline alive in
// demos but performs no similarity filtering.
type StaticSource struct {
	docs []models.CardDocument
}

// NewStaticSource builds the fallback source over the builtin corpus.
func NewStaticSource() *StaticSource {
	return &StaticSource{docs: BuiltinCards()}
}

func (s *StaticSource) Query(_ context.Context, _ []float32, limit int) ([]models.CardDocument, error) {
	if limit > len(s.docs) {
		limit = len(s.docs)
	}
	return append([]models.CardDocument(nil), s.docs[:limit]...), nil
}

func (s *StaticSource) FetchAll(context.Context) ([]models.CardDocument, error) {
	return append([]models.CardDocument(nil), s.docs...), nil
}

// BuiltinCards is the demo card corpus, also used to seed the Qdrant index.
func BuiltinCards() []models.CardDocument {
	return []models.CardDocument{
		{
			ID:          "0b6aa9d2-4a3f-4f8e-9a41-0b1c6dd30101",
			CardName:    "Regalia Gold",
			Issuer:      "HDFC Bank",
			CardType:    "travel",
			AnnualFee:   "2500",
			MITCContent: "Earns 4 reward points per 150 spent. Complimentary airport lounge access 12 times a year. 1% fuel surcharge waiver. Annual fee waived on spends above 400000. Foreign currency markup 2%. Reward points redeemable for flights and hotel bookings through SmartBuy.",
		},
		{
			ID:          "5f2d8c7e-90ab-4f13-8d2e-7c5b9e240202",
			CardName:    "Millennia",
			Issuer:      "HDFC Bank",
			CardType:    "cashback",
			AnnualFee:   "1000",
			MITCContent: "5% cashback on Amazon, Flipkart, Myntra and other partner merchants. 1% cashback on all other spends. Cashback credited as CashPoints. Quarterly milestone voucher of 1000 on spends of 100000. Annual fee waived on spends above 100000.",
		},
		{
			ID:          "9a1e4b60-3c2d-4d7f-b8e1-2f6a8d150303",
			CardName:    "Platinum Travel",
			Issuer:      "American Express",
			CardType:    "travel",
			AnnualFee:   "5000",
			MITCContent: "Welcome bonus of 10000 membership rewards points. Milestone bonus of 15000 points on annual spends of 190000 and a further 25000 points at 400000 plus a Taj stay voucher. Points transferable to airline frequent flyer programs. No fuel surcharge at HPCL pumps.",
		},
		{
			ID:          "c4d7f3a1-68e9-4b2c-a5d0-9e8b7c360404",
			CardName:    "SBI Card ELITE",
			Issuer:      "SBI Card",
			CardType:    "lifestyle",
			AnnualFee:   "4999",
			MITCContent: "Welcome e-gift voucher worth 5000. 5x reward points on dining, departmental stores and grocery. Free movie tickets worth 6000 a year. Complimentary Club Vistara and Trident Privilege memberships. 2 international and 2 domestic lounge visits per quarter.",
		},
		{
			ID:          "e8b2a6c4-1d5f-4e90-bc73-4a9d2e470505",
			CardName:    "Amazon Pay ICICI",
			Issuer:      "ICICI Bank",
			CardType:    "cashback",
			AnnualFee:   "0",
			MITCContent: "5% back on Amazon for Prime members, 3% for others. 2% on Amazon Pay partner merchants. 1% elsewhere. No annual fee, no earning caps, cashback credited as Amazon Pay balance. 1% fuel surcharge waiver.",
		},
		{
			ID:          "2f9c5d83-7b4a-4c1e-9d62-8e3f1a580606",
			CardName:    "Axis Atlas",
			Issuer:      "Axis Bank",
			CardType:    "travel",
			AnnualFee:   "5000",
			MITCContent: "Earns 5 EDGE Miles per 100 on travel spends, 2 per 100 elsewhere. Tiered milestone program with up to 5000 bonus miles. Miles transfer to 20+ airline and hotel partners at 1:2. 8 domestic and 12 international lounge visits a year at Gold tier.",
		},
		{
			ID:          "7d3e9f25-0c8b-4a6d-8e14-5b2c7d690707",
			CardName:    "Swiggy HDFC",
			Issuer:      "HDFC Bank",
			CardType:    "dining",
			AnnualFee:   "500",
			MITCContent: "10% cashback on Swiggy including Instamart and Dineout. 5% on online spends across other merchants. 1% elsewhere. Annual fee waived on spends above 200000. Cashback capped at 1500 per month on Swiggy.",
		},
		{
			ID:          "b1c8e4d7-5a2f-4b9c-a3e6-0d7f4c7a0808",
			CardName:    "Flipkart Axis",
			Issuer:      "Axis Bank",
			CardType:    "cashback",
			AnnualFee:   "500",
			MITCContent: "5% cashback on Flipkart and Cleartrip. 4% on preferred partners including Swiggy and PVR. 1% on other spends. Annual fee waived on spends above 350000. 4 complimentary domestic lounge visits a year.",
		},
	}
}

// Package vector provides the card-document index behind the recommendation
// pipeline: a Qdrant-backed implementation and a static in-process fallback.
package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
	"cardsavvy/api/models"
)

const (
	// CardsCollection holds one point per indexed card, payload carrying the
	// card identity and its MITC text.
	CardsCollection = "cards"

	embeddingDim = 1536
	scrollPage   = 256
)

// CardIndex queries the Qdrant card collection.
type CardIndex struct {
	client *qdrant.Client
}

// NewCardIndex connects to Qdrant Cloud over gRPC.
func NewCardIndex(host, apiKey string) (*CardIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   6334,
		APIKey: apiKey,
		UseTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	logger.Get().Info("connected to qdrant", zap.String("host", host))
	return &CardIndex{client: client}, nil
}

// EnsureCollection creates the cards collection when it does not exist yet.
func (i *CardIndex) EnsureCollection(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, CardsCollection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CardsCollection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     embeddingDim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// UpsertCards writes card documents with their embeddings into the index.
func (i *CardIndex) UpsertCards(ctx context.Context, docs []models.CardDocument, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("doc/vector count mismatch: %d vs %d", len(docs), len(vectors))
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for n, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(vectors[n]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"card_name":    doc.CardName,
				"issuer":       doc.Issuer,
				"card_type":    doc.CardType,
				"annual_fee":   doc.AnnualFee,
				"mitc_content": doc.MITCContent,
			}),
		})
	}

	wait := true
	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: CardsCollection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert cards: %w", err)
	}
	return nil
}

// Query returns the nearest card documents to the given vector.
func (i *CardIndex) Query(ctx context.Context, vec []float32, limit int) ([]models.CardDocument, error) {
	n := uint64(limit)
	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CardsCollection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &n,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}

	docs := make([]models.CardDocument, 0, len(points))
	for _, point := range points {
		docs = append(docs, docFromPayload(point.GetId().GetUuid(), point.GetPayload()))
	}
	return docs, nil
}

// FetchAll scrolls the whole collection irrespective of similarity.
func (i *CardIndex) FetchAll(ctx context.Context) ([]models.CardDocument, error) {
	page := uint32(scrollPage)
	points, err := i.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: CardsCollection,
		Limit:          &page,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll cards: %w", err)
	}

	docs := make([]models.CardDocument, 0, len(points))
	for _, point := range points {
		docs = append(docs, docFromPayload(point.GetId().GetUuid(), point.GetPayload()))
	}
	return docs, nil
}

func docFromPayload(id string, payload map[string]*qdrant.Value) models.CardDocument {
	return models.CardDocument{
		ID:          id,
		CardName:    payload["card_name"].GetStringValue(),
		Issuer:      payload["issuer"].GetStringValue(),
		CardType:    payload["card_type"].GetStringValue(),
		AnnualFee:   payload["annual_fee"].GetStringValue(),
		MITCContent: payload["mitc_content"].GetStringValue(),
	}
}

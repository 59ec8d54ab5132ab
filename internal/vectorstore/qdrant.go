package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/SurabhiV1999/ChemBot/internal/config"
)

// payloadNamespaceField scopes points to one content inside the shared collection.
const payloadNamespaceField = "content_id"

// Qdrant stores vectors in a single qdrant collection, with the namespace
// as a keyword payload field filtered on query and delete.
type Qdrant struct {
	client     *qdrant.Client
	collection string
}

// NewQdrant connects to a qdrant instance.
func NewQdrant(cfg config.Config) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.QdrantHost,
		Port:   cfg.QdrantPort,
		APIKey: cfg.QdrantAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	slog.Info("connected to qdrant", "host", cfg.QdrantHost, "port", cfg.QdrantPort, "collection", cfg.VectorCollection)
	return &Qdrant{
		client:     client,
		collection: cfg.VectorCollection,
	}, nil
}

// EnsureReady creates the collection if it does not exist.
func (q *Qdrant) EnsureReady(ctx context.Context, dimension int) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}

	slog.Info("created qdrant collection", "collection", q.collection, "dimension", dimension)
	return nil
}

// Upsert writes points, stamping each payload with the namespace field.
func (q *Qdrant) Upsert(ctx context.Context, points []Point, namespace string) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload := make(map[string]any, len(p.Payload)+1)
		for k, v := range p.Payload {
			payload[k] = v
		}
		payload[payloadNamespaceField] = namespace

		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         qdrantPoints,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Query returns the topK closest matches within a namespace.
func (q *Qdrant) Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Match, error) {
	limit := uint64(topK)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter:         namespaceFilter(namespace),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query qdrant: %w", err)
	}

	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		matches = append(matches, Match{
			ID:       hit.GetId().GetUuid(),
			Score:    hit.GetScore(),
			Metadata: payloadToMap(hit.GetPayload()),
		})
	}
	return matches, nil
}

// DeleteNamespace removes every point for one content.
func (q *Qdrant) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: namespaceFilter(namespace),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete namespace %s: %w", namespace, err)
	}

	slog.Info("deleted vectors", "namespace", namespace, "collection", q.collection)
	return nil
}

// Close releases the client connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}

func namespaceFilter(namespace string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(payloadNamespaceField, namespace),
		},
	}
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = valueToAny(value)
	}
	return out
}

func valueToAny(value *qdrant.Value) any {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		list := make([]any, len(items))
		for i, item := range items {
			list[i] = valueToAny(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}

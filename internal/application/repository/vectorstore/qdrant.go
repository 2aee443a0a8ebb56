package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// New builds the qdrant-backed VectorStore gateway.
func New(cfg Config) (interfaces.VectorStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connect: %w: %v", types.ErrTransport, err)
	}
	base := cfg.CollectionBaseName
	if base == "" {
		base = "zantara"
	}
	return &qdrantStore{client: client, collectionBaseName: base}, nil
}

func (s *qdrantStore) collectionName(name string) string {
	return fmt.Sprintf("%s_%s", s.collectionBaseName, name)
}

// EnsureCollection creates the collection with the embedder's
// dimensionality if it does not already exist (§4.7 step 5).
func (s *qdrantStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	full := s.collectionName(name)
	if cached, ok := s.initializedDims.Load(full); ok {
		if cached.(int) != dim {
			return fmt.Errorf("vectorstore: collection %s configured for dim %d, got %d: %w",
				full, cached.(int), dim, types.ErrDimensionMismatch)
		}
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, full)
	if err != nil {
		return fmt.Errorf("vectorstore: check collection %s: %w: %v", full, types.ErrTransport, err)
	}
	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: full,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("vectorstore: create collection %s: %w: %v", full, types.ErrTransport, err)
		}
		logger.Infof(ctx, "vectorstore: created collection %s dim=%d", full, dim)
	}
	s.initializedDims.Store(full, dim)
	return nil
}

// Upsert writes points in batches of at most 100 (§4.7 step 8).
func (s *qdrantStore) Upsert(ctx context.Context, collection string, points []interfaces.VectorPoint) error {
	full := s.collectionName(collection)
	const batchSize = 100
	for i := 0; i < len(points); i += batchSize {
		end := i + batchSize
		if end > len(points) {
			end = len(points)
		}
		batch, err := toQdrantPoints(points[i:end])
		if err != nil {
			return err
		}
		_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: full,
			Points:         batch,
		})
		if err != nil {
			return fmt.Errorf("vectorstore: upsert into %s: %w: %v", full, types.ErrTransport, err)
		}
	}
	return nil
}

func toQdrantPoints(points []interfaces.VectorPoint) ([]*qdrant.PointStruct, error) {
	out := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		if _, err := uuid.Parse(p.ID); err != nil {
			return nil, fmt.Errorf("vectorstore: point id %q is not a uuid: %w", p.ID, types.ErrInputInvalid)
		}
		payload := qdrant.NewValueMap(p.Payload)
		if size := approxPayloadSize(p.Payload); size > maxPayloadBytes {
			return nil, fmt.Errorf("vectorstore: payload for point %s is %d bytes > %d: %w",
				p.ID, size, maxPayloadBytes, types.ErrInputInvalid)
		}
		out = append(out, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}
	return out, nil
}

func approxPayloadSize(payload map[string]interface{}) int {
	size := 0
	for k, v := range payload {
		size += len(k)
		if s, ok := v.(string); ok {
			size += len(s)
		} else {
			size += 32
		}
	}
	return size
}

// Search runs a similarity search with the closed filter algebra from
// §4.2, returning an empty slice (not an error) for an empty collection.
func (s *qdrantStore) Search(ctx context.Context, collection string, vector []float32, filter *interfaces.VectorFilter, limit int) ([]interfaces.VectorSearchResult, error) {
	full := s.collectionName(collection)
	exists, err := s.client.CollectionExists(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: check collection %s: %w: %v", full, types.ErrTransport, err)
	}
	if !exists {
		return nil, fmt.Errorf("vectorstore: collection %s: %w", full, types.ErrCollectionMissing)
	}

	req := &qdrant.QueryPoints{
		CollectionName: full,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if q := buildFilter(filter); q != nil {
		req.Filter = q
	}

	points, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search %s: %w: %v", full, types.ErrTransport, err)
	}

	out := make([]interfaces.VectorSearchResult, 0, len(points))
	for _, p := range points {
		out = append(out, interfaces.VectorSearchResult{
			ID:      pointIDString(p.Id),
			Score:   float64(p.Score),
			Payload: payloadToMap(p.Payload),
		})
	}
	return out, nil
}

func buildFilter(f *interfaces.VectorFilter) *qdrant.Filter {
	if f == nil {
		return nil
	}
	var must []*qdrant.Condition
	for field, value := range f.Equals {
		must = append(must, qdrant.NewMatch(field, fmt.Sprintf("%v", value)))
	}
	for field, values := range f.In {
		strs := make([]string, len(values))
		for i, v := range values {
			strs[i] = fmt.Sprintf("%v", v)
		}
		must = append(must, qdrant.NewMatchKeywords(field, strs...))
	}
	for field, min := range f.RangeGTE {
		r := &qdrant.Range{Gte: &min}
		must = append(must, qdrant.NewRange(field, r))
	}
	for field, max := range f.RangeLTE {
		r := &qdrant.Range{Lte: &max}
		must = append(must, qdrant.NewRange(field, r))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// Delete removes points by id.
func (s *qdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	full := s.collectionName(collection)
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: full,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete from %s: %w: %v", full, types.ErrTransport, err)
	}
	return nil
}

// Stats returns basic collection statistics.
func (s *qdrantStore) Stats(ctx context.Context, collection string) (map[string]interface{}, error) {
	full := s.collectionName(collection)
	info, err := s.client.GetCollectionInfo(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: stats for %s: %w: %v", full, types.ErrTransport, err)
	}
	return map[string]interface{}{
		"points_count":  info.GetPointsCount(),
		"vectors_count": info.GetVectorsCount(),
		"status":        info.GetStatus().String(),
	}, nil
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuidVal := id.GetUuid(); uuidVal != "" {
		return uuidVal
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = qdrant.ValueToInterface(v)
	}
	return out
}

package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once

type ClientHolder struct {
	QObj *qdrant.Client
}

// GetQuadrantClient connects once per process. It returns nil when Qdrant
// cannot be reached so the caller can fall back to the in-memory index.
func GetQuadrantClient(ctx context.Context, host string, port int) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient(ctx, host, port)
		if res != nil {
			quadrantInstance = res
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: quadrantInstance,
	}
}

func newClient(ctx context.Context, host string, port int) *qdrant.Client {
	if host == "" {
		logger.Warn("no qdrant host configured")
		return nil
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if _, err = client.HealthCheck(checkCtx); err != nil {
		logger.Error("qdrant health check failed", "host", host, "port", port, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

// Collection is a VectorIndex backed by one Qdrant collection. Entry ids are
// assigned locally and stored as numeric point ids.
type Collection struct {
	client *qdrant.Client
	name   string
	dim    int

	mu     sync.Mutex
	nextID vectorDB.EntryID
	live   int
}

// OpenCollection creates (or recreates) the collection for one session.
func (db *ClientHolder) OpenCollection(ctx context.Context, sessionId string, dimension int) (*Collection, error) {
	c := &Collection{
		client: db.QObj,
		name:   config.QdrantCollectionPrefix + sessionId,
		dim:    dimension,
		nextID: 1,
	}
	if err := c.Reset(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Drop removes the collection. Used on session teardown.
func (c *Collection) Drop(ctx context.Context) error {
	return c.client.DeleteCollection(ctx, c.name)
}

func (c *Collection) Dimension() int { return c.dim }

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

func (c *Collection) Insert(ctx context.Context, vector []float32) (vectorDB.EntryID, error) {
	if len(vector) != c.dim {
		return 0, &commonModels.DimensionError{Expected: c.dim, Got: len(vector)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.name,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDNum(uint64(id)),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(map[string]any{"entry": int64(id)}),
		}},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant upsert failed: %w", err)
	}
	c.nextID++
	c.live++
	return id, nil
}

func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]vectorDB.Hit, error) {
	if len(vector) != c.dim {
		return nil, &commonModels.DimensionError{Expected: c.dim, Got: len(vector)}
	}
	if k <= 0 || c.Len() == 0 {
		return nil, nil
	}
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "collection", c.name)

	result, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	hits := make([]vectorDB.Hit, 0, len(result))
	for _, point := range result {
		hits = append(hits, vectorDB.Hit{
			ID:       vectorDB.EntryID(point.GetId().GetNum()),
			Distance: point.GetScore(), // Euclid score is the distance
		})
	}
	// qdrant does not promise an order among equal scores
	vectorDB.SortHits(hits)
	loggr.Debug("qdrant query", "k", k, "hits", len(hits))
	return hits, nil
}

func (c *Collection) Remove(ctx context.Context, ids []vectorDB.EntryID) error {
	if len(ids) == 0 {
		return nil
	}
	pointIds := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIds[i] = qdrant.NewIDNum(uint64(id))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.name,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIds...),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	c.live -= len(ids)
	return nil
}

// Reset drops and recreates the collection.
func (c *Collection) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := c.client.CollectionExists(ctx, c.name)
	if err != nil {
		return err
	}
	if exists {
		if err = c.client.DeleteCollection(ctx, c.name); err != nil {
			return fmt.Errorf("drop collection %s: %w", c.name, err)
		}
	}
	if err = createCollection(ctx, c.client, c.name, c.dim); err != nil {
		return err
	}
	c.live = 0
	return nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension int) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Euclid,
		}),
	})
}

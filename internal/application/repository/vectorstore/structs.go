// Package vectorstore implements C2: collection-scoped CRUD + similarity
// search against Qdrant, with payload filtering and typed failures
// (§4.2). Structure grounded on the teacher's qdrantRepository shape.
package vectorstore

import (
	"sync"

	"github.com/qdrant/go-client/qdrant"
)

const maxPayloadBytes = 64 * 1024 // §4.2: payload size <= 64 KiB per point

// qdrantStore is the concrete C2 implementation.
type qdrantStore struct {
	client             *qdrant.Client
	collectionBaseName string
	// initializedDims caches collection name -> configured dimensionality,
	// so EnsureCollection avoids a round-trip once a collection is known.
	initializedDims sync.Map
}

// Config configures the Qdrant-backed vector store gateway.
type Config struct {
	Host               string
	Port               int
	APIKey             string
	UseTLS             bool
	CollectionBaseName string
}

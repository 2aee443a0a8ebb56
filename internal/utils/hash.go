package utils

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// ChunkNamespace is the fixed UUIDv5 namespace used for chunk point ids
// (§3: "UUIDv5 over a fixed namespace and chunk id, so re-ingest overwrites
// deterministically"). Pinned so the same chunk id always yields the same
// point id across process restarts.
var ChunkNamespace = uuid.MustParse("8f9f5a6e-8e2a-4d3a-9a0a-8c0e9c3f9a01")

// ChunkPointID derives the deterministic vector-store point id for a chunk.
func ChunkPointID(chunkID string) string {
	return uuid.NewSHA1(ChunkNamespace, []byte(chunkID)).String()
}

// NormalizedMD5 hashes the lowercased+trimmed query, deliberately leaving
// punctuation untouched (§9 open question: this is intentional upstream
// behavior, kept as-is rather than "fixed").
func NormalizedMD5(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ContentFingerprint computes the stable content hash used to detect
// unchanged documents on re-ingestion (§3 Document.TextFingerprint).
func ContentFingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DocumentID derives the stable parent-document id from a source file
// name: the first 64 characters of the filename stem (§3).
func DocumentID(filename string) string {
	stem := filename
	if idx := strings.LastIndex(stem, "/"); idx >= 0 {
		stem = stem[idx+1:]
	}
	if idx := strings.LastIndex(stem, "."); idx > 0 {
		stem = stem[:idx]
	}
	if len(stem) > 64 {
		stem = stem[:64]
	}
	return stem
}

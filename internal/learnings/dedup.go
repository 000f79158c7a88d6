package learnings

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultDedupSize is the number of distinct hashes remembered per session.
const DefaultDedupSize = 100

// hashInputLimit bounds the normalized text that is hashed.
const hashInputLimit = 500

// DeduplicationResult reports whether a hash was seen before.
type DeduplicationResult struct {
	IsDuplicate bool   `json:"is_duplicate"`
	HitCount    int    `json:"hit_count"`
	Hash        string `json:"hash"`
}

// DedupEntry is one remembered hash, as persisted.
type DedupEntry struct {
	Hash string `json:"hash"`
	Hits int    `json:"hits"`
}

// Deduplicator is a bounded LRU set of learning hashes. Both inserting a new
// hash and hitting an existing one make it most recently used. It is not
// safe for concurrent use.
type Deduplicator struct {
	maxSize int
	seen    *orderedmap.OrderedMap[string, int]
}

// NewDeduplicator creates an empty Deduplicator. A maxSize below 1 uses
// DefaultDedupSize.
func NewDeduplicator(maxSize int) *Deduplicator {
	if maxSize < 1 {
		maxSize = DefaultDedupSize
	}
	return &Deduplicator{maxSize: maxSize, seen: orderedmap.New[string, int]()}
}

// MaxSize returns the capacity.
func (d *Deduplicator) MaxSize() int { return d.maxSize }

// Len returns the number of remembered hashes.
func (d *Deduplicator) Len() int { return d.seen.Len() }

// Check records hash and reports whether it was already present.
func (d *Deduplicator) Check(hash string) DeduplicationResult {
	if hits, ok := d.seen.Get(hash); ok {
		hits++
		d.seen.Set(hash, hits)
		_ = d.seen.MoveToBack(hash)
		return DeduplicationResult{IsDuplicate: true, HitCount: hits, Hash: hash}
	}

	d.seen.Set(hash, 1)
	d.evict()
	return DeduplicationResult{HitCount: 1, Hash: hash}
}

// CheckLearning hashes the tool, exit code and output, then calls Check.
func (d *Deduplicator) CheckLearning(tool string, exitCode *int, output string) DeduplicationResult {
	return d.Check(LearningHash(tool, exitCode, output))
}

// Contains reports whether hash is remembered without touching its recency.
func (d *Deduplicator) Contains(hash string) bool {
	_, ok := d.seen.Get(hash)
	return ok
}

// Reset forgets everything. Call it when a new session starts.
func (d *Deduplicator) Reset() {
	d.seen = orderedmap.New[string, int]()
}

// Snapshot returns the remembered hashes from least to most recently used.
func (d *Deduplicator) Snapshot() []DedupEntry {
	entries := make([]DedupEntry, 0, d.seen.Len())
	for pair := d.seen.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, DedupEntry{Hash: pair.Key, Hits: pair.Value})
	}
	return entries
}

// Restore replaces the state with entries, given oldest first. Entries beyond
// capacity are evicted from the oldest end.
func (d *Deduplicator) Restore(entries []DedupEntry) {
	d.Reset()
	for _, e := range entries {
		if e.Hash == "" {
			continue
		}
		hits := max(e.Hits, 1)
		d.seen.Set(e.Hash, hits)
		_ = d.seen.MoveToBack(e.Hash)
	}
	d.evict()
}

func (d *Deduplicator) evict() {
	for d.seen.Len() > d.maxSize {
		oldest := d.seen.Oldest()
		if oldest == nil {
			return
		}
		d.seen.Delete(oldest.Key)
	}
}

// LearningHash is the first 16 hex chars of the SHA-256 of
// lower(trim(tool|exit|output)) cut to 500 characters. A nil exit code hashes
// as an empty field.
func LearningHash(tool string, exitCode *int, output string) string {
	exit := ""
	if exitCode != nil {
		exit = strconv.Itoa(*exitCode)
	}
	normalized := strings.ToLower(strings.TrimSpace(tool + "|" + exit + "|" + output))
	if runes := []rune(normalized); len(runes) > hashInputLimit {
		normalized = string(runes[:hashInputLimit])
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

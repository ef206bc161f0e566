package botdetect

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Prefix bucketing: texts sharing a first rune and a 5-rune length band.
const prefixBucketWidth = 5

// MinHash LSH parameters: bands*rows hash functions.
const (
	minHashBands = 16
	minHashRows  = 4
	minHashSize  = minHashBands * minHashRows
)

type prefixKey struct {
	first  rune
	lenBin int
}

// groupByPrefix partitions indices of texts by prefix bucket, in order of
// first appearance.
func groupByPrefix(texts []string) [][]int {
	order := make(map[prefixKey]int)
	var groups [][]int
	for i, text := range texts {
		var key prefixKey
		if text != "" {
			runes := []rune(text)
			key = prefixKey{first: runes[0], lenBin: len(runes) / prefixBucketWidth}
		}
		g, ok := order[key]
		if !ok {
			g = len(groups)
			order[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// minHasher computes MinHash signatures over character shingles.
type minHasher struct {
	shingle int
	mul     [minHashSize]uint64
	add     [minHashSize]uint64
}

func newMinHasher(shingle int) *minHasher {
	h := &minHasher{shingle: shingle}
	state := uint64(0x2545f4914f6cdd1d)
	for i := range minHashSize {
		h.mul[i] = splitmix64(&state) | 1
		h.add[i] = splitmix64(&state)
	}
	return h
}

func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// signature returns the MinHash signature of text, or false when text is
// shorter than one shingle.
func (h *minHasher) signature(text string) ([minHashSize]uint64, bool) {
	var sig [minHashSize]uint64
	runes := []rune(text)
	if len(runes) < h.shingle {
		return sig, false
	}
	for i := range sig {
		sig[i] = math.MaxUint64
	}
	for i := 0; i+h.shingle <= len(runes); i++ {
		base := xxhash.Sum64String(string(runes[i : i+h.shingle]))
		for k := range sig {
			if v := base*h.mul[k] + h.add[k]; v < sig[k] {
				sig[k] = v
			}
		}
	}
	return sig, true
}

// groupByMinHash partitions indices of texts into connected components of
// LSH band collisions. Texts too short to shingle stay alone.
func groupByMinHash(texts []string, shingle int) [][]int {
	h := newMinHasher(shingle)
	uf := newUnionFind(len(texts))
	buckets := make(map[uint64]int)

	var buf [8 * (minHashRows + 1)]byte
	for i, text := range texts {
		sig, ok := h.signature(text)
		if !ok {
			continue
		}
		for b := range minHashBands {
			binary.LittleEndian.PutUint64(buf[:8], uint64(b))
			for r := range minHashRows {
				binary.LittleEndian.PutUint64(buf[8*(r+1):], sig[b*minHashRows+r])
			}
			key := xxhash.Sum64(buf[:])
			if first, seen := buckets[key]; seen {
				uf.union(first, i)
			} else {
				buckets[key] = i
			}
		}
	}
	return uf.components()
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// components lists each set's members in index order, sets ordered by
// their smallest member.
func (uf *unionFind) components() [][]int {
	order := make(map[int]int)
	var groups [][]int
	for i := range uf.parent {
		root := uf.find(i)
		g, ok := order[root]
		if !ok {
			g = len(groups)
			order[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

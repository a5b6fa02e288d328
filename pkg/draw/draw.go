// Package draw produces card-draw style selections: count distinct values
// from [1, rangeMax], either reproducible from seed material or backed by
// a cryptographically strong random source.
package draw

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	mathrand "math/rand"
)

// Draw returns count pairwise-distinct integers in [1, rangeMax], in draw
// order.
//
// With seedMaterial, the sample is derived from a SHA-256 digest of the
// material: identical material yields bit-identical output. The digest
// algorithm is part of the stability contract — changing it would reshuffle
// every "stable for the day" draw in the field.
//
// With nil seedMaterial the sample comes from crypto/rand and is not
// reproducible.
//
// count > rangeMax is a programming error and panics.
func Draw(rangeMax, count int, seedMaterial []byte) []int {
	if count < 0 || rangeMax < 1 || count > rangeMax {
		panic(fmt.Sprintf("draw: invalid sample of %d from [1, %d]", count, rangeMax))
	}
	if seedMaterial != nil {
		return seededSample(rangeMax, count, seedMaterial)
	}
	return randomSample(rangeMax, count)
}

// seededSample performs a partial Fisher-Yates shuffle driven by a PRNG
// seeded from the digest of the seed material.
func seededSample(rangeMax, count int, seedMaterial []byte) []int {
	digest := sha256.Sum256(seedMaterial)
	seed := int64(binary.BigEndian.Uint64(digest[:8]))
	rng := mathrand.New(mathrand.NewSource(seed))

	values := make([]int, rangeMax)
	for i := range values {
		values[i] = i + 1
	}
	result := make([]int, count)
	for i := 0; i < count; i++ {
		j := i + rng.Intn(rangeMax-i)
		values[i], values[j] = values[j], values[i]
		result[i] = values[i]
	}
	return result
}

// randomSample samples without replacement from crypto/rand.
func randomSample(rangeMax, count int) []int {
	values := make([]int, rangeMax)
	for i := range values {
		values[i] = i + 1
	}
	result := make([]int, count)
	for i := 0; i < count; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(rangeMax-i)))
		if err != nil {
			// crypto/rand failure means the platform's entropy source is
			// broken; there is no sensible recovery.
			panic(fmt.Sprintf("draw: crypto/rand failed: %v", err))
		}
		j := i + int(n.Int64())
		values[i], values[j] = values[j], values[i]
		result[i] = values[i]
	}
	return result
}

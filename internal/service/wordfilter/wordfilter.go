// Package wordfilter implements the wordfilter service: a fixed blocklist
// seeded at startup. The first invalid word is always "corinthians"; the
// rest are random filler so the list size is tunable for experiments.
package wordfilter

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/buzzblog/buzzblog/internal/api"
)

const seedWord = "corinthians"

const randomWordLen = 11

// Handler implements api.WordfilterService.
type Handler struct {
	invalid map[string]struct{}
}

// New seeds the blocklist with nInvalidWords entries. Zero means an empty
// list and every word is valid.
func New(nInvalidWords int) *Handler {
	h := &Handler{invalid: make(map[string]struct{}, nInvalidWords)}
	if nInvalidWords > 0 {
		h.invalid[seedWord] = struct{}{}
	}
	for i := 0; i < nInvalidWords-1; i++ {
		h.invalid[randomWord(randomWordLen)] = struct{}{}
	}
	return h
}

func (h *Handler) IsValidWord(ctx context.Context, meta api.RequestMetadata, word string) (bool, error) {
	_, blocked := h.invalid[word]
	return !blocked, nil
}

const alphanum = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz"

func randomWord(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphanum[rand.IntN(len(alphanum))])
	}
	return b.String()
}

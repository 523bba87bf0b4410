package repo

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed/bank.json
var seedBank []byte

// DefaultBank returns the built-in demo bank.
func DefaultBank() (Bank, error) {
	var b Bank
	dec := json.NewDecoder(bytes.NewReader(seedBank))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return Bank{}, fmt.Errorf("decode seed bank: %w", err)
	}
	return b, nil
}

// SeedIfEmpty loads DefaultBank into r when it holds no subjects. It
// reports whether seeding happened.
func SeedIfEmpty(ctx context.Context, r Repository) (bool, error) {
	empty, err := r.IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	if !empty {
		return false, nil
	}
	b, err := DefaultBank()
	if err != nil {
		return false, err
	}
	if err := r.Seed(ctx, b); err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	return true, nil
}

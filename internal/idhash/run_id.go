// Package idhash derives deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"

	"membership-entry-lab/internal/config"
)

// runIDBytes is the hash prefix length rendered into a RunID.
const runIDBytes = 16

// ComputeConfigHash computes a deterministic hash of the full parameter set.
// Formula: SHA256(canonical YAML of config)
// Returns hex-encoded hash (64 characters).
func ComputeConfigHash(cfg config.Config) (string, error) {
	sum, err := configDigest(cfg)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum[:]), nil
}

// ComputeRunID computes the run identifier: the first 16 bytes of the config
// hash, base58-encoded. Identical parameters (seed, trial count, scenario
// and strategy definitions included) always give the same RunID.
func ComputeRunID(cfg config.Config) (string, error) {
	sum, err := configDigest(cfg)
	if err != nil {
		return "", err
	}
	return base58.Encode(sum[:runIDBytes]), nil
}

// DecodeRunID returns the hash prefix behind a RunID.
func DecodeRunID(runID string) ([]byte, error) {
	b, err := base58.Decode(runID)
	if err != nil {
		return nil, fmt.Errorf("decode run id %q: %w", runID, err)
	}
	if len(b) != runIDBytes {
		return nil, fmt.Errorf("decode run id %q: want %d bytes, got %d", runID, runIDBytes, len(b))
	}
	return b, nil
}

func configDigest(cfg config.Config) ([sha256.Size]byte, error) {
	data, err := config.Marshal(cfg)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("canonical config: %w", err)
	}
	return sha256.Sum256(data), nil
}

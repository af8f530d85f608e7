// Package snapshot serializes a completed run to a single msgpack file.
// A snapshot carries the exact parameter set so a run can be replayed
// without a database.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// FormatVersion is bumped whenever the snapshot layout changes.
const FormatVersion = 1

// FileName is the conventional snapshot file name inside an output dir.
const FileName = "run.msgpack"

// ErrVersionMismatch is returned when decoding a snapshot written by a
// different format version.
var ErrVersionMismatch = errors.New("snapshot format version mismatch")

// Snapshot is the persisted form of one run.
type Snapshot struct {
	Version int    `msgpack:"version"`
	Config  []byte `msgpack:"config"` // canonical YAML

	Run        *domain.RunRecord         `msgpack:"run"`
	Summaries  []*domain.ScenarioSummary `msgpack:"summaries"`
	Decisions  []*domain.DecisionRow     `msgpack:"decisions"`
	Valuations []*domain.ValuationRow    `msgpack:"valuations"`
}

// New builds a snapshot with the config embedded in canonical form.
func New(cfg config.Config, run *domain.RunRecord, summaries []*domain.ScenarioSummary,
	decisions []*domain.DecisionRow, valuations []*domain.ValuationRow) (*Snapshot, error) {
	data, err := config.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return &Snapshot{
		Version:    FormatVersion,
		Config:     data,
		Run:        run,
		Summaries:  summaries,
		Decisions:  decisions,
		Valuations: valuations,
	}, nil
}

// ParsedConfig decodes the embedded parameter set over defaults.
func (s *Snapshot) ParsedConfig() (config.Config, error) {
	cfg := config.Default()
	if err := config.Parse(s.Config, &cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse snapshot config: %w", err)
	}
	return cfg, nil
}

// Encode writes s to w.
func Encode(w io.Writer, s *Snapshot) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot from r.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, s.Version, FormatVersion)
	}
	return &s, nil
}

// Marshal returns the encoded bytes of s.
func Marshal(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes s to path.
func WriteFile(path string, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Package snapshot writes and restores zstd-compressed backups of all four
// domains.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/Tiliavir/daybook/internal/model"
	"github.com/Tiliavir/daybook/internal/records"
	"github.com/Tiliavir/daybook/internal/timecalc"
)

const Version = 1

// Snapshot is the full local state at one point in time.
type Snapshot struct {
	Version   int                  `json:"version"`
	CreatedAt int64                `json:"created_at"`
	TimeCards []model.TimeCardDay  `json:"time_cards"`
	Memos     []model.Memo         `json:"memos"`
	Schedules []model.Schedule     `json:"schedules"`
	Deposits  []model.DepositMonth `json:"deposit_months"`
}

// Counts returns the number of records per domain.
func (s *Snapshot) Counts() map[model.Domain]int {
	return map[model.Domain]int{
		model.DomainTimeCard: len(s.TimeCards),
		model.DomainMemo:     len(s.Memos),
		model.DomainSchedule: len(s.Schedules),
		model.DomainDeposit:  len(s.Deposits),
	}
}

// Capture reads every collection of set.
func Capture(ctx context.Context, set *records.Set, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{Version: Version, CreatedAt: timecalc.Millis(now)}
	var err error
	if snap.TimeCards, err = set.TimeCards.All(ctx); err != nil {
		return nil, err
	}
	if snap.Memos, err = set.Memos.All(ctx); err != nil {
		return nil, err
	}
	if snap.Schedules, err = set.Schedules.All(ctx); err != nil {
		return nil, err
	}
	if snap.Deposits, err = set.Deposits.All(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// Apply replaces every collection of set with the snapshot's.
func Apply(ctx context.Context, set *records.Set, snap *Snapshot) error {
	if err := set.TimeCards.Replace(ctx, snap.TimeCards); err != nil {
		return err
	}
	if err := set.Memos.Replace(ctx, snap.Memos); err != nil {
		return err
	}
	if err := set.Schedules.Replace(ctx, snap.Schedules); err != nil {
		return err
	}
	return set.Deposits.Replace(ctx, snap.Deposits)
}

// Write encodes snap as zstd-compressed JSON.
func Write(w io.Writer, snap *Snapshot) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	return nil
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (*Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return &snap, nil
}

// WriteFile writes snap to path atomically (temp file + rename).
func WriteFile(path string, snap *Snapshot) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating backup directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}
	if err := Write(f, snap); err != nil {
		f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing backup file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving backup file: %w", err)
	}
	return nil
}

func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening backup: %w", err)
	}
	defer f.Close()
	return Read(f)
}

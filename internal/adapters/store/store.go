// Package store persists the working dataset as a delimited cache file
// with timestamped snapshots taken before every overwrite.
package store

import (
	"context"

	"github.com/haebin/sujil/internal/domain/model"
)

// Store provides read/write access to the cached dataset.
type Store interface {
	// Load reads and re-validates the canonical cache file.
	// Returns ErrNotFound when the file is absent and ErrCorruptCache when
	// it exists but fails validation.
	Load(ctx context.Context) (*model.Dataset, error)

	// Save atomically replaces the canonical cache file with the dataset,
	// snapshotting the previous file first.
	Save(ctx context.Context, ds *model.Dataset) error
}

// Package registry loads the authoritative shareholder registry used for
// automated matching.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"irdesk/internal/registry/models"
)

// Upserter stores registry holders.
type Upserter interface {
	BulkUpsert(ctx context.Context, holders []models.Holder) (int, error)
}

// LoadSeedFile reads a JSON array of {"id","name"} records from path and
// upserts them. Records missing either field are skipped.
func LoadSeedFile(ctx context.Context, path string, dst Upserter) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read registry seed: %w", err)
	}
	var holders []models.Holder
	if err := json.Unmarshal(raw, &holders); err != nil {
		return 0, fmt.Errorf("decode registry seed %s: %w", path, err)
	}

	valid := holders[:0]
	for _, h := range holders {
		h.ID = strings.TrimSpace(h.ID)
		h.Name = strings.TrimSpace(h.Name)
		if h.ID == "" || h.Name == "" {
			continue
		}
		valid = append(valid, h)
	}
	if len(valid) == 0 {
		return 0, nil
	}
	n, err := dst.BulkUpsert(ctx, valid)
	if err != nil {
		return 0, fmt.Errorf("load registry seed: %w", err)
	}
	return n, nil
}

package topology

import (
	"context"
	"fmt"
)

// Sync imports the topology file at path into repo, when path is set, and
// returns the stored topology.
func Sync(ctx context.Context, repo Repository, path string) (*Document, error) {
	if path != "" {
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := repo.Replace(ctx, doc); err != nil {
			return nil, fmt.Errorf("storing topology: %w", err)
		}
	}

	doc, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading topology: %w", err)
	}
	return doc, nil
}

package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"mtf_bot/pkg/db"
	"mtf_bot/pkg/logger"
)

//go:embed *.sql
var files embed.FS

// Apply runs every schema file in name order. The files are idempotent.
func Apply(ctx context.Context, conn db.Transaction) error {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return fmt.Errorf("migrations.Apply: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("migrations.Apply: read %s: %w", name, err)
		}
		if _, err = conn.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("migrations.Apply: exec %s: %w", name, err)
		}
		logger.Debug("[PG] applied %s", name)
	}
	return nil
}

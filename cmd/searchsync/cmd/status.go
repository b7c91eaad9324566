package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openmediahub/searchsync/internal/config"
	"github.com/openmediahub/searchsync/internal/index"
	"github.com/openmediahub/searchsync/internal/model"
	"github.com/openmediahub/searchsync/internal/queue"
	"github.com/openmediahub/searchsync/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue depth and index health",
		Long: `Display sync health information:
  - Database location and size
  - Search backend and index size
  - Per-kind queue depth, entity and document counts

A kind reads "pending" while markers await the next drain, "drift"
when the queue is empty but the counts still disagree, and "in sync"
otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !fileExists(cfg.Database.Path) {
		return fmt.Errorf("no database found at %s\nRun 'searchsync run' to create one", cfg.Database.Path)
	}

	info, err := collectStatus(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to collect status: %w", err)
	}

	noColor := ui.DetectNoColor()
	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor)

	if jsonOutput {
		return renderer.RenderJSON(info)
	}

	return renderer.Render(info)
}

func collectStatus(ctx context.Context, cfg *config.Config) (ui.StatusInfo, error) {
	info := ui.StatusInfo{
		DatabasePath: cfg.Database.Path,
		DatabaseSize: getFileSize(cfg.Database.Path),
		Backend:      cfg.Index.Backend,
		Interval:     cfg.Update.Interval,
	}
	if cfg.Index.Backend == index.BackendBleve {
		info.IndexSize = getDirSize(cfg.Index.Bleve.Dir)
	}

	sdb, err := openDatabase(ctx, cfg)
	if err != nil {
		return info, err
	}
	defer func() { _ = sdb.Close() }()

	client, err := openIndex(cfg)
	if err != nil {
		return info, err
	}
	defer func() { _ = client.Close() }()

	depth, err := queue.Depth(ctx, sdb)
	if err != nil {
		return info, err
	}

	for _, kind := range model.Kinds() {
		entities, err := model.CountByKind(ctx, sdb, kind)
		if err != nil {
			return info, err
		}

		target, err := client.ForKind(kind)
		if err != nil {
			return info, err
		}
		docs, err := target.DocCount(ctx)
		if err != nil {
			return info, fmt.Errorf("failed to count %s documents: %w", kind, err)
		}

		info.Kinds = append(info.Kinds, ui.KindStatus{
			Kind:      string(kind),
			Pending:   depth[kind],
			Entities:  entities,
			Documents: docs,
		})
	}

	return info, nil
}

// getFileSize returns the size of a file in bytes.
func getFileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// getDirSize returns the total size of all files in a directory.
func getDirSize(path string) int64 {
	var size int64

	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return size
}

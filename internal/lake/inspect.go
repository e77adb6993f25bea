package lake

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

// FolderSummary aggregates the objects under one top-level folder.
type FolderSummary struct {
	Folder    string
	FileCount int
	TotalSize int64
	// Newest files first, capped by the inspector's sample size.
	Recent []ObjectInfo
}

// InspectReport summarizes the contents of the lake bucket.
type InspectReport struct {
	TotalFiles int
	TotalSize  int64
	Folders    []FolderSummary
	// Watermark metadata objects found alongside the data.
	Metadata []ObjectInfo
}

// recentSampleSize caps how many recent files are kept per folder.
const recentSampleSize = 5

// Inspect lists everything under the prefix and groups it by top-level
// folder, in first-seen key order.
func Inspect(ctx context.Context, store ObjectStore, prefix string) (*InspectReport, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list lake objects: %w", err)
	}

	report := &InspectReport{}
	folders := orderedmap.NewOrderedMap[string, *FolderSummary]()

	for _, obj := range objects {
		report.TotalFiles++
		report.TotalSize += obj.Size

		rel := strings.TrimPrefix(strings.TrimPrefix(obj.Key, prefix), "/")
		folder := rel
		if i := strings.Index(rel, "/"); i >= 0 {
			folder = rel[:i]
		}

		if folder == "etl-metadata" || strings.Contains(obj.Key, "etl-metadata/") {
			report.Metadata = append(report.Metadata, obj)
		}

		summary, ok := folders.Get(folder)
		if !ok {
			summary = &FolderSummary{Folder: folder}
			folders.Set(folder, summary)
		}
		summary.FileCount++
		summary.TotalSize += obj.Size
		summary.Recent = append(summary.Recent, obj)
	}

	for el := folders.Front(); el != nil; el = el.Next() {
		summary := el.Value
		sort.Slice(summary.Recent, func(i, j int) bool {
			return summary.Recent[i].LastModified.After(summary.Recent[j].LastModified)
		})
		if len(summary.Recent) > recentSampleSize {
			summary.Recent = summary.Recent[:recentSampleSize]
		}
		report.Folders = append(report.Folders, *summary)
	}

	return report, nil
}

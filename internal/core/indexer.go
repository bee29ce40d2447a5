// ABOUTME: Indexer walks a documents folder and fills the vector index with embedded chunks
// ABOUTME: Embedding fans out through a bounded worker pool, one file at a time
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docquery/internal/llm"
	"docquery/internal/models"
	"docquery/internal/storage"
)

// ErrFolderNotFound reports an indexing target that does not exist or is
// not a directory.
var ErrFolderNotFound = errors.New("documents folder not found")

// DefaultWorkers bounds concurrent embedding requests within a file.
const DefaultWorkers = 4

// allowedExtensions is the eligible-file allow-list, matched
// case-insensitively against the extension.
var allowedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
}

// ProgressEvent announces the file about to be processed.
type ProgressEvent struct {
	File  string
	Index int
	Total int
}

// ProgressFunc receives progress events. Fire-and-forget and nil-safe; it
// runs on the indexing goroutine, so it should return quickly.
type ProgressFunc func(ProgressEvent)

// IndexerOptions configure one indexing run.
type IndexerOptions struct {
	Model     string
	ChunkSize int
	Overlap   int
	Workers   int
}

// Indexer rebuilds a vector index from the eligible files under a folder.
type Indexer struct {
	embedder llm.Embedder
	index    *storage.VectorIndex
	opts     IndexerOptions
}

// NewIndexer wires an embedder and a target index. Chunking parameters are
// validated when Run starts, before the index is touched.
func NewIndexer(embedder llm.Embedder, index *storage.VectorIndex, opts IndexerOptions) *Indexer {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	return &Indexer{embedder: embedder, index: index, opts: opts}
}

// Run rebuilds the index from folder and returns the final chunk count.
// The folder existence check precedes the clear, so a missing folder leaves
// prior contents untouched. Any single chunk failure aborts the whole run,
// leaving the index cleared-plus-partially-rebuilt; callers should re-run
// rather than query it.
func (ix *Indexer) Run(ctx context.Context, folder string, progress ProgressFunc) (int, error) {
	chunker, err := NewChunker(ix.opts.ChunkSize, ix.opts.Overlap)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
		}
		return 0, fmt.Errorf("stat %s: %w", folder, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%w: %s is not a directory", ErrFolderNotFound, folder)
	}

	files, err := collectFiles(folder)
	if err != nil {
		return 0, err
	}

	ix.index.Clear()

	for i, file := range files {
		if progress != nil {
			progress(ProgressEvent{File: file.rel, Index: i + 1, Total: len(files)})
		}
		if err := ix.indexFile(ctx, chunker, file); err != nil {
			return ix.index.Len(), err
		}
	}

	log.Info("indexing complete", "files", len(files), "chunks", ix.index.Len())
	return ix.index.Len(), nil
}

type docFile struct {
	path string
	rel  string
}

// collectFiles walks folder in lexical order gathering allow-listed files,
// keyed by their path relative to the folder for source attribution.
func collectFiles(folder string) ([]docFile, error) {
	var files []docFile
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !allowedExtensions[ext] {
			return nil
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		files = append(files, docFile{path: path, rel: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", folder, err)
	}
	return files, nil
}

// indexFile chunks one document and embeds its chunks through the worker
// pool. Append order across workers is unspecified; ranking does not depend
// on it.
func (ix *Indexer) indexFile(ctx context.Context, chunker *Chunker, file docFile) error {
	data, err := os.ReadFile(file.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file.rel, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)

	for _, text := range chunker.Split(string(data)) {
		if strings.TrimSpace(text) == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vector, err := ix.embedder.Embed(gctx, ix.opts.Model, text)
			if err != nil {
				return fmt.Errorf("embedding chunk of %s: %w", file.rel, err)
			}
			ix.index.Append(models.Chunk{
				ID:        "chunk_" + uuid.New().String(),
				Text:      text,
				Source:    file.rel,
				Embedding: vector,
			})
			return nil
		})
	}

	return g.Wait()
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kevinfinalboss/cmlporter/internal/config"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/kevinfinalboss/cmlporter/pkg/utils"
)

const FileName = "legacy_engine_runtime_constants.json"

var (
	ErrEmptyCatalog   = errors.New("runtime catalog is empty")
	ErrPartialCatalog = errors.New("runtime catalog listing ended before the last page")
)

type RuntimeLister interface {
	ListRuntimes(ctx context.Context, pageToken string) (*types.RuntimePage, error)
}

func DefaultPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

type Builder struct {
	client RuntimeLister
	path   string
	logger *logger.Logger
}

func NewBuilder(client RuntimeLister, path string, log *logger.Logger) *Builder {
	return &Builder{client: client, path: path, logger: log}
}

func (b *Builder) Path() string {
	return b.path
}

// FetchAll walks the runtime listing page by page. A page that comes back
// empty after an earlier page, or a page token handed out twice, invalidates
// everything gathered so far.
func (b *Builder) FetchAll(ctx context.Context) (types.RuntimeMapping, error) {
	var runtimes []types.Runtime
	token := ""
	pages := 0
	seen := map[string]bool{token: true}

	for {
		page, err := b.client.ListRuntimes(ctx, token)
		if err != nil || page == nil {
			if pages == 0 {
				if err != nil {
					b.logger.Warn("catalog_first_page_failed").Err(err).Send()
				}
				return nil, ErrEmptyCatalog
			}
			b.logger.Error("catalog_page_missing").
				Int("pages_fetched", pages).
				Str("page_token", token).
				Err(err).
				Send()
			return nil, ErrPartialCatalog
		}

		pages++
		runtimes = append(runtimes, page.Runtimes...)
		b.logger.Debug("catalog_page_fetched").
			Int("page", pages).
			Int("runtimes", len(page.Runtimes)).
			Send()

		if page.NextPageToken == "" {
			break
		}
		if seen[page.NextPageToken] {
			b.logger.Error("catalog_token_repeated").
				Int("pages_fetched", pages).
				Str("page_token", page.NextPageToken).
				Send()
			return nil, ErrPartialCatalog
		}
		seen[page.NextPageToken] = true
		token = page.NextPageToken
	}

	if len(runtimes) == 0 {
		return nil, ErrEmptyCatalog
	}

	return BuildMapping(runtimes), nil
}

// BuildMapping keys runtimes by legacy engine image. Later entries win.
func BuildMapping(runtimes []types.Runtime) types.RuntimeMapping {
	mapping := make(types.RuntimeMapping, len(runtimes))
	for _, entry := range Entries(runtimes) {
		mapping[entry.LegacyImageID] = entry.RuntimeID
	}
	return mapping
}

func Entries(runtimes []types.Runtime) []types.RuntimeCatalogEntry {
	entries := make([]types.RuntimeCatalogEntry, 0, len(runtimes))
	for _, rt := range runtimes {
		if rt.LegacyEngineImage == "" || rt.ImageIdentifier == "" {
			continue
		}
		entries = append(entries, types.RuntimeCatalogEntry{
			LegacyImageID: rt.LegacyEngineImage,
			RuntimeID:     rt.ImageIdentifier,
		})
	}
	return entries
}

// Persist replaces the catalog file with mapping.
func (b *Builder) Persist(mapping types.RuntimeMapping) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(b.path), err)
	}
	if err := utils.WriteJSONAtomic(b.path, mapping); err != nil {
		return err
	}
	return nil
}

type Outcome string

const (
	OutcomeWritten     Outcome = "written"
	OutcomeEmpty       Outcome = "empty"
	OutcomePartial     Outcome = "partial"
	OutcomeWriteFailed Outcome = "write_failed"
)

// Run fetches the whole catalog and persists it. None of the outcomes is
// fatal to the caller; the returned error describes the non-written cases.
func (b *Builder) Run(ctx context.Context) (Outcome, error) {
	mapping, err := b.FetchAll(ctx)
	switch {
	case errors.Is(err, ErrEmptyCatalog):
		b.logger.Info("catalog_empty").Send()
		return OutcomeEmpty, err
	case err != nil:
		b.logger.Error("catalog_discarded").Err(err).Send()
		return OutcomePartial, err
	}

	if err := b.Persist(mapping); err != nil {
		b.logger.Error("catalog_write_failed").
			Str("path", b.path).
			Err(err).
			Send()
		return OutcomeWriteFailed, err
	}

	b.logger.Info("catalog_written").
		Str("path", b.path).
		Int("entries", len(mapping)).
		Send()
	return OutcomeWritten, nil
}

// Load reads a persisted catalog. A missing file yields an empty mapping.
func Load(path string) (types.RuntimeMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.RuntimeMapping{}, nil
		}
		return nil, fmt.Errorf("failed to read runtime catalog %s: %w", path, err)
	}

	mapping := types.RuntimeMapping{}
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to decode runtime catalog %s: %w", path, err)
	}
	return mapping, nil
}

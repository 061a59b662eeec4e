package sitemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/output"
	"github.com/Sriram-PR/fast-sitemap/pkg/parse"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// ExistingEntries rebuilds the index entries of a source from the files an
// earlier run left in the output path, reading "<stem>.xml", "<stem>-1.xml", ...
// (plain or gzip) until the first missing file. Entries match what Generate
// returned for the same files, so an index built from them is unchanged.
func (g *Generator) ExistingEntries(sourceName string) ([]models.IndexEntry, error) {
	var entries []models.IndexEntry
	for seq := 0; ; seq++ {
		path := filepath.Join(g.opts.OutputPath, SitemapFileName(sourceName, seq))
		data, err := output.ReadLogical(path)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return entries, err
		}

		var set parse.XMLURLSet
		if err := xml.Unmarshal(data, &set); err != nil {
			return entries, fmt.Errorf("%w: XML in '%s': %w", utils.ErrParsing, path, err)
		}
		if len(set.URLs) == 0 {
			break
		}
		entries = append(entries, models.IndexEntry{
			SourceName: sourceName,
			Date:       set.URLs[0].LastMod,
			FilePath:   path,
			URLCount:   len(set.URLs),
		})
	}
	return entries, nil
}

package orchestrate

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/config"
	"github.com/Sriram-PR/fast-sitemap/pkg/fetch"
	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/output"
	"github.com/Sriram-PR/fast-sitemap/pkg/ping"
	"github.com/Sriram-PR/fast-sitemap/pkg/robots"
	"github.com/Sriram-PR/fast-sitemap/pkg/sitemap"
	"github.com/Sriram-PR/fast-sitemap/pkg/sources"
	"github.com/Sriram-PR/fast-sitemap/pkg/storage"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// SourceOpener builds the generation job for one configured source
type SourceOpener func(ctx context.Context, sc config.SourceConfig, domain string, log *logrus.Entry) (sitemap.Job, io.Closer, error)

// Runner performs a full generation run: every selected source, then the
// index, robots.txt and the run record.
type Runner struct {
	appCfg *config.AppConfig
	gen    *sitemap.Generator
	robots *robots.Manager
	store  storage.RunStore // May be nil
	open   SourceOpener
	log    *logrus.Entry
}

// NewRunner wires the generator, ping notifier and robots manager from a
// validated configuration. store may be nil to skip run history.
func NewRunner(appCfg *config.AppConfig, store storage.RunStore, log *logrus.Entry) *Runner {
	log = log.WithField("component", "orchestrator")

	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(httpClient, fetch.RetryPolicy{
		MaxRetries:   appCfg.MaxRetries,
		InitialDelay: appCfg.InitialRetryDelay,
		MaxDelay:     appCfg.MaxRetryDelay,
	}, log)
	notifier := ping.NewNotifier(fetcher, appCfg.SearchEngines, appCfg.PingTimeout, log)

	writer := output.NewFileWriter(log)
	return &Runner{
		appCfg: appCfg,
		gen:    sitemap.NewGenerator(GeneratorOptions(appCfg), writer, notifier, log),
		robots: robots.NewManager(writer, log),
		store:  store,
		open:   sources.Open,
		log:    log,
	}
}

// GeneratorOptions maps the application configuration onto generator options
func GeneratorOptions(appCfg *config.AppConfig) sitemap.Options {
	style := sitemap.StyleSitemapIndex
	if appCfg.IndexStyle == config.IndexStyleURLSet {
		style = sitemap.StyleURLSet
	}
	return sitemap.Options{
		Domain:                appCfg.Domain,
		OutputPath:            appCfg.OutputPath,
		IndexName:             appCfg.IndexSitemapName,
		MaxURLsPerFile:        appCfg.MaxURLsPerFile,
		Compress:              config.GetEffectiveCompress(*appCfg),
		IncludePriority:       config.GetEffectiveIncludePriority(config.SourceConfig{}, *appCfg),
		IndexIncludePriority:  config.GetEffectiveIndexIncludePriority(*appCfg),
		IncludeSchemaLocation: config.GetEffectiveIncludeSchemaLocation(*appCfg),
		IndexStyle:            style,
		Ping:                  config.GetEffectivePing(*appCfg),
	}
}

// Run generates the selected sources (all when names is empty) and rebuilds
// the index. Unselected sources contribute the files they already have on disk. The returned record is always non-nil; the error is set only
// when the run failed before the index was written.
func (r *Runner) Run(ctx context.Context, names []string) (*models.RunRecord, error) {
	record := &models.RunRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := r.log.WithField("run", record.ID)

	if err := ValidateSourceNames(r.appCfg, names); err != nil {
		return r.finish(record, err), err
	}
	selected := SourceNames(r.appCfg)
	if len(names) > 0 {
		selected = names
	}
	log.Infof("Starting sitemap generation for %d of %d sources: %v", len(selected), len(r.appCfg.Sources), selected)

	var entries []models.IndexEntry
	failed := false
	for _, sc := range r.appCfg.Sources {
		if !slices.Contains(selected, sc.Name) {
			record.Sources = append(record.Sources, models.SourceResult{Name: sc.Name, Status: models.RunStatusSkipped})
			// Keep files from earlier runs of unselected sources in the index.
			kept, err := r.gen.ExistingEntries(sc.Name)
			if err != nil {
				log.Warnf("Reading existing sitemap files of '%s': %v", sc.Name, err)
			}
			log.Debugf("Carrying %d existing file(s) of skipped source '%s'", len(kept), sc.Name)
			entries = append(entries, kept...)
			continue
		}

		result, produced, err := r.runSource(ctx, sc, log)
		record.Sources = append(record.Sources, result)
		// Files written before a failure are real and stay indexed.
		entries = append(entries, produced...)
		if err == nil {
			continue
		}
		failed = true
		if ctx.Err() != nil || !r.appCfg.ContinueOnSourceError {
			log.Errorf("Aborting run: source '%s' failed: %v", sc.Name, err)
			return r.finish(record, err), err
		}
		log.Warnf("Source '%s' failed, continuing with remaining sources: %v", sc.Name, err)
	}

	index, err := r.gen.CreateIndex(ctx, entries)
	if err != nil {
		log.Errorf("Failed to write index: %v", err)
		return r.finish(record, err), err
	}
	record.IndexPath = index.Path
	record.IndexHash = index.Hash
	record.Entries = index.Entries
	record.Changed = index.Changed
	record.Pinged = index.Pinged

	if r.appCfg.Robots.Manage {
		r.updateRobots(index.URL, log)
	}

	record.Status = models.RunStatusSuccess
	if failed {
		record.Status = models.RunStatusPartial
	}
	return r.finish(record, nil), nil
}

func (r *Runner) runSource(ctx context.Context, sc config.SourceConfig, log *logrus.Entry) (models.SourceResult, []models.IndexEntry, error) {
	start := time.Now()
	result := models.SourceResult{Name: sc.Name}

	fail := func(err error) (models.SourceResult, []models.IndexEntry, error) {
		result.Status = models.RunStatusFailure
		result.ErrorType = utils.CategorizeError(err)
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result, nil, err
	}

	job, closer, err := r.open(ctx, sc, r.appCfg.Domain, log)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			log.Warnf("Closing source '%s': %v", sc.Name, cerr)
		}
	}()

	gen := r.gen.WithSourceOverrides(
		config.GetEffectiveMaxURLsPerFile(sc, *r.appCfg),
		config.GetEffectiveIncludePriority(sc, *r.appCfg),
	)
	entries, err := gen.Generate(ctx, job)
	for _, e := range entries {
		result.Files++
		result.URLs += e.URLCount
	}
	if err != nil {
		res, _, err := fail(err)
		return res, entries, err
	}
	result.Status = models.RunStatusSuccess
	result.Duration = time.Since(start)
	return result, entries, nil
}

// updateRobots advertises indexURL, replacing the directive for the other
// compression variant of the same index.
func (r *Runner) updateRobots(indexURL string, log *logrus.Entry) {
	path := config.GetEffectiveRobotsPath(*r.appCfg)
	alternate := indexURL + output.GzipSuffix
	if strings.HasSuffix(indexURL, output.GzipSuffix) {
		alternate = strings.TrimSuffix(indexURL, output.GzipSuffix)
	}
	changed, err := r.robots.EnsureSitemapDirective(path, indexURL, alternate)
	if err != nil {
		log.Errorf("Failed to update robots.txt at %s: %v", path, err)
		return
	}
	if changed {
		log.Infof("Added Sitemap directive for %s to %s", indexURL, path)
	}
}

// finish stamps the record, stores it and logs the summary
func (r *Runner) finish(record *models.RunRecord, err error) *models.RunRecord {
	record.FinishedAt = time.Now().UTC()
	if err != nil {
		record.Status = models.RunStatusFailure
		record.ErrorType = utils.CategorizeError(err)
		record.ErrorMessage = err.Error()
	}

	if r.store != nil {
		if serr := r.store.SaveRun(record); serr != nil {
			r.log.Errorf("Failed to save run record %s: %v", record.ID, serr)
		} else if r.appCfg.HistoryLimit > 0 {
			if _, perr := r.store.PruneRuns(r.appCfg.HistoryLimit); perr != nil {
				r.log.Warnf("Failed to prune run history: %v", perr)
			}
		}
	}

	r.logSummary(record)
	return record
}

// logSummary logs a summary of the run
func (r *Runner) logSummary(record *models.RunRecord) {
	r.log.Info("============================================")
	r.log.Infof("Run %s %s in %v", record.ID, strings.ToUpper(record.Status.String()), record.FinishedAt.Sub(record.StartedAt))
	r.log.Info("Source Results:")

	for _, s := range record.Sources {
		if s.Status == models.RunStatusSkipped {
			r.log.Infof("  %s: skipped", s.Name)
			continue
		}
		r.log.Infof("  %s: %s - %d URLs in %d files (%v)", s.Name, s.Status, s.URLs, s.Files, s.Duration)
		if s.Error != "" {
			r.log.Infof("    Error [%s]: %s", s.ErrorType, s.Error)
		}
	}

	r.log.Info("--------------------------------------------")
	if record.IndexPath != "" {
		r.log.Infof("Index: %s (%d entries, changed: %v, pinged: %v)", record.IndexPath, record.Entries, record.Changed, record.Pinged)
	}
	r.log.Infof("Total: %d URLs", record.TotalURLs())
	r.log.Info("============================================")
}

// ValidateSourceNames checks that all provided names exist in the config
func ValidateSourceNames(appCfg *config.AppConfig, names []string) error {
	for _, name := range names {
		if _, exists := appCfg.FindSource(name); !exists {
			return fmt.Errorf("%w: source '%s' not found. Available sources: %v", utils.ErrConfigValidation, name, SourceNames(appCfg))
		}
	}
	return nil
}

// SourceNames returns all source names in configuration order
func SourceNames(appCfg *config.AppConfig) []string {
	names := make([]string, 0, len(appCfg.Sources))
	for _, s := range appCfg.Sources {
		names = append(names, s.Name)
	}
	return names
}

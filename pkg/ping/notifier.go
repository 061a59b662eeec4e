package ping

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/fast-sitemap/pkg/config"
	"github.com/Sriram-PR/fast-sitemap/pkg/fetch"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// Result is the outcome of pinging one search engine
type Result struct {
	Engine   string
	URL      string
	Status   int // 0 when no response was received
	Err      error
	Duration time.Duration
}

// Notifier tells search engines that the sitemap index changed.
// Pings are best-effort: failures are logged and never returned to the caller.
type Notifier struct {
	fetcher *fetch.Fetcher
	engines []config.SearchEngine
	timeout time.Duration
	log     *logrus.Entry
}

// NewNotifier creates a Notifier. timeout bounds each engine's request, retries included.
func NewNotifier(fetcher *fetch.Fetcher, engines []config.SearchEngine, timeout time.Duration, log *logrus.Entry) *Notifier {
	return &Notifier{
		fetcher: fetcher,
		engines: engines,
		timeout: timeout,
		log:     log.WithField("component", "ping"),
	}
}

// Notify pings every configured engine with indexURL.
func (n *Notifier) Notify(ctx context.Context, indexURL string) {
	n.NotifyAll(ctx, indexURL)
}

// NotifyAll pings every engine concurrently and returns one Result per engine, in configuration order.
func (n *Notifier) NotifyAll(ctx context.Context, indexURL string) []Result {
	results := make([]Result, len(n.engines))

	var g errgroup.Group
	for i, engine := range n.engines {
		g.Go(func() error {
			results[i] = n.pingOne(ctx, engine, indexURL)
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	n.log.Infof("Pinged %d/%d search engine(s) with %s", ok, len(results), indexURL)
	return results
}

func (n *Notifier) pingOne(ctx context.Context, engine config.SearchEngine, indexURL string) Result {
	res := Result{Engine: engine.Name}
	engineLog := n.log.WithField("engine", engine.Name)

	pingURL, err := BuildPingURL(engine, indexURL)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", utils.ErrPing, engine.Name, err)
		engineLog.Warnf("Skipping ping: %v", res.Err)
		return res
	}
	res.URL = pingURL

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	start := time.Now()
	status, err := n.fetcher.GetStatus(ctx, pingURL)
	res.Duration = time.Since(start)
	res.Status = status
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", utils.ErrPing, engine.Name, err)
		engineLog.WithFields(logrus.Fields{
			"status":     status,
			"error_type": utils.CategorizeError(res.Err),
		}).Warnf("Ping failed: %v", err)
		return res
	}

	engineLog.WithFields(logrus.Fields{"status": status, "duration": res.Duration.Round(time.Millisecond)}).Debug("Ping accepted")
	return res
}

// BuildPingURL returns engine.URL with indexURL added as the engine's query parameter.
func BuildPingURL(engine config.SearchEngine, indexURL string) (string, error) {
	if _, err := url.ParseRequestURI(engine.URL); err != nil {
		return "", fmt.Errorf("%w: invalid engine URL %q: %w", utils.ErrParsing, engine.URL, err)
	}
	sep := "?"
	if strings.Contains(engine.URL, "?") {
		sep = "&"
	}
	return engine.URL + sep + url.Values{engine.Param: {indexURL}}.Encode(), nil
}

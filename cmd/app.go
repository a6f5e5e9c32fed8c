package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/brogergvhs/endless/internal/config"
	"github.com/brogergvhs/endless/internal/library"
	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/prefs"
	"github.com/brogergvhs/endless/internal/providers/generic"
	"github.com/brogergvhs/endless/internal/store"
	"github.com/brogergvhs/endless/internal/ui"
	"github.com/brogergvhs/endless/internal/util"
)

// app holds what every command that touches the sites or the library
// needs.
type app struct {
	cfg     *config.Config
	log     *ui.Logger
	scraper *generic.Scraper
	store   *store.Store
	prefs   *prefs.Prefs
	notices *notify.Center
	library *library.Library

	logFile io.Closer
}

func loadConfig() (*config.Config, string, error) {
	return config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		DBPath:       flagDB,
		Cookie:       flagCookie,
		CookieFile:   flagCookieFile,
		UserAgent:    flagUserAgent,
		Cloudflare:   flagCloudflare,
		ServeAddr:    flagServeAddr,
	})
}

// newApp wires the shared dependencies. With toFile set, log lines go
// to the log file so they stay off the terminal UI.
func newApp(toFile bool) (*app, error) {
	cfg, used, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if toFile {
		f, err := os.OpenFile(config.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		a.log = ui.NewFileLogger(cfg.Debug, f)
	} else {
		a.log = ui.NewLogger(cfg.Debug)
	}
	a.log.Debugf("config: %s", used)

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     cfg.RequestTimeout(),
		UserAgent:   util.PickUserAgent(cfg.UserAgent),
		Cookie:      cfg.Cookie,
		CookieFile:  cfg.CookieFile,
		Cloudflare:  cfg.CloudflareBypass,
		DebugLogger: a.log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.scraper = generic.NewScraper(client, a.log, cfg.FetchRetries)

	a.store, err = store.Open(cfg.DBPath, a.log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.prefs, err = prefs.Open(config.StatePath())
	if err != nil {
		a.Close()
		return nil, err
	}

	a.notices = notify.New(a.log, cfg.NotifyDuration())
	a.library = library.New(library.Options{
		Store:   a.store,
		Fetcher: a.scraper,
		Notices: a.notices,
		Log:     a.log,
		Workers: cfg.RefreshWorkers,
		Rate:    cfg.RefreshRate,
	})
	return a, nil
}

func (a *app) Close() {
	if a.notices != nil {
		a.notices.DismissAll()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warnf("close store: %v", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/GRAYgoose124/wikicrawler/analysis"
	"github.com/GRAYgoose124/wikicrawler/arbiter"
	"github.com/GRAYgoose124/wikicrawler/config"
	"github.com/GRAYgoose124/wikicrawler/seer"
	"github.com/GRAYgoose124/wikicrawler/sio"
	"github.com/GRAYgoose124/wikicrawler/store"
	"github.com/GRAYgoose124/wikicrawler/store/bolt"
	"github.com/GRAYgoose124/wikicrawler/util"
	"github.com/GRAYgoose124/wikicrawler/wiki"

	_ "github.com/GRAYgoose124/wikicrawler/interpreters/goja"

	"go.uber.org/zap"
)

// options are the command line settings that override the
// configuration.
type options struct {
	configFile  string
	verbose     bool
	seed        int64
	noColor     bool
	shellExpand bool
}

// app is an assembled Prompt with its collaborators.
type app struct {
	conf      *config.Config
	logger    *zap.Logger
	prompt    *arbiter.Prompt
	pages     store.Store
	crawler   *wiki.Crawler
	schedules *sio.Schedules
}

func newLogger(conf *config.Config, verbose bool) (*zap.Logger, error) {
	lc := conf.LogConfig()
	if verbose {
		lc.Level = "debug"
	}
	return util.NewLogger(lc)
}

// newApp wires a Prompt to the page store, the crawler, the analyzer,
// the renderer, and the snapshot files, and loads the last session.
func newApp(ctx context.Context, conf *config.Config, opts *options, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db := bolt.NewStore(conf.Path(conf.DBFile), logger)
	if err := db.Open(ctx); err != nil {
		return nil, fmt.Errorf("page store: %w", err)
	}
	pages := store.NewCached(store.NewMemory(conf.CacheTTL), db)

	wc := wiki.Config{
		BaseURL:   conf.WikiURL,
		Token:     conf.WikiAPIToken,
		UserAgent: conf.UserAgent,
		Timeout:   conf.Timeout,
		Rate:      conf.Rate,
	}
	if conf.SaveMedia && conf.ProcessMediaLinks {
		wc.MediaDir = conf.Path(conf.MediaFolder)
	}
	crawler, err := wiki.NewCrawler(wc, pages, logger)
	if err != nil {
		pages.Close(ctx)
		return nil, err
	}

	p := arbiter.NewPrompt(crawler, analysis.NewAnalyzer(logger), logger)
	p.Renderer = seer.New(conf.Path(conf.SeerFolder), logger)
	p.Snapshots = &sio.JSONStore{
		StateFilename:     conf.Path(conf.PromptState),
		PointerFilename:   conf.Path(conf.PointerState),
		FunctionsFilename: conf.Path(conf.FunctionsCache),
	}
	p.Metric = conf.Metric()
	p.Precache = conf.SearchPrecaching

	seed := conf.Seed
	if opts != nil && opts.seed != 0 {
		seed = opts.seed
	}
	if seed != 0 {
		p.Oracle.Rand = rand.New(rand.NewSource(seed))
	}

	if err := p.Load(ctx); err != nil {
		pages.Close(ctx)
		return nil, fmt.Errorf("loading session: %w", err)
	}
	pages.RegisterHook(p.Save)

	a := &app{
		conf:      conf,
		logger:    logger,
		prompt:    p,
		pages:     pages,
		crawler:   crawler,
		schedules: sio.NewSchedules(logger),
	}

	for i, s := range conf.Schedules {
		id := fmt.Sprintf("schedule-%d", i)
		if err := a.schedules.Add(ctx, id, s.Cron, s.Command); err != nil {
			a.close(ctx)
			return nil, err
		}
	}

	return a, nil
}

// loop makes a Loop fed by the configured schedules.
func (a *app) loop() *sio.Loop {
	l := sio.NewLoop(a.prompt, a.logger)
	l.Schedules = a.schedules
	return l
}

// close stops the schedules, waits for media downloads, and closes
// the page store, which saves the session.
func (a *app) close(ctx context.Context) error {
	a.schedules.Stop()
	if m := a.crawler.Media(); m != nil {
		m.Wait()
	}
	return a.pages.Close(ctx)
}

// runScripts runs each script (a file or a command line) in order and
// writes the results.  An unrecoverable error or cancellation stops
// everything.
func (a *app) runScripts(ctx context.Context, srcs []string, print func(string)) error {
	for _, src := range srcs {
		rs, err := a.prompt.RunScript(ctx, src)
		for _, r := range rs {
			print(r.String())
		}
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
	}
	return nil
}

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

package sio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

// ScheduleEntry repeatedly submits a command line on a cron
// schedule.
type ScheduleEntry struct {
	Id   string
	Cron string
	Line string

	// Next is when the entry fires next.
	Next time.Time

	expr      *cronexpr.Expression
	ctl       chan bool
	schedules *Schedules
}

// Schedules represents active cron entries.
//
// Fired entries become Requests on the channel returned by Requests,
// which a Loop consumes.
type Schedules struct {
	Map map[string]*ScheduleEntry

	// Now is the clock.  Defaults to time.Now.
	Now func() time.Time

	requests chan *Request
	wg       sync.WaitGroup
	logger   *zap.Logger

	sync.Mutex
}

// NewSchedules makes an empty Schedules.
func NewSchedules(logger *zap.Logger) *Schedules {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Schedules{
		Map:      make(map[string]*ScheduleEntry, 8),
		Now:      time.Now,
		requests: make(chan *Request),
		logger:   logger.Named("schedules"),
	}
}

// Requests returns the channel fired entries are sent on.
func (ss *Schedules) Requests() chan *Request {
	return ss.requests
}

// Add starts an entry that submits the line whenever the cron
// expression next matches.  An existing entry with the same id is
// replaced.
func (ss *Schedules) Add(ctx context.Context, id, cron, line string) error {
	expr, err := cronexpr.Parse(cron)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", id, err)
	}

	ss.Lock()
	defer ss.Unlock()

	if _, have := ss.Map[id]; have {
		if err := ss.cancel(id); err != nil {
			return err
		}
	}

	e := &ScheduleEntry{
		Id:        id,
		Cron:      cron,
		Line:      line,
		expr:      expr,
		ctl:       make(chan bool),
		schedules: ss,
	}
	ss.Map[id] = e
	ss.logger.Info("schedule added", zap.String("id", id), zap.String("cron", cron), zap.String("line", line))

	ss.wg.Add(1)
	go e.run(ctx)

	return nil
}

func (ss *Schedules) cancel(id string) error {
	e, have := ss.Map[id]
	if !have {
		return fmt.Errorf("schedule '%s' doesn't exist", id)
	}
	delete(ss.Map, id)
	close(e.ctl)
	return nil
}

// Cancel stops the entry with the given id.
func (ss *Schedules) Cancel(id string) error {
	ss.Lock()
	err := ss.cancel(id)
	ss.Unlock()
	return err
}

// Stop cancels every entry and waits for them to finish.
func (ss *Schedules) Stop() {
	ss.Lock()
	for id := range ss.Map {
		ss.cancel(id)
	}
	ss.Unlock()
	ss.wg.Wait()
}

// run fires the entry at each appointed time until it is cancelled
// or the expression has no next time.
func (e *ScheduleEntry) run(ctx context.Context) {
	ss := e.schedules
	defer ss.wg.Done()

	for {
		now := ss.Now()
		next := e.expr.Next(now)
		if next.IsZero() {
			ss.logger.Info("schedule exhausted", zap.String("id", e.Id))
			return
		}
		ss.Lock()
		e.Next = next
		ss.Unlock()

		t := time.NewTimer(next.Sub(now))
		select {
		case <-t.C:
			ss.logger.Debug("firing schedule", zap.String("id", e.Id))
			select {
			case ss.requests <- &Request{From: "schedule:" + e.Id, Line: e.Line}:
			case <-e.ctl:
				return
			case <-ctx.Done():
				return
			}
		case <-e.ctl:
			t.Stop()
			ss.logger.Debug("canceling schedule", zap.String("id", e.Id))
			return
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

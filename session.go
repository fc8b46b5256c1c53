// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package flowview

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/tidwall/btree"
	log "github.com/vine-io/vine/lib/logger"
	"go.uber.org/atomic"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
	"github.com/vine-io/flowview/layout"
	"github.com/vine-io/flowview/navigator"
	"github.com/vine-io/flowview/persist"
	"github.com/vine-io/flowview/scope"
	"github.com/vine-io/flowview/store"
)

const DefaultWorkers = 4

type Option func(*Session)

// WithLayoutOptions sets the box sizes and spacing used for every scope.
func WithLayoutOptions(opts layout.Options) Option {
	return func(s *Session) {
		s.opts = opts
	}
}

func WithOrientation(o api.Orientation) Option {
	return func(s *Session) {
		s.opts.Orientation = o
	}
}

// WithWorkers bounds the pool Warm lays scopes out on.
func WithWorkers(n int) Option {
	return func(s *Session) {
		s.workers = n
	}
}

type layoutCache = btree.Map[string, *scope.Graph]

// Session edits one stored document: it holds the parsed model, the navigator over it, a
// layout cache and at most one save in flight.
type Session struct {
	sync.RWMutex

	id      string
	store   store.Store
	opts    layout.Options
	workers int

	doc   *store.Document
	model *bpmn.ProcessModel
	nav   *navigator.Controller

	cmu   sync.Mutex
	cache *layoutCache

	saving  atomic.Bool
	pending *store.Document
}

func NewSession(s store.Store, opts ...Option) *Session {
	session := &Session{
		id:      uuid.New().String(),
		store:   s,
		opts:    layout.DefaultOptions(),
		workers: DefaultWorkers,
		cache:   btree.NewMap[string, *scope.Graph](32),
	}
	for _, opt := range opts {
		opt(session)
	}
	return session
}

func (s *Session) ID() string { return s.id }

// Load reads key from the store and opens the document it holds.
func (s *Session) Load(ctx context.Context, key string) error {
	doc, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err = s.open(doc); err != nil {
		return err
	}
	log.Infof("session %s loaded %s at revision %d.%d", s.id, key, doc.Revision.Main, doc.Revision.Sub)
	return nil
}

// Ingest opens text as a document not stored yet; the first save creates key.
func (s *Session) Ingest(key, text string) error {
	return s.open(&store.Document{Key: key, Text: text})
}

func (s *Session) open(doc *store.Document) error {
	model, err := bpmn.FromXML(doc.Text)
	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	s.doc = doc
	s.model = model
	s.pending = nil
	s.resetCache()
	if s.nav == nil {
		s.nav = navigator.NewController(model,
			navigator.WithLayouter(s.layouter),
			navigator.WithOrientation(s.opts.Orientation))
	} else {
		s.nav.Reload(model)
	}
	return nil
}

// Navigator returns the navigation controller, nil until a document is opened.
func (s *Session) Navigator() *navigator.Controller {
	s.RLock()
	defer s.RUnlock()
	return s.nav
}

func (s *Session) Model() *bpmn.ProcessModel {
	s.RLock()
	defer s.RUnlock()
	return s.model
}

// Document returns the last stored (or ingested) version of the document.
func (s *Session) Document() store.Document {
	s.RLock()
	defer s.RUnlock()
	if s.doc == nil {
		return store.Document{}
	}
	return *s.doc
}

// OpenTask returns a copy of the configuration of task id, creating an empty one the first
// time the task is opened.
func (s *Session) OpenTask(id string) (*bpmn.TaskConfig, error) {
	s.Lock()
	defer s.Unlock()

	task, err := s.task(id)
	if err != nil {
		return nil, err
	}
	return task.EnsureConfig().Clone(), nil
}

func (s *Session) task(id string) (*bpmn.Task, error) {
	if s.model == nil {
		return nil, api.PreconditionFailed("no document opened")
	}
	task, ok := s.model.Task(id)
	if !ok {
		return nil, api.ElementNotFound("task %s not found", id)
	}
	return task, nil
}

// SaveTask merges cfg over the configuration of task id, writes it into the document and
// hands the document to the store. A second save while one is in flight fails with Conflict.
// When the store fails the merged configuration stays in the model and Retry re-sends
// the same document. A later save carries the failed edits along with its own.
func (s *Session) SaveTask(ctx context.Context, id string, cfg *bpmn.TaskConfig) error {
	if !s.saving.CompareAndSwap(false, true) {
		return api.Conflict("a save is already in flight")
	}
	defer s.saving.Store(false)

	s.Lock()
	task, err := s.task(id)
	if err != nil {
		s.Unlock()
		return err
	}
	merged := task.EnsureConfig().Merge(cfg)
	// a failed save is still waiting for Retry: build on it so its edit is not lost
	base := s.doc.Text
	if s.pending != nil {
		base = s.pending.Text
	}
	text, err := persist.Persist(base, id, merged)
	if err != nil {
		s.Unlock()
		log.Errorf("persist task %s: %v", id, err)
		return err
	}
	task.Config = merged
	s.resetCache()
	s.nav.Refresh()
	pending := &store.Document{Key: s.doc.Key, Text: text, Revision: s.doc.Revision}
	s.pending = pending
	s.Unlock()

	return s.put(ctx, pending)
}

// Retry re-sends the document of the last failed save.
func (s *Session) Retry(ctx context.Context) error {
	if !s.saving.CompareAndSwap(false, true) {
		return api.Conflict("a save is already in flight")
	}
	defer s.saving.Store(false)

	s.RLock()
	pending := s.pending
	s.RUnlock()
	if pending == nil {
		return api.PreconditionFailed("nothing to retry")
	}
	return s.put(ctx, pending)
}

// Pending reports whether a failed save waits for Retry.
func (s *Session) Pending() bool {
	s.RLock()
	defer s.RUnlock()
	return s.pending != nil
}

func (s *Session) put(ctx context.Context, pending *store.Document) error {
	rev, err := s.store.Put(ctx, pending)
	if err != nil {
		log.Errorf("store %s: %v", pending.Key, err)
		return err
	}

	s.Lock()
	defer s.Unlock()
	if s.pending == pending {
		s.pending = nil
	}
	s.doc = &store.Document{Key: pending.Key, Text: pending.Text, Revision: rev}
	log.Infof("session %s stored %s at revision %d.%d", s.id, pending.Key, rev.Main, rev.Sub)
	return nil
}

// Warm lays out every scope in both orientations ahead of navigation.
func (s *Session) Warm(ctx context.Context) error {
	s.RLock()
	defer s.RUnlock()
	if s.model == nil {
		return api.PreconditionFailed("no document opened")
	}

	s.cmu.Lock()
	cache := s.cache
	s.cmu.Unlock()

	size := s.workers
	if size <= 0 {
		size = DefaultWorkers
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return api.InternalServerError("create pool: %v", err).WithCause(err)
	}
	defer pool.Release()

	containers := make([]bpmn.Container, 0)
	s.model.Walk(func(c bpmn.Container, depth int) bool {
		containers = append(containers, c)
		return true
	})

	var wg sync.WaitGroup
	for _, c := range containers {
		for _, o := range []api.Orientation{api.TopBottom, api.LeftRight} {
			if err = ctx.Err(); err != nil {
				break
			}
			wg.Add(1)
			err = pool.Submit(func() {
				defer wg.Done()
				s.layoutInto(cache, c, o)
			})
			if err != nil {
				wg.Done()
				break
			}
		}
		if err != nil {
			break
		}
	}
	wg.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return api.InternalServerError("warm layouts: %v", err).WithCause(err)
	}
	log.Debugf("session %s warmed %d scopes", s.id, len(containers))
	return nil
}

// Cached reports whether the layout of scope id in orientation o is cached.
func (s *Session) Cached(id string, o api.Orientation) bool {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	_, ok := s.cache.Get(cacheKey(id, o))
	return ok
}

func (s *Session) resetCache() {
	s.cmu.Lock()
	s.cache = btree.NewMap[string, *scope.Graph](32)
	s.cmu.Unlock()
}

func (s *Session) layouter(c bpmn.Container, o api.Orientation) *scope.Graph {
	s.cmu.Lock()
	cache := s.cache
	s.cmu.Unlock()
	return s.layoutInto(cache, c, o)
}

// layoutInto returns a copy of the cached layout of c, computing it on a miss.
func (s *Session) layoutInto(cache *layoutCache, c bpmn.Container, o api.Orientation) *scope.Graph {
	key := cacheKey(c.ScopeID(), o)

	s.cmu.Lock()
	g, ok := cache.Get(key)
	s.cmu.Unlock()
	if ok {
		return g.Clone()
	}

	opts := s.opts
	opts.Orientation = o
	g = layout.Compute(scope.Project(c, o), opts)

	s.cmu.Lock()
	cache.Set(key, g)
	s.cmu.Unlock()
	return g.Clone()
}

func cacheKey(id string, o api.Orientation) string {
	return id + "/" + o.String()
}

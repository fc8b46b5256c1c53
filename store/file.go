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

package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/vine-io/vine/lib/logger"

	"github.com/vine-io/flowview/api"
)

const (
	documentExt = ".bpmn"
	revisionExt = ".rev"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps one document per key under a directory, with its revision in a
// sibling file.
type FileStore struct {
	mu  sync.Mutex
	dir string

	write func(name string, data []byte) error
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, api.PersistenceFailed("create store directory %s: %v", dir, err).WithCause(err)
	}
	return &FileStore{dir: dir, write: writeFile}, nil
}

func (s *FileStore) path(key, ext string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.ContainsRune(key, 0) {
		return "", api.BadRequest("invalid document key %q", key)
	}
	return filepath.Join(s.dir, clean+ext), nil
}

func (s *FileStore) Get(ctx context.Context, key string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, exists, err := s.read(key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, api.NotFound("document %s not exists", key)
	}

	rev, err := s.revision(key)
	if err != nil {
		return nil, err
	}
	return &Document{Key: key, Text: string(data), Revision: rev}, nil
}

func (s *FileStore) read(key string) ([]byte, bool, error) {
	name, err := s.path(key, documentExt)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, api.PersistenceFailed("read document %s: %v", key, err).WithCause(err)
	}
	return data, true, nil
}

// revision reads the revision of an existing document. A document without a revision
// file, e.g. copied into the directory by hand, is at revision 0.1.
func (s *FileStore) revision(key string) (api.Revision, error) {
	name, err := s.path(key, revisionExt)
	if err != nil {
		return api.Revision{}, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return api.Revision{Sub: 1}, nil
	}
	if err != nil {
		return api.Revision{}, api.PersistenceFailed("read revision of %s: %v", key, err).WithCause(err)
	}
	return api.BytesToRev(data), nil
}

// Put writes doc when doc.Revision is the stored revision, or zero and no document
// exists yet. The document and its revision change together.
func (s *FileStore) Put(ctx context.Context, doc *Document) (api.Revision, error) {
	if doc == nil {
		return api.Revision{}, api.BadRequest("missing document")
	}
	if err := ctx.Err(); err != nil {
		return api.Revision{}, api.PersistenceFailed("put %s: %v", doc.Key, err).WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists, err := s.read(doc.Key)
	if err != nil {
		return api.Revision{}, err
	}
	var current api.Revision
	if exists {
		if current, err = s.revision(doc.Key); err != nil {
			return api.Revision{}, err
		}
	}
	switch {
	case current == doc.Revision:
	case current.GreaterThan(doc.Revision):
		return api.Revision{}, api.PersistenceFailed("document %s changed: stored revision %d.%d, expected %d.%d",
			doc.Key, current.Main, current.Sub, doc.Revision.Main, doc.Revision.Sub)
	default:
		return api.Revision{}, api.PersistenceFailed("document %s is at revision %d.%d, behind the expected %d.%d",
			doc.Key, current.Main, current.Sub, doc.Revision.Main, doc.Revision.Sub)
	}

	next := current
	next.Add()

	name, _ := s.path(doc.Key, documentExt)
	if err = s.write(name, []byte(doc.Text)); err != nil {
		return api.Revision{}, api.PersistenceFailed("write document %s: %v", doc.Key, err).WithCause(err)
	}
	revName, _ := s.path(doc.Key, revisionExt)
	if err = s.write(revName, next.ToBytes()); err != nil {
		s.restore(name, prev, exists)
		return api.Revision{}, api.PersistenceFailed("write revision of %s: %v", doc.Key, err).WithCause(err)
	}

	log.Debugf("stored document %s at revision %d.%d", doc.Key, next.Main, next.Sub)
	return next, nil
}

// restore puts back the document text replaced by a Put that could not finish.
func (s *FileStore) restore(name string, prev []byte, exists bool) {
	var err error
	if exists {
		err = s.write(name, prev)
	} else {
		err = os.Remove(name)
	}
	if err != nil {
		log.Errorf("restore %s: %v", name, err)
	}
}

// writeFile replaces name through a temporary file so readers never see partial content.
func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(name), "."+uuid.New().String()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vine-io/flowview/api"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, "orders/main")
	assert.ErrorIs(t, err, api.NotFound(""))

	rev, err := s.Put(ctx, &Document{Key: "orders/main", Text: "<a/>"})
	require.NoError(t, err)
	assert.Equal(t, api.Revision{Sub: 1}, rev)

	doc, err := s.Get(ctx, "orders/main")
	require.NoError(t, err)
	assert.Equal(t, "<a/>", doc.Text)
	assert.Equal(t, rev, doc.Revision)

	doc.Text = "<b/>"
	next, err := s.Put(ctx, doc)
	require.NoError(t, err)
	assert.True(t, next.GreaterThan(rev))

	// stale revision
	_, err = s.Put(ctx, &Document{Key: "orders/main", Text: "<c/>", Revision: rev})
	assert.True(t, api.IsPersistenceFailed(err))

	// creating over an existing key
	_, err = s.Put(ctx, &Document{Key: "orders/main", Text: "<c/>"})
	assert.True(t, api.IsPersistenceFailed(err))

	doc, err = s.Get(ctx, "orders/main")
	require.NoError(t, err)
	assert.Equal(t, "<b/>", doc.Text)
}

func TestFileStoreKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Put(ctx, &Document{Key: "../escape", Text: "x"})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "escape.bpmn"))
	assert.NoError(t, err)

	_, err = s.Put(ctx, &Document{Key: "", Text: "x"})
	assert.Error(t, err)

	_, err = s.Put(ctx, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Put(ctx, &Document{Key: "late", Text: "x"})
	assert.True(t, api.IsPersistenceFailed(err))
}

func TestFileStoreWithoutRevisionFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.bpmn"), []byte("<a/>"), 0o644))

	// zero means the key must be free
	_, err = s.Put(ctx, &Document{Key: "legacy", Text: "<b/>"})
	assert.True(t, api.IsPersistenceFailed(err), "%v", err)

	doc, err := s.Get(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "<a/>", doc.Text)
	assert.Equal(t, api.Revision{Sub: 1}, doc.Revision)

	doc.Text = "<b/>"
	rev, err := s.Put(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, api.Revision{Sub: 2}, rev)

	// a revision the store never handed out
	_, err = s.Put(ctx, &Document{Key: "legacy", Text: "<c/>", Revision: api.Revision{Main: 9}})
	assert.True(t, api.IsPersistenceFailed(err), "%v", err)
}

func TestFileStoreRollback(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	rev, err := s.Put(ctx, &Document{Key: "orders", Text: "<a/>"})
	require.NoError(t, err)

	s.write = func(name string, data []byte) error {
		if strings.HasSuffix(name, revisionExt) {
			return os.ErrPermission
		}
		return writeFile(name, data)
	}

	_, err = s.Put(ctx, &Document{Key: "orders", Text: "<b/>", Revision: rev})
	assert.True(t, api.IsPersistenceFailed(err), "%v", err)
	_, err = s.Put(ctx, &Document{Key: "fresh", Text: "<b/>"})
	assert.True(t, api.IsPersistenceFailed(err), "%v", err)

	s.write = writeFile
	doc, err := s.Get(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "<a/>", doc.Text)
	assert.Equal(t, rev, doc.Revision)

	_, err = s.Get(ctx, "fresh")
	assert.ErrorIs(t, err, api.NotFound(""))
}

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
	"path"
	"time"

	log "github.com/vine-io/vine/lib/logger"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/vine-io/flowview/api"
)

const DefaultPrefix = "/flowview/documents"

var _ Store = (*EtcdStore)(nil)

// EtcdStore keeps documents as values under a key prefix. The document revision is the
// etcd ModRevision of its key, Put is a compare-and-swap on it.
type EtcdStore struct {
	client *clientv3.Client
	prefix string
}

func NewEtcdStore(client *clientv3.Client, prefix string) *EtcdStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &EtcdStore{client: client, prefix: prefix}
}

// DialEtcd connects to the given endpoints the way every command of the tool does.
func DialEtcd(endpoints []string, timeout time.Duration) (*clientv3.Client, error) {
	conn, err := clientv3.New(clientv3.Config{
		Endpoints:            endpoints,
		AutoSyncInterval:     0,
		DialTimeout:          timeout,
		DialKeepAliveTime:    time.Second * 30,
		DialKeepAliveTimeout: time.Second * 15,
	})
	if err != nil {
		return nil, api.PersistenceFailed("connect to etcd %v: %v", endpoints, err).WithCause(err)
	}
	return conn, nil
}

func (s *EtcdStore) key(key string) string {
	return path.Join(s.prefix, key)
}

func (s *EtcdStore) Get(ctx context.Context, key string) (*Document, error) {
	rsp, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		return nil, api.PersistenceFailed("get document %s: %v", key, err).WithCause(err)
	}
	if len(rsp.Kvs) == 0 {
		return nil, api.NotFound("document %s not exists", key)
	}

	kv := rsp.Kvs[0]
	return &Document{
		Key:      key,
		Text:     string(kv.Value),
		Revision: api.Revision{Main: uint64(kv.ModRevision)},
	}, nil
}

func (s *EtcdStore) Put(ctx context.Context, doc *Document) (api.Revision, error) {
	if doc == nil {
		return api.Revision{}, api.BadRequest("missing document")
	}

	key := s.key(doc.Key)
	var cmp clientv3.Cmp
	if doc.Revision.IsZone() {
		cmp = clientv3.Compare(clientv3.CreateRevision(key), "=", 0)
	} else {
		cmp = clientv3.Compare(clientv3.ModRevision(key), "=", int64(doc.Revision.Main))
	}

	rsp, err := s.client.Txn(ctx).
		If(cmp).
		Then(clientv3.OpPut(key, doc.Text)).
		Commit()
	if err != nil {
		return api.Revision{}, api.PersistenceFailed("save document %s to etcd: %v", doc.Key, err).WithCause(err)
	}
	if !rsp.Succeeded {
		return api.Revision{}, api.PersistenceFailed("document %s changed since revision %d", doc.Key, doc.Revision.Main)
	}

	rev := api.Revision{Main: uint64(rsp.Header.Revision)}
	log.Debugf("stored document %s at etcd revision %d", doc.Key, rev.Main)
	return rev, nil
}

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
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vine-io/flowview/api"
)

const etcdPort = nat.Port("2379/tcp")

func testNewEtcdStore(t *testing.T) *EtcdStore {
	if testing.Short() {
		t.Skip("etcd container skipped in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "quay.io/coreos/etcd:v3.5.7",
		ExposedPorts: []string{string(etcdPort)},
		Cmd: []string{
			"etcd",
			"--listen-client-urls=http://0.0.0.0:2379",
			"--advertise-client-urls=http://0.0.0.0:2379",
		},
		WaitingFor: wait.ForListeningPort(etcdPort).WithStartupTimeout(time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, etcdPort)
	require.NoError(t, err)

	conn, err := DialEtcd([]string{fmt.Sprintf("%s:%s", host, port.Port())}, time.Second*3)
	require.NoError(t, err, "connect to etcd server")
	t.Cleanup(func() { _ = conn.Close() })

	return NewEtcdStore(conn, "")
}

func TestEtcdStore(t *testing.T) {
	s := testNewEtcdStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := s.Get(ctx, "orders")
	assert.ErrorIs(t, err, api.NotFound(""))

	rev, err := s.Put(ctx, &Document{Key: "orders", Text: "<a/>"})
	require.NoError(t, err)
	assert.False(t, rev.IsZone())

	doc, err := s.Get(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "<a/>", doc.Text)
	assert.Equal(t, rev, doc.Revision)

	doc.Text = "<b/>"
	next, err := s.Put(ctx, doc)
	require.NoError(t, err)
	assert.True(t, next.GreaterThan(rev))

	// a writer still holding the first revision loses
	_, err = s.Put(ctx, &Document{Key: "orders", Text: "<c/>", Revision: rev})
	assert.True(t, api.IsPersistenceFailed(err))

	_, err = s.Put(ctx, &Document{Key: "orders", Text: "<c/>"})
	assert.True(t, api.IsPersistenceFailed(err))
}

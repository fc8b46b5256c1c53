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

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vine-io/flowview"
	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/config"
	"github.com/vine-io/flowview/store"
)

// globalOptions defines the flags shared by every command.
type globalOptions struct {
	configPath string
	storeKind  string

	cfg *config.Config
}

func newGlobalOptions() *globalOptions {
	return &globalOptions{}
}

func (o *globalOptions) addFlags(c *cobra.Command) {
	if o == nil {
		return
	}
	c.PersistentFlags().StringVar(&o.configPath, "config", config.DefaultPath, "path of the configuration file")
	c.PersistentFlags().StringVar(&o.storeKind, "store", "", "document store, file or etcd (overrides the configuration)")
}

// load reads the configuration, applying the flag overrides.
func (o *globalOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.storeKind != "" {
		cfg.Store.Kind = o.storeKind
		if err = cfg.Validate(); err != nil {
			return err
		}
	}
	o.cfg = cfg
	return nil
}

// newStore connects to the configured document store. The returned func releases it.
func (o *globalOptions) newStore() (store.Store, func(), error) {
	switch o.cfg.Store.Kind {
	case config.StoreEtcd:
		conn, err := store.DialEtcd(o.cfg.Store.Endpoints, o.cfg.Store.DialTimeout)
		if err != nil {
			return nil, nil, err
		}
		return store.NewEtcdStore(conn, o.cfg.Store.Prefix), func() { _ = conn.Close() }, nil
	default:
		s, err := store.NewFileStore(o.cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func (o *globalOptions) newSession(s store.Store, orientation api.Orientation) *flowview.Session {
	opts := o.cfg.Layout.Options()
	opts.Orientation = orientation
	return flowview.NewSession(s,
		flowview.WithLayoutOptions(opts),
		flowview.WithWorkers(o.cfg.Warm.Workers))
}

func readDocument(name string) (string, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return "", api.BadRequest("read %s: %v", name, err).WithCause(err)
	}
	return string(data), nil
}

// newCmdRoot creates the `flowview` command.
func newCmdRoot() *cobra.Command {
	o := newGlobalOptions()

	cmds := &cobra.Command{
		Use:           "flowview",
		Short:         "Navigate nested BPMN process diagrams and edit task metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load()
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	o.addFlags(cmds)

	cmds.AddCommand(
		newCmdScopes(o),
		newCmdProject(o),
		newCmdSetTask(o),
		newCmdNew(o),
	)

	return cmds
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

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
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/navigator"
	"github.com/vine-io/flowview/render"
	"github.com/vine-io/flowview/scope"
)

const (
	formatJSON = "json"
	formatSVG  = "svg"
	formatDOT  = "dot"
)

// projectOptions defines flags for the `project` command.
type projectOptions struct {
	*globalOptions

	scopePath   string
	orientation string
	format      string
	all         bool
}

func (o *projectOptions) addFlags(c *cobra.Command) {
	c.Flags().StringVar(&o.scopePath, "scope", "", "slash separated sub-process ids to drill into, e.g. SP1/SP1_1")
	c.Flags().StringVar(&o.orientation, "orientation", "", "TB or LR, defaults to the configured orientation")
	c.Flags().StringVarP(&o.format, "format", "o", formatJSON, "output format: json, svg or dot")
	c.Flags().BoolVar(&o.all, "all", false, "lay out every scope, json only")
}

func (o *projectOptions) validate() (api.Orientation, error) {
	switch o.format {
	case formatJSON, formatSVG, formatDOT:
	default:
		return 0, api.BadRequest("unknown format %q", o.format)
	}
	if o.all && o.format != formatJSON {
		return 0, api.BadRequest("--all supports json output only")
	}
	if o.orientation == "" {
		return o.cfg.Layout.Orientation, nil
	}
	orientation, ok := api.ParseOrientation(o.orientation)
	if !ok {
		return 0, api.BadRequest("unknown orientation %q", o.orientation)
	}
	return orientation, nil
}

// scopeGraph is one entry of the --all output.
type scopeGraph struct {
	Path  []string     `json:"path"`
	Graph *scope.Graph `json:"graph"`
}

func (o *projectOptions) run(ctx context.Context, w io.Writer, name string, orientation api.Orientation) error {
	text, err := readDocument(name)
	if err != nil {
		return err
	}
	s := o.newSession(nil, orientation)
	if err = s.Ingest("", text); err != nil {
		return err
	}
	nav := s.Navigator()

	if o.all {
		if err = s.Warm(ctx); err != nil {
			return err
		}
		out := make([]scopeGraph, 0)
		for _, info := range s.Model().Scopes() {
			if err = drill(nav, info.Path); err != nil {
				return err
			}
			view := nav.View()
			g := view.Root
			if view.Nested != nil {
				g = view.Nested
			}
			out = append(out, scopeGraph{Path: info.Path, Graph: g})
		}
		return writeJSON(w, out)
	}

	if err = drill(nav, splitPath(o.scopePath)); err != nil {
		return err
	}
	view := nav.View()
	g := view.Root
	if view.Nested != nil {
		g = view.Nested
	}

	switch o.format {
	case formatSVG:
		data, err := render.SVG(ctx, g)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case formatDOT:
		_, err = io.WriteString(w, render.DOT(g))
		return err
	default:
		return writeJSON(w, view)
	}
}

// drill returns to the root and follows path one sub-process at a time.
func drill(nav *navigator.Controller, path []string) error {
	nav.NavigateTo(0)
	for i, id := range path {
		if !nav.DrillInto(id) {
			return api.ElementNotFound("sub-process %s not found in scope /%s", id, strings.Join(path[:i], "/"))
		}
	}
	return nil
}

func splitPath(text string) []string {
	out := make([]string, 0)
	for _, id := range strings.Split(text, "/") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := render.JSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// newCmdProject creates the `project` command.
func newCmdProject(g *globalOptions) *cobra.Command {
	o := &projectOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "project FILE",
		Short: "Project and lay out one scope of a diagram document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orientation, err := o.validate()
			if err != nil {
				return err
			}
			return o.run(commandContext(cmd), cmd.OutOrStdout(), args[0], orientation)
		},
	}
	o.addFlags(cmd)

	return cmd
}

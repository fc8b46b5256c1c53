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
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
	"github.com/vine-io/flowview/render"
)

// scopesOptions defines flags for the `scopes` command.
type scopesOptions struct {
	*globalOptions

	format string
}

func (o *scopesOptions) addFlags(c *cobra.Command) {
	c.Flags().StringVarP(&o.format, "format", "o", "text", "output format, text or json")
}

func (o *scopesOptions) validate() error {
	if o.format != "text" && o.format != "json" {
		return api.BadRequest("unknown format %q", o.format)
	}
	return nil
}

func (o *scopesOptions) run(w io.Writer, name string) error {
	text, err := readDocument(name)
	if err != nil {
		return err
	}
	model, err := bpmn.FromXML(text)
	if err != nil {
		return err
	}

	scopes := model.Scopes()
	if o.format == "json" {
		data, err := render.JSON(scopes)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	for _, s := range scopes {
		indent := strings.Repeat("  ", s.Depth)
		if s.Depth == 0 {
			fmt.Fprintf(w, "%s (root)\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "%s%s [%s]\n", indent, s.Name, strings.Join(s.Path, "/"))
	}
	return nil
}

// newCmdScopes creates the `scopes` command.
func newCmdScopes(g *globalOptions) *cobra.Command {
	o := &scopesOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "scopes FILE",
		Short: "Print the scope tree of a diagram document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			return o.run(cmd.OutOrStdout(), args[0])
		},
	}
	o.addFlags(cmd)

	return cmd
}

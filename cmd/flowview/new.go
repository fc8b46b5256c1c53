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
	"os"

	"github.com/spf13/cobra"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
	"github.com/vine-io/flowview/builder"
	"github.com/vine-io/flowview/store"
)

// newOptions defines flags for the `new` command.
type newOptions struct {
	*globalOptions

	orientation string
	out         string
	key         string
}

func (o *newOptions) addFlags(c *cobra.Command) {
	c.Flags().StringVar(&o.orientation, "orientation", "LR", "orientation of the diagram shapes, TB or LR")
	c.Flags().StringVar(&o.out, "out", "", "write the document to this file instead of stdout")
	c.Flags().StringVar(&o.key, "key", "", "also create the document in the store under this key")
}

// sampleDocument builds an order process with two levels of sub-processes.
func sampleDocument(name string, orientation api.Orientation) (string, error) {
	review, err := builder.NewTaskBuilder("userTask", "Review order").
		SetConfig(&bpmn.TaskConfig{Type: bpmn.Information, AssignedRoles: []string{"clerk"}}).
		Out()
	if err != nil {
		return "", err
	}

	ship := builder.NewSubProcessBuilder("Ship").
		Start().
		Append(builder.NewUserTask("Book courier")).
		Append(builder.NewTask("Hand over parcel")).
		End()
	fulfil := builder.NewSubProcessBuilder("Fulfil").
		Start().
		Append(builder.NewUserTask("Pack items")).
		Append(ship.Elem()).
		End()

	gw := builder.NewExclusiveGateway("Approved?")
	d, p := builder.NewProcessDefinitionsBuilder(name)
	p.Start().
		Append(review).
		Append(gw).
		Append(fulfil.Elem()).
		End().
		Seek(gw.ID()).
		Append(builder.NewEndEvent())

	return d.Orientation(orientation).ToXML()
}

func (o *newOptions) run(ctx context.Context, w io.Writer, name string) error {
	orientation, ok := api.ParseOrientation(o.orientation)
	if !ok {
		return api.BadRequest("unknown orientation %q", o.orientation)
	}
	text, err := sampleDocument(name, orientation)
	if err != nil {
		return err
	}

	if o.key != "" {
		st, closer, err := o.newStore()
		if err != nil {
			return err
		}
		defer closer()
		if _, err = st.Put(ctx, &store.Document{Key: o.key, Text: text}); err != nil {
			return err
		}
	}

	if o.out != "" {
		if err = os.WriteFile(o.out, []byte(text), 0o644); err != nil {
			return api.BadRequest("write %s: %v", o.out, err).WithCause(err)
		}
		return nil
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

// newCmdNew creates the `new` command.
func newCmdNew(g *globalOptions) *cobra.Command {
	o := &newOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Generate a sample diagram document with nested sub-processes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(commandContext(cmd), cmd.OutOrStdout(), args[0])
		},
	}
	o.addFlags(cmd)

	return cmd
}

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
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
)

type customFieldFile struct {
	Key      string `yaml:"key"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

// taskConfigFile is the YAML shape of a task configuration. duration may be written as a
// number or a string, it is read as an exact decimal.
type taskConfigFile struct {
	Type          string            `yaml:"type"`
	Duration      interface{}       `yaml:"duration"`
	AssignedRoles []string          `yaml:"assignedRoles"`
	AssignedUsers []string          `yaml:"assignedUsers"`
	Description   string            `yaml:"description"`
	CustomFields  []customFieldFile `yaml:"customFields"`
}

func (f *taskConfigFile) toConfig() (*bpmn.TaskConfig, error) {
	cfg := &bpmn.TaskConfig{
		Type:          bpmn.TaskType(f.Type),
		AssignedRoles: f.AssignedRoles,
		AssignedUsers: f.AssignedUsers,
		Description:   f.Description,
	}
	if f.Duration != nil {
		d, err := decimal.NewFromString(fmt.Sprint(f.Duration))
		if err != nil {
			return nil, api.BadRequest("duration: %v", err).WithCause(err)
		}
		cfg.Duration = d
	}
	if f.CustomFields != nil {
		cfg.CustomFields = make([]bpmn.CustomField, 0, len(f.CustomFields))
		for _, field := range f.CustomFields {
			cfg.CustomFields = append(cfg.CustomFields, bpmn.CustomField(field))
		}
	}
	return cfg, nil
}

func readTaskConfig(name string) (*bpmn.TaskConfig, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, api.BadRequest("read %s: %v", name, err).WithCause(err)
	}
	f := &taskConfigFile{}
	if err = yaml.Unmarshal(data, f); err != nil {
		return nil, api.BadRequest("decode %s: %v", name, err).WithCause(err)
	}
	return f.toConfig()
}

// setTaskOptions defines flags for the `set-task` command.
type setTaskOptions struct {
	*globalOptions

	key        string
	id         string
	configFile string
}

func (o *setTaskOptions) addFlags(c *cobra.Command) {
	c.Flags().StringVar(&o.key, "key", "", "store key of the document, defaults to the FILE base name")
	c.Flags().StringVar(&o.id, "id", "", "id of the task to configure")
	c.Flags().StringVar(&o.configFile, "config-file", "", "YAML file holding the task configuration")
}

func (o *setTaskOptions) validate(args []string) error {
	if o.id == "" {
		return api.BadRequest("--id is required")
	}
	if o.configFile == "" {
		return api.BadRequest("--config-file is required")
	}
	if o.key == "" {
		if len(args) == 0 {
			return api.BadRequest("--key is required when no FILE is given")
		}
		o.key = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	return nil
}

// run stores the task configuration. With a FILE the document is created under the key,
// without one the stored document is updated.
func (o *setTaskOptions) run(ctx context.Context, w io.Writer, args []string) error {
	cfg, err := readTaskConfig(o.configFile)
	if err != nil {
		return err
	}

	st, closer, err := o.newStore()
	if err != nil {
		return err
	}
	defer closer()

	s := o.newSession(st, o.cfg.Layout.Orientation)
	if len(args) > 0 {
		var text string
		if text, err = readDocument(args[0]); err != nil {
			return err
		}
		err = s.Ingest(o.key, text)
	} else {
		err = s.Load(ctx, o.key)
	}
	if err != nil {
		return err
	}

	if err = s.SaveTask(ctx, o.id, cfg); err != nil {
		return err
	}
	rev := s.Document().Revision
	_, err = fmt.Fprintf(w, "task %s saved to %s at revision %d.%d\n", o.id, o.key, rev.Main, rev.Sub)
	return err
}

// newCmdSetTask creates the `set-task` command.
func newCmdSetTask(g *globalOptions) *cobra.Command {
	o := &setTaskOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "set-task [FILE]",
		Short: "Write the metadata of one task and store the document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(args); err != nil {
				return err
			}
			return o.run(commandContext(cmd), cmd.OutOrStdout(), args)
		},
	}
	o.addFlags(cmd)

	return cmd
}

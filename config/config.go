package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/layout"
)

const DefaultPath = "~/.flowview.yaml"

const (
	StoreFile = "file"
	StoreEtcd = "etcd"
)

type Store struct {
	Kind        string        `yaml:"kind"`
	Dir         string        `yaml:"dir"`
	Endpoints   []string      `yaml:"endpoints"`
	Prefix      string        `yaml:"prefix"`
	DialTimeout time.Duration `yaml:"dialTimeout"`
}

type Layout struct {
	Orientation api.Orientation `yaml:"orientation"`
	NodeWidth   float64         `yaml:"nodeWidth"`
	NodeHeight  float64         `yaml:"nodeHeight"`
	RankSep     float64         `yaml:"rankSep"`
	NodeSep     float64         `yaml:"nodeSep"`
	Sweeps      int             `yaml:"sweeps"`
}

// Options converts the section into layout options.
func (l Layout) Options() layout.Options {
	return layout.Options{
		Orientation: l.Orientation,
		NodeWidth:   l.NodeWidth,
		NodeHeight:  l.NodeHeight,
		RankSep:     l.RankSep,
		NodeSep:     l.NodeSep,
		Sweeps:      l.Sweeps,
	}
}

type Warm struct {
	Workers int `yaml:"workers"`
}

type Config struct {
	Store  Store  `yaml:"store"`
	Layout Layout `yaml:"layout"`
	Warm   Warm   `yaml:"warm"`
}

func Default() *Config {
	return &Config{
		Store: Store{
			Kind:        StoreFile,
			Dir:         "~/.flowview/documents",
			Endpoints:   []string{"127.0.0.1:2379"},
			DialTimeout: time.Second * 3,
		},
		Layout: Layout{
			Orientation: api.TopBottom,
			NodeWidth:   layout.DefaultNodeWidth,
			NodeHeight:  layout.DefaultNodeHeight,
			RankSep:     layout.DefaultRankSep,
			NodeSep:     layout.DefaultNodeSep,
			Sweeps:      layout.DefaultSweeps,
		},
		Warm: Warm{Workers: 4},
	}
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Store),
		validation.Field(&c.Layout),
		validation.Field(&c.Warm),
	)
	if err != nil {
		return api.BadRequest("invalid config: %v", err).WithCause(err)
	}
	return nil
}

func (s Store) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Kind, validation.Required, validation.In(StoreFile, StoreEtcd)),
		validation.Field(&s.Dir, validation.When(s.Kind == StoreFile, validation.Required)),
		validation.Field(&s.Endpoints, validation.When(s.Kind == StoreEtcd, validation.Required), validation.Each(validation.Required)),
		validation.Field(&s.DialTimeout, validation.Min(time.Duration(0))),
	)
}

func (l Layout) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Orientation, validation.In(api.TopBottom, api.LeftRight)),
		validation.Field(&l.NodeWidth, validation.Min(0.0)),
		validation.Field(&l.NodeHeight, validation.Min(0.0)),
		validation.Field(&l.RankSep, validation.Min(0.0)),
		validation.Field(&l.NodeSep, validation.Min(0.0)),
		validation.Field(&l.Sweeps, validation.Min(0)),
	)
}

func (w Warm) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Workers, validation.Min(0)),
	)
}

// Load reads the YAML file at path over the defaults. A missing file yields the defaults.
// Paths starting with ~ are expanded.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	name, err := homedir.Expand(path)
	if err != nil {
		return nil, api.BadRequest("expand config path %s: %v", path, err).WithCause(err)
	}

	c := Default()
	data, err := os.ReadFile(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, api.BadRequest("read config %s: %v", name, err).WithCause(err)
	default:
		if err = yaml.Unmarshal(data, c); err != nil {
			return nil, api.BadRequest("decode config %s: %v", name, err).WithCause(err)
		}
	}

	if c.Store.Dir, err = homedir.Expand(c.Store.Dir); err != nil {
		return nil, api.BadRequest("expand store dir %s: %v", c.Store.Dir, err).WithCause(err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

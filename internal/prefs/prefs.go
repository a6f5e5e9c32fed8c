// Package prefs persists small string settings in a YAML file, the way a
// page would keep them in local storage.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	autoLoadKey    = "autoLoaderState"
	themeKey       = "readerTheme"
	lineSpacingKey = "readerLineSpacing"
)

// Appearance is how the reader draws chapter text. Zero fields mean the
// reader's defaults.
type Appearance struct {
	Theme       string
	LineSpacing int
}

type Prefs struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// Open loads path. A missing file is an empty store.
func Open(path string) (*Prefs, error) {
	p := &Prefs{path: path, values: map[string]string{}}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	if err := yaml.Unmarshal(b, &p.values); err != nil {
		return nil, fmt.Errorf("parse prefs %s: %w", path, err)
	}
	if p.values == nil {
		p.values = map[string]string{}
	}
	return p, nil
}

func (p *Prefs) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

func (p *Prefs) Set(key, value string) error {
	return p.setMany(map[string]string{key: value})
}

func (p *Prefs) setMany(kv map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range kv {
		p.values[k] = v
	}
	return p.save()
}

func (p *Prefs) save() error {
	b, err := yaml.Marshal(p.values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

// AutoLoad reports whether chapters load automatically. An unset flag is
// written as "false" on first read.
func (p *Prefs) AutoLoad() (bool, error) {
	v, ok := p.Get(autoLoadKey)
	if !ok {
		return false, p.SetAutoLoad(false)
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}
	return on, nil
}

func (p *Prefs) SetAutoLoad(on bool) error {
	return p.Set(autoLoadKey, strconv.FormatBool(on))
}

// Appearance returns the stored reader appearance. Unparsable spacing
// reads as zero.
func (p *Prefs) Appearance() Appearance {
	theme, _ := p.Get(themeKey)
	a := Appearance{Theme: theme}
	if v, ok := p.Get(lineSpacingKey); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			a.LineSpacing = n
		}
	}
	return a
}

func (p *Prefs) SetAppearance(a Appearance) error {
	return p.setMany(map[string]string{
		themeKey:       a.Theme,
		lineSpacingKey: strconv.Itoa(a.LineSpacing),
	})
}

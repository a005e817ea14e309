package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
)

// ResolvePath expands ${VAR} references and a leading ~ in file, then joins
// a relative result onto base.
func ResolvePath(base, file string) string {
	file = expandHome(os.ExpandEnv(file))
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// LoadFile decodes a go-zero config file (yaml, json or toml by extension)
// into a new T.
func LoadFile[T any](path string, useEnv bool) (*T, error) {
	var opts []conf.Option
	if useEnv {
		opts = append(opts, conf.UseEnv())
	}
	cfg := new(T)
	if err := conf.Load(path, cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Section is a block of the main config kept in its own file. Once
// hydrated, File holds the resolved path.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate loads File relative to base. A section without File stays
// unconfigured.
func (s *Section[T]) Hydrate(base string, load func(path string) (*T, error)) error {
	if strings.TrimSpace(s.File) == "" {
		return nil
	}
	path := ResolvePath(base, s.File)
	v, err := load(path)
	if err != nil {
		return err
	}
	s.File, s.Value = path, v
	return nil
}

// Configured reports whether the section was hydrated.
func (s *Section[T]) Configured() bool {
	return s != nil && s.Value != nil
}

// Resolve returns the hydrated value, or loads fallback (relative to the
// project root) when the main config did not reference a file.
func (s *Section[T]) Resolve(fallback string, load func(path string) (*T, error)) (*T, error) {
	if s.Configured() {
		return s.Value, nil
	}
	path, err := ProjectPath(fallback)
	if err != nil {
		return nil, err
	}
	v, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return v, nil
}

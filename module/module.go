// Package module is the assembler's Module Manager: it canonicalizes
// include paths against a configured search list and guarantees that each
// source file is loaded and parsed at most once, keyed by canonical path.
package module

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hivm-go/hivm/source"
)

// Manager owns every loaded source.Unit for one assembler run. Units are
// never removed or moved once inserted: callers (the lexer, parser and
// diagnostics) hold plain *source.Unit pointers into this map for the
// lifetime of the run.
type Manager struct {
	includePaths []string
	units        map[string]*source.Unit
	order        []string // canonical paths in first-load order, for deterministic iteration
}

// New creates a Module Manager that additionally searches includePaths
// (in order) when an include is not found relative to the including
// file's directory.
func New(includePaths []string) *Manager {
	return &Manager{
		includePaths: includePaths,
		units:        make(map[string]*source.Unit),
	}
}

// Load reads and registers the root source file. If a unit with the same
// canonical path is already registered, that unit is returned unchanged.
func (m *Manager) Load(path string) (*source.Unit, error) {
	canon, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve path %q", path)
	}
	return m.load(canon, path)
}

// Resolve finds the file named by path as an include appearing inside
// fromDir (the including unit's directory), trying fromDir first and then
// each configured include path in order. If a unit with the resulting
// canonical path is already loaded, it is returned unchanged and loaded
// is false, so that callers can skip re-parsing it (include idempotence).
func (m *Manager) Resolve(fromDir, path string) (unit *source.Unit, loaded bool, err error) {
	candidates := make([]string, 0, 1+len(m.includePaths))
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		candidates = append(candidates, filepath.Join(fromDir, path))
		for _, inc := range m.includePaths {
			candidates = append(candidates, filepath.Join(inc, path))
		}
	}

	var firstErr error
	for _, c := range candidates {
		canon, err := filepath.Abs(c)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, statErr := os.Stat(canon); statErr != nil {
			if firstErr == nil {
				firstErr = statErr
			}
			continue
		}
		if existing, ok := m.units[canon]; ok {
			return existing, false, nil
		}
		u, err := m.load(canon, c)
		if err != nil {
			return nil, false, err
		}
		return u, true, nil
	}
	if firstErr == nil {
		firstErr = errors.Errorf("include %q not found", path)
	}
	return nil, false, errors.Wrapf(firstErr, "cannot resolve include %q", path)
}

func (m *Manager) load(canon, displayPath string) (*source.Unit, error) {
	if u, ok := m.units[canon]; ok {
		return u, nil
	}
	data, err := os.ReadFile(canon)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q", displayPath)
	}
	u := source.NewUnit(canon, string(data))
	m.units[canon] = u
	m.order = append(m.order, canon)
	return u, nil
}

// Units returns every loaded unit in load order.
func (m *Manager) Units() []*source.Unit {
	out := make([]*source.Unit, len(m.order))
	for i, p := range m.order {
		out[i] = m.units[p]
	}
	return out
}

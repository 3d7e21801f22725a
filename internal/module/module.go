// Package module implements the module manager (C11): canonical and alias
// name tables, export resolution, and the pointer-equality contract
// find_module(alias) == find_module(canonical) requires.
package module

import "fmt"

// ExportKind discriminates what a module export names.
type ExportKind int

const (
	ExportFunction ExportKind = iota
	ExportValue
	ExportType
)

// Export is one entry of a module's export table (spec.md §3).
type Export struct {
	Name            string
	Kind            ExportKind
	RegisterID      int
	Type            string // optional, empty when not applicable
	IntrinsicSymbol string // optional
	FunctionIndex   int
}

// Module is a compiled unit's handle: its canonical name and export table.
type Module struct {
	Name    string
	Exports map[string]*Export
}

func newModule(name string) *Module {
	return &Module{Name: name, Exports: make(map[string]*Export)}
}

// Manager owns every loaded module for one compilation/VM lifetime.
type Manager struct {
	canonical map[string]*Module
	alias     map[string]string // alias -> canonical name
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		canonical: make(map[string]*Module),
		alias:     make(map[string]string),
	}
}

// LoadModule registers a new canonical module and returns its handle. It is
// an error to register the same canonical name twice.
func (m *Manager) LoadModule(name string) (*Module, error) {
	if _, exists := m.canonical[name]; exists {
		return nil, fmt.Errorf("module: %q already loaded", name)
	}
	mod := newModule(name)
	m.canonical[name] = mod
	return mod, nil
}

// AliasModule registers alias as another name for canonical. Fails if
// canonical does not exist or alias is already registered (as either an
// alias or a canonical name).
func (m *Manager) AliasModule(canonical, alias string) error {
	if _, exists := m.canonical[canonical]; !exists {
		return fmt.Errorf("module: canonical %q does not exist", canonical)
	}
	if _, exists := m.alias[alias]; exists {
		return fmt.Errorf("module: alias %q already registered", alias)
	}
	if _, exists := m.canonical[alias]; exists {
		return fmt.Errorf("module: alias %q collides with a canonical module name", alias)
	}
	m.alias[alias] = canonical
	return nil
}

// FindModule returns the module handle for name, following an alias to its
// canonical module when name is an alias. Returns the same *Module pointer
// for an alias and its canonical name.
func (m *Manager) FindModule(name string) (*Module, bool) {
	if canonical, ok := m.alias[name]; ok {
		name = canonical
	}
	mod, ok := m.canonical[name]
	return mod, ok
}

// ResolveExport follows aliases and returns the canonical module's export
// table entry for symbol.
func (m *Manager) ResolveExport(name, symbol string) (*Export, error) {
	mod, ok := m.FindModule(name)
	if !ok {
		return nil, fmt.Errorf("module: %q not found", name)
	}
	exp, ok := mod.Exports[symbol]
	if !ok {
		return nil, fmt.Errorf("module: %q has no export %q", mod.Name, symbol)
	}
	return exp, nil
}

// DeclareExport adds an export entry to mod's table.
func (mod *Module) DeclareExport(exp *Export) {
	mod.Exports[exp.Name] = exp
}

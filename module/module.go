// Package module implements the dynamic Mailbox loader: a traeger module
// is a Go plugin (.so) exposing a single well-known init symbol that
// builds a Mailbox from a configuration Map, mirroring the original's
// dlopen/LoadLibrary-based plugin loading.
package module

import (
	"fmt"
	"plugin"

	"github.com/czx-lab/traeger/actor"
	"github.com/czx-lab/traeger/value"
)

// InitSymbol is the exported symbol name every module plugin must define,
// with type InitFunc.
const InitSymbol = "TraegerModuleInit"

// InitFunc is the signature a module plugin's InitSymbol must have: given
// its configuration, it builds and returns the Mailbox the module exposes.
type InitFunc func(config value.Map) (actor.Mailbox, error)

// Load opens the plugin at path, resolves its InitSymbol, and calls it
// with config. The returned Mailbox keeps the *plugin.Plugin handle
// referenced for as long as it survives — Go plugins are never unloaded,
// but this mirrors the original's shared-ownership contract between the
// library handle and the Mailbox it produced.
func Load(path string, config value.Map) (actor.Mailbox, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("module: opening %s: %w", path, err)
	}

	sym, err := p.Lookup(InitSymbol)
	if err != nil {
		return nil, fmt.Errorf("module: %s missing %s: %w", path, InitSymbol, err)
	}

	init, ok := sym.(func(value.Map) (actor.Mailbox, error))
	if !ok {
		return nil, fmt.Errorf("module: %s's %s has the wrong signature", path, InitSymbol)
	}

	mailbox, err := init(config)
	if err != nil {
		return nil, fmt.Errorf("module: %s initialization failed: %w", path, err)
	}

	return &loadedModule{plugin: p, Mailbox: mailbox}, nil
}

// loadedModule pins a *plugin.Plugin alongside the Mailbox it produced, so
// the plugin handle is reachable (and therefore not finalized) for
// exactly as long as the Mailbox it backs is in use.
type loadedModule struct {
	plugin *plugin.Plugin
	actor.Mailbox
}

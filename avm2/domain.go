package avm2

import (
	"github.com/noctilia/ruffle/gc"
)

// ---------------------------------------------------------------------------
// Domain: namespace of qualified global names
// ---------------------------------------------------------------------------

// Domain maps qualified names to their defining scripts. Lookup checks local
// bindings first and then delegates to the parent domain; the global domain
// has no parent and terminates resolution with a definitive not-found.
type Domain struct {
	parent *Domain
	defs   map[QName]*Script
}

// GlobalDomain creates the root domain of an interpreter.
func GlobalDomain(mc *gc.Mutation) *Domain {
	return NewDomain(mc, nil)
}

// NewDomain creates a domain delegating failed lookups to parent.
func NewDomain(mc *gc.Mutation, parent *Domain) *Domain {
	d := &Domain{
		parent: parent,
		defs:   make(map[QName]*Script),
	}
	mc.Allocate(d)
	return d
}

// Parent returns the fallback domain, or nil for the global domain.
func (d *Domain) Parent() *Domain {
	return d.parent
}

// GetDefiningScript resolves a qualified name to the script defining it,
// delegating to the parent domain when the name is not bound locally.
func (d *Domain) GetDefiningScript(name QName) (*Script, bool) {
	if script, ok := d.defs[name]; ok {
		return script, true
	}
	if d.parent != nil {
		return d.parent.GetDefiningScript(name)
	}
	return nil, false
}

// HasDefinition reports whether the name resolves in this domain chain.
func (d *Domain) HasDefinition(name QName) bool {
	_, ok := d.GetDefiningScript(name)
	return ok
}

// HasLocalDefinition reports whether the name is bound in this domain
// without consulting the parent.
func (d *Domain) HasLocalDefinition(name QName) bool {
	_, ok := d.defs[name]
	return ok
}

// ExportDefinition binds a qualified name to its defining script.
func (d *Domain) ExportDefinition(name QName, script *Script, mc *gc.Mutation) {
	d.defs[name] = script
}

// GetDefined resolves a name to the value exported by its defining script's
// globals, running the script initializer if it has not run yet.
func (d *Domain) GetDefined(name QName, ctx *Context) (Value, bool, error) {
	script, ok := d.GetDefiningScript(name)
	if !ok {
		return Undefined, false, nil
	}
	globals, err := script.Globals(ctx)
	if err != nil {
		return Undefined, false, err
	}
	v, ok := globals.ResolveProperty(name)
	return v, ok, nil
}

// Trace marks the parent domain and every defining script.
func (d *Domain) Trace(mark func(gc.Object)) {
	if d.parent != nil {
		mark(d.parent)
	}
	for _, script := range d.defs {
		mark(script)
	}
}

package avm2

import (
	"testing"

	"github.com/noctilia/ruffle/gc"
)

func TestDomainDelegatesToParent(t *testing.T) {
	heap := gc.NewHeap()
	heap.Mutate(func(mc *gc.Mutation) error {
		parent := GlobalDomain(mc)
		child := NewDomain(mc, parent)

		name := PublicQName("Shape")
		script := NewNativeScript(mc, NewScriptObject(mc, nil))
		parent.ExportDefinition(name, script, mc)

		got, ok := child.GetDefiningScript(name)
		if !ok || got != script {
			t.Error("child did not resolve parent definition")
		}
		if child.HasLocalDefinition(name) {
			t.Error("parent definition reported as local")
		}
		if !child.HasDefinition(name) {
			t.Error("HasDefinition false for inherited name")
		}
		return nil
	})
}

func TestDomainLocalShadowsParent(t *testing.T) {
	heap := gc.NewHeap()
	heap.Mutate(func(mc *gc.Mutation) error {
		parent := GlobalDomain(mc)
		child := NewDomain(mc, parent)

		name := PublicQName("Shape")
		parentScript := NewNativeScript(mc, NewScriptObject(mc, nil))
		childScript := NewNativeScript(mc, NewScriptObject(mc, nil))
		parent.ExportDefinition(name, parentScript, mc)
		child.ExportDefinition(name, childScript, mc)

		got, _ := child.GetDefiningScript(name)
		if got != childScript {
			t.Error("local definition did not shadow parent")
		}
		got, _ = parent.GetDefiningScript(name)
		if got != parentScript {
			t.Error("parent definition clobbered by child export")
		}
		return nil
	})
}

func TestDomainUnknownName(t *testing.T) {
	heap := gc.NewHeap()
	heap.Mutate(func(mc *gc.Mutation) error {
		d := GlobalDomain(mc)
		if _, ok := d.GetDefiningScript(PublicQName("nope")); ok {
			t.Error("unknown name resolved")
		}
		return nil
	})
}

func TestQNameDistinguishesNamespaces(t *testing.T) {
	heap := gc.NewHeap()
	heap.Mutate(func(mc *gc.Mutation) error {
		d := GlobalDomain(mc)
		script := NewNativeScript(mc, NewScriptObject(mc, nil))
		d.ExportDefinition(NewQName("flash.net", "SharedObject"), script, mc)

		if _, ok := d.GetDefiningScript(PublicQName("SharedObject")); ok {
			t.Error("public lookup resolved a flash.net definition")
		}
		if _, ok := d.GetDefiningScript(NewQName("flash.net", "SharedObject")); !ok {
			t.Error("qualified lookup failed")
		}
		return nil
	})
}

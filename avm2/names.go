package avm2

import "fmt"

// ---------------------------------------------------------------------------
// Qualified names
// ---------------------------------------------------------------------------

// QName is a namespace-qualified name. The empty namespace is the public
// package namespace. QNames are comparable and used as property and domain
// keys.
type QName struct {
	NS    string
	Local string
}

// NewQName creates a qualified name in the given namespace.
func NewQName(ns, local string) QName {
	return QName{NS: ns, Local: local}
}

// PublicQName creates a qualified name in the public namespace.
func PublicQName(local string) QName {
	return QName{Local: local}
}

// String renders the name as ns::local, or just local for public names.
func (n QName) String() string {
	if n.NS == "" {
		return n.Local
	}
	return fmt.Sprintf("%s::%s", n.NS, n.Local)
}

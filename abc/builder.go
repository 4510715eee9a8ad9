package abc

import (
	"math"
)

// ---------------------------------------------------------------------------
// Builder: assembles ABC containers
// ---------------------------------------------------------------------------

// Builder assembles a well-formed ABC container from programmatic input.
// Pool entries are deduplicated; index 0 of every pool is the implicit
// empty entry, as in the binary format.
type Builder struct {
	ints       []int32
	uints      []uint32
	doubles    []float64
	strings    []string
	namespaces []Namespace
	nsSets     [][]uint32
	multinames []Multiname

	methods []MethodInfo
	scripts []ScriptInfo
	bodies  []MethodBody

	stringIndex map[string]uint32
	nsIndex     map[Namespace]uint32
	qnameIndex  map[qnameKey]uint32
}

// qnameKey identifies an interned QName. Multiname itself carries a slice
// field and cannot key a map; QNames never use it.
type qnameKey struct {
	kind byte
	ns   uint32
	name uint32
}

// NewBuilder creates a Builder with empty pools.
func NewBuilder() *Builder {
	return &Builder{
		ints:        []int32{0},
		uints:       []uint32{0},
		doubles:     []float64{0},
		strings:     []string{""},
		namespaces:  []Namespace{{}},
		nsSets:      [][]uint32{nil},
		multinames:  []Multiname{{}},
		stringIndex: make(map[string]uint32),
		nsIndex:     make(map[Namespace]uint32),
		qnameIndex:  make(map[qnameKey]uint32),
	}
}

// StringConst interns s in the string pool and returns its index.
func (b *Builder) StringConst(s string) uint32 {
	if s == "" {
		return 0
	}
	if i, ok := b.stringIndex[s]; ok {
		return i
	}
	i := uint32(len(b.strings))
	b.strings = append(b.strings, s)
	b.stringIndex[s] = i
	return i
}

// IntConst adds v to the integer pool and returns its index.
func (b *Builder) IntConst(v int32) uint32 {
	b.ints = append(b.ints, v)
	return uint32(len(b.ints) - 1)
}

// UIntConst adds v to the unsigned integer pool and returns its index.
func (b *Builder) UIntConst(v uint32) uint32 {
	b.uints = append(b.uints, v)
	return uint32(len(b.uints) - 1)
}

// DoubleConst adds v to the double pool and returns its index.
func (b *Builder) DoubleConst(v float64) uint32 {
	b.doubles = append(b.doubles, v)
	return uint32(len(b.doubles) - 1)
}

// Namespace interns a namespace of the given kind and name.
func (b *Builder) Namespace(kind byte, name string) uint32 {
	ns := Namespace{Kind: kind, Name: b.StringConst(name)}
	if i, ok := b.nsIndex[ns]; ok {
		return i
	}
	i := uint32(len(b.namespaces))
	b.namespaces = append(b.namespaces, ns)
	b.nsIndex[ns] = i
	return i
}

// PackageNamespace interns a package namespace; "" is the public package.
func (b *Builder) PackageNamespace(name string) uint32 {
	return b.Namespace(NsPackage, name)
}

// QName interns a QName multiname with the given namespace index and local
// name, returning its multiname pool index.
func (b *Builder) QName(ns uint32, local string) uint32 {
	key := qnameKey{kind: MnQName, ns: ns, name: b.StringConst(local)}
	if i, ok := b.qnameIndex[key]; ok {
		return i
	}
	i := uint32(len(b.multinames))
	b.multinames = append(b.multinames, Multiname{Kind: key.kind, Namespace: key.ns, Name: key.name})
	b.qnameIndex[key] = i
	return i
}

// PublicQName interns a QName in the public package namespace.
func (b *Builder) PublicQName(local string) uint32 {
	return b.QName(b.PackageNamespace(""), local)
}

// AddMethod adds a method signature and returns its method index.
func (b *Builder) AddMethod(name string, paramCount int) uint32 {
	m := MethodInfo{
		Name:       b.StringConst(name),
		ParamTypes: make([]uint32, paramCount),
	}
	b.methods = append(b.methods, m)
	return uint32(len(b.methods) - 1)
}

// AddBody attaches a bytecode body to a method.
func (b *Builder) AddBody(method uint32, maxStack, localCount, maxScopeDepth uint32, code []byte) {
	b.bodies = append(b.bodies, MethodBody{
		Method:        method,
		MaxStack:      maxStack,
		LocalCount:    localCount,
		MaxScopeDepth: maxScopeDepth,
		Code:          code,
	})
}

// SlotTrait builds a slot trait for the given QName multiname index.
func (b *Builder) SlotTrait(name uint32, slotID uint32) Trait {
	return Trait{Name: name, Kind: TraitSlot, SlotID: slotID}
}

// AddScript adds a script entry (initializer method plus traits) and
// returns its script index.
func (b *Builder) AddScript(init uint32, traits ...Trait) uint32 {
	b.scripts = append(b.scripts, ScriptInfo{Init: init, Traits: traits})
	return uint32(len(b.scripts) - 1)
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

type writer struct {
	buf []byte
}

func (w *writer) u8(v byte) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

func (w *writer) u30(v uint32) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			w.buf = append(w.buf, b|0x80)
		} else {
			w.buf = append(w.buf, b)
			return
		}
	}
}

func (w *writer) d64(v float64) {
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		w.buf = append(w.buf, byte(bits>>(8*i)))
	}
}

func (w *writer) str(s string) {
	w.u30(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) poolCount(n int) {
	// Pools with only the implicit entry are written with count 0.
	if n <= 1 {
		w.u30(0)
		return
	}
	w.u30(uint32(n))
}

// Encode serializes the builder contents into ABC container bytes.
func (b *Builder) Encode() []byte {
	w := &writer{}

	w.u16(MinorVersion)
	w.u16(MajorVersion)

	// Constant pool
	w.poolCount(len(b.ints))
	for _, v := range b.ints[1:] {
		w.u30(uint32(v))
	}
	w.poolCount(len(b.uints))
	for _, v := range b.uints[1:] {
		w.u30(v)
	}
	w.poolCount(len(b.doubles))
	for _, v := range b.doubles[1:] {
		w.d64(v)
	}
	w.poolCount(len(b.strings))
	for _, s := range b.strings[1:] {
		w.str(s)
	}
	w.poolCount(len(b.namespaces))
	for _, ns := range b.namespaces[1:] {
		w.u8(ns.Kind)
		w.u30(ns.Name)
	}
	w.poolCount(len(b.nsSets))
	for _, set := range b.nsSets[1:] {
		w.u30(uint32(len(set)))
		for _, ns := range set {
			w.u30(ns)
		}
	}
	w.poolCount(len(b.multinames))
	for _, mn := range b.multinames[1:] {
		w.u8(mn.Kind)
		switch mn.Kind {
		case MnQName, MnQNameA:
			w.u30(mn.Namespace)
			w.u30(mn.Name)
		case MnRTQName, MnRTQNameA:
			w.u30(mn.Name)
		case MnMultiname, MnMultinameA:
			w.u30(mn.Name)
			w.u30(mn.NsSet)
		case MnMultinameL, MnMultinameLA:
			w.u30(mn.NsSet)
		}
	}

	// Methods
	w.u30(uint32(len(b.methods)))
	for _, m := range b.methods {
		w.u30(uint32(len(m.ParamTypes)))
		w.u30(m.ReturnType)
		for _, pt := range m.ParamTypes {
			w.u30(pt)
		}
		w.u30(m.Name)
		w.u8(m.Flags)
	}

	// Metadata (none)
	w.u30(0)

	// Classes (none)
	w.u30(0)

	// Scripts
	w.u30(uint32(len(b.scripts)))
	for _, s := range b.scripts {
		w.u30(s.Init)
		writeTraits(w, s.Traits)
	}

	// Method bodies
	w.u30(uint32(len(b.bodies)))
	for _, body := range b.bodies {
		w.u30(body.Method)
		w.u30(body.MaxStack)
		w.u30(body.LocalCount)
		w.u30(body.InitScopeDepth)
		w.u30(body.MaxScopeDepth)
		w.u30(uint32(len(body.Code)))
		w.buf = append(w.buf, body.Code...)
		w.u30(0) // exceptions
		writeTraits(w, body.Traits)
	}

	return w.buf
}

func writeTraits(w *writer, traits []Trait) {
	w.u30(uint32(len(traits)))
	for _, t := range traits {
		w.u30(t.Name)
		w.u8(t.Kind)
		switch t.KindType() {
		case TraitSlot, TraitConst:
			w.u30(t.SlotID)
			w.u30(t.TypeName)
			w.u30(t.VIndex)
			if t.VIndex != 0 {
				w.u8(t.VKind)
			}
		case TraitClass:
			w.u30(t.SlotID)
			w.u30(t.ClassIndex)
		case TraitMethod, TraitGetter, TraitSetter, TraitFunction:
			w.u30(t.DispID)
			w.u30(t.MethodIndex)
		}
	}
}

// ---------------------------------------------------------------------------
// Code: bytecode assembler
// ---------------------------------------------------------------------------

// Code assembles a method body's bytecode.
type Code struct {
	buf []byte
}

// NewCode creates an empty bytecode assembler.
func NewCode() *Code {
	return &Code{}
}

// Op emits an opcode with no operands.
func (c *Code) Op(op Opcode) *Code {
	c.buf = append(c.buf, byte(op))
	return c
}

// OpByte emits an opcode with one raw byte operand.
func (c *Code) OpByte(op Opcode, v byte) *Code {
	c.buf = append(c.buf, byte(op), v)
	return c
}

// OpU30 emits an opcode with one variable-length operand.
func (c *Code) OpU30(op Opcode, v uint32) *Code {
	c.buf = append(c.buf, byte(op))
	c.u30(v)
	return c
}

// OpU30x2 emits an opcode with two variable-length operands.
func (c *Code) OpU30x2(op Opcode, a, b uint32) *Code {
	c.buf = append(c.buf, byte(op))
	c.u30(a)
	c.u30(b)
	return c
}

// OpS24 emits a branch opcode with a signed 24-bit offset.
func (c *Code) OpS24(op Opcode, offset int32) *Code {
	c.buf = append(c.buf, byte(op),
		byte(offset), byte(offset>>8), byte(offset>>16))
	return c
}

// Len returns the current length of the assembled code.
func (c *Code) Len() int {
	return len(c.buf)
}

// Bytes returns the assembled bytecode.
func (c *Code) Bytes() []byte {
	return c.buf
}

func (c *Code) u30(v uint32) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			c.buf = append(c.buf, b|0x80)
		} else {
			c.buf = append(c.buf, b)
			return
		}
	}
}

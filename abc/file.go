package abc

// ---------------------------------------------------------------------------
// File: one fully decoded ABC container
// ---------------------------------------------------------------------------

// Supported container versions.
const (
	MinorVersion = 16
	MajorVersion = 46
)

// File is one decoded ABC container. All cross-references are pool indices;
// every pool is 1-based with entry 0 reserved for the implicit empty value.
type File struct {
	MinorVersion uint16
	MajorVersion uint16

	// Constant pools
	Ints       []int32
	UInts      []uint32
	Doubles    []float64
	Strings    []string
	Namespaces []Namespace
	NsSets     [][]uint32
	Multinames []Multiname

	Methods  []MethodInfo
	Metadata []MetadataInfo
	Instance []InstanceInfo
	Classes  []ClassInfo
	Scripts  []ScriptInfo
	Bodies   []MethodBody

	// bodyForMethod maps a method index to its body index.
	bodyForMethod map[uint32]int
}

// Body returns the method body for the given method index, if any.
// Methods without a body are native.
func (f *File) Body(methodIndex uint32) (*MethodBody, bool) {
	i, ok := f.bodyForMethod[methodIndex]
	if !ok {
		return nil, false
	}
	return &f.Bodies[i], true
}

// String returns the pool string at index i, or "" for index 0.
func (f *File) String(i uint32) string {
	if i == 0 || int(i) >= len(f.Strings) {
		return ""
	}
	return f.Strings[i]
}

// ---------------------------------------------------------------------------
// Namespaces and multinames
// ---------------------------------------------------------------------------

// Namespace kinds.
const (
	NsNamespace       = 0x08
	NsPackage         = 0x16
	NsPackageInternal = 0x17
	NsProtected       = 0x18
	NsExplicit        = 0x19
	NsStaticProtected = 0x1A
	NsPrivate         = 0x05
)

// Namespace is one constant-pool namespace entry.
type Namespace struct {
	Kind byte
	Name uint32 // string pool index
}

// Multiname kinds.
const (
	MnQName       = 0x07
	MnQNameA      = 0x0D
	MnRTQName     = 0x0F
	MnRTQNameA    = 0x10
	MnRTQNameL    = 0x11
	MnRTQNameLA   = 0x12
	MnMultiname   = 0x09
	MnMultinameA  = 0x0E
	MnMultinameL  = 0x1B
	MnMultinameLA = 0x1C
	MnTypeName    = 0x1D
)

// Multiname is one constant-pool name entry. Which fields are meaningful
// depends on Kind: QName uses Namespace+Name, Multiname uses NsSet+Name,
// the L forms carry the name at runtime, TypeName carries type parameters.
type Multiname struct {
	Kind      byte
	Namespace uint32 // namespace pool index (QName forms)
	Name      uint32 // string pool index
	NsSet     uint32 // ns-set pool index (Multiname forms)
	Type      uint32 // multiname pool index (TypeName base)
	Params    []uint32
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

// Method flags.
const (
	MethodNeedArguments  = 0x01
	MethodNeedActivation = 0x02
	MethodNeedRest       = 0x04
	MethodHasOptional    = 0x08
	MethodSetDxns        = 0x40
	MethodHasParamNames  = 0x80
)

// OptionDetail is one default parameter value.
type OptionDetail struct {
	Value uint32 // pool index, interpreted per Kind
	Kind  byte
}

// MethodInfo is one method signature entry.
type MethodInfo struct {
	ReturnType uint32   // multiname pool index, 0 = any
	ParamTypes []uint32 // multiname pool indices
	Name       uint32   // string pool index, 0 = anonymous
	Flags      byte
	Options    []OptionDetail
	ParamNames []uint32 // string pool indices, present with MethodHasParamNames
}

// MetadataInfo is one metadata entry (name plus key/value item pairs).
type MetadataInfo struct {
	Name   uint32
	Keys   []uint32
	Values []uint32
}

// ---------------------------------------------------------------------------
// Traits
// ---------------------------------------------------------------------------

// Trait kinds (low four bits of the kind byte).
const (
	TraitSlot     = 0
	TraitMethod   = 1
	TraitGetter   = 2
	TraitSetter   = 3
	TraitClass    = 4
	TraitFunction = 5
	TraitConst    = 6
)

// Trait attribute flags (high four bits of the kind byte).
const (
	TraitAttrFinal    = 0x1
	TraitAttrOverride = 0x2
	TraitAttrMetadata = 0x4
)

// Trait is one trait entry on a script, class, instance, or method body.
type Trait struct {
	Name uint32 // multiname pool index (must resolve to a QName)
	Kind byte   // low bits: trait kind; high bits: attributes

	// Slot/Const traits
	SlotID   uint32
	TypeName uint32
	VIndex   uint32
	VKind    byte

	// Class traits
	ClassIndex uint32

	// Method/Getter/Setter/Function traits
	MethodIndex uint32
	DispID      uint32

	Metadata []uint32
}

// KindType returns the trait kind with attribute bits stripped.
func (t *Trait) KindType() byte {
	return t.Kind & 0x0F
}

// Attrs returns the attribute bits of the trait kind byte.
func (t *Trait) Attrs() byte {
	return t.Kind >> 4
}

// ---------------------------------------------------------------------------
// Classes, scripts, bodies
// ---------------------------------------------------------------------------

// Instance flags.
const (
	InstanceSealed      = 0x01
	InstanceFinal       = 0x02
	InstanceInterface   = 0x04
	InstanceProtectedNs = 0x08
)

// InstanceInfo describes the instance side of one class.
type InstanceInfo struct {
	Name        uint32 // multiname pool index
	SuperName   uint32
	Flags       byte
	ProtectedNs uint32
	Interfaces  []uint32
	Init        uint32 // method pool index of the instance initializer
	Traits      []Trait
}

// ClassInfo describes the static side of one class.
type ClassInfo struct {
	Init   uint32 // method pool index of the class initializer
	Traits []Trait
}

// ScriptInfo is one top-level script: its initializer and the global traits
// it defines.
type ScriptInfo struct {
	Init   uint32 // method pool index of the script initializer
	Traits []Trait
}

// ExceptionInfo is one exception handler range in a method body.
type ExceptionInfo struct {
	From    uint32
	To      uint32
	Target  uint32
	Type    uint32 // multiname pool index
	VarName uint32 // multiname pool index
}

// MethodBody holds the bytecode and frame requirements of one method.
type MethodBody struct {
	Method         uint32
	MaxStack       uint32
	LocalCount     uint32
	InitScopeDepth uint32
	MaxScopeDepth  uint32
	Code           []byte
	Exceptions     []ExceptionInfo
	Traits         []Trait
}

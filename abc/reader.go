package abc

import (
	"errors"
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Parse errors
// ---------------------------------------------------------------------------

var (
	ErrTruncated          = errors.New("abc: unexpected end of container data")
	ErrUnsupportedVersion = errors.New("abc: unsupported container version")
	ErrBadIndex           = errors.New("abc: pool index out of range")
	ErrBadUTF8Length      = errors.New("abc: string length exceeds remaining data")
	ErrOverlongInt        = errors.New("abc: variable-length integer too long")
)

// ---------------------------------------------------------------------------
// reader: offset cursor over the raw container bytes
// ---------------------------------------------------------------------------

type reader struct {
	data   []byte
	offset int
}

func (r *reader) remaining() int {
	return len(r.data) - r.offset
}

func (r *reader) readU8() (byte, error) {
	if r.remaining() < 1 {
		return 0, ErrTruncated
	}
	b := r.data[r.offset]
	r.offset++
	return b, nil
}

func (r *reader) readU16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrTruncated
	}
	v := uint16(r.data[r.offset]) | uint16(r.data[r.offset+1])<<8
	r.offset += 2
	return v, nil
}

// readU32 decodes a variable-length unsigned integer: 7 bits per byte,
// little endian, at most 5 bytes.
func (r *reader) readU32() (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ {
		b, err := r.readU8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrOverlongInt
}

// readU30 decodes a variable-length integer masked to 30 bits.
func (r *reader) readU30() (uint32, error) {
	v, err := r.readU32()
	if err != nil {
		return 0, err
	}
	return v & 0x3FFFFFFF, nil
}

func (r *reader) readS32() (int32, error) {
	v, err := r.readU32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func (r *reader) readD64() (float64, error) {
	if r.remaining() < 8 {
		return 0, ErrTruncated
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(r.data[r.offset+i]) << (8 * i)
	}
	r.offset += 8
	return math.Float64frombits(bits), nil
}

func (r *reader) readString() (string, error) {
	n, err := r.readU30()
	if err != nil {
		return "", err
	}
	if int(n) > r.remaining() {
		return "", ErrBadUTF8Length
	}
	s := string(r.data[r.offset : r.offset+int(n)])
	r.offset += int(n)
	return s, nil
}

func (r *reader) readBytes(n uint32) ([]byte, error) {
	if int(n) > r.remaining() {
		return nil, ErrTruncated
	}
	b := make([]byte, n)
	copy(b, r.data[r.offset:r.offset+int(n)])
	r.offset += int(n)
	return b, nil
}

// poolCount reads a pool count. Counts of 0 and 1 both mean "no explicit
// entries"; entry 0 is always implicit. The count is bounded by the bytes
// left: every explicit entry consumes at least one.
func (r *reader) poolCount() (int, error) {
	n, err := r.readU30()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 1, nil
	}
	if int(n)-1 > r.remaining() {
		return 0, ErrTruncated
	}
	return int(n), nil
}

// readCount reads a u30 entry count, bounded by the bytes left so that a
// malformed count cannot drive a huge allocation.
func (r *reader) readCount() (int, error) {
	n, err := r.readU30()
	if err != nil {
		return 0, err
	}
	if int(n) > r.remaining() {
		return 0, ErrTruncated
	}
	return int(n), nil
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

// Parse decodes a complete ABC container. On any error the returned File is
// nil; no partially decoded state is exposed.
func Parse(data []byte) (*File, error) {
	r := &reader{data: data}
	f := &File{bodyForMethod: make(map[uint32]int)}

	var err error
	if f.MinorVersion, err = r.readU16(); err != nil {
		return nil, fmt.Errorf("abc: reading version: %w", err)
	}
	if f.MajorVersion, err = r.readU16(); err != nil {
		return nil, fmt.Errorf("abc: reading version: %w", err)
	}
	if f.MajorVersion != MajorVersion {
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, f.MajorVersion, f.MinorVersion)
	}

	if err := parseConstantPool(r, f); err != nil {
		return nil, err
	}
	if err := parseMethods(r, f); err != nil {
		return nil, err
	}
	if err := parseMetadata(r, f); err != nil {
		return nil, err
	}
	if err := parseClasses(r, f); err != nil {
		return nil, err
	}
	if err := parseScripts(r, f); err != nil {
		return nil, err
	}
	if err := parseBodies(r, f); err != nil {
		return nil, err
	}

	return f, nil
}

func parseConstantPool(r *reader, f *File) error {
	// Integers
	n, err := r.poolCount()
	if err != nil {
		return fmt.Errorf("abc: reading int pool: %w", err)
	}
	f.Ints = make([]int32, n)
	for i := 1; i < n; i++ {
		if f.Ints[i], err = r.readS32(); err != nil {
			return fmt.Errorf("abc: reading int pool: %w", err)
		}
	}

	// Unsigned integers
	if n, err = r.poolCount(); err != nil {
		return fmt.Errorf("abc: reading uint pool: %w", err)
	}
	f.UInts = make([]uint32, n)
	for i := 1; i < n; i++ {
		if f.UInts[i], err = r.readU32(); err != nil {
			return fmt.Errorf("abc: reading uint pool: %w", err)
		}
	}

	// Doubles
	if n, err = r.poolCount(); err != nil {
		return fmt.Errorf("abc: reading double pool: %w", err)
	}
	f.Doubles = make([]float64, n)
	for i := 1; i < n; i++ {
		if f.Doubles[i], err = r.readD64(); err != nil {
			return fmt.Errorf("abc: reading double pool: %w", err)
		}
	}

	// Strings
	if n, err = r.poolCount(); err != nil {
		return fmt.Errorf("abc: reading string pool: %w", err)
	}
	f.Strings = make([]string, n)
	for i := 1; i < n; i++ {
		if f.Strings[i], err = r.readString(); err != nil {
			return fmt.Errorf("abc: reading string pool: %w", err)
		}
	}

	// Namespaces
	if n, err = r.poolCount(); err != nil {
		return fmt.Errorf("abc: reading namespace pool: %w", err)
	}
	f.Namespaces = make([]Namespace, n)
	for i := 1; i < n; i++ {
		ns := Namespace{}
		if ns.Kind, err = r.readU8(); err != nil {
			return fmt.Errorf("abc: reading namespace pool: %w", err)
		}
		if ns.Name, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading namespace pool: %w", err)
		}
		if int(ns.Name) >= len(f.Strings) {
			return fmt.Errorf("abc: namespace %d name: %w", i, ErrBadIndex)
		}
		f.Namespaces[i] = ns
	}

	// Namespace sets
	if n, err = r.poolCount(); err != nil {
		return fmt.Errorf("abc: reading ns-set pool: %w", err)
	}
	f.NsSets = make([][]uint32, n)
	for i := 1; i < n; i++ {
		count, err := r.readCount()
		if err != nil {
			return fmt.Errorf("abc: reading ns-set pool: %w", err)
		}
		set := make([]uint32, count)
		for j := range set {
			if set[j], err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading ns-set pool: %w", err)
			}
			if int(set[j]) >= len(f.Namespaces) {
				return fmt.Errorf("abc: ns-set %d entry: %w", i, ErrBadIndex)
			}
		}
		f.NsSets[i] = set
	}

	// Multinames
	if n, err = r.poolCount(); err != nil {
		return fmt.Errorf("abc: reading multiname pool: %w", err)
	}
	f.Multinames = make([]Multiname, n)
	for i := 1; i < n; i++ {
		mn, err := parseMultiname(r, f, i)
		if err != nil {
			return err
		}
		f.Multinames[i] = mn
	}

	return nil
}

func parseMultiname(r *reader, f *File, index int) (Multiname, error) {
	mn := Multiname{}
	var err error
	if mn.Kind, err = r.readU8(); err != nil {
		return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
	}

	switch mn.Kind {
	case MnQName, MnQNameA:
		if mn.Namespace, err = r.readU30(); err != nil {
			return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
		}
		if mn.Name, err = r.readU30(); err != nil {
			return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
		}
		if int(mn.Namespace) >= len(f.Namespaces) || int(mn.Name) >= len(f.Strings) {
			return mn, fmt.Errorf("abc: multiname %d: %w", index, ErrBadIndex)
		}
	case MnRTQName, MnRTQNameA:
		if mn.Name, err = r.readU30(); err != nil {
			return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
		}
	case MnRTQNameL, MnRTQNameLA:
		// No static data.
	case MnMultiname, MnMultinameA:
		if mn.Name, err = r.readU30(); err != nil {
			return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
		}
		if mn.NsSet, err = r.readU30(); err != nil {
			return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
		}
		if int(mn.NsSet) >= len(f.NsSets) {
			return mn, fmt.Errorf("abc: multiname %d: %w", index, ErrBadIndex)
		}
	case MnMultinameL, MnMultinameLA:
		if mn.NsSet, err = r.readU30(); err != nil {
			return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
		}
	case MnTypeName:
		if mn.Type, err = r.readU30(); err != nil {
			return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
		}
		count, err := r.readCount()
		if err != nil {
			return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
		}
		mn.Params = make([]uint32, count)
		for j := range mn.Params {
			if mn.Params[j], err = r.readU30(); err != nil {
				return mn, fmt.Errorf("abc: reading multiname %d: %w", index, err)
			}
		}
	default:
		return mn, fmt.Errorf("abc: multiname %d: unknown kind 0x%02x", index, mn.Kind)
	}

	return mn, nil
}

func parseMethods(r *reader, f *File) error {
	count, err := r.readCount()
	if err != nil {
		return fmt.Errorf("abc: reading method count: %w", err)
	}
	f.Methods = make([]MethodInfo, count)
	for i := range f.Methods {
		m := MethodInfo{}
		paramCount, err := r.readCount()
		if err != nil {
			return fmt.Errorf("abc: reading method %d: %w", i, err)
		}
		if m.ReturnType, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading method %d: %w", i, err)
		}
		m.ParamTypes = make([]uint32, paramCount)
		for j := range m.ParamTypes {
			if m.ParamTypes[j], err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading method %d: %w", i, err)
			}
		}
		if m.Name, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading method %d: %w", i, err)
		}
		if m.Flags, err = r.readU8(); err != nil {
			return fmt.Errorf("abc: reading method %d: %w", i, err)
		}
		if m.Flags&MethodHasOptional != 0 {
			optCount, err := r.readCount()
			if err != nil {
				return fmt.Errorf("abc: reading method %d options: %w", i, err)
			}
			m.Options = make([]OptionDetail, optCount)
			for j := range m.Options {
				if m.Options[j].Value, err = r.readU30(); err != nil {
					return fmt.Errorf("abc: reading method %d options: %w", i, err)
				}
				if m.Options[j].Kind, err = r.readU8(); err != nil {
					return fmt.Errorf("abc: reading method %d options: %w", i, err)
				}
			}
		}
		if m.Flags&MethodHasParamNames != 0 {
			m.ParamNames = make([]uint32, paramCount)
			for j := range m.ParamNames {
				if m.ParamNames[j], err = r.readU30(); err != nil {
					return fmt.Errorf("abc: reading method %d param names: %w", i, err)
				}
			}
		}
		f.Methods[i] = m
	}
	return nil
}

func parseMetadata(r *reader, f *File) error {
	count, err := r.readCount()
	if err != nil {
		return fmt.Errorf("abc: reading metadata count: %w", err)
	}
	f.Metadata = make([]MetadataInfo, count)
	for i := range f.Metadata {
		md := MetadataInfo{}
		if md.Name, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading metadata %d: %w", i, err)
		}
		itemCount, err := r.readCount()
		if err != nil {
			return fmt.Errorf("abc: reading metadata %d: %w", i, err)
		}
		md.Keys = make([]uint32, itemCount)
		md.Values = make([]uint32, itemCount)
		for j := 0; j < itemCount; j++ {
			if md.Keys[j], err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading metadata %d: %w", i, err)
			}
		}
		for j := 0; j < itemCount; j++ {
			if md.Values[j], err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading metadata %d: %w", i, err)
			}
		}
		f.Metadata[i] = md
	}
	return nil
}

func parseClasses(r *reader, f *File) error {
	count, err := r.readCount()
	if err != nil {
		return fmt.Errorf("abc: reading class count: %w", err)
	}
	f.Instance = make([]InstanceInfo, count)
	for i := range f.Instance {
		inst := InstanceInfo{}
		if inst.Name, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading instance %d: %w", i, err)
		}
		if inst.SuperName, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading instance %d: %w", i, err)
		}
		if inst.Flags, err = r.readU8(); err != nil {
			return fmt.Errorf("abc: reading instance %d: %w", i, err)
		}
		if inst.Flags&InstanceProtectedNs != 0 {
			if inst.ProtectedNs, err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading instance %d: %w", i, err)
			}
		}
		ifaceCount, err := r.readCount()
		if err != nil {
			return fmt.Errorf("abc: reading instance %d: %w", i, err)
		}
		inst.Interfaces = make([]uint32, ifaceCount)
		for j := range inst.Interfaces {
			if inst.Interfaces[j], err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading instance %d: %w", i, err)
			}
		}
		if inst.Init, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading instance %d: %w", i, err)
		}
		if inst.Traits, err = parseTraits(r, f); err != nil {
			return fmt.Errorf("abc: reading instance %d traits: %w", i, err)
		}
		f.Instance[i] = inst
	}

	f.Classes = make([]ClassInfo, count)
	for i := range f.Classes {
		cls := ClassInfo{}
		if cls.Init, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading class %d: %w", i, err)
		}
		if cls.Traits, err = parseTraits(r, f); err != nil {
			return fmt.Errorf("abc: reading class %d traits: %w", i, err)
		}
		f.Classes[i] = cls
	}
	return nil
}

func parseScripts(r *reader, f *File) error {
	count, err := r.readCount()
	if err != nil {
		return fmt.Errorf("abc: reading script count: %w", err)
	}
	f.Scripts = make([]ScriptInfo, count)
	for i := range f.Scripts {
		s := ScriptInfo{}
		if s.Init, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading script %d: %w", i, err)
		}
		if int(s.Init) >= len(f.Methods) {
			return fmt.Errorf("abc: script %d initializer: %w", i, ErrBadIndex)
		}
		if s.Traits, err = parseTraits(r, f); err != nil {
			return fmt.Errorf("abc: reading script %d traits: %w", i, err)
		}
		f.Scripts[i] = s
	}
	return nil
}

func parseBodies(r *reader, f *File) error {
	count, err := r.readCount()
	if err != nil {
		return fmt.Errorf("abc: reading body count: %w", err)
	}
	f.Bodies = make([]MethodBody, count)
	for i := range f.Bodies {
		b := MethodBody{}
		if b.Method, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading body %d: %w", i, err)
		}
		if int(b.Method) >= len(f.Methods) {
			return fmt.Errorf("abc: body %d method: %w", i, ErrBadIndex)
		}
		if b.MaxStack, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading body %d: %w", i, err)
		}
		if b.LocalCount, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading body %d: %w", i, err)
		}
		if b.InitScopeDepth, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading body %d: %w", i, err)
		}
		if b.MaxScopeDepth, err = r.readU30(); err != nil {
			return fmt.Errorf("abc: reading body %d: %w", i, err)
		}
		codeLen, err := r.readU30()
		if err != nil {
			return fmt.Errorf("abc: reading body %d: %w", i, err)
		}
		if b.Code, err = r.readBytes(codeLen); err != nil {
			return fmt.Errorf("abc: reading body %d code: %w", i, err)
		}
		excCount, err := r.readCount()
		if err != nil {
			return fmt.Errorf("abc: reading body %d: %w", i, err)
		}
		b.Exceptions = make([]ExceptionInfo, excCount)
		for j := range b.Exceptions {
			e := ExceptionInfo{}
			if e.From, err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading body %d exceptions: %w", i, err)
			}
			if e.To, err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading body %d exceptions: %w", i, err)
			}
			if e.Target, err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading body %d exceptions: %w", i, err)
			}
			if e.Type, err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading body %d exceptions: %w", i, err)
			}
			if e.VarName, err = r.readU30(); err != nil {
				return fmt.Errorf("abc: reading body %d exceptions: %w", i, err)
			}
			b.Exceptions[j] = e
		}
		if b.Traits, err = parseTraits(r, f); err != nil {
			return fmt.Errorf("abc: reading body %d traits: %w", i, err)
		}
		f.Bodies[i] = b
		f.bodyForMethod[b.Method] = i
	}
	return nil
}

func parseTraits(r *reader, f *File) ([]Trait, error) {
	count, err := r.readCount()
	if err != nil {
		return nil, err
	}
	traits := make([]Trait, count)
	for i := range traits {
		t := Trait{}
		if t.Name, err = r.readU30(); err != nil {
			return nil, err
		}
		if t.Name == 0 || int(t.Name) >= len(f.Multinames) {
			return nil, fmt.Errorf("trait %d name: %w", i, ErrBadIndex)
		}
		if t.Kind, err = r.readU8(); err != nil {
			return nil, err
		}
		switch t.KindType() {
		case TraitSlot, TraitConst:
			if t.SlotID, err = r.readU30(); err != nil {
				return nil, err
			}
			if t.TypeName, err = r.readU30(); err != nil {
				return nil, err
			}
			if t.VIndex, err = r.readU30(); err != nil {
				return nil, err
			}
			if t.VIndex != 0 {
				if t.VKind, err = r.readU8(); err != nil {
					return nil, err
				}
			}
		case TraitClass:
			if t.SlotID, err = r.readU30(); err != nil {
				return nil, err
			}
			if t.ClassIndex, err = r.readU30(); err != nil {
				return nil, err
			}
		case TraitMethod, TraitGetter, TraitSetter, TraitFunction:
			if t.DispID, err = r.readU30(); err != nil {
				return nil, err
			}
			if t.MethodIndex, err = r.readU30(); err != nil {
				return nil, err
			}
			if int(t.MethodIndex) >= len(f.Methods) {
				return nil, fmt.Errorf("trait %d method: %w", i, ErrBadIndex)
			}
		default:
			return nil, fmt.Errorf("trait %d: unknown kind 0x%02x", i, t.KindType())
		}
		if t.Attrs()&TraitAttrMetadata != 0 {
			mdCount, err := r.readCount()
			if err != nil {
				return nil, err
			}
			t.Metadata = make([]uint32, mdCount)
			for j := range t.Metadata {
				if t.Metadata[j], err = r.readU30(); err != nil {
					return nil, err
				}
			}
		}
		traits[i] = t
	}
	return traits, nil
}

package abc

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of one method body.
func (f *File) Disassemble(body *MethodBody) string {
	var sb strings.Builder

	m := f.Methods[body.Method]
	name := f.String(m.Name)
	if name == "" {
		name = fmt.Sprintf("method#%d", body.Method)
	}
	sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	sb.WriteString(fmt.Sprintf("; max_stack=%d local_count=%d scope_depth=%d..%d\n",
		body.MaxStack, body.LocalCount, body.InitScopeDepth, body.MaxScopeDepth))

	code := body.Code
	offset := 0
	for offset < len(code) {
		line, next, err := f.disasmOne(code, offset)
		if err != nil {
			sb.WriteString(fmt.Sprintf("%04d  <%v>\n", offset, err))
			break
		}
		sb.WriteString(fmt.Sprintf("%04d  %s\n", offset, line))
		offset = next
	}

	return sb.String()
}

// DisassembleAll returns listings for every method body in the file.
func (f *File) DisassembleAll() string {
	var sb strings.Builder
	for i := range f.Bodies {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.Disassemble(&f.Bodies[i]))
	}
	return sb.String()
}

func (f *File) disasmOne(code []byte, offset int) (string, int, error) {
	r := &reader{data: code, offset: offset}
	b, err := r.readU8()
	if err != nil {
		return "", 0, err
	}
	op := Opcode(b)

	kind, known := op.Operands()
	if !known {
		return op.Name(), r.offset, nil
	}

	switch kind {
	case OperandNone:
		return op.Name(), r.offset, nil
	case OperandByte:
		v, err := r.readU8()
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("%-16s %d", op.Name(), v), r.offset, nil
	case OperandU30:
		v, err := r.readU30()
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("%-16s %s", op.Name(), f.operandComment(op, v)), r.offset, nil
	case OperandU30x2:
		a, err := r.readU30()
		if err != nil {
			return "", 0, err
		}
		c, err := r.readU30()
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("%-16s %s, %d", op.Name(), f.operandComment(op, a), c), r.offset, nil
	case OperandS24:
		if r.remaining() < 3 {
			return "", 0, ErrTruncated
		}
		raw := int32(code[r.offset]) | int32(code[r.offset+1])<<8 | int32(code[r.offset+2])<<16
		if raw&0x800000 != 0 {
			raw |= ^int32(0xFFFFFF)
		}
		r.offset += 3
		return fmt.Sprintf("%-16s %+d -> %04d", op.Name(), raw, r.offset+int(raw)), r.offset, nil
	case OperandDebug:
		if _, err := r.readU8(); err != nil {
			return "", 0, err
		}
		if _, err := r.readU30(); err != nil {
			return "", 0, err
		}
		if _, err := r.readU8(); err != nil {
			return "", 0, err
		}
		if _, err := r.readU30(); err != nil {
			return "", 0, err
		}
		return op.Name(), r.offset, nil
	}
	return op.Name(), r.offset, nil
}

// operandComment renders a pool-index operand with its resolved value where
// that helps readability.
func (f *File) operandComment(op Opcode, v uint32) string {
	switch op {
	case OpPushString:
		if int(v) < len(f.Strings) {
			return fmt.Sprintf("%d %q", v, f.Strings[v])
		}
	case OpPushInt:
		if int(v) < len(f.Ints) {
			return fmt.Sprintf("%d (%d)", v, f.Ints[v])
		}
	case OpPushUInt:
		if int(v) < len(f.UInts) {
			return fmt.Sprintf("%d (%d)", v, f.UInts[v])
		}
	case OpPushDouble:
		if int(v) < len(f.Doubles) {
			return fmt.Sprintf("%d (%g)", v, f.Doubles[v])
		}
	case OpGetLex, OpFindPropStrict, OpFindProperty, OpGetProperty,
		OpSetProperty, OpInitProperty, OpCallProperty, OpCallPropVoid:
		if int(v) < len(f.Multinames) {
			mn := f.Multinames[v]
			if local := f.String(mn.Name); local != "" {
				return fmt.Sprintf("%d (%s)", v, local)
			}
		}
	}
	return fmt.Sprintf("%d", v)
}

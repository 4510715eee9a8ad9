package abc

import "fmt"

// Opcode is one AVM2 bytecode instruction.
type Opcode byte

const (
	// ========================================================================
	// Control flow
	// ========================================================================

	OpLabel       Opcode = 0x09
	OpJump        Opcode = 0x10
	OpIfTrue      Opcode = 0x11
	OpIfFalse     Opcode = 0x12
	OpIfEq        Opcode = 0x13
	OpIfNe        Opcode = 0x14
	OpIfLt        Opcode = 0x15
	OpIfLe        Opcode = 0x16
	OpIfGt        Opcode = 0x17
	OpIfGe        Opcode = 0x18
	OpReturnVoid  Opcode = 0x47
	OpReturnValue Opcode = 0x48

	// ========================================================================
	// Constants
	// ========================================================================

	OpPushNull      Opcode = 0x20
	OpPushUndefined Opcode = 0x21
	OpPushByte      Opcode = 0x24
	OpPushShort     Opcode = 0x25
	OpPushTrue      Opcode = 0x26
	OpPushFalse     Opcode = 0x27
	OpPushNaN       Opcode = 0x28
	OpPushString    Opcode = 0x2C
	OpPushInt       Opcode = 0x2D
	OpPushUInt      Opcode = 0x2E
	OpPushDouble    Opcode = 0x2F

	// ========================================================================
	// Stack and scope manipulation
	// ========================================================================

	OpPop            Opcode = 0x29
	OpDup            Opcode = 0x2A
	OpSwap           Opcode = 0x2B
	OpPushScope      Opcode = 0x30
	OpPopScope       Opcode = 0x1D
	OpGetGlobalScope Opcode = 0x64
	OpGetScopeObject Opcode = 0x65

	// ========================================================================
	// Calls and construction
	// ========================================================================

	OpNewFunction    Opcode = 0x40
	OpCall           Opcode = 0x41
	OpConstructSuper Opcode = 0x49
	OpCallProperty   Opcode = 0x46
	OpCallPropVoid   Opcode = 0x4F

	// ========================================================================
	// Properties and names
	// ========================================================================

	OpFindPropStrict Opcode = 0x5D
	OpFindProperty   Opcode = 0x5E
	OpGetLex         Opcode = 0x60
	OpSetProperty    Opcode = 0x61
	OpGetProperty    Opcode = 0x66
	OpInitProperty   Opcode = 0x68

	// ========================================================================
	// Local registers
	// ========================================================================

	OpKill      Opcode = 0x08
	OpGetLocal  Opcode = 0x62
	OpSetLocal  Opcode = 0x63
	OpGetLocal0 Opcode = 0xD0
	OpGetLocal1 Opcode = 0xD1
	OpGetLocal2 Opcode = 0xD2
	OpGetLocal3 Opcode = 0xD3
	OpSetLocal0 Opcode = 0xD4
	OpSetLocal1 Opcode = 0xD5
	OpSetLocal2 Opcode = 0xD6
	OpSetLocal3 Opcode = 0xD7

	// ========================================================================
	// Conversions
	// ========================================================================

	OpConvertS Opcode = 0x70
	OpConvertI Opcode = 0x73
	OpConvertU Opcode = 0x74
	OpConvertD Opcode = 0x75
	OpConvertB Opcode = 0x76
	OpCoerceA  Opcode = 0x82
	OpCoerceS  Opcode = 0x85

	// ========================================================================
	// Arithmetic and logic
	// ========================================================================

	OpNegate        Opcode = 0x90
	OpNot           Opcode = 0x96
	OpAdd           Opcode = 0xA0
	OpSubtract      Opcode = 0xA1
	OpMultiply      Opcode = 0xA2
	OpDivide        Opcode = 0xA3
	OpModulo        Opcode = 0xA4
	OpEquals        Opcode = 0xAB
	OpStrictEquals  Opcode = 0xAC
	OpLessThan      Opcode = 0xAD
	OpLessEquals    Opcode = 0xAE
	OpGreaterThan   Opcode = 0xAF
	OpGreaterEquals Opcode = 0xB0

	// ========================================================================
	// Debugging (ignored by the interpreter, operands must be skipped)
	// ========================================================================

	OpDebug     Opcode = 0xEF
	OpDebugLine Opcode = 0xF0
	OpDebugFile Opcode = 0xF1
)

// OperandKind describes the immediate operand layout of an opcode.
type OperandKind int

const (
	OperandNone   OperandKind = iota
	OperandU30                // one variable-length index/count
	OperandU30x2              // two variable-length operands
	OperandS24                // signed 24-bit branch offset
	OperandByte               // one raw byte
	OperandDebug              // debug: u8, u30, u8, u30
)

type opcodeInfo struct {
	name     string
	operands OperandKind
}

var opcodeTable = map[Opcode]opcodeInfo{
	OpLabel:          {"label", OperandNone},
	OpJump:           {"jump", OperandS24},
	OpIfTrue:         {"iftrue", OperandS24},
	OpIfFalse:        {"iffalse", OperandS24},
	OpIfEq:           {"ifeq", OperandS24},
	OpIfNe:           {"ifne", OperandS24},
	OpIfLt:           {"iflt", OperandS24},
	OpIfLe:           {"ifle", OperandS24},
	OpIfGt:           {"ifgt", OperandS24},
	OpIfGe:           {"ifge", OperandS24},
	OpReturnVoid:     {"returnvoid", OperandNone},
	OpReturnValue:    {"returnvalue", OperandNone},
	OpPushNull:       {"pushnull", OperandNone},
	OpPushUndefined:  {"pushundefined", OperandNone},
	OpPushByte:       {"pushbyte", OperandByte},
	OpPushShort:      {"pushshort", OperandU30},
	OpPushTrue:       {"pushtrue", OperandNone},
	OpPushFalse:      {"pushfalse", OperandNone},
	OpPushNaN:        {"pushnan", OperandNone},
	OpPushString:     {"pushstring", OperandU30},
	OpPushInt:        {"pushint", OperandU30},
	OpPushUInt:       {"pushuint", OperandU30},
	OpPushDouble:     {"pushdouble", OperandU30},
	OpPop:            {"pop", OperandNone},
	OpDup:            {"dup", OperandNone},
	OpSwap:           {"swap", OperandNone},
	OpPushScope:      {"pushscope", OperandNone},
	OpPopScope:       {"popscope", OperandNone},
	OpGetGlobalScope: {"getglobalscope", OperandNone},
	OpGetScopeObject: {"getscopeobject", OperandByte},
	OpNewFunction:    {"newfunction", OperandU30},
	OpCall:           {"call", OperandU30},
	OpConstructSuper: {"constructsuper", OperandU30},
	OpCallProperty:   {"callproperty", OperandU30x2},
	OpCallPropVoid:   {"callpropvoid", OperandU30x2},
	OpFindPropStrict: {"findpropstrict", OperandU30},
	OpFindProperty:   {"findproperty", OperandU30},
	OpGetLex:         {"getlex", OperandU30},
	OpSetProperty:    {"setproperty", OperandU30},
	OpGetProperty:    {"getproperty", OperandU30},
	OpInitProperty:   {"initproperty", OperandU30},
	OpKill:           {"kill", OperandU30},
	OpGetLocal:       {"getlocal", OperandU30},
	OpSetLocal:       {"setlocal", OperandU30},
	OpGetLocal0:      {"getlocal0", OperandNone},
	OpGetLocal1:      {"getlocal1", OperandNone},
	OpGetLocal2:      {"getlocal2", OperandNone},
	OpGetLocal3:      {"getlocal3", OperandNone},
	OpSetLocal0:      {"setlocal0", OperandNone},
	OpSetLocal1:      {"setlocal1", OperandNone},
	OpSetLocal2:      {"setlocal2", OperandNone},
	OpSetLocal3:      {"setlocal3", OperandNone},
	OpConvertS:       {"convert_s", OperandNone},
	OpConvertI:       {"convert_i", OperandNone},
	OpConvertU:       {"convert_u", OperandNone},
	OpConvertD:       {"convert_d", OperandNone},
	OpConvertB:       {"convert_b", OperandNone},
	OpCoerceA:        {"coerce_a", OperandNone},
	OpCoerceS:        {"coerce_s", OperandNone},
	OpNegate:         {"negate", OperandNone},
	OpNot:            {"not", OperandNone},
	OpAdd:            {"add", OperandNone},
	OpSubtract:       {"subtract", OperandNone},
	OpMultiply:       {"multiply", OperandNone},
	OpDivide:         {"divide", OperandNone},
	OpModulo:         {"modulo", OperandNone},
	OpEquals:         {"equals", OperandNone},
	OpStrictEquals:   {"strictequals", OperandNone},
	OpLessThan:       {"lessthan", OperandNone},
	OpLessEquals:     {"lessequals", OperandNone},
	OpGreaterThan:    {"greaterthan", OperandNone},
	OpGreaterEquals:  {"greaterequals", OperandNone},
	OpDebug:          {"debug", OperandDebug},
	OpDebugLine:      {"debugline", OperandU30},
	OpDebugFile:      {"debugfile", OperandU30},
}

// Name returns the mnemonic for op, or a hex placeholder for unknown opcodes.
func (op Opcode) Name() string {
	if info, ok := opcodeTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("op_0x%02x", byte(op))
}

// Operands returns the operand layout for op.
func (op Opcode) Operands() (OperandKind, bool) {
	info, ok := opcodeTable[op]
	return info.operands, ok
}

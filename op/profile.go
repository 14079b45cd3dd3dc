package op

import (
	"fmt"
	"sort"
)

// Profile selects the rule set of one binary format version: which opcodes
// exist, how their operands are categorized and encoded, and which side
// tables the format carries. A Profile is immutable after construction.
type Profile struct {
	// Name identifies the profile in configuration and in encoded units.
	Name string

	// OffsetUnit is the number of bytes one jump offset unit covers.
	OffsetUnit int

	// ExceptionTable reports whether protected regions are encoded in an
	// exception table.
	ExceptionTable bool

	// CompareShift is applied to comparison operators when encoding.
	CompareShift uint

	// HandlerPush is the number of values the runtime pushes before entering
	// an exception handler, not counting the faulting offset.
	HandlerPush int

	// SuspendSeed reports whether suspendable units start with one value
	// already on the stack.
	SuspendSeed bool

	infos   [256]*Info
	byName  map[string]*Info
	reverse map[Code]Code
}

// Info returns the catalog entry for the given opcode.
func (p *Profile) Info(code Code) (*Info, bool) {
	info := p.infos[code]
	return info, info != nil
}

// Lookup returns the catalog entry for the given opcode name.
func (p *Profile) Lookup(name string) (*Info, bool) {
	info, ok := p.byName[name]
	return info, ok
}

// ReverseJump returns the opcode that jumps in the opposite direction of
// the given unconditional jump.
func (p *Profile) ReverseJump(code Code) (Code, bool) {
	c, ok := p.reverse[code]
	return c, ok
}

// Codes returns all opcodes known to the profile in ascending order.
func (p *Profile) Codes() []Code {
	codes := make([]Code, 0, len(p.byName))
	for _, info := range p.byName {
		codes = append(codes, info.Code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// String returns the profile name.
func (p *Profile) String() string {
	return p.Name
}

var (
	// Legacy uses byte jump offsets, absolute conditional jumps and no
	// exception table.
	Legacy = newProfile("legacy", legacyOverrides)

	// Modern uses code unit jump offsets, relative jumps and an exception
	// table. It is the default profile.
	Modern = newProfile("modern", modernOverrides)

	// Default is the profile used when none is configured.
	Default = Modern
)

// ProfileByName returns the profile with the given name.
func ProfileByName(name string) (*Profile, error) {
	switch name {
	case "", Modern.Name:
		return Modern, nil
	case Legacy.Name:
		return Legacy, nil
	default:
		return nil, fmt.Errorf("unknown bytecode format %q", name)
	}
}

type opInfo struct {
	op     Code
	name   string
	arg    ArgKind
	jump   JumpKind
	uncond bool
	term   bool
	effect Effect
}

// baseOps lists the opcodes shared by every profile.
var baseOps = []opInfo{
	{op: PopTop, name: "POP_TOP", effect: fixed(1, 0)},
	{op: PushNull, name: "PUSH_NULL", effect: fixed(0, 1)},
	{op: Nop, name: "NOP", effect: fixed(0, 0)},
	{op: UnaryNegative, name: "UNARY_NEGATIVE", effect: fixed(1, 1)},
	{op: UnaryNot, name: "UNARY_NOT", effect: fixed(1, 1)},
	{op: UnaryInvert, name: "UNARY_INVERT", effect: fixed(1, 1)},
	{op: BinarySubscr, name: "BINARY_SUBSCR", effect: fixed(2, 1)},
	{op: GetLen, name: "GET_LEN", effect: fixed(1, 2)},
	{op: MatchMapping, name: "MATCH_MAPPING", effect: fixed(1, 2)},
	{op: MatchSequence, name: "MATCH_SEQUENCE", effect: fixed(1, 2)},
	{op: MatchKeys, name: "MATCH_KEYS", effect: fixed(2, 3)},
	{op: WithExceptStart, name: "WITH_EXCEPT_START", effect: fixed(4, 5)},
	{op: BeforeWith, name: "BEFORE_WITH", effect: fixed(1, 2)},
	{op: StoreSubscr, name: "STORE_SUBSCR", effect: fixed(3, 0)},
	{op: DeleteSubscr, name: "DELETE_SUBSCR", effect: fixed(2, 0)},
	{op: GetIter, name: "GET_ITER", effect: fixed(1, 1)},
	{op: LoadBuildClass, name: "LOAD_BUILD_CLASS", effect: fixed(0, 1)},
	{op: ReturnValue, name: "RETURN_VALUE", term: true, effect: fixed(1, 0)},
	{op: PopExcept, name: "POP_EXCEPT", effect: fixed(1, 0)},

	{op: StoreName, name: "STORE_NAME", arg: ArgName, effect: fixed(1, 0)},
	{op: DeleteName, name: "DELETE_NAME", arg: ArgName, effect: fixed(0, 0)},
	{op: UnpackSequence, name: "UNPACK_SEQUENCE", arg: ArgInt, effect: unpackEffect},
	{op: ForIter, name: "FOR_ITER", arg: ArgJump, jump: JumpRelForward, effect: branching(1, 0, 1, 2)},
	{op: StoreAttr, name: "STORE_ATTR", arg: ArgName, effect: fixed(2, 0)},
	{op: DeleteAttr, name: "DELETE_ATTR", arg: ArgName, effect: fixed(1, 0)},
	{op: StoreGlobal, name: "STORE_GLOBAL", arg: ArgName, effect: fixed(1, 0)},
	{op: DeleteGlobal, name: "DELETE_GLOBAL", arg: ArgName, effect: fixed(0, 0)},
	{op: LoadConst, name: "LOAD_CONST", arg: ArgConst, effect: fixed(0, 1)},
	{op: LoadName, name: "LOAD_NAME", arg: ArgName, effect: fixed(0, 1)},
	{op: BuildTuple, name: "BUILD_TUPLE", arg: ArgInt, effect: popArg(0, 1)},
	{op: BuildList, name: "BUILD_LIST", arg: ArgInt, effect: popArg(0, 1)},
	{op: BuildSet, name: "BUILD_SET", arg: ArgInt, effect: popArg(0, 1)},
	{op: BuildMap, name: "BUILD_MAP", arg: ArgInt, effect: buildMapEffect},
	{op: CompareOp, name: "COMPARE_OP", arg: ArgCompare, effect: fixed(2, 1)},
	{op: ImportName, name: "IMPORT_NAME", arg: ArgName, effect: fixed(2, 1)},
	{op: ImportFrom, name: "IMPORT_FROM", arg: ArgName, effect: fixed(1, 2)},
	{op: JumpForward, name: "JUMP_FORWARD", arg: ArgJump, jump: JumpRelForward, uncond: true, effect: fixed(0, 0)},
	{op: JumpIfFalseOrPop, name: "JUMP_IF_FALSE_OR_POP", arg: ArgJump, jump: JumpRelForward, effect: branching(1, 1, 1, 0)},
	{op: JumpIfTrueOrPop, name: "JUMP_IF_TRUE_OR_POP", arg: ArgJump, jump: JumpRelForward, effect: branching(1, 1, 1, 0)},
	{op: PopJumpIfFalse, name: "POP_JUMP_IF_FALSE", arg: ArgJump, jump: JumpRelForward, effect: fixed(1, 0)},
	{op: PopJumpIfTrue, name: "POP_JUMP_IF_TRUE", arg: ArgJump, jump: JumpRelForward, effect: fixed(1, 0)},
	{op: IsOp, name: "IS_OP", arg: ArgInt, effect: fixed(2, 1)},
	{op: ContainsOp, name: "CONTAINS_OP", arg: ArgInt, effect: fixed(2, 1)},
	{op: Reraise, name: "RERAISE", arg: ArgInt, term: true, effect: fixed(1, 0)},
	{op: BinaryOp, name: "BINARY_OP", arg: ArgInt, effect: fixed(2, 1)},
	{op: LoadFast, name: "LOAD_FAST", arg: ArgLocal, effect: fixed(0, 1)},
	{op: StoreFast, name: "STORE_FAST", arg: ArgLocal, effect: fixed(1, 0)},
	{op: DeleteFast, name: "DELETE_FAST", arg: ArgLocal, effect: fixed(0, 0)},
	{op: RaiseVarargs, name: "RAISE_VARARGS", arg: ArgInt, term: true, effect: popArg(0, 0)},
	{op: GetAwaitable, name: "GET_AWAITABLE", arg: ArgInt, effect: fixed(1, 1)},
	{op: MakeFunction, name: "MAKE_FUNCTION", arg: ArgInt, effect: makeFunctionEffect},
	{op: BuildSlice, name: "BUILD_SLICE", arg: ArgInt, effect: popArg(0, 1)},
	{op: MakeCell, name: "MAKE_CELL", arg: ArgDeref, effect: fixed(0, 0)},
	{op: LoadClosure, name: "LOAD_CLOSURE", arg: ArgDeref, effect: fixed(0, 1)},
	{op: LoadDeref, name: "LOAD_DEREF", arg: ArgDeref, effect: fixed(0, 1)},
	{op: StoreDeref, name: "STORE_DEREF", arg: ArgDeref, effect: fixed(1, 0)},
	{op: DeleteDeref, name: "DELETE_DEREF", arg: ArgDeref, effect: fixed(0, 0)},
	{op: CallFunctionEx, name: "CALL_FUNCTION_EX", arg: ArgInt, effect: callFunctionExEffect},
	{op: ExtendedArg, name: "EXTENDED_ARG", arg: ArgInt, effect: fixed(0, 0)},
	{op: ListAppend, name: "LIST_APPEND", arg: ArgInt, effect: keepArg(1)},
	{op: SetAdd, name: "SET_ADD", arg: ArgInt, effect: keepArg(1)},
	{op: MapAdd, name: "MAP_ADD", arg: ArgInt, effect: keepArg(2)},
	{op: CopyFreeVars, name: "COPY_FREE_VARS", arg: ArgInt, effect: fixed(0, 0)},
	{op: YieldValue, name: "YIELD_VALUE", arg: ArgInt, effect: fixed(1, 1)},
	{op: Resume, name: "RESUME", arg: ArgInt, effect: fixed(0, 0)},
	{op: MatchClass, name: "MATCH_CLASS", arg: ArgInt, effect: fixed(3, 1)},
	{op: FormatValue, name: "FORMAT_VALUE", arg: ArgInt, effect: formatValueEffect},
	{op: BuildConstKeyMap, name: "BUILD_CONST_KEY_MAP", arg: ArgInt, effect: popArg(1, 1)},
	{op: BuildString, name: "BUILD_STRING", arg: ArgInt, effect: popArg(0, 1)},
	{op: ListExtend, name: "LIST_EXTEND", arg: ArgInt, effect: keepArg(1)},
	{op: SetUpdate, name: "SET_UPDATE", arg: ArgInt, effect: keepArg(1)},
	{op: DictMerge, name: "DICT_MERGE", arg: ArgInt, effect: keepArg(1)},
	{op: DictUpdate, name: "DICT_UPDATE", arg: ArgInt, effect: keepArg(1)},
	{op: Call, name: "CALL", arg: ArgInt, effect: popArg(2, 1)},
}

type overrides struct {
	apply   func(p *Profile)
	ops     []opInfo
	reverse map[Code]Code
}

var legacyOverrides = overrides{
	apply: func(p *Profile) {
		p.OffsetUnit = 1
		p.HandlerPush = 3
	},
	ops: []opInfo{
		{op: RotThree, name: "ROT_THREE", effect: fixed(3, 3)},
		{op: DupTop, name: "DUP_TOP", effect: fixed(1, 2)},
		{op: RotTwo, name: "ROT_TWO", effect: fixed(2, 2)},
		{op: LoadAttr, name: "LOAD_ATTR", arg: ArgName, effect: fixed(1, 1)},
		{op: LoadGlobal, name: "LOAD_GLOBAL", arg: ArgName, effect: fixed(0, 1)},
		{op: JumpAbsolute, name: "JUMP_ABSOLUTE", arg: ArgJump, jump: JumpAbs, uncond: true, effect: fixed(0, 0)},
		{op: JumpIfFalseOrPop, name: "JUMP_IF_FALSE_OR_POP", arg: ArgJump, jump: JumpAbs, effect: branching(1, 1, 1, 0)},
		{op: JumpIfTrueOrPop, name: "JUMP_IF_TRUE_OR_POP", arg: ArgJump, jump: JumpAbs, effect: branching(1, 1, 1, 0)},
		{op: PopJumpIfFalse, name: "POP_JUMP_IF_FALSE", arg: ArgJump, jump: JumpAbs, effect: fixed(1, 0)},
		{op: PopJumpIfTrue, name: "POP_JUMP_IF_TRUE", arg: ArgJump, jump: JumpAbs, effect: fixed(1, 0)},
	},
	reverse: map[Code]Code{JumpForward: JumpAbsolute},
}

var modernOverrides = overrides{
	apply: func(p *Profile) {
		p.OffsetUnit = 2
		p.ExceptionTable = true
		p.CompareShift = 4
		p.HandlerPush = 3
		p.SuspendSeed = true
	},
	ops: []opInfo{
		{op: Swap, name: "SWAP", arg: ArgInt, effect: swapEffect},
		{op: Copy, name: "COPY", arg: ArgInt, effect: copyEffect},
		{op: PushExcInfo, name: "PUSH_EXC_INFO", effect: fixed(1, 2)},
		{op: CheckExcMatch, name: "CHECK_EXC_MATCH", effect: fixed(2, 2)},
		{op: LoadAttr, name: "LOAD_ATTR", arg: ArgFlagName, effect: flagPush(1)},
		{op: LoadGlobal, name: "LOAD_GLOBAL", arg: ArgFlagName, effect: flagPush(0)},
		{op: ReturnConst, name: "RETURN_CONST", arg: ArgConst, term: true, effect: fixed(0, 0)},
		{op: PopJumpIfNotNone, name: "POP_JUMP_IF_NOT_NONE", arg: ArgJump, jump: JumpRelForward, effect: fixed(1, 0)},
		{op: PopJumpIfNone, name: "POP_JUMP_IF_NONE", arg: ArgJump, jump: JumpRelForward, effect: fixed(1, 0)},
		{op: JumpBackward, name: "JUMP_BACKWARD", arg: ArgJump, jump: JumpRelBackward, uncond: true, effect: fixed(0, 0)},
		{op: KwNames, name: "KW_NAMES", arg: ArgConst, effect: fixed(0, 0)},
		{op: LoadFastLoadFast, name: "LOAD_FAST_LOAD_FAST", arg: ArgLocalPair, effect: fixed(0, 2)},
		{op: StoreFastStoreFast, name: "STORE_FAST_STORE_FAST", arg: ArgLocalPair, effect: fixed(2, 0)},
		{op: StoreFastLoadFast, name: "STORE_FAST_LOAD_FAST", arg: ArgLocalPair, effect: fixed(1, 1)},
	},
	reverse: map[Code]Code{
		JumpForward:  JumpBackward,
		JumpBackward: JumpForward,
	},
}

func newProfile(name string, o overrides) *Profile {
	p := &Profile{
		Name:    name,
		byName:  map[string]*Info{},
		reverse: map[Code]Code{},
	}
	o.apply(p)
	register := func(ops []opInfo) {
		for _, e := range ops {
			info := &Info{
				Code:          e.op,
				Name:          e.name,
				Arg:           e.arg,
				Jump:          e.jump,
				Unconditional: e.uncond,
				Terminal:      e.term,
				effect:        e.effect,
			}
			if prev := p.infos[e.op]; prev != nil {
				delete(p.byName, prev.Name)
			}
			p.infos[e.op] = info
			p.byName[e.name] = info
		}
	}
	register(baseOps)
	register(o.ops)
	for from, to := range o.reverse {
		p.reverse[from] = to
	}
	return p
}

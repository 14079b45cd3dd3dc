// Package op defines the opcodes understood by the assembler and disassembler,
// along with their operand categories and stack effects.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint8

// HaveArgument is the first opcode whose operand byte is meaningful.
const HaveArgument Code = 90

const (
	Invalid Code = 0

	// Stack
	PopTop   Code = 1
	PushNull Code = 2
	RotThree Code = 3
	DupTop   Code = 4
	RotTwo   Code = 5
	Nop      Code = 9

	// Unary
	UnaryNegative Code = 11
	UnaryNot      Code = 12
	UnaryInvert   Code = 15

	// Containers
	BinarySubscr Code = 25
	GetLen       Code = 30
	StoreSubscr  Code = 60
	DeleteSubscr Code = 61
	GetIter      Code = 68

	// Pattern matching
	MatchMapping  Code = 31
	MatchSequence Code = 32
	MatchKeys     Code = 33

	// Exceptions and context managers
	PushExcInfo     Code = 35
	CheckExcMatch   Code = 36
	WithExceptStart Code = 49
	BeforeWith      Code = 53
	PopExcept       Code = 89

	LoadBuildClass Code = 71
	ReturnValue    Code = 83

	// Names
	StoreName    Code = 90
	DeleteName   Code = 91
	StoreAttr    Code = 95
	DeleteAttr   Code = 96
	StoreGlobal  Code = 97
	DeleteGlobal Code = 98
	LoadName     Code = 101
	LoadAttr     Code = 106
	ImportName   Code = 108
	ImportFrom   Code = 109
	LoadGlobal   Code = 116

	UnpackSequence Code = 92
	Swap           Code = 99
	LoadConst      Code = 100

	// Build
	BuildTuple       Code = 102
	BuildList        Code = 103
	BuildSet         Code = 104
	BuildMap         Code = 105
	BuildSlice       Code = 133
	BuildConstKeyMap Code = 156
	BuildString      Code = 157

	// Operations
	CompareOp  Code = 107
	IsOp       Code = 117
	ContainsOp Code = 118
	BinaryOp   Code = 122

	// Jump
	ForIter          Code = 93
	JumpForward      Code = 110
	JumpIfFalseOrPop Code = 111
	JumpIfTrueOrPop  Code = 112
	JumpAbsolute     Code = 113
	PopJumpIfFalse   Code = 114
	PopJumpIfTrue    Code = 115
	PopJumpIfNotNone Code = 128
	PopJumpIfNone    Code = 129
	JumpBackward     Code = 140

	Reraise     Code = 119
	Copy        Code = 120
	ReturnConst Code = 121

	// Locals
	LoadFast           Code = 124
	StoreFast          Code = 125
	DeleteFast         Code = 126
	LoadFastLoadFast   Code = 174
	StoreFastStoreFast Code = 175
	StoreFastLoadFast  Code = 176

	RaiseVarargs Code = 130
	GetAwaitable Code = 131
	MakeFunction Code = 132

	// Closures
	MakeCell     Code = 135
	LoadClosure  Code = 136
	LoadDeref    Code = 137
	StoreDeref   Code = 138
	DeleteDeref  Code = 139
	CopyFreeVars Code = 149

	CallFunctionEx Code = 142
	ExtendedArg    Code = 144

	// Comprehension helpers
	ListAppend Code = 145
	SetAdd     Code = 146
	MapAdd     Code = 147
	ListExtend Code = 162
	SetUpdate  Code = 163
	DictMerge  Code = 164
	DictUpdate Code = 165

	YieldValue  Code = 150
	Resume      Code = 151
	MatchClass  Code = 152
	FormatValue Code = 155

	Call    Code = 171
	KwNames Code = 172
)

// MaxArg is the largest operand that can be encoded with a full chain of
// EXTENDED_ARG prefixes.
const MaxArg = 0xFFFFFFFF

// MaxExtendedArgs is the maximum number of EXTENDED_ARG prefixes preceding
// a single instruction.
const MaxExtendedArgs = 3

// ExtendedArgs returns the number of EXTENDED_ARG prefixes needed to encode
// the given operand.
func ExtendedArgs(arg int) int {
	switch {
	case arg <= 0xFF:
		return 0
	case arg <= 0xFFFF:
		return 1
	case arg <= 0xFFFFFF:
		return 2
	default:
		return 3
	}
}

// InstrSize returns the encoded size in bytes of an instruction carrying the
// given operand, prefixes included.
func InstrSize(arg int) int {
	return 2 * (1 + ExtendedArgs(arg))
}

// ArgKind describes the category of operand an opcode accepts.
type ArgKind uint8

const (
	ArgNone      ArgKind = iota
	ArgInt               // integer immediate
	ArgJump              // jump target
	ArgConst             // constant pool value
	ArgName              // name table entry
	ArgLocal             // local variable slot
	ArgDeref             // cell or free variable
	ArgCompare           // comparison operator
	ArgFlagName          // low bit flag packed with a name index
	ArgLocalPair         // two local slots packed in nibbles
)

// String returns a human readable name for the operand category.
func (k ArgKind) String() string {
	switch k {
	case ArgNone:
		return "no"
	case ArgInt:
		return "integer"
	case ArgJump:
		return "jump target"
	case ArgConst:
		return "constant"
	case ArgName:
		return "name"
	case ArgLocal:
		return "local"
	case ArgDeref:
		return "cell/free variable"
	case ArgCompare:
		return "comparison"
	case ArgFlagName:
		return "flag and name"
	case ArgLocalPair:
		return "local pair"
	default:
		return "unknown"
	}
}

// JumpKind describes how a jump opcode interprets its operand.
type JumpKind uint8

const (
	JumpNone JumpKind = iota
	JumpRelForward
	JumpRelBackward
	JumpAbs
)

// Branch selects which outcome of a jump instruction a stack effect query is
// about.
type Branch uint8

const (
	BranchUnknown Branch = iota
	BranchTaken
	BranchNotTaken
)

// Compare describes a type of comparison operation. For example, less than,
// greater than, equal, etc.
type Compare uint8

const (
	LessThan           Compare = 0
	LessThanOrEqual    Compare = 1
	Equal              Compare = 2
	NotEqual           Compare = 3
	GreaterThan        Compare = 4
	GreaterThanOrEqual Compare = 5
)

// Valid reports whether the comparison is one of the known operators.
func (c Compare) Valid() bool {
	return c <= GreaterThanOrEqual
}

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (c Compare) String() string {
	switch c {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

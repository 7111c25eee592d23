package core

import "fmt"

// Op is the major opcode of an Instruction: one per instruction family.
type Op byte

const (
	OpNop Op = iota
	OpMove
	OpReturn
	OpSpecial
	OpNew
	OpException
	OpGoto
	OpCmp
	OpIf
	OpInstance
	OpArray
	OpStatic
	OpInvoke
	OpArithmetic
	OpSwitch
	OpHalt

	numOps
)

var opNames = [numOps]string{
	"NOP", "MOV", "RETURN", "SPECIAL", "NEW", "EXCEPTION", "GOTO", "CMP",
	"IF", "INSTANCE", "ARRAY", "STATIC", "INVOKE", "ARITHMETIC", "SWITCH", "HALT",
}

func (o Op) String() string {
	if o < numOps {
		return opNames[o]
	}
	return fmt.Sprintf("OP(%d)", byte(o))
}

// Aux is the minor opcode that disambiguates within a family.
type Aux byte

const (
	AuxNil Aux = iota
	AuxMoveReg
	AuxMoveConst
	AuxReturnVoid
	AuxReturnValue
	AuxMonitorEnter
	AuxMonitorExit
	AuxArguments
	AuxNewInstance
	AuxNewArray
	AuxNewFilledArray
	AuxInvokeDirect
	AuxInvokeSuper
	AuxInvokeVirtual
	AuxInvokeStatic
	AuxInvokeInterface
	AuxInstanceOf
	AuxArrayLength
	AuxCheckCast
	AuxNot
	AuxNeg
	AuxMoveResult
	AuxMoveException
	AuxCast
	AuxIfEq
	AuxIfNe
	AuxIfLt
	AuxIfGe
	AuxIfGt
	AuxIfLe
	AuxIfEqz
	AuxIfNez
	AuxIfLtz
	AuxIfGez
	AuxIfGtz
	AuxIfLez
	AuxArrayGet
	AuxArrayPut
	AuxAdd
	AuxSub
	AuxMul
	AuxDiv
	AuxRem
	AuxAnd
	AuxOr
	AuxXor
	AuxShl
	AuxShr
	AuxUshr
	AuxCmpLong
	AuxCmpLess
	AuxCmpGreater
	AuxStaticGet
	AuxStaticPut
	AuxInstanceGet
	AuxInstancePut
	AuxTryCatch
	AuxThrow
	// AuxRsub is reverse subtraction: dst = literal - r0.
	AuxRsub

	numAux
)

// The rendered names are part of the dump format; "EXCETPION" included.
var auxNames = [numAux]string{
	"NIL", "REG", "CONST", "VOID", "VALUE", "MONITOR_ENTER", "MONITOR_EXIT",
	"ARGUMENT_SET", "INSTANCE", "ARRAY", "FILLED_ARRAY", "DIRECT", "SUPER",
	"VIRTUAL", "STATIC", "INTERFACE", "INSTANCE_OF", "ARRAY_LENGTH",
	"CHECK-AND-CAST", "NOT", "NEG", "RESULT", "EXCETPION", "CAST",
	"EQ", "NE", "LT", "GE", "GT", "LE", "EQZ", "NEZ", "LTZ", "GEZ", "GTZ", "LEZ",
	"AGET", "APUT", "ADD", "SUB", "MUL", "DIV", "REM", "AND", "OR", "XOR",
	"SHL", "SHR", "USHR", "CMPLONG", "CMPL", "CMPG",
	"SGET", "SPUT", "IGET", "IPUT", "TRYCATCH", "THROW", "RSUB",
}

func (a Aux) String() string {
	if a < numAux {
		return auxNames[a]
	}
	return fmt.Sprintf("AUX(%d)", byte(a))
}

// IsInvoke reports an invoke-family minor opcode.
func (a Aux) IsInvoke() bool { return a >= AuxInvokeDirect && a <= AuxInvokeInterface }

// IsBranch reports a conditional-branch minor opcode.
func (a Aux) IsBranch() bool { return a >= AuxIfEq && a <= AuxIfLez }

// Ops lists every major opcode in catalogue order.
func Ops() []Op {
	out := make([]Op, numOps)
	for i := range out {
		out[i] = Op(i)
	}
	return out
}

// Auxes lists every minor opcode in catalogue order.
func Auxes() []Aux {
	out := make([]Aux, numAux)
	for i := range out {
		out[i] = Aux(i)
	}
	return out
}

package dex

// Opcode is a Dalvik opcode. Payload pseudo-instructions use the full
// 16-bit ident as their opcode.
type Opcode uint16

// Format is an instruction encoding format, named after its shape
// (code units, registers, kind).
type Format uint8

const (
	FmtUnused Format = iota
	Fmt10x
	Fmt12x
	Fmt11n
	Fmt11x
	Fmt10t
	Fmt20t
	Fmt22x
	Fmt21t
	Fmt21s
	Fmt21h
	Fmt21c
	Fmt23x
	Fmt22b
	Fmt22t
	Fmt22s
	Fmt22c
	Fmt30t
	Fmt32x
	Fmt31i
	Fmt31t
	Fmt31c
	Fmt35c
	Fmt3rc
	Fmt45cc
	Fmt4rcc
	Fmt51l
	FmtPayload
)

var formatNames = [...]string{
	FmtUnused:  "unused",
	Fmt10x:     "10x",
	Fmt12x:     "12x",
	Fmt11n:     "11n",
	Fmt11x:     "11x",
	Fmt10t:     "10t",
	Fmt20t:     "20t",
	Fmt22x:     "22x",
	Fmt21t:     "21t",
	Fmt21s:     "21s",
	Fmt21h:     "21h",
	Fmt21c:     "21c",
	Fmt23x:     "23x",
	Fmt22b:     "22b",
	Fmt22t:     "22t",
	Fmt22s:     "22s",
	Fmt22c:     "22c",
	Fmt30t:     "30t",
	Fmt32x:     "32x",
	Fmt31i:     "31i",
	Fmt31t:     "31t",
	Fmt31c:     "31c",
	Fmt35c:     "35c",
	Fmt3rc:     "3rc",
	Fmt45cc:    "45cc",
	Fmt4rcc:    "4rcc",
	Fmt51l:     "51l",
	FmtPayload: "payload",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "?"
}

// Units is the fixed size of the format in 16-bit code units. Payloads
// and unused slots report 1; payload sizes come from their contents.
func (f Format) Units() int {
	switch f {
	case Fmt10x, Fmt12x, Fmt11n, Fmt11x, Fmt10t, FmtUnused, FmtPayload:
		return 1
	case Fmt20t, Fmt22x, Fmt21t, Fmt21s, Fmt21h, Fmt21c, Fmt23x, Fmt22b, Fmt22t, Fmt22s, Fmt22c:
		return 2
	case Fmt30t, Fmt32x, Fmt31i, Fmt31t, Fmt31c, Fmt35c, Fmt3rc:
		return 3
	case Fmt45cc, Fmt4rcc:
		return 4
	case Fmt51l:
		return 5
	}
	return 1
}

type opcodeInfo struct {
	name   string
	format Format
}

const (
	Nop                    Opcode = 0x00
	Move                   Opcode = 0x01
	MoveFrom16             Opcode = 0x02
	Move16                 Opcode = 0x03
	MoveWide               Opcode = 0x04
	MoveWideFrom16         Opcode = 0x05
	MoveWide16             Opcode = 0x06
	MoveObject             Opcode = 0x07
	MoveObjectFrom16       Opcode = 0x08
	MoveObject16           Opcode = 0x09
	MoveResult             Opcode = 0x0a
	MoveResultWide         Opcode = 0x0b
	MoveResultObject       Opcode = 0x0c
	MoveException          Opcode = 0x0d
	ReturnVoid             Opcode = 0x0e
	Return                 Opcode = 0x0f
	ReturnWide             Opcode = 0x10
	ReturnObject           Opcode = 0x11
	Const4                 Opcode = 0x12
	Const16                Opcode = 0x13
	Const                  Opcode = 0x14
	ConstHigh16            Opcode = 0x15
	ConstWide16            Opcode = 0x16
	ConstWide32            Opcode = 0x17
	ConstWide              Opcode = 0x18
	ConstWideHigh16        Opcode = 0x19
	ConstString            Opcode = 0x1a
	ConstStringJumbo       Opcode = 0x1b
	ConstClass             Opcode = 0x1c
	MonitorEnter           Opcode = 0x1d
	MonitorExit            Opcode = 0x1e
	CheckCast              Opcode = 0x1f
	InstanceOf             Opcode = 0x20
	ArrayLength            Opcode = 0x21
	NewInstance            Opcode = 0x22
	NewArray               Opcode = 0x23
	FilledNewArray         Opcode = 0x24
	FilledNewArrayRange    Opcode = 0x25
	FillArrayData          Opcode = 0x26
	Throw                  Opcode = 0x27
	Goto                   Opcode = 0x28
	Goto16                 Opcode = 0x29
	Goto32                 Opcode = 0x2a
	PackedSwitch           Opcode = 0x2b
	SparseSwitch           Opcode = 0x2c
	CmplFloat              Opcode = 0x2d
	CmpgFloat              Opcode = 0x2e
	CmplDouble             Opcode = 0x2f
	CmpgDouble             Opcode = 0x30
	CmpLong                Opcode = 0x31
	IfEq                   Opcode = 0x32
	IfNe                   Opcode = 0x33
	IfLt                   Opcode = 0x34
	IfGe                   Opcode = 0x35
	IfGt                   Opcode = 0x36
	IfLe                   Opcode = 0x37
	IfEqz                  Opcode = 0x38
	IfNez                  Opcode = 0x39
	IfLtz                  Opcode = 0x3a
	IfGez                  Opcode = 0x3b
	IfGtz                  Opcode = 0x3c
	IfLez                  Opcode = 0x3d
	Aget                   Opcode = 0x44
	AgetWide               Opcode = 0x45
	AgetObject             Opcode = 0x46
	AgetBoolean            Opcode = 0x47
	AgetByte               Opcode = 0x48
	AgetChar               Opcode = 0x49
	AgetShort              Opcode = 0x4a
	Aput                   Opcode = 0x4b
	AputWide               Opcode = 0x4c
	AputObject             Opcode = 0x4d
	AputBoolean            Opcode = 0x4e
	AputByte               Opcode = 0x4f
	AputChar               Opcode = 0x50
	AputShort              Opcode = 0x51
	Iget                   Opcode = 0x52
	IgetWide               Opcode = 0x53
	IgetObject             Opcode = 0x54
	IgetBoolean            Opcode = 0x55
	IgetByte               Opcode = 0x56
	IgetChar               Opcode = 0x57
	IgetShort              Opcode = 0x58
	Iput                   Opcode = 0x59
	IputWide               Opcode = 0x5a
	IputObject             Opcode = 0x5b
	IputBoolean            Opcode = 0x5c
	IputByte               Opcode = 0x5d
	IputChar               Opcode = 0x5e
	IputShort              Opcode = 0x5f
	Sget                   Opcode = 0x60
	SgetWide               Opcode = 0x61
	SgetObject             Opcode = 0x62
	SgetBoolean            Opcode = 0x63
	SgetByte               Opcode = 0x64
	SgetChar               Opcode = 0x65
	SgetShort              Opcode = 0x66
	Sput                   Opcode = 0x67
	SputWide               Opcode = 0x68
	SputObject             Opcode = 0x69
	SputBoolean            Opcode = 0x6a
	SputByte               Opcode = 0x6b
	SputChar               Opcode = 0x6c
	SputShort              Opcode = 0x6d
	InvokeVirtual          Opcode = 0x6e
	InvokeSuper            Opcode = 0x6f
	InvokeDirect           Opcode = 0x70
	InvokeStatic           Opcode = 0x71
	InvokeInterface        Opcode = 0x72
	InvokeVirtualRange     Opcode = 0x74
	InvokeSuperRange       Opcode = 0x75
	InvokeDirectRange      Opcode = 0x76
	InvokeStaticRange      Opcode = 0x77
	InvokeInterfaceRange   Opcode = 0x78
	NegInt                 Opcode = 0x7b
	NotInt                 Opcode = 0x7c
	NegLong                Opcode = 0x7d
	NotLong                Opcode = 0x7e
	NegFloat               Opcode = 0x7f
	NegDouble              Opcode = 0x80
	IntToLong              Opcode = 0x81
	IntToFloat             Opcode = 0x82
	IntToDouble            Opcode = 0x83
	LongToInt              Opcode = 0x84
	LongToFloat            Opcode = 0x85
	LongToDouble           Opcode = 0x86
	FloatToInt             Opcode = 0x87
	FloatToLong            Opcode = 0x88
	FloatToDouble          Opcode = 0x89
	DoubleToInt            Opcode = 0x8a
	DoubleToLong           Opcode = 0x8b
	DoubleToFloat          Opcode = 0x8c
	IntToByte              Opcode = 0x8d
	IntToChar              Opcode = 0x8e
	IntToShort             Opcode = 0x8f
	AddInt                 Opcode = 0x90
	SubInt                 Opcode = 0x91
	MulInt                 Opcode = 0x92
	DivInt                 Opcode = 0x93
	RemInt                 Opcode = 0x94
	AndInt                 Opcode = 0x95
	OrInt                  Opcode = 0x96
	XorInt                 Opcode = 0x97
	ShlInt                 Opcode = 0x98
	ShrInt                 Opcode = 0x99
	UshrInt                Opcode = 0x9a
	AddLong                Opcode = 0x9b
	SubLong                Opcode = 0x9c
	MulLong                Opcode = 0x9d
	DivLong                Opcode = 0x9e
	RemLong                Opcode = 0x9f
	AndLong                Opcode = 0xa0
	OrLong                 Opcode = 0xa1
	XorLong                Opcode = 0xa2
	ShlLong                Opcode = 0xa3
	ShrLong                Opcode = 0xa4
	UshrLong               Opcode = 0xa5
	AddFloat               Opcode = 0xa6
	SubFloat               Opcode = 0xa7
	MulFloat               Opcode = 0xa8
	DivFloat               Opcode = 0xa9
	RemFloat               Opcode = 0xaa
	AddDouble              Opcode = 0xab
	SubDouble              Opcode = 0xac
	MulDouble              Opcode = 0xad
	DivDouble              Opcode = 0xae
	RemDouble              Opcode = 0xaf
	AddInt2Addr            Opcode = 0xb0
	SubInt2Addr            Opcode = 0xb1
	MulInt2Addr            Opcode = 0xb2
	DivInt2Addr            Opcode = 0xb3
	RemInt2Addr            Opcode = 0xb4
	AndInt2Addr            Opcode = 0xb5
	OrInt2Addr             Opcode = 0xb6
	XorInt2Addr            Opcode = 0xb7
	ShlInt2Addr            Opcode = 0xb8
	ShrInt2Addr            Opcode = 0xb9
	UshrInt2Addr           Opcode = 0xba
	AddLong2Addr           Opcode = 0xbb
	SubLong2Addr           Opcode = 0xbc
	MulLong2Addr           Opcode = 0xbd
	DivLong2Addr           Opcode = 0xbe
	RemLong2Addr           Opcode = 0xbf
	AndLong2Addr           Opcode = 0xc0
	OrLong2Addr            Opcode = 0xc1
	XorLong2Addr           Opcode = 0xc2
	ShlLong2Addr           Opcode = 0xc3
	ShrLong2Addr           Opcode = 0xc4
	UshrLong2Addr          Opcode = 0xc5
	AddFloat2Addr          Opcode = 0xc6
	SubFloat2Addr          Opcode = 0xc7
	MulFloat2Addr          Opcode = 0xc8
	DivFloat2Addr          Opcode = 0xc9
	RemFloat2Addr          Opcode = 0xca
	AddDouble2Addr         Opcode = 0xcb
	SubDouble2Addr         Opcode = 0xcc
	MulDouble2Addr         Opcode = 0xcd
	DivDouble2Addr         Opcode = 0xce
	RemDouble2Addr         Opcode = 0xcf
	AddIntLit16            Opcode = 0xd0
	RsubInt                Opcode = 0xd1
	MulIntLit16            Opcode = 0xd2
	DivIntLit16            Opcode = 0xd3
	RemIntLit16            Opcode = 0xd4
	AndIntLit16            Opcode = 0xd5
	OrIntLit16             Opcode = 0xd6
	XorIntLit16            Opcode = 0xd7
	AddIntLit8             Opcode = 0xd8
	RsubIntLit8            Opcode = 0xd9
	MulIntLit8             Opcode = 0xda
	DivIntLit8             Opcode = 0xdb
	RemIntLit8             Opcode = 0xdc
	AndIntLit8             Opcode = 0xdd
	OrIntLit8              Opcode = 0xde
	XorIntLit8             Opcode = 0xdf
	ShlIntLit8             Opcode = 0xe0
	ShrIntLit8             Opcode = 0xe1
	UshrIntLit8            Opcode = 0xe2
	InvokePolymorphic      Opcode = 0xfa
	InvokePolymorphicRange Opcode = 0xfb
	InvokeCustom           Opcode = 0xfc
	InvokeCustomRange      Opcode = 0xfd
	ConstMethodHandle      Opcode = 0xfe
	ConstMethodType        Opcode = 0xff

	PackedSwitchPayload   Opcode = 0x100
	SparseSwitchPayload   Opcode = 0x200
	FillArrayDataPayload Opcode = 0x300
)

var opcodeTable = [256]opcodeInfo{
	Nop:                    {"nop", Fmt10x},
	Move:                   {"move", Fmt12x},
	MoveFrom16:             {"move/from16", Fmt22x},
	Move16:                 {"move/16", Fmt32x},
	MoveWide:               {"move-wide", Fmt12x},
	MoveWideFrom16:         {"move-wide/from16", Fmt22x},
	MoveWide16:             {"move-wide/16", Fmt32x},
	MoveObject:             {"move-object", Fmt12x},
	MoveObjectFrom16:       {"move-object/from16", Fmt22x},
	MoveObject16:           {"move-object/16", Fmt32x},
	MoveResult:             {"move-result", Fmt11x},
	MoveResultWide:         {"move-result-wide", Fmt11x},
	MoveResultObject:       {"move-result-object", Fmt11x},
	MoveException:          {"move-exception", Fmt11x},
	ReturnVoid:             {"return-void", Fmt10x},
	Return:                 {"return", Fmt11x},
	ReturnWide:             {"return-wide", Fmt11x},
	ReturnObject:           {"return-object", Fmt11x},
	Const4:                 {"const/4", Fmt11n},
	Const16:                {"const/16", Fmt21s},
	Const:                  {"const", Fmt31i},
	ConstHigh16:            {"const/high16", Fmt21h},
	ConstWide16:            {"const-wide/16", Fmt21s},
	ConstWide32:            {"const-wide/32", Fmt31i},
	ConstWide:              {"const-wide", Fmt51l},
	ConstWideHigh16:        {"const-wide/high16", Fmt21h},
	ConstString:            {"const-string", Fmt21c},
	ConstStringJumbo:       {"const-string/jumbo", Fmt31c},
	ConstClass:             {"const-class", Fmt21c},
	MonitorEnter:           {"monitor-enter", Fmt11x},
	MonitorExit:            {"monitor-exit", Fmt11x},
	CheckCast:              {"check-cast", Fmt21c},
	InstanceOf:             {"instance-of", Fmt22c},
	ArrayLength:            {"array-length", Fmt12x},
	NewInstance:            {"new-instance", Fmt21c},
	NewArray:               {"new-array", Fmt22c},
	FilledNewArray:         {"filled-new-array", Fmt35c},
	FilledNewArrayRange:    {"filled-new-array/range", Fmt3rc},
	FillArrayData:          {"fill-array-data", Fmt31t},
	Throw:                  {"throw", Fmt11x},
	Goto:                   {"goto", Fmt10t},
	Goto16:                 {"goto/16", Fmt20t},
	Goto32:                 {"goto/32", Fmt30t},
	PackedSwitch:           {"packed-switch", Fmt31t},
	SparseSwitch:           {"sparse-switch", Fmt31t},
	CmplFloat:              {"cmpl-float", Fmt23x},
	CmpgFloat:              {"cmpg-float", Fmt23x},
	CmplDouble:             {"cmpl-double", Fmt23x},
	CmpgDouble:             {"cmpg-double", Fmt23x},
	CmpLong:                {"cmp-long", Fmt23x},
	IfEq:                   {"if-eq", Fmt22t},
	IfNe:                   {"if-ne", Fmt22t},
	IfLt:                   {"if-lt", Fmt22t},
	IfGe:                   {"if-ge", Fmt22t},
	IfGt:                   {"if-gt", Fmt22t},
	IfLe:                   {"if-le", Fmt22t},
	IfEqz:                  {"if-eqz", Fmt21t},
	IfNez:                  {"if-nez", Fmt21t},
	IfLtz:                  {"if-ltz", Fmt21t},
	IfGez:                  {"if-gez", Fmt21t},
	IfGtz:                  {"if-gtz", Fmt21t},
	IfLez:                  {"if-lez", Fmt21t},
	Aget:                   {"aget", Fmt23x},
	AgetWide:               {"aget-wide", Fmt23x},
	AgetObject:             {"aget-object", Fmt23x},
	AgetBoolean:            {"aget-boolean", Fmt23x},
	AgetByte:               {"aget-byte", Fmt23x},
	AgetChar:               {"aget-char", Fmt23x},
	AgetShort:              {"aget-short", Fmt23x},
	Aput:                   {"aput", Fmt23x},
	AputWide:               {"aput-wide", Fmt23x},
	AputObject:             {"aput-object", Fmt23x},
	AputBoolean:            {"aput-boolean", Fmt23x},
	AputByte:               {"aput-byte", Fmt23x},
	AputChar:               {"aput-char", Fmt23x},
	AputShort:              {"aput-short", Fmt23x},
	Iget:                   {"iget", Fmt22c},
	IgetWide:               {"iget-wide", Fmt22c},
	IgetObject:             {"iget-object", Fmt22c},
	IgetBoolean:            {"iget-boolean", Fmt22c},
	IgetByte:               {"iget-byte", Fmt22c},
	IgetChar:               {"iget-char", Fmt22c},
	IgetShort:              {"iget-short", Fmt22c},
	Iput:                   {"iput", Fmt22c},
	IputWide:               {"iput-wide", Fmt22c},
	IputObject:             {"iput-object", Fmt22c},
	IputBoolean:            {"iput-boolean", Fmt22c},
	IputByte:               {"iput-byte", Fmt22c},
	IputChar:               {"iput-char", Fmt22c},
	IputShort:              {"iput-short", Fmt22c},
	Sget:                   {"sget", Fmt21c},
	SgetWide:               {"sget-wide", Fmt21c},
	SgetObject:             {"sget-object", Fmt21c},
	SgetBoolean:            {"sget-boolean", Fmt21c},
	SgetByte:               {"sget-byte", Fmt21c},
	SgetChar:               {"sget-char", Fmt21c},
	SgetShort:              {"sget-short", Fmt21c},
	Sput:                   {"sput", Fmt21c},
	SputWide:               {"sput-wide", Fmt21c},
	SputObject:             {"sput-object", Fmt21c},
	SputBoolean:            {"sput-boolean", Fmt21c},
	SputByte:               {"sput-byte", Fmt21c},
	SputChar:               {"sput-char", Fmt21c},
	SputShort:              {"sput-short", Fmt21c},
	InvokeVirtual:          {"invoke-virtual", Fmt35c},
	InvokeSuper:            {"invoke-super", Fmt35c},
	InvokeDirect:           {"invoke-direct", Fmt35c},
	InvokeStatic:           {"invoke-static", Fmt35c},
	InvokeInterface:        {"invoke-interface", Fmt35c},
	InvokeVirtualRange:     {"invoke-virtual/range", Fmt3rc},
	InvokeSuperRange:       {"invoke-super/range", Fmt3rc},
	InvokeDirectRange:      {"invoke-direct/range", Fmt3rc},
	InvokeStaticRange:      {"invoke-static/range", Fmt3rc},
	InvokeInterfaceRange:   {"invoke-interface/range", Fmt3rc},
	NegInt:                 {"neg-int", Fmt12x},
	NotInt:                 {"not-int", Fmt12x},
	NegLong:                {"neg-long", Fmt12x},
	NotLong:                {"not-long", Fmt12x},
	NegFloat:               {"neg-float", Fmt12x},
	NegDouble:              {"neg-double", Fmt12x},
	IntToLong:              {"int-to-long", Fmt12x},
	IntToFloat:             {"int-to-float", Fmt12x},
	IntToDouble:            {"int-to-double", Fmt12x},
	LongToInt:              {"long-to-int", Fmt12x},
	LongToFloat:            {"long-to-float", Fmt12x},
	LongToDouble:           {"long-to-double", Fmt12x},
	FloatToInt:             {"float-to-int", Fmt12x},
	FloatToLong:            {"float-to-long", Fmt12x},
	FloatToDouble:          {"float-to-double", Fmt12x},
	DoubleToInt:            {"double-to-int", Fmt12x},
	DoubleToLong:           {"double-to-long", Fmt12x},
	DoubleToFloat:          {"double-to-float", Fmt12x},
	IntToByte:              {"int-to-byte", Fmt12x},
	IntToChar:              {"int-to-char", Fmt12x},
	IntToShort:             {"int-to-short", Fmt12x},
	AddInt:                 {"add-int", Fmt23x},
	SubInt:                 {"sub-int", Fmt23x},
	MulInt:                 {"mul-int", Fmt23x},
	DivInt:                 {"div-int", Fmt23x},
	RemInt:                 {"rem-int", Fmt23x},
	AndInt:                 {"and-int", Fmt23x},
	OrInt:                  {"or-int", Fmt23x},
	XorInt:                 {"xor-int", Fmt23x},
	ShlInt:                 {"shl-int", Fmt23x},
	ShrInt:                 {"shr-int", Fmt23x},
	UshrInt:                {"ushr-int", Fmt23x},
	AddLong:                {"add-long", Fmt23x},
	SubLong:                {"sub-long", Fmt23x},
	MulLong:                {"mul-long", Fmt23x},
	DivLong:                {"div-long", Fmt23x},
	RemLong:                {"rem-long", Fmt23x},
	AndLong:                {"and-long", Fmt23x},
	OrLong:                 {"or-long", Fmt23x},
	XorLong:                {"xor-long", Fmt23x},
	ShlLong:                {"shl-long", Fmt23x},
	ShrLong:                {"shr-long", Fmt23x},
	UshrLong:               {"ushr-long", Fmt23x},
	AddFloat:               {"add-float", Fmt23x},
	SubFloat:               {"sub-float", Fmt23x},
	MulFloat:               {"mul-float", Fmt23x},
	DivFloat:               {"div-float", Fmt23x},
	RemFloat:               {"rem-float", Fmt23x},
	AddDouble:              {"add-double", Fmt23x},
	SubDouble:              {"sub-double", Fmt23x},
	MulDouble:              {"mul-double", Fmt23x},
	DivDouble:              {"div-double", Fmt23x},
	RemDouble:              {"rem-double", Fmt23x},
	AddInt2Addr:            {"add-int/2addr", Fmt12x},
	SubInt2Addr:            {"sub-int/2addr", Fmt12x},
	MulInt2Addr:            {"mul-int/2addr", Fmt12x},
	DivInt2Addr:            {"div-int/2addr", Fmt12x},
	RemInt2Addr:            {"rem-int/2addr", Fmt12x},
	AndInt2Addr:            {"and-int/2addr", Fmt12x},
	OrInt2Addr:             {"or-int/2addr", Fmt12x},
	XorInt2Addr:            {"xor-int/2addr", Fmt12x},
	ShlInt2Addr:            {"shl-int/2addr", Fmt12x},
	ShrInt2Addr:            {"shr-int/2addr", Fmt12x},
	UshrInt2Addr:           {"ushr-int/2addr", Fmt12x},
	AddLong2Addr:           {"add-long/2addr", Fmt12x},
	SubLong2Addr:           {"sub-long/2addr", Fmt12x},
	MulLong2Addr:           {"mul-long/2addr", Fmt12x},
	DivLong2Addr:           {"div-long/2addr", Fmt12x},
	RemLong2Addr:           {"rem-long/2addr", Fmt12x},
	AndLong2Addr:           {"and-long/2addr", Fmt12x},
	OrLong2Addr:            {"or-long/2addr", Fmt12x},
	XorLong2Addr:           {"xor-long/2addr", Fmt12x},
	ShlLong2Addr:           {"shl-long/2addr", Fmt12x},
	ShrLong2Addr:           {"shr-long/2addr", Fmt12x},
	UshrLong2Addr:          {"ushr-long/2addr", Fmt12x},
	AddFloat2Addr:          {"add-float/2addr", Fmt12x},
	SubFloat2Addr:          {"sub-float/2addr", Fmt12x},
	MulFloat2Addr:          {"mul-float/2addr", Fmt12x},
	DivFloat2Addr:          {"div-float/2addr", Fmt12x},
	RemFloat2Addr:          {"rem-float/2addr", Fmt12x},
	AddDouble2Addr:         {"add-double/2addr", Fmt12x},
	SubDouble2Addr:         {"sub-double/2addr", Fmt12x},
	MulDouble2Addr:         {"mul-double/2addr", Fmt12x},
	DivDouble2Addr:         {"div-double/2addr", Fmt12x},
	RemDouble2Addr:         {"rem-double/2addr", Fmt12x},
	AddIntLit16:            {"add-int/lit16", Fmt22s},
	RsubInt:                {"rsub-int", Fmt22s},
	MulIntLit16:            {"mul-int/lit16", Fmt22s},
	DivIntLit16:            {"div-int/lit16", Fmt22s},
	RemIntLit16:            {"rem-int/lit16", Fmt22s},
	AndIntLit16:            {"and-int/lit16", Fmt22s},
	OrIntLit16:             {"or-int/lit16", Fmt22s},
	XorIntLit16:            {"xor-int/lit16", Fmt22s},
	AddIntLit8:             {"add-int/lit8", Fmt22b},
	RsubIntLit8:            {"rsub-int/lit8", Fmt22b},
	MulIntLit8:             {"mul-int/lit8", Fmt22b},
	DivIntLit8:             {"div-int/lit8", Fmt22b},
	RemIntLit8:             {"rem-int/lit8", Fmt22b},
	AndIntLit8:             {"and-int/lit8", Fmt22b},
	OrIntLit8:              {"or-int/lit8", Fmt22b},
	XorIntLit8:             {"xor-int/lit8", Fmt22b},
	ShlIntLit8:             {"shl-int/lit8", Fmt22b},
	ShrIntLit8:             {"shr-int/lit8", Fmt22b},
	UshrIntLit8:            {"ushr-int/lit8", Fmt22b},
	InvokePolymorphic:      {"invoke-polymorphic", Fmt45cc},
	InvokePolymorphicRange: {"invoke-polymorphic/range", Fmt4rcc},
	InvokeCustom:           {"invoke-custom", Fmt35c},
	InvokeCustomRange:      {"invoke-custom/range", Fmt3rc},
	ConstMethodHandle:      {"const-method-handle", Fmt21c},
	ConstMethodType:        {"const-method-type", Fmt21c},
}

// Name returns the smali mnemonic.
func (o Opcode) Name() string {
	switch o {
	case PackedSwitchPayload:
		return "packed-switch-payload"
	case SparseSwitchPayload:
		return "sparse-switch-payload"
	case FillArrayDataPayload:
		return "array-payload"
	}
	if o < 256 && opcodeTable[o].format != FmtUnused {
		return opcodeTable[o].name
	}
	return "unused"
}

func (o Opcode) String() string { return o.Name() }

// Format returns the encoding format of o.
func (o Opcode) Format() Format {
	if o >= 256 {
		return FmtPayload
	}
	return opcodeTable[o].format
}

// IsUnused reports opcodes that have no assigned instruction.
func (o Opcode) IsUnused() bool { return o < 256 && opcodeTable[o].format == FmtUnused }

// IsPayload reports the data pseudo-instructions.
func (o Opcode) IsPayload() bool {
	return o == PackedSwitchPayload || o == SparseSwitchPayload || o == FillArrayDataPayload
}

// refKind is what the index operand of an instruction refers to.
type refKind uint8

const (
	refNone refKind = iota
	refString
	refType
	refField
	refMethod
	refOther
)

func (o Opcode) refKind() refKind {
	switch {
	case o > 0xff:
		return refNone
	case o == ConstString || o == ConstStringJumbo:
		return refString
	case o == ConstClass || o == CheckCast || o == InstanceOf || o == NewInstance ||
		o == NewArray || o == FilledNewArray || o == FilledNewArrayRange:
		return refType
	case o >= Iget && o <= SputShort:
		return refField
	case o >= InvokeVirtual && o <= InvokeInterfaceRange && o != 0x73:
		return refMethod
	case o >= InvokePolymorphic:
		return refOther
	}
	return refNone
}

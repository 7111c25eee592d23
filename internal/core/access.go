package core

import "strings"

// AccessFlags is the Dalvik access_flags bitset for classes, fields and methods.
type AccessFlags uint32

const (
	AccPublic               AccessFlags = 0x1
	AccPrivate              AccessFlags = 0x2
	AccProtected            AccessFlags = 0x4
	AccStatic               AccessFlags = 0x8
	AccFinal                AccessFlags = 0x10
	AccSynchronized         AccessFlags = 0x20
	AccVolatile             AccessFlags = 0x40 // fields
	AccBridge               AccessFlags = 0x40 // methods
	AccTransient            AccessFlags = 0x80 // fields
	AccVarargs              AccessFlags = 0x80 // methods
	AccNative               AccessFlags = 0x100
	AccInterface            AccessFlags = 0x200
	AccAbstract             AccessFlags = 0x400
	AccStrict               AccessFlags = 0x800
	AccSynthetic            AccessFlags = 0x1000
	AccAnnotation           AccessFlags = 0x2000
	AccEnum                 AccessFlags = 0x4000
	AccConstructor          AccessFlags = 0x10000
	AccDeclaredSynchronized AccessFlags = 0x20000

	accKnown = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal |
		AccSynchronized | AccVolatile | AccTransient | AccNative | AccInterface |
		AccAbstract | AccStrict | AccSynthetic | AccAnnotation | AccEnum |
		AccConstructor | AccDeclaredSynchronized
)

// TranslateAccessFlags keeps the bits the type graph understands and drops
// anything else a container may carry.
func TranslateAccessFlags(raw uint32) AccessFlags {
	return AccessFlags(raw) & accKnown
}

func (f AccessFlags) Has(bit AccessFlags) bool { return f&bit != 0 }

func (f AccessFlags) IsPublic() bool    { return f.Has(AccPublic) }
func (f AccessFlags) IsPrivate() bool   { return f.Has(AccPrivate) }
func (f AccessFlags) IsProtected() bool { return f.Has(AccProtected) }
func (f AccessFlags) IsStatic() bool    { return f.Has(AccStatic) }
func (f AccessFlags) IsFinal() bool     { return f.Has(AccFinal) }
func (f AccessFlags) IsNative() bool    { return f.Has(AccNative) }
func (f AccessFlags) IsInterface() bool { return f.Has(AccInterface) }
func (f AccessFlags) IsAbstract() bool  { return f.Has(AccAbstract) }
func (f AccessFlags) IsSynthetic() bool { return f.Has(AccSynthetic) }
func (f AccessFlags) IsBridge() bool    { return f.Has(AccBridge) }

// String renders method/class flags in declaration-keyword order.
func (f AccessFlags) String() string {
	var parts []string
	names := []struct {
		bit  AccessFlags
		name string
	}{
		{AccPublic, "public"},
		{AccPrivate, "private"},
		{AccProtected, "protected"},
		{AccStatic, "static"},
		{AccFinal, "final"},
		{AccSynchronized, "synchronized"},
		{AccBridge, "bridge"},
		{AccVarargs, "varargs"},
		{AccNative, "native"},
		{AccInterface, "interface"},
		{AccAbstract, "abstract"},
		{AccStrict, "strictfp"},
		{AccSynthetic, "synthetic"},
		{AccAnnotation, "annotation"},
		{AccEnum, "enum"},
		{AccConstructor, "constructor"},
		{AccDeclaredSynchronized, "declared-synchronized"},
	}
	for _, n := range names {
		if f.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

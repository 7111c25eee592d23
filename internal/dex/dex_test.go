package dex_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dexgraph/internal/dex"
	"dexgraph/internal/dex/dextest"
)

func buildSample(t *testing.T) []byte {
	t.Helper()
	b := dextest.New()
	b.Class("Ljava/lang/Object;", "", dextest.AccPublic).
		Method("<init>", "V", nil, dextest.AccPublic|dextest.AccCtor).
		Code(1, 1, 0, 0x000e)

	foo := b.Class("Lcom/example/Foo;", "Ljava/lang/Object;", dextest.AccPublic|dextest.AccFinal).
		Implements("Ljava/lang/Runnable;").
		Field("count", "I", dextest.AccPrivate).
		Field("NAME", "Ljava/lang/String;", dextest.AccStatic|dextest.AccPublic)
	foo.Method("run", "V", nil, dextest.AccPublic).
		Code(2, 1, 0,
			0x0012, // const/4 v0, #0
			0x0228, // goto +2
			0x0000, // nop
			0x000e, // return-void
		).
		Try(0, 2, 3, dextest.Handler{Type: "Ljava/lang/Exception;", Addr: 3})
	foo.Method("abs", "J", []string{"J", "I"}, dextest.AccStatic|dextest.AccNative)
	return b.Bytes()
}

func TestParse(t *testing.T) {
	df, err := dex.Parse(buildSample(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v := df.Header.Version(); v != "035" {
		t.Errorf("Version() = %q", v)
	}

	classes := df.Classes()
	if len(classes) != 2 {
		t.Fatalf("got %d classes, want 2", len(classes))
	}
	obj, foo := classes[0], classes[1]
	if obj.Super != "" {
		t.Errorf("root super = %q, want empty", obj.Super)
	}
	if foo.Descriptor != "Lcom/example/Foo;" || foo.Super != "Ljava/lang/Object;" {
		t.Errorf("foo = %s extends %s", foo.Descriptor, foo.Super)
	}
	if !reflect.DeepEqual(foo.Interfaces, []string{"Ljava/lang/Runnable;"}) {
		t.Errorf("interfaces = %v", foo.Interfaces)
	}
	if len(foo.InstanceFields) != 1 || foo.InstanceFields[0].Name != "count" || foo.InstanceFields[0].Type != "I" {
		t.Errorf("instance fields = %+v", foo.InstanceFields)
	}
	if len(foo.StaticFields) != 1 || foo.StaticFields[0].Name != "NAME" {
		t.Errorf("static fields = %+v", foo.StaticFields)
	}

	if len(foo.DirectMethods) != 1 || len(foo.VirtualMethods) != 1 {
		t.Fatalf("direct=%d virtual=%d", len(foo.DirectMethods), len(foo.VirtualMethods))
	}
	abs := foo.DirectMethods[0]
	if abs.Name != "abs" || abs.Return != "J" || !reflect.DeepEqual(abs.Params, []string{"J", "I"}) {
		t.Errorf("abs = %+v", abs.MethodID)
	}
	if abs.HasCode() {
		t.Errorf("native method has code")
	}
	if code, err := abs.Code(); code != nil || err != nil {
		t.Errorf("Code() = %v, %v", code, err)
	}

	run := foo.VirtualMethods[0]
	code, err := run.Code()
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if code.Registers != 2 || code.Ins != 1 {
		t.Errorf("registers=%d ins=%d", code.Registers, code.Ins)
	}
	var ops []dex.Opcode
	for _, in := range code.Insns {
		ops = append(ops, in.Op)
	}
	if !reflect.DeepEqual(ops, []dex.Opcode{dex.Const4, dex.Goto, dex.Nop, dex.ReturnVoid}) {
		t.Errorf("opcodes = %v", ops)
	}
	if code.Insns[1].Offset != 2 {
		t.Errorf("goto offset = %d", code.Insns[1].Offset)
	}

	wantTries := []dex.Try{{Start: 0, Count: 2, Handlers: []dex.Handler{
		{Type: "Ljava/lang/Exception;", Addr: 3},
		{Type: "", Addr: 3},
	}}}
	if !reflect.DeepEqual(code.Tries, wantTries) {
		t.Errorf("tries = %+v", code.Tries)
	}
}

func TestParseErrors(t *testing.T) {
	good := buildSample(t)

	bad := append([]byte(nil), good...)
	copy(bad, "zip\n")
	if _, err := dex.Parse(bad); !errors.Is(err, dex.ErrBadMagic) {
		t.Errorf("bad magic: err = %v", err)
	}
	if _, err := dex.Parse(good[:0x40]); !errors.Is(err, dex.ErrTruncated) {
		t.Errorf("short header: err = %v", err)
	}
	if _, err := dex.Parse(good[:len(good)-8]); err == nil {
		t.Errorf("truncated data parsed")
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.dex")
	if err := os.WriteFile(path, buildSample(t), 0o644); err != nil {
		t.Fatal(err)
	}
	df, err := dex.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	run := df.Classes()[1].VirtualMethods[0]
	if _, err := run.Code(); err != nil {
		t.Errorf("Code before Close: %v", err)
	}
	if err := df.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := run.Code(); err == nil {
		t.Errorf("Code after Close should fail")
	}
	if df.Classes()[1].Descriptor != "Lcom/example/Foo;" {
		t.Errorf("tables must survive Close")
	}
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name  string
		units []uint16
		check func(t *testing.T, in dex.Insn)
	}{
		{"const/4 negative", []uint16{0xf012 | 0x0100}, func(t *testing.T, in dex.Insn) {
			if in.A != 1 || in.Literal != -1 {
				t.Errorf("A=%d lit=%d", in.A, in.Literal)
			}
		}},
		{"const/high16", []uint16{0x0215, 0x8000}, func(t *testing.T, in dex.Insn) {
			if in.A != 2 || in.Literal != int64(int32(-0x80000000)) {
				t.Errorf("A=%d lit=%#x", in.A, in.Literal)
			}
		}},
		{"const-wide/high16", []uint16{0x0019, 0x4000}, func(t *testing.T, in dex.Insn) {
			if in.Literal != 0x4000<<48 {
				t.Errorf("lit=%#x", in.Literal)
			}
		}},
		{"const-wide", []uint16{0x0318, 0x4444, 0x3333, 0x2222, 0x1111}, func(t *testing.T, in dex.Insn) {
			if in.A != 3 || in.Literal != 0x1111222233334444 || in.Size != 5 {
				t.Errorf("A=%d lit=%#x size=%d", in.A, in.Literal, in.Size)
			}
		}},
		{"add-int", []uint16{0x0090, 0x0201}, func(t *testing.T, in dex.Insn) {
			if in.A != 0 || in.B != 1 || in.C != 2 {
				t.Errorf("A=%d B=%d C=%d", in.A, in.B, in.C)
			}
		}},
		{"add-int/lit8", []uint16{0x01d8, 0xfe02}, func(t *testing.T, in dex.Insn) {
			if in.A != 1 || in.B != 2 || in.Literal != -2 {
				t.Errorf("A=%d B=%d lit=%d", in.A, in.B, in.Literal)
			}
		}},
		{"if-lt backwards", []uint16{0x1034, 0xfffe}, func(t *testing.T, in dex.Insn) {
			if in.A != 0 || in.B != 1 || in.Offset != -2 {
				t.Errorf("A=%d B=%d off=%d", in.A, in.B, in.Offset)
			}
		}},
		{"goto/32", []uint16{0x002a, 0x0000, 0x0001}, func(t *testing.T, in dex.Insn) {
			if in.Offset != 0x10000 {
				t.Errorf("off=%#x", in.Offset)
			}
		}},
		{"invoke-virtual", []uint16{0x306e, 0x0007, 0x0210}, func(t *testing.T, in dex.Insn) {
			if in.Index != 7 || !reflect.DeepEqual(in.Args, []int{0, 1, 2}) {
				t.Errorf("idx=%d args=%v", in.Index, in.Args)
			}
		}},
		{"invoke-static five args", []uint16{0x5471, 0x0001, 0x3210}, func(t *testing.T, in dex.Insn) {
			if !reflect.DeepEqual(in.Args, []int{0, 1, 2, 3, 4}) {
				t.Errorf("args=%v", in.Args)
			}
		}},
		{"invoke-direct/range", []uint16{0x0376, 0x0002, 0x0010}, func(t *testing.T, in dex.Insn) {
			if !reflect.DeepEqual(in.Args, []int{16, 17, 18}) {
				t.Errorf("args=%v", in.Args)
			}
		}},
		{"move/16", []uint16{0x0003, 0x0100, 0x0200}, func(t *testing.T, in dex.Insn) {
			if in.A != 0x100 || in.B != 0x200 {
				t.Errorf("A=%d B=%d", in.A, in.B)
			}
		}},
		{"packed-switch payload", []uint16{0x0100, 2, 0x000a, 0x0000, 3, 0, 5, 0}, func(t *testing.T, in dex.Insn) {
			want := []dex.SwitchEntry{{Key: 10, Offset: 3}, {Key: 11, Offset: 5}}
			if in.Op != dex.PackedSwitchPayload || in.Size != 8 || !reflect.DeepEqual(in.Switch, want) {
				t.Errorf("op=%v size=%d switch=%v", in.Op, in.Size, in.Switch)
			}
		}},
		{"sparse-switch payload", []uint16{0x0200, 2, 0xffff, 0xffff, 100, 0, 4, 0, 0xfffa, 0xffff}, func(t *testing.T, in dex.Insn) {
			want := []dex.SwitchEntry{{Key: -1, Offset: 4}, {Key: 100, Offset: -6}}
			if in.Size != 10 || !reflect.DeepEqual(in.Switch, want) {
				t.Errorf("size=%d switch=%v", in.Size, in.Switch)
			}
		}},
		{"array payload", []uint16{0x0300, 2, 3, 0, 0x0001, 0xffff, 0x0300}, func(t *testing.T, in dex.Insn) {
			if in.Size != 7 || in.Array.Width != 2 || !reflect.DeepEqual(in.Array.Elems, []int64{1, -1, 0x300}) {
				t.Errorf("size=%d array=%+v", in.Size, in.Array)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insns, err := dex.DecodeInsns(tt.units)
			if err != nil {
				t.Fatalf("DecodeInsns: %v", err)
			}
			if len(insns) != 1 {
				t.Fatalf("got %d insns", len(insns))
			}
			tt.check(t, insns[0])
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, err := dex.DecodeInsns([]uint16{0x0014, 0x0001}); !errors.Is(err, dex.ErrTruncated) {
		t.Errorf("const with missing unit: err = %v", err)
	}
	if _, err := dex.DecodeInsns([]uint16{0x0100, 4, 0, 0}); !errors.Is(err, dex.ErrTruncated) {
		t.Errorf("short packed payload: err = %v", err)
	}
}

func TestOpcodeCatalogue(t *testing.T) {
	if dex.Opcode(0x3e).Name() != "unused" || !dex.Opcode(0x3e).IsUnused() {
		t.Errorf("0x3e should be unused")
	}
	if dex.InvokeSuperRange.Name() != "invoke-super/range" || dex.InvokeSuperRange.Format() != dex.Fmt3rc {
		t.Errorf("invoke-super/range catalogue entry wrong")
	}
	if dex.RsubInt.Name() != "rsub-int" || dex.UshrIntLit8.Format() != dex.Fmt22b {
		t.Errorf("literal arithmetic entries wrong")
	}
	if !dex.FillArrayDataPayload.IsPayload() || dex.FillArrayDataPayload.Format() != dex.FmtPayload {
		t.Errorf("payload pseudo-opcode wrong")
	}
}

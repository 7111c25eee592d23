package translate

import (
	"errors"
	"reflect"
	"testing"

	"dexgraph/internal/core"
	"dexgraph/internal/dex"
	"dexgraph/internal/logging"
)

type recorder struct {
	sites []int
}

func (r *recorder) Register(_ *core.MethodNode, index int) { r.sites = append(r.sites, index) }

func newScope(t *testing.T) *core.Scope {
	t.Helper()
	s := core.NewScope("test")
	s.SetLogger(logging.Discard())
	return s
}

func staticMethod(s *core.Scope, params ...string) *core.MethodNode {
	cls := s.FindOrCreate("com.example.Foo")
	return core.NewMethodNode(cls, "m", s.Void, s.FindOrCreateAll(params), core.AccStatic)
}

func code(t *testing.T, registers int, units ...uint16) *dex.Code {
	t.Helper()
	insns, err := dex.DecodeInsns(units)
	if err != nil {
		t.Fatalf("DecodeInsns: %v", err)
	}
	return &dex.Code{Registers: registers, Insns: insns}
}

func render(m *core.MethodNode) []string {
	var out []string
	for _, in := range m.Instructions() {
		out = append(out, in.String())
	}
	return out
}

func TestTranslateSwitch(t *testing.T) {
	tests := []struct {
		name  string
		units []uint16
		want  core.SwitchTable
	}{
		{
			// payload after both targets
			name: "payload last",
			units: []uint16{
				0x012b, 0x0008, 0x0000, // packed-switch v1, +8
				0x000e,         // return-void
				0x1012, 0x000e, // const/4 v0, #1; return-void
				0x2012, 0x000e, // const/4 v0, #2; return-void
				0x0100, 0x0002, 0x0001, 0x0000, 0x0004, 0x0000, 0x0006, 0x0000,
			},
			want: core.SwitchTable{1: 3, 2: 5},
		},
		{
			// payload before its targets
			name: "targets last",
			units: []uint16{
				0x012b, 0x0004, 0x0000, // packed-switch v1, +4
				0x000e, // return-void
				0x0100, 0x0002, 0x0001, 0x0000, 0x000c, 0x0000, 0x000d, 0x0000,
				0x1012, // const/4 v0, #1
				0x000e, // return-void
			},
			want: core.SwitchTable{1: 3, 2: 4},
		},
		{
			name: "sparse",
			units: []uint16{
				0x012c, 0x0004, 0x0000, // sparse-switch v1, +4
				0x000e,
				0x0200, 0x0002,
				0xfffb, 0xffff, 0x0064, 0x0000, // keys -5, 100
				0x000e, 0x0000, 0x0003, 0x0000, // targets +14, +3
				0x000e,
			},
			want: core.SwitchTable{-5: 3, 100: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScope(t)
			m := staticMethod(s)
			if err := New(s, nil).Translate(m, code(t, 2, tt.units...)); err != nil {
				t.Fatalf("Translate: %v", err)
			}
			insns := m.Instructions()
			if insns[0].Op != core.OpSpecial || insns[0].Aux != core.AuxArguments {
				t.Fatalf("first instruction = %s", insns[0])
			}
			sw := insns[1]
			if sw.Op != core.OpSwitch || sw.R0 != 1 {
				t.Fatalf("insns[1] = %s", sw)
			}
			if got, ok := sw.Extra.(core.SwitchTable); !ok || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("switch table = %v, want %v", sw.Extra, tt.want)
			}
		})
	}
}

func TestTranslateDeterministic(t *testing.T) {
	units := []uint16{
		0x0012,         // 0: const/4 v0, #0
		0x0038, 0x0004, // 1: if-eqz v0, +4
		0x1012, 0x000e, // 3: const/4 v0, #1; return-void
		0x0026, 0x0004, 0x0000, // 5: fill-array-data v0, +4
		0x000e,                 // 8: return-void
		0x0300, 0x0004, 0x0002, 0x0000, 0x0001, 0x0000, 0x0002, 0x0000,
	}
	var dumps [2][]string
	for i := range dumps {
		s := newScope(t)
		m := staticMethod(s)
		if err := New(s, nil).Translate(m, code(t, 2, units...)); err != nil {
			t.Fatalf("Translate: %v", err)
		}
		dumps[i] = render(m)
	}
	if !reflect.DeepEqual(dumps[0], dumps[1]) {
		t.Fatalf("translation not deterministic:\n%v\n%v", dumps[0], dumps[1])
	}
	want := []string{
		"<SPECIAL,ARGUMENT_SET,extra=[]>",
		"<MOV,CONST,dst=r0,type=void,extra=0>",
		"<IF,EQZ,r0=r0,extra=index:5>",
		"<MOV,CONST,dst=r0,type=void,extra=1>",
		"<RETURN,VOID>",
		"<NEW,FILLED_ARRAY,dst=r0,extra=[1, 2]>",
		"<RETURN,VOID>",
	}
	if !reflect.DeepEqual(dumps[0], want) {
		t.Errorf("dump =\n%v\nwant\n%v", dumps[0], want)
	}
}

func TestTranslateBranchOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		units []uint16
	}{
		{"past end", []uint16{0x0528, 0x000e}},    // goto +5
		{"before start", []uint16{0x000e, 0xf028}}, // goto -16
		{"mid instruction", []uint16{0x0013, 0x0007, 0xff28}}, // goto -1
		{"missing payload", []uint16{0x012b, 0x0010, 0x0000, 0x000e}},
		// goto +2 lands on the array payload after return-void
		{"forward into payload", []uint16{0x0228, 0x000e, 0x0300, 0x0001, 0x0001, 0x0000, 0x0007}},
		// goto -5 lands on the payload at address 0
		{"backward into payload", []uint16{0x0300, 0x0001, 0x0001, 0x0000, 0x0007, 0xfb28, 0x000e}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScope(t)
			m := staticMethod(s)
			err := New(s, nil).Translate(m, code(t, 1, tt.units...))
			if !errors.Is(err, ErrDanglingReference) {
				t.Fatalf("err = %v, want ErrDanglingReference", err)
			}
			if m.HasImplementation() {
				t.Errorf("failed method has a body")
			}
		})
	}
}

func TestArgumentSet(t *testing.T) {
	s := newScope(t)
	cls := s.FindOrCreate("com.example.Foo")
	tests := []struct {
		name      string
		m         *core.MethodNode
		registers int
		want      core.Registers
		err       bool
	}{
		{"static none", core.NewMethodNode(cls, "a", s.Void, nil, core.AccStatic), 3, core.Registers{}, false},
		{"receiver", core.NewMethodNode(cls, "b", s.Void, nil, 0), 3, core.Registers{2}, false},
		{"wide", core.NewMethodNode(cls, "c", s.Void, []*core.ClassNode{s.Long, s.Int}, 0), 5, core.Registers{1, 2, 4}, false},
		{"static wide", core.NewMethodNode(cls, "d", s.Void, []*core.ClassNode{s.Double}, core.AccStatic), 2, core.Registers{0}, false},
		{"too few", core.NewMethodNode(cls, "e", s.Void, []*core.ClassNode{s.Long}, 0), 2, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(s, nil).Translate(tt.m, code(t, tt.registers, 0x000e))
			if tt.err {
				if !errors.Is(err, ErrArgumentMismatch) {
					t.Fatalf("err = %v, want ErrArgumentMismatch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			got := tt.m.Instructions()[0].Extra
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("argument set = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvokeArguments(t *testing.T) {
	callee := &dex.MethodID{Class: "Lcom/example/Bar;", Name: "take", Params: []string{"J", "I"}, Return: "V"}
	tests := []struct {
		name  string
		units []uint16
		want  core.Registers
		err   error
	}{
		{"wide collapsed", []uint16{0x3071, 0x0000, 0x0210, 0x000e}, core.Registers{0, 2}, nil},
		{"range", []uint16{0x0377, 0x0000, 0x0004, 0x000e}, core.Registers{4, 6}, nil},
		{"short", []uint16{0x2071, 0x0000, 0x0010, 0x000e}, nil, ErrArgumentMismatch},
		{"extra", []uint16{0x4071, 0x0000, 0x3210, 0x000e}, nil, ErrArgumentMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScope(t)
			m := staticMethod(s)
			c := code(t, 8, tt.units...)
			c.Insns[0].Method = callee
			rec := &recorder{}
			err := New(s, rec).Translate(m, c)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				if len(rec.sites) != 0 {
					t.Errorf("failed translation registered %v", rec.sites)
				}
				return
			}
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			call, ok := m.Instructions()[1].Extra.(core.PendingCall)
			if !ok {
				t.Fatalf("insns[1] = %s", m.Instructions()[1])
			}
			if !reflect.DeepEqual(call.Args, tt.want) {
				t.Errorf("args = %v, want %v", call.Args, tt.want)
			}
			if call.Ref.Name() != "take" || !call.Ref.IsStatic() {
				t.Errorf("ref = %s", call.Ref)
			}
			if !reflect.DeepEqual(rec.sites, []int{1}) {
				t.Errorf("registered = %v, want [1]", rec.sites)
			}
		})
	}
}

func TestRegisterAcrossMethods(t *testing.T) {
	callee := &dex.MethodID{Class: "Lcom/example/Bar;", Name: "run", Return: "V"}
	s := newScope(t)
	rec := &registrar{}
	tr := New(s, rec)

	cls := s.FindOrCreate("com.example.Foo")
	first := core.NewMethodNode(cls, "a", s.Void, nil, core.AccStatic)
	second := core.NewMethodNode(cls, "b", s.Void, nil, core.AccStatic)

	c := code(t, 1, 0x0071, 0x0000, 0x0000, 0x000e) // invoke-static {}; return-void
	c.Insns[0].Method = callee
	if err := tr.Translate(first, c); err != nil {
		t.Fatalf("Translate(a): %v", err)
	}
	c = code(t, 1, 0x1012, 0x0071, 0x0000, 0x0000, 0x0071, 0x0000, 0x0000, 0x000e)
	c.Insns[1].Method = callee
	c.Insns[2].Method = callee
	if err := tr.Translate(second, c); err != nil {
		t.Fatalf("Translate(b): %v", err)
	}

	want := []site{{first, 1}, {second, 2}, {second, 3}}
	if !reflect.DeepEqual(rec.sites, want) {
		t.Errorf("registered = %v, want %v", rec.sites, want)
	}
}

type site struct {
	m     *core.MethodNode
	index int
}

type registrar struct{ sites []site }

func (r *registrar) Register(m *core.MethodNode, index int) { r.sites = append(r.sites, site{m, index}) }

func TestTryBlocks(t *testing.T) {
	units := []uint16{
		0x0012,         // 0: const/4 v0, #0
		0x0013, 0x0007, // 1: const/16 v0, #7
		0x000e,         // 3: return-void
		0x000d,         // 4: move-exception v0
		0x0027,         // 5: throw v0
	}
	tests := []struct {
		name  string
		try   dex.Try
		start int
		end   int
	}{
		{"exact end", dex.Try{Start: 0, Count: 1}, 1, 2},
		{"partial last instruction", dex.Try{Start: 0, Count: 2}, 1, 3},
		{"to end", dex.Try{Start: 3, Count: 3}, 3, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScope(t)
			m := staticMethod(s)
			c := code(t, 1, units...)
			tt.try.Handlers = []dex.Handler{{Type: "Ljava/io/IOException;", Addr: 4}, {Addr: 4}}
			c.Tries = []dex.Try{tt.try}
			if err := New(s, nil).Translate(m, c); err != nil {
				t.Fatalf("Translate: %v", err)
			}
			tb := m.TryBlocks()
			if len(tb) != 1 {
				t.Fatalf("got %d try blocks", len(tb))
			}
			if tb[0].Start != tt.start || tb[0].End != tt.end {
				t.Errorf("try = [%d, %d), want [%d, %d)", tb[0].Start, tb[0].End, tt.start, tt.end)
			}
			h := tb[0].Handlers
			if len(h) != 2 || h[0].Type.Name() != "java.io.IOException" || h[1].Type != nil || h[0].Index != 4 {
				t.Errorf("handlers = %+v", h)
			}
		})
	}
}

func TestTryBlocksRejectPayloads(t *testing.T) {
	units := []uint16{
		0x000e,                                 // 0: return-void
		0x0300, 0x0001, 0x0001, 0x0000, 0x0007, // 1: fill-array-data-payload
	}
	tests := []struct {
		name string
		try  dex.Try
	}{
		{"handler on payload", dex.Try{Start: 0, Count: 1, Handlers: []dex.Handler{{Addr: 1}}}},
		{"start on payload", dex.Try{Start: 1, Count: 5, Handlers: []dex.Handler{{Addr: 0}}}},
		{"empty range", dex.Try{Start: 0, Count: 0, Handlers: []dex.Handler{{Addr: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScope(t)
			m := staticMethod(s)
			c := code(t, 1, units...)
			c.Tries = []dex.Try{tt.try}
			if err := New(s, nil).Translate(m, c); !errors.Is(err, ErrDanglingReference) {
				t.Fatalf("err = %v, want ErrDanglingReference", err)
			}
			if m.HasImplementation() {
				t.Errorf("failed method has a body")
			}
		})
	}
}

func TestLiteralArithmetic(t *testing.T) {
	tests := []struct {
		name  string
		units []uint16
		want  string
	}{
		{"add-int/lit16", []uint16{0x10d0, 0x0005}, "<ARITHMETIC,ADD,dst=r0,r0=r1,extra=5>"},
		{"rsub-int", []uint16{0x10d1, 0x0005}, "<ARITHMETIC,RSUB,dst=r0,r0=r1,extra=5>"},
		{"mul-int/lit16", []uint16{0x10d2, 0x0005}, "<ARITHMETIC,MUL,dst=r0,r0=r1,extra=5>"},
		{"add-int/lit8", []uint16{0x00d8, 0x0501}, "<ARITHMETIC,ADD,dst=r0,r0=r1,extra=5>"},
		{"rsub-int/lit8", []uint16{0x00d9, 0x0501}, "<ARITHMETIC,RSUB,dst=r0,r0=r1,extra=5>"},
		{"mul-int/lit8", []uint16{0x00da, 0x0501}, "<ARITHMETIC,MUL,dst=r0,r0=r1,extra=5>"},
		{"ushr-int/lit8", []uint16{0x00e2, 0x0501}, "<ARITHMETIC,USHR,dst=r0,r0=r1,extra=5>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScope(t)
			m := staticMethod(s)
			units := append(tt.units, 0x000e)
			if err := New(s, nil).Translate(m, code(t, 2, units...)); err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if got := render(m)[1]; got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTranslateRejects(t *testing.T) {
	tests := []struct {
		name  string
		units []uint16
		want  error
	}{
		{"unused opcode", []uint16{0x003e}, ErrUnknownOpcode},
		{"invoke-polymorphic", []uint16{0x00fa, 0x0000, 0x0000, 0x0000}, ErrUnknownOpcode},
		{"array data for switch", []uint16{0x012b, 0x0003, 0x0000, 0x0300, 0x0004, 0x0000, 0x0000}, ErrPayloadMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScope(t)
			m := staticMethod(s)
			if err := New(s, nil).Translate(m, code(t, 2, tt.units...)); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

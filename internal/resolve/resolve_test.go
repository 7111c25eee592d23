package resolve

import (
	"testing"

	"dexgraph/internal/core"
	"dexgraph/internal/logging"
)

type def struct {
	base    string
	methods []*methodDef
}

type methodDef struct {
	name  string
	ret   string
	flags core.AccessFlags
}

// newScope serves defs through the detail loader; every other class is absent.
func newScope(t *testing.T, defs map[string]def) *core.Scope {
	t.Helper()
	s := core.NewScope("test")
	s.SetLogger(logging.Discard())
	s.SetLoader(core.DetailLoaderFunc(func(c *core.ClassNode) (*core.ClassDetail, error) {
		d, ok := defs[c.Name()]
		if !ok {
			return nil, core.ErrClassNotFound
		}
		spec := core.DetailSpec{}
		if d.base != "" {
			spec.Base = s.FindOrCreate(d.base)
		}
		for _, m := range d.methods {
			spec.Methods = append(spec.Methods, core.NewMethodNode(c, m.name, s.FindOrCreate(m.ret), nil, m.flags))
		}
		return core.NewClassDetail(s, spec), nil
	}))
	return s
}

// caller builds a method whose only body instruction invokes class.name()ret.
func caller(s *core.Scope, class, name, ret string) *core.MethodNode {
	m := core.NewMethodNode(s.FindOrCreate("app.Main"), "main", s.Void, nil, core.AccStatic)
	ref := core.NewMethodNode(s.FindOrCreate(class), name, s.FindOrCreate(ret), nil, 0)
	args := core.NewInstruction(core.OpSpecial, core.AuxArguments)
	args.Extra = core.Registers{}
	call := core.NewInstruction(core.OpInvoke, core.AuxInvokeVirtual)
	call.Extra = core.PendingCall{Ref: ref, Args: core.Registers{0}}
	m.SetImplementation([]*core.Instruction{args, call}, nil)
	return m
}

func TestResolveAll(t *testing.T) {
	defs := map[string]def{
		"app.Base": {base: core.ObjectName, methods: []*methodDef{
			{name: "foo", ret: "void"},
			{name: "bar", ret: "int"},
		}},
		"app.Derived": {base: "app.Base", methods: []*methodDef{
			{name: "foo", ret: "void"},
			{name: "get", ret: core.ObjectName},
			{name: "get", ret: core.StringName, flags: core.AccSynthetic | core.AccBridge},
		}},
	}
	tests := []struct {
		name      string
		class     string
		method    string
		ret       string
		wantClass string
		wantRet   string
		halt      bool
		synthetic bool
	}{
		{name: "declared here", class: "app.Derived", method: "foo", ret: "void", wantClass: "app.Derived", wantRet: "void"},
		{name: "inherited", class: "app.Derived", method: "bar", ret: "int", wantClass: "app.Base", wantRet: "int"},
		{name: "synthetic by return type", class: "app.Derived", method: "get", ret: core.StringName, wantClass: "app.Derived", wantRet: core.StringName, synthetic: true},
		{name: "primary by return type", class: "app.Derived", method: "get", ret: core.ObjectName, wantClass: "app.Derived", wantRet: core.ObjectName},
		{name: "return type mismatch", class: "app.Derived", method: "bar", ret: "long", halt: true},
		{name: "absent class", class: "lib.Gone", method: "foo", ret: "void", halt: true},
		{name: "absent method", class: "app.Base", method: "baz", ret: "void", halt: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScope(t, defs)
			m := caller(s, tt.class, tt.method, tt.ret)
			r := New(s)
			r.Register(m, 1)
			if r.Pending() != 1 {
				t.Fatalf("Pending() = %d", r.Pending())
			}
			st := r.ResolveAll()
			if r.Pending() != 0 {
				t.Errorf("queue not cleared: %d", r.Pending())
			}

			in := m.Instructions()[1]
			if tt.halt {
				if in.Op != core.OpHalt || in.Aux != core.AuxInvokeVirtual {
					t.Fatalf("got %s, want HALT", in)
				}
				un, ok := in.Extra.(core.UnresolvedCall)
				if !ok || un.Ref.Name() != tt.method {
					t.Errorf("extra = %v", in.Extra)
				}
				if st.Unresolved != 1 || st.Resolved != 0 {
					t.Errorf("stats = %+v", st)
				}
				return
			}
			rc, ok := in.Extra.(core.ResolvedCall)
			if in.Op != core.OpInvoke || !ok {
				t.Fatalf("got %s, want resolved invoke", in)
			}
			if rc.Method.Class().Name() != tt.wantClass || rc.Method.ReturnType().Name() != tt.wantRet {
				t.Errorf("bound to %s returning %s", rc.Method, rc.Method.ReturnType())
			}
			if len(rc.Args) != 1 || rc.Args[0] != 0 {
				t.Errorf("args = %v", rc.Args)
			}
			if (st.Synthetic == 1) != tt.synthetic || st.Resolved != 1 {
				t.Errorf("stats = %+v", st)
			}
		})
	}
}

func TestResolveAllSkipsBadSites(t *testing.T) {
	s := newScope(t, nil)
	m := caller(s, "lib.Gone", "foo", "void")
	r := New(s)
	r.Register(m, 0) // the argument set, not a call
	r.Register(m, 7)
	st := r.ResolveAll()
	if st != (Stats{}) {
		t.Errorf("stats = %+v", st)
	}
	if in := m.Instructions()[1]; in.Op != core.OpInvoke {
		t.Errorf("unregistered site touched: %s", in)
	}
}

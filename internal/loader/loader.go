// Package loader builds class details from parsed dex images and drives a
// load session: register the units, detail the app classes, resolve calls.
package loader

import (
	"github.com/charmbracelet/log"

	"dexgraph/internal/apk"
	"dexgraph/internal/core"
	"dexgraph/internal/dex"
	"dexgraph/internal/resolve"
	"dexgraph/internal/translate"
)

// Options control what a session decodes.
type Options struct {
	// Translate decodes app method bodies into the instruction IR.
	Translate bool
}

// Stats summarises one LoadApp call.
type Stats struct {
	Classes    int
	Methods    int
	Translated int
	Failed     int
	Calls      resolve.Stats
}

type classDef struct {
	def       *dex.ClassDef
	framework bool
}

// Session owns a scope and the load units feeding it. Framework classes
// are detailed on first use; app classes are detailed by LoadApp. A
// session is not safe for concurrent use.
type Session struct {
	scope      *core.Scope
	log        *log.Logger
	opts       Options
	resolver   *resolve.Resolver
	translator *translate.Translator

	defs  map[string]classDef
	app   []*core.ClassNode
	stats Stats
}

// New creates a session around a fresh scope named name.
func New(name string, opts Options) *Session {
	return NewWithScope(core.NewScope(name), opts)
}

// NewWithScope installs the session as the loader of scope.
func NewWithScope(scope *core.Scope, opts Options) *Session {
	s := &Session{
		scope: scope,
		log:   scope.Logger(),
		opts:  opts,
		defs:  map[string]classDef{},
	}
	s.resolver = resolve.New(scope)
	s.translator = translate.New(scope, s.resolver)
	scope.SetLoader(s)
	return s
}

func (s *Session) Scope() *core.Scope { return s.scope }

// AppClasses returns the classes of every loaded app unit in load order.
func (s *Session) AppClasses() []*core.ClassNode { return s.app }

// IsApp reports whether c was defined by an app unit.
func (s *Session) IsApp(c *core.ClassNode) bool {
	d, ok := s.defs[c.Name()]
	return ok && !d.framework
}

// LoadFramework registers the classes of pkg. None is detailed until
// something asks for it.
func (s *Session) LoadFramework(pkg *apk.Package) int {
	n := 0
	for _, def := range pkg.Classes() {
		if s.register(def, true) {
			n++
		}
	}
	s.log.Info("framework registered", "path", pkg.Path, "classes", n)
	return n
}

// LoadApp registers and details every class of pkg, then resolves the
// call sites of the translated bodies.
func (s *Session) LoadApp(pkg *apk.Package) Stats {
	s.stats = Stats{}
	var added []*core.ClassNode
	for _, def := range pkg.Classes() {
		if s.register(def, false) {
			added = append(added, s.scope.FindOrCreateDalvik(def.Descriptor))
		}
	}
	for _, c := range added {
		c.Detail()
	}
	s.app = append(s.app, added...)
	s.stats.Classes = len(added)
	s.stats.Calls = s.resolver.ResolveAll()
	s.log.Info("app loaded", "path", pkg.Path, "classes", s.stats.Classes, "methods", s.stats.Methods,
		"translated", s.stats.Translated, "failed", s.stats.Failed,
		"resolved", s.stats.Calls.Resolved, "unresolved", s.stats.Calls.Unresolved)
	return s.stats
}

// register records def under its canonical name. The first definition of
// a name wins.
func (s *Session) register(def *dex.ClassDef, framework bool) bool {
	name := core.ToCanonicalName(def.Descriptor)
	if name == "" {
		s.log.Warn("skipping class with malformed descriptor", "descriptor", def.Descriptor)
		return false
	}
	if prev, ok := s.defs[name]; ok {
		s.log.Warn("duplicate class definition", "class", name, "framework", prev.framework)
		return false
	}
	s.defs[name] = classDef{def: def, framework: framework}
	return true
}

// LoadDetail implements core.DetailLoader.
func (s *Session) LoadDetail(c *core.ClassNode) (*core.ClassDetail, error) {
	d, ok := s.defs[c.Name()]
	if !ok {
		return nil, core.ErrClassNotFound
	}
	return s.buildDetail(c, d), nil
}

func (s *Session) buildDetail(c *core.ClassNode, cd classDef) *core.ClassDetail {
	def := cd.def
	spec := core.DetailSpec{
		Interfaces:   s.scope.FindOrCreateAll(def.Interfaces),
		Flags:        accessFlags(def.Access),
		Fields:       s.fields(def.InstanceFields),
		StaticFields: s.fields(def.StaticFields),
		Framework:    cd.framework,
	}
	if def.Super != "" {
		spec.Base = s.scope.FindOrCreateDalvik(def.Super)
	}
	if c.IsInnerClass() {
		spec.Fields["this$0"] = c.OuterClass()
	}
	for _, m := range def.Methods() {
		spec.Methods = append(spec.Methods, s.method(m, cd.framework))
	}
	return core.NewClassDetail(s.scope, spec)
}

func (s *Session) fields(fs []dex.Field) map[string]*core.ClassNode {
	out := make(map[string]*core.ClassNode, len(fs))
	for _, f := range fs {
		out[f.Name] = s.scope.FindOrCreateDalvik(f.Type)
	}
	return out
}

func (s *Session) method(m *dex.Method, framework bool) *core.MethodNode {
	mn := translate.MethodRef(s.scope, &m.MethodID, accessFlags(m.Access))
	if framework {
		return mn
	}
	s.stats.Methods++
	if !s.opts.Translate || !m.HasCode() {
		return mn
	}
	s.log.Debug("translating method", "method", mn.String())
	code, err := m.Code()
	if err != nil {
		s.log.Error("method translation failed", "method", mn.String(), "err", err)
		s.stats.Failed++
		return mn
	}
	if err := s.translator.Translate(mn, code); err != nil {
		s.stats.Failed++
		return mn
	}
	s.stats.Translated++
	return mn
}

// accessFlags keeps every dex access bit; the core bitset shares the
// dex encoding.
func accessFlags(raw uint32) core.AccessFlags {
	return core.AccessFlags(raw)
}

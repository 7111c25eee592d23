// Package core holds the type graph (classes, details, methods, fields) and
// the instruction IR that method bodies are decoded into.
package core

import (
	"errors"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"dexgraph/internal/logging"
)

// Well-known canonical names.
const (
	ObjectName = "java.lang.Object"
	StringName = "java.lang.String"
	ClassName  = "java.lang.Class"
	// WideName is the placeholder type for the second half of a
	// long/double register pair.
	WideName = "AndroidWide"
)

// ErrClassNotFound is returned by a DetailLoader that has no definition for
// the requested class.
var ErrClassNotFound = errors.New("class not found")

// DetailLoader builds the detail of a class on demand. It returns the
// detail without attaching it; the class node attaches it.
type DetailLoader interface {
	LoadDetail(c *ClassNode) (*ClassDetail, error)
}

// DetailLoaderFunc adapts a function to DetailLoader.
type DetailLoaderFunc func(c *ClassNode) (*ClassDetail, error)

func (f DetailLoaderFunc) LoadDetail(c *ClassNode) (*ClassDetail, error) { return f(c) }

// Scope is a disjoint namespace of class nodes. Two scopes never share nodes.
type Scope struct {
	name string

	mu      sync.RWMutex
	classes map[string]*ClassNode

	loader DetailLoader
	logger *log.Logger

	// missing is the detail stamped on classes that cannot be loaded.
	missing *ClassDetail

	Object  *ClassNode
	Wide    *ClassNode
	Void    *ClassNode
	Boolean *ClassNode
	Byte    *ClassNode
	Short   *ClassNode
	Char    *ClassNode
	Int     *ClassNode
	Long    *ClassNode
	Float   *ClassNode
	Double  *ClassNode

	primitives map[*ClassNode]struct{}
}

// NewScope creates a scope pre-populated with the root object type and the
// primitive entries.
func NewScope(name string) *Scope {
	s := &Scope{
		name:    name,
		classes: make(map[string]*ClassNode),
		logger:  logging.Default(),
	}
	s.missing = &ClassDetail{
		framework: true,
		methods:   map[string]*MethodNode{},
		index:     map[string][]*MethodNode{},
		derived:   &derivedList{},
	}

	s.Object = s.FindOrCreate(ObjectName)
	s.Wide = s.FindOrCreate(WideName)
	s.Void = s.FindOrCreate("void")
	s.Long = s.FindOrCreate("long")
	s.Boolean = s.FindOrCreate("boolean")
	s.Byte = s.FindOrCreate("byte")
	s.Int = s.FindOrCreate("int")
	s.Short = s.FindOrCreate("short")
	s.Char = s.FindOrCreate("char")
	s.Double = s.FindOrCreate("double")
	s.Float = s.FindOrCreate("float")

	s.primitives = map[*ClassNode]struct{}{
		s.Wide: {}, s.Void: {}, s.Long: {}, s.Boolean: {}, s.Byte: {},
		s.Int: {}, s.Short: {}, s.Char: {}, s.Double: {}, s.Float: {},
	}
	// primitives have nothing to load
	for p := range s.primitives {
		p.detail = s.missing
	}
	return s
}

// Name returns the scope's label.
func (s *Scope) Name() string { return s.name }

// SetLoader installs the collaborator used by ClassNode.Detail.
func (s *Scope) SetLoader(l DetailLoader) { s.loader = l }

// SetLogger replaces the scope's logger.
func (s *Scope) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Logger returns the logger every component working on this scope uses.
func (s *Scope) Logger() *log.Logger { return s.logger }

// MissingDetail returns the shared sentinel detail.
func (s *Scope) MissingDetail() *ClassDetail { return s.missing }

// FindClass returns the node for name, or nil when the scope has never seen it.
func (s *Scope) FindClass(name string) *ClassNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classes[name]
}

// FindOrCreate returns the canonical node for name, creating it if absent.
// For an array type the element type is created as well.
func (s *Scope) FindOrCreate(name string) *ClassNode {
	s.mu.Lock()
	c, created := s.insertLocked(name)
	s.mu.Unlock()

	if created && c.IsArray() {
		if elem := elementName(name); elem != "" {
			s.FindOrCreate(elem)
		}
	}
	return c
}

func (s *Scope) insertLocked(name string) (*ClassNode, bool) {
	if c, ok := s.classes[name]; ok {
		return c, false
	}
	c := &ClassNode{scope: s, name: name}
	s.classes[name] = c
	return c, true
}

// FindOrCreateDalvik accepts a Dalvik descriptor instead of a canonical name.
func (s *Scope) FindOrCreateDalvik(desc string) *ClassNode {
	name := ToCanonicalName(desc)
	if name == "" {
		s.logger.Error("unknown dalvik type", "descriptor", desc)
		name = desc
	}
	return s.FindOrCreate(name)
}

// FindOrCreateAll maps a list of descriptors to nodes, preserving order.
func (s *Scope) FindOrCreateAll(descs []string) []*ClassNode {
	out := make([]*ClassNode, len(descs))
	for i, d := range descs {
		out[i] = s.FindOrCreateDalvik(d)
	}
	return out
}

// HasClass reports whether c belongs to this scope.
func (s *Scope) HasClass(c *ClassNode) bool {
	return c != nil && c.scope == s && s.FindClass(c.name) == c
}

// AllClasses returns every node, sorted by name.
func (s *Scope) AllClasses() []*ClassNode {
	s.mu.RLock()
	out := make([]*ClassNode, 0, len(s.classes))
	for _, c := range s.classes {
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ClassNames returns every known name, sorted.
func (s *Scope) ClassNames() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.classes))
	for n := range s.classes {
		out = append(out, n)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Primitives returns the primitive entries, including the wide placeholder.
func (s *Scope) Primitives() []*ClassNode {
	return []*ClassNode{s.Wide, s.Void, s.Long, s.Boolean, s.Byte, s.Int, s.Short, s.Char, s.Double, s.Float}
}

func (s *Scope) isPrimitive(c *ClassNode) bool {
	_, ok := s.primitives[c]
	return ok
}

// IsWideType reports whether values of type c take two registers.
func (s *Scope) IsWideType(c *ClassNode) bool {
	return c == s.Long || c == s.Double
}

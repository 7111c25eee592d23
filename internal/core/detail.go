package core

// derivedList is the mutable, best-effort record of classes known to derive
// from a class. It is shared between a detail and any detail rebuilt from it.
type derivedList struct {
	items []*ClassNode
}

func (l *derivedList) add(c *ClassNode) {
	for _, x := range l.items {
		if x == c {
			return
		}
	}
	l.items = append(l.items, c)
}

func (l *derivedList) remove(c *ClassNode) {
	for i, x := range l.items {
		if x == c {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}

func (l *derivedList) snapshot() []*ClassNode {
	out := make([]*ClassNode, len(l.items))
	copy(out, l.items)
	return out
}

// ClassDetail holds the structural facts of a loaded class. It is never
// mutated after construction except for its derived-class list.
type ClassDetail struct {
	base       *ClassNode
	interfaces []*ClassNode
	flags      AccessFlags

	// methods is the primary index: one method per signature key.
	methods map[string]*MethodNode
	// index holds every declared method by signature key, including the
	// synthetic/bridge ones that lose the primary slot.
	index map[string][]*MethodNode
	// order keeps declaration order for deterministic walks.
	order []*MethodNode

	fields       map[string]*ClassNode
	staticFields map[string]*ClassNode
	framework    bool

	derived *derivedList
}

// DetailSpec is the input to NewClassDetail.
type DetailSpec struct {
	Base         *ClassNode
	Interfaces   []*ClassNode
	Flags        AccessFlags
	Methods      []*MethodNode
	Fields       map[string]*ClassNode
	StaticFields map[string]*ClassNode
	Framework    bool
}

// NewClassDetail builds a detail. Methods are indexed by signature; when two
// methods collide the non-synthetic one owns the primary slot and both stay
// reachable through SyntheticMethods. A collision between two non-synthetic
// methods is logged as a severe warning and the first one wins.
func NewClassDetail(scope *Scope, spec DetailSpec) *ClassDetail {
	d := &ClassDetail{
		base:         spec.Base,
		interfaces:   append([]*ClassNode(nil), spec.Interfaces...),
		flags:        spec.Flags,
		methods:      make(map[string]*MethodNode, len(spec.Methods)),
		index:        make(map[string][]*MethodNode, len(spec.Methods)),
		order:        append([]*MethodNode(nil), spec.Methods...),
		fields:       copyFieldMap(spec.Fields),
		staticFields: copyFieldMap(spec.StaticFields),
		framework:    spec.Framework,
		derived:      &derivedList{},
	}
	for _, m := range spec.Methods {
		key := m.Signature().Key()
		d.index[key] = append(d.index[key], m)
		prev, ok := d.methods[key]
		switch {
		case !ok:
			d.methods[key] = m
		case prev.IsSynthetic() && !m.IsSynthetic():
			d.methods[key] = m
		case !prev.IsSynthetic() && !m.IsSynthetic():
			if scope != nil {
				scope.logger.Error("duplicate method signature", "method", m.String(), "severe", true)
			}
		}
	}
	return d
}

func copyFieldMap(in map[string]*ClassNode) map[string]*ClassNode {
	out := make(map[string]*ClassNode, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// BaseType returns the super class, or nil for the root type and missing classes.
func (d *ClassDetail) BaseType() *ClassNode { return d.base }

// Interfaces returns the directly implemented interfaces in declaration order.
func (d *ClassDetail) Interfaces() []*ClassNode { return d.interfaces }

func (d *ClassDetail) AccessFlags() AccessFlags { return d.flags }

// IsFramework reports whether the class came from the framework load unit.
func (d *ClassDetail) IsFramework() bool { return d.framework }

// Methods returns the declared methods in declaration order.
func (d *ClassDetail) Methods() []*MethodNode { return d.order }

// Method looks up the primary method for a signature.
func (d *ClassDetail) Method(sig MethodSignature) *MethodNode {
	return d.methods[sig.Key()]
}

// SyntheticMethods returns every declared method sharing sig, primary included.
func (d *ClassDetail) SyntheticMethods(sig MethodSignature) []*MethodNode {
	return d.index[sig.Key()]
}

// Fields returns a copy of the instance field table.
func (d *ClassDetail) Fields() map[string]*ClassNode { return copyFieldMap(d.fields) }

// StaticFields returns a copy of the static field table.
func (d *ClassDetail) StaticFields() map[string]*ClassNode { return copyFieldMap(d.staticFields) }

// DerivedClasses returns the classes recorded so far as deriving from this one.
func (d *ClassDetail) DerivedClasses() []*ClassNode { return d.derived.snapshot() }

// withBaseType rebuilds the detail around a new base type, sharing the
// derived-class list.
func (d *ClassDetail) withBaseType(base *ClassNode) *ClassDetail {
	nd := *d
	nd.base = base
	return &nd
}

// ancestors walks every transitive base type and interface of d.
func (d *ClassDetail) ancestors(visit func(*ClassDetail)) {
	var queue []*ClassNode
	if d.base != nil {
		queue = append(queue, d.base)
	}
	queue = append(queue, d.interfaces...)
	seen := make(map[*ClassNode]bool)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if seen[c] {
			continue
		}
		seen[c] = true
		ad := c.Detail()
		if ad == c.scope.missing {
			continue
		}
		visit(ad)
		if ad.base != nil {
			queue = append(queue, ad.base)
		}
		queue = append(queue, ad.interfaces...)
	}
}

// updateDerivedClasses records c and everything deriving from it on every
// ancestor of d, where d is c's detail.
func (d *ClassDetail) updateDerivedClasses(c *ClassNode) {
	below := d.derived.snapshot()
	d.ancestors(func(a *ClassDetail) {
		if a == d {
			return
		}
		a.derived.add(c)
		for _, x := range below {
			a.derived.add(x)
		}
	})
}

// removeDerivedClasses is the inverse of updateDerivedClasses.
func (d *ClassDetail) removeDerivedClasses(c *ClassNode) {
	below := d.derived.snapshot()
	d.ancestors(func(a *ClassDetail) {
		if a == d {
			return
		}
		a.derived.remove(c)
		for _, x := range below {
			a.derived.remove(x)
		}
	})
}

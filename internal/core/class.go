package core

import "strings"

// ClassNode is the identity of a class inside a Scope. Its detail is
// attached lazily on first use.
type ClassNode struct {
	scope   *Scope
	name    string
	detail  *ClassDetail
	loading bool
}

// Name returns the canonical, fully qualified name.
func (c *ClassNode) Name() string { return c.name }

func (c *ClassNode) String() string { return c.name }

// Scope returns the owning scope.
func (c *ClassNode) Scope() *Scope { return c.scope }

// IsLoaded reports whether a detail (real or missing) is attached.
func (c *ClassNode) IsLoaded() bool { return c.detail != nil }

// IsMissing reports whether the class could not be loaded.
func (c *ClassNode) IsMissing() bool {
	return !c.IsPrimitive() && c.Detail() == c.scope.missing
}

// Detail returns the class detail, asking the scope's loader for it the
// first time. A class the loader cannot produce gets the missing sentinel;
// the failure is logged, never returned.
func (c *ClassNode) Detail() *ClassDetail {
	if c.detail != nil {
		return c.detail
	}
	if c.loading {
		// a class whose own loading asks for itself
		c.scope.logger.Error("recursive class loading", "class", c.name, "severe", true)
		return c.scope.missing
	}
	if c.scope.loader == nil {
		c.scope.logger.Warn("class not found, using missing detail", "class", c.name, "err", "no loader")
		c.detail = c.scope.missing
		return c.detail
	}

	c.loading = true
	d, err := c.scope.loader.LoadDetail(c)
	c.loading = false

	if c.detail != nil {
		// the loader attached it through SetDetail
		return c.detail
	}
	if err != nil || d == nil {
		if err == nil {
			err = ErrClassNotFound
		}
		c.scope.logger.Warn("class not found, using missing detail", "class", c.name, "err", err)
		c.detail = c.scope.missing
		return c.detail
	}
	c.attach(d)
	return c.detail
}

// SetDetail attaches a detail built by a loader. Attaching twice is a logic
// error that is logged and otherwise honoured.
func (c *ClassNode) SetDetail(d *ClassDetail) {
	if c.detail != nil && !c.loading {
		c.scope.logger.Error("class is already loaded", "class", c.name, "severe", true)
		if c.detail != c.scope.missing {
			c.detail.removeDerivedClasses(c)
		}
	}
	c.attach(d)
}

func (c *ClassNode) attach(d *ClassDetail) {
	c.detail = d
	if d != c.scope.missing {
		d.updateDerivedClasses(c)
	}
}

// SetBaseType rebuilds the detail around a new base type and moves c (and
// everything recorded as deriving from c) from the old ancestors' derived
// lists to the new ones.
func (c *ClassNode) SetBaseType(base *ClassNode) {
	orig := c.Detail()
	if orig == c.scope.missing {
		c.scope.logger.Warn("cannot change base type of a missing class", "class", c.name)
		return
	}
	orig.removeDerivedClasses(c)
	nd := orig.withBaseType(base)
	c.detail = nd
	nd.updateDerivedClasses(c)
}

// BaseType returns the super class or nil.
func (c *ClassNode) BaseType() *ClassNode { return c.Detail().base }

// Interfaces returns the directly implemented interfaces.
func (c *ClassNode) Interfaces() []*ClassNode { return c.Detail().interfaces }

// DerivedClasses returns the classes recorded as deriving from c. This only
// covers what has been loaded so far.
func (c *ClassNode) DerivedClasses() []*ClassNode { return c.Detail().DerivedClasses() }

func (c *ClassNode) AccessFlags() AccessFlags { return c.Detail().flags }

func (c *ClassNode) IsFramework() bool { return c.Detail().framework }
func (c *ClassNode) IsInterface() bool { return c.Detail().flags.IsInterface() }
func (c *ClassNode) IsAbstract() bool  { return c.Detail().flags.IsAbstract() }
func (c *ClassNode) IsFinal() bool     { return c.Detail().flags.IsFinal() }

// IsAlmostFinal reports a class with no known derived class.
func (c *ClassNode) IsAlmostFinal() bool { return len(c.Detail().derived.items) == 0 }

func (c *ClassNode) IsPrimitive() bool { return c.scope.isPrimitive(c) }

func (c *ClassNode) IsArray() bool { return strings.HasPrefix(c.name, "[") }

// ElementClass returns the element type of an array class, or nil.
func (c *ClassNode) ElementClass() *ClassNode {
	name := elementName(c.name)
	if name == "" {
		return nil
	}
	return c.scope.FindOrCreate(name)
}

// IsInnerClass reports a nested class name (Outer$Inner).
func (c *ClassNode) IsInnerClass() bool { return strings.Contains(c.name, "$") }

// OuterClass returns the enclosing class of an inner class, or nil.
func (c *ClassNode) OuterClass() *ClassNode {
	i := strings.LastIndexByte(c.name, '$')
	if i <= 0 {
		return nil
	}
	return c.scope.FindOrCreate(c.name[:i])
}

// ShortName returns the part after the last '.'.
func (c *ClassNode) ShortName() string {
	if i := strings.LastIndexByte(c.name, '.'); i >= 0 {
		return c.name[i+1:]
	}
	return c.name
}

// IsConvertibleTo reports whether a value of type c can be used where t is
// expected: t is c itself, an indirect base type, or an indirect interface.
// Primitives only convert to themselves, and anything converts to void,
// which stands for an unconstrained slot.
func (c *ClassNode) IsConvertibleTo(t *ClassNode) bool {
	if t == nil {
		return false
	}
	if c == t || t == c.scope.Void {
		return true
	}
	if t.IsPrimitive() || c.IsPrimitive() {
		return false
	}

	queue := []*ClassNode{c}
	seen := map[*ClassNode]bool{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == t {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		d := n.Detail()
		if d.base != nil {
			queue = append(queue, d.base)
		}
		queue = append(queue, d.interfaces...)
	}
	return false
}

// walk visits c and its supertypes breadth first, base before interfaces,
// each at most once. It stops when visit returns false.
func (c *ClassNode) walk(visit func(n *ClassNode, d *ClassDetail) bool) {
	queue := []*ClassNode{c}
	seen := map[*ClassNode]bool{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		d := n.Detail()
		if !visit(n, d) {
			return
		}
		if d.base != nil {
			queue = append(queue, d.base)
		}
		queue = append(queue, d.interfaces...)
	}
}

// FindMethod returns the first concrete method matching sig, searching c,
// then its supertypes breadth first with the base type ahead of interfaces.
func (c *ClassNode) FindMethod(sig MethodSignature) *MethodNode {
	var found *MethodNode
	key := sig.Key()
	c.walk(func(_ *ClassNode, d *ClassDetail) bool {
		if m := d.methods[key]; m != nil {
			found = m
			return false
		}
		return true
	})
	return found
}

// FindMethodHere looks only at the methods c declares.
func (c *ClassNode) FindMethodHere(sig MethodSignature) *MethodNode {
	return c.Detail().methods[sig.Key()]
}

// FindMethodsHere returns the declared methods called name, in declaration order.
func (c *ClassNode) FindMethodsHere(name string) []*MethodNode {
	var out []*MethodNode
	for _, m := range c.Detail().order {
		if m.name == name && c.Detail().methods[m.Signature().Key()] == m {
			out = append(out, m)
		}
	}
	return out
}

// FindMethods collects every method called name visible from c. A method
// found closer to c suppresses the deeper methods it overrides, so the
// result never holds a method together with one of its overriders.
func (c *ClassNode) FindMethods(name string) []*MethodNode {
	var result []*MethodNode
	c.walk(func(n *ClassNode, _ *ClassDetail) bool {
		for _, m := range n.FindMethodsHere(name) {
			overridden := false
			for _, r := range result {
				if r.CanOverride(m) {
					overridden = true
					break
				}
			}
			if !overridden {
				result = append(result, m)
			}
		}
		return true
	})
	return result
}

// AllMethods returns the declared methods in declaration order.
func (c *ClassNode) AllMethods() []*MethodNode { return c.Detail().order }

// DefaultConstructor returns the declared no-argument constructor.
func (c *ClassNode) DefaultConstructor() *MethodNode {
	return c.FindMethodHere(NewMethodSignature(ConstructorName))
}

// StaticInitializer returns <clinit>, searching supertypes as well.
func (c *ClassNode) StaticInitializer() *MethodNode {
	return c.FindMethod(NewMethodSignature(StaticInitializerName))
}

// FieldType returns the type of instance field name, looking through the
// base chain. A miss is logged and yields nil.
func (c *ClassNode) FieldType(name string) *ClassNode {
	return c.lookupField(name, false)
}

// StaticFieldType is FieldType for static fields.
func (c *ClassNode) StaticFieldType(name string) *ClassNode {
	return c.lookupField(name, true)
}

func (c *ClassNode) lookupField(name string, static bool) *ClassNode {
	seen := map[*ClassNode]bool{}
	for n := c; n != nil && !seen[n]; {
		seen[n] = true
		d := n.Detail()
		table := d.fields
		if static {
			table = d.staticFields
		}
		if t, ok := table[name]; ok {
			return t
		}
		n = d.base
	}
	if static {
		c.scope.logger.Warn("failed to find static field", "class", c.name, "field", name)
	} else {
		c.scope.logger.Warn("failed to find field", "class", c.name, "field", name)
	}
	return nil
}

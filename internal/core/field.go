package core

// FieldRef names a field by the class it was referenced through. The class
// that actually declares it may be a base type; Bind finds it.
type FieldRef struct {
	Owner  *ClassNode
	Name   string
	Static bool
}

// Bind walks the base chain to the class that declares the field. When no
// class does, the reference is returned pointing at the root of the chain.
func (f *FieldRef) Bind() *FieldRef {
	t := f.Owner
	seen := map[*ClassNode]bool{}
	for t != nil && !seen[t] {
		seen[t] = true
		d := t.Detail()
		table := d.fields
		if f.Static {
			table = d.staticFields
		}
		if _, ok := table[f.Name]; ok {
			return &FieldRef{Owner: t, Name: f.Name, Static: f.Static}
		}
		if d.base == nil {
			break
		}
		t = d.base
	}
	f.Owner.scope.logger.Warn("field bind failed", "field", f.String())
	return &FieldRef{Owner: t, Name: f.Name, Static: f.Static}
}

// Type returns the declared type of the field, or nil when it cannot be found.
func (f *FieldRef) Type() *ClassNode {
	if f.Static {
		return f.Owner.StaticFieldType(f.Name)
	}
	return f.Owner.FieldType(f.Name)
}

func (f *FieldRef) IsValid() bool { return f.Type() != nil }

func (f *FieldRef) Equal(o *FieldRef) bool {
	return o != nil && f.Owner == o.Owner && f.Name == o.Name && f.Static == o.Static
}

func (f *FieldRef) String() string { return f.Owner.name + "." + f.Name }

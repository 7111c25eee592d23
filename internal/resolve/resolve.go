// Package resolve binds symbolic call sites to methods of the type graph
// once a load unit is fully detailed.
package resolve

import (
	"github.com/charmbracelet/log"

	"dexgraph/internal/core"
)

type site struct {
	method *core.MethodNode
	index  int
}

// Resolver collects pending invoke sites and binds them in one pass.
type Resolver struct {
	scope   *core.Scope
	log     *log.Logger
	pending []site
}

// Stats counts the outcome of one ResolveAll pass.
type Stats struct {
	Resolved   int
	Synthetic  int
	Unresolved int
}

func New(scope *core.Scope) *Resolver {
	return &Resolver{scope: scope, log: scope.Logger()}
}

// Register queues the invoke at index of m.
func (r *Resolver) Register(m *core.MethodNode, index int) {
	r.pending = append(r.pending, site{m, index})
}

// Pending returns the number of queued call sites.
func (r *Resolver) Pending() int { return len(r.pending) }

// ResolveAll binds every queued call site and clears the queue. Sites
// whose target cannot be found become HALT.
func (r *Resolver) ResolveAll() Stats {
	var st Stats
	for _, s := range r.pending {
		insns := s.method.Instructions()
		if s.index < 0 || s.index >= len(insns) {
			r.log.Error("call site out of range", "method", s.method.String(), "index", s.index, "severe", true)
			continue
		}
		in := insns[s.index]
		call, ok := in.Extra.(core.PendingCall)
		if !ok {
			r.log.Error("call site is not pending", "method", s.method.String(), "index", s.index, "insn", in.String(), "severe", true)
			continue
		}

		target, synthetic := r.lookup(call.Ref)
		switch {
		case target == nil:
			r.log.Debug("cannot resolve method invocation, replacing with HALT", "call", call.Ref.String(), "caller", s.method.String())
			in.Op = core.OpHalt
			in.Extra = core.UnresolvedCall{Ref: call.Ref, Args: call.Args}
			st.Unresolved++
		default:
			in.Extra = core.ResolvedCall{Method: target, Args: call.Args}
			st.Resolved++
			if synthetic {
				st.Synthetic++
			}
		}
	}
	r.pending = r.pending[:0]
	return st
}

// lookup finds the method ref denotes: the hierarchy lookup when its return
// type matches, else a synthetic method of the declaring class with the
// same signature and return type.
func (r *Resolver) lookup(ref *core.MethodNode) (*core.MethodNode, bool) {
	cls := ref.Class()
	sig := ref.Signature()
	if m := cls.FindMethod(sig); m != nil && m.ReturnType() == ref.ReturnType() {
		return m, false
	}
	for _, m := range cls.Detail().SyntheticMethods(sig) {
		if m.ReturnType() == ref.ReturnType() {
			return m, true
		}
	}
	return nil, false
}

// Package translate turns raw dex code items into the core instruction IR.
package translate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"dexgraph/internal/core"
	"dexgraph/internal/dex"
)

var (
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrArgumentMismatch  = errors.New("argument count mismatch")
	ErrDanglingReference = errors.New("dangling code reference")
	ErrPayloadMismatch   = errors.New("payload type mismatch")
)

// Registrar receives the position of every invoke in a translated method.
type Registrar interface {
	Register(m *core.MethodNode, index int)
}

// Translator decodes method bodies of one scope. It keeps per-method
// scratch state and is not safe for concurrent use.
type Translator struct {
	scope *core.Scope
	reg   Registrar
	log   *log.Logger

	method *core.MethodNode
	addr   int
	insns  []*core.Instruction
	calls  []int

	// addressToIndex maps every visited address to the index of the
	// instruction emitted there (or the next one, for nop and payloads).
	addressToIndex map[int]int
	// unresolved holds branches and switches waiting for an address.
	unresolved map[int][]*core.Instruction
	// payloadDefers holds switches and array fills whose payload is ahead.
	payloadDefers map[int][]*core.Instruction
	payloadCache  map[int]*dex.Insn
	// payloadAddrs marks addresses that start a payload pseudo-instruction;
	// branches, switch cases, try starts and handlers may not land on them.
	payloadAddrs map[int]bool
}

// New returns a translator for scope. reg may be nil when call sites are
// not resolved afterwards.
func New(scope *core.Scope, reg Registrar) *Translator {
	return &Translator{scope: scope, reg: reg, log: scope.Logger()}
}

// Translate decodes code and attaches the result to m. On failure the
// error is logged and returned and m is left without a body.
func (t *Translator) Translate(m *core.MethodNode, code *dex.Code) error {
	insns, tries, calls, err := t.translate(m, code)
	if err != nil {
		t.log.Error("method translation failed", "method", m.String(), "err", err)
		return err
	}
	m.SetImplementation(insns, tries)
	if t.reg != nil {
		for _, idx := range calls {
			t.reg.Register(m, idx)
		}
	}
	return nil
}

func (t *Translator) reset(m *core.MethodNode) {
	t.method = m
	t.addr = 0
	t.insns = nil
	t.calls = nil
	t.addressToIndex = map[int]int{}
	t.unresolved = map[int][]*core.Instruction{}
	t.payloadDefers = map[int][]*core.Instruction{}
	t.payloadCache = map[int]*dex.Insn{}
	t.payloadAddrs = map[int]bool{}
}

// translate returns the instructions, try blocks and invoke indices of
// code. The scratch state is cleared on return, so everything the caller
// needs is handed back explicitly.
func (t *Translator) translate(m *core.MethodNode, code *dex.Code) ([]*core.Instruction, []core.TryBlockInfo, []int, error) {
	t.reset(m)
	defer t.reset(nil)

	args, err := t.argumentSet(m, code.Registers)
	if err != nil {
		return nil, nil, nil, err
	}
	t.emit(args)

	for k := range code.Insns {
		raw := &code.Insns[k]
		t.addr = raw.Addr
		idx := len(t.insns)
		t.addressToIndex[t.addr] = idx

		if raw.Op.IsPayload() {
			t.payloadAddrs[t.addr] = true
			if _, ok := t.unresolved[t.addr]; ok {
				return nil, nil, nil, fmt.Errorf("%w: jump into %s at %#x", ErrDanglingReference, raw.Op.Name(), t.addr)
			}
			if err := t.payload(raw); err != nil {
				return nil, nil, nil, err
			}
			continue
		}
		if err := t.patch(idx); err != nil {
			return nil, nil, nil, err
		}
		if raw.Op == dex.Nop {
			continue
		}
		in, err := t.insn(raw)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s at %#x: %w", raw.Op.Name(), raw.Addr, err)
		}
		t.emit(in)
	}

	if len(t.unresolved) > 0 {
		return nil, nil, nil, fmt.Errorf("%w: %d unreached branch targets", ErrDanglingReference, len(t.unresolved))
	}
	if len(t.payloadDefers) > 0 {
		return nil, nil, nil, fmt.Errorf("%w: %d missing payloads", ErrDanglingReference, len(t.payloadDefers))
	}
	if err := t.checkTargets(); err != nil {
		return nil, nil, nil, err
	}
	tries, err := t.tryBlocks(code.Tries)
	if err != nil {
		return nil, nil, nil, err
	}
	return t.insns, tries, t.calls, nil
}

func (t *Translator) emit(in *core.Instruction) {
	if in.Aux.IsInvoke() {
		t.calls = append(t.calls, len(t.insns))
	}
	t.insns = append(t.insns, in)
}

// argumentSet computes where each parameter lives: the last registers of
// the frame, receiver first, with wide parameters taking two.
func (t *Translator) argumentSet(m *core.MethodNode, registers int) (*core.Instruction, error) {
	params := m.Params()
	reg := registers
	n := len(params)
	if !m.IsStatic() {
		n++
	}
	regs := make(core.Registers, n)
	for i := len(params) - 1; i >= 0; i-- {
		if t.scope.IsWideType(params[i]) {
			reg--
		}
		reg--
		regs[n-len(params)+i] = reg
	}
	if !m.IsStatic() {
		reg--
		regs[0] = reg
	}
	if reg < 0 {
		return nil, fmt.Errorf("%w: %d registers for %d parameters", ErrArgumentMismatch, registers, len(params))
	}
	in := core.NewInstruction(core.OpSpecial, core.AuxArguments)
	in.Extra = regs
	return in, nil
}

// patch resolves everything waiting for the current address.
func (t *Translator) patch(idx int) error {
	waiting, ok := t.unresolved[t.addr]
	if !ok {
		return nil
	}
	delete(t.unresolved, t.addr)
	for _, in := range waiting {
		switch p := in.Extra.(type) {
		case core.PendingTarget:
			in.Extra = core.BranchTarget(idx)
		case core.PendingSwitch:
			table, err := t.switchTable(p.SwitchAddr, p.Cases)
			if err != nil {
				return err
			}
			in.Extra = table
		default:
			return fmt.Errorf("%w: %s waiting at %#x", ErrPayloadMismatch, in, t.addr)
		}
	}
	return nil
}

func (t *Translator) payload(raw *dex.Insn) error {
	if defers, ok := t.payloadDefers[t.addr]; ok {
		delete(t.payloadDefers, t.addr)
		for _, in := range defers {
			if err := t.applyPayload(in, raw); err != nil {
				return err
			}
		}
	}
	t.payloadCache[t.addr] = raw
	return nil
}

// withPayload applies the payload at off relative to the current address,
// or defers until it is scanned.
func (t *Translator) withPayload(in *core.Instruction, off int32) error {
	at := t.addr + int(off)
	if p, ok := t.payloadCache[at]; ok {
		return t.applyPayload(in, p)
	}
	t.payloadDefers[at] = append(t.payloadDefers[at], in)
	return nil
}

func (t *Translator) applyPayload(in *core.Instruction, p *dex.Insn) error {
	switch p.Op {
	case dex.FillArrayDataPayload:
		if in.Op != core.OpNew || in.Aux != core.AuxNewFilledArray {
			return fmt.Errorf("%w: array data for %s", ErrPayloadMismatch, in)
		}
		data := make(core.ArrayData, len(p.Array.Elems))
		for i, v := range p.Array.Elems {
			if p.Array.Width == 8 {
				data[i] = core.FromLong(t.scope, v)
			} else {
				data[i] = core.FromInt(t.scope, int32(v))
			}
		}
		in.Extra = data
	case dex.PackedSwitchPayload, dex.SparseSwitchPayload:
		target, ok := in.Extra.(core.PendingTarget)
		if in.Op != core.OpSwitch || !ok {
			return fmt.Errorf("%w: switch table for %s", ErrPayloadMismatch, in)
		}
		cases := make([]core.SwitchCase, len(p.Switch))
		maxAddr, resolvable := -1, true
		for i, e := range p.Switch {
			cases[i] = core.SwitchCase{Key: e.Key, Offset: e.Offset}
			dest := target.Addr + int(e.Offset)
			if _, ok := t.addressToIndex[dest]; !ok {
				resolvable = false
				maxAddr = max(maxAddr, dest)
			}
		}
		if resolvable {
			table, err := t.switchTable(target.Addr, cases)
			if err != nil {
				return err
			}
			in.Extra = table
			return nil
		}
		in.Extra = core.PendingSwitch{SwitchAddr: target.Addr, Cases: cases}
		t.unresolved[maxAddr] = append(t.unresolved[maxAddr], in)
	default:
		return fmt.Errorf("%w: %s", ErrPayloadMismatch, p.Op.Name())
	}
	return nil
}

func (t *Translator) switchTable(switchAddr int, cases []core.SwitchCase) (core.SwitchTable, error) {
	table := make(core.SwitchTable, len(cases))
	for _, c := range cases {
		dest := switchAddr + int(c.Offset)
		idx, ok := t.addressToIndex[dest]
		if !ok || t.payloadAddrs[dest] {
			return nil, fmt.Errorf("%w: switch case %d to %#x", ErrDanglingReference, c.Key, dest)
		}
		table[c.Key] = idx
	}
	return table, nil
}

// branch points in at the instruction dest code units away.
func (t *Translator) branch(in *core.Instruction, off int32) error {
	dest := t.addr + int(off)
	if t.payloadAddrs[dest] {
		return fmt.Errorf("%w: jump into payload at %#x", ErrDanglingReference, dest)
	}
	if idx, ok := t.addressToIndex[dest]; ok {
		in.Extra = core.BranchTarget(idx)
		return nil
	}
	in.Extra = core.PendingTarget{Addr: dest}
	t.unresolved[dest] = append(t.unresolved[dest], in)
	return nil
}

// checkTargets verifies every branch and switch lands inside the method.
func (t *Translator) checkTargets() error {
	n := len(t.insns)
	for i, in := range t.insns {
		switch p := in.Extra.(type) {
		case core.BranchTarget:
			if int(p) < 0 || int(p) >= n {
				return fmt.Errorf("%w: instruction %d jumps to %d of %d", ErrDanglingReference, i, p, n)
			}
		case core.SwitchTable:
			for k, v := range p {
				if v < 0 || v >= n {
					return fmt.Errorf("%w: instruction %d case %d to %d of %d", ErrDanglingReference, i, k, v, n)
				}
			}
		case core.PendingTarget, core.PendingSwitch:
			return fmt.Errorf("%w: instruction %d left pending", ErrDanglingReference, i)
		}
	}
	return nil
}

// index maps an instruction address to its IR index. Payload addresses
// have no instruction of their own.
func (t *Translator) index(addr int) (int, bool) {
	if t.payloadAddrs[addr] {
		return 0, false
	}
	idx, ok := t.addressToIndex[addr]
	return idx, ok
}

func (t *Translator) tryBlocks(raw []dex.Try) ([]core.TryBlockInfo, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	addrs := make([]int, 0, len(t.addressToIndex))
	for a := range t.addressToIndex {
		addrs = append(addrs, a)
	}
	sort.Ints(addrs)

	n := len(t.insns)
	out := make([]core.TryBlockInfo, 0, len(raw))
	for _, tr := range raw {
		start, ok := t.index(tr.Start)
		if !ok || start >= n {
			return nil, fmt.Errorf("%w: try block start %#x", ErrDanglingReference, tr.Start)
		}
		endAddr := tr.Start + tr.Count
		end, ok := t.addressToIndex[endAddr]
		if !ok {
			// the last instruction may be partially covered
			end = len(t.insns)
			if i := sort.SearchInts(addrs, endAddr+1); i < len(addrs) {
				end = t.addressToIndex[addrs[i]]
			}
		}
		if end <= start {
			return nil, fmt.Errorf("%w: empty try block at %#x", ErrDanglingReference, tr.Start)
		}
		tb := core.TryBlockInfo{Start: start, End: end}
		for _, h := range tr.Handlers {
			idx, ok := t.index(h.Addr)
			if !ok || idx >= n {
				return nil, fmt.Errorf("%w: handler at %#x", ErrDanglingReference, h.Addr)
			}
			var typ *core.ClassNode
			if h.Type != "" {
				typ = t.scope.FindOrCreateDalvik(h.Type)
			}
			tb.Handlers = append(tb.Handlers, core.ExceptionHandler{Type: typ, Index: idx})
		}
		out = append(out, tb)
	}
	return out, nil
}

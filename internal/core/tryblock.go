package core

// ExceptionHandler is one catch clause. A nil Type is a catch-all.
type ExceptionHandler struct {
	Type  *ClassNode
	Index int
}

// TryBlockInfo covers the instruction indices [Start, End).
type TryBlockInfo struct {
	Start    int
	End      int
	Handlers []ExceptionHandler
}

// Covers reports whether instruction index i is inside the block.
func (t TryBlockInfo) Covers(i int) bool { return i >= t.Start && i < t.End }

package document

// undoStack is a bounded LIFO of inverse edit batches. When full, the
// oldest batch is evicted so the newest edits always remain undoable.
type undoStack struct {
	batches [][]EditOperation
	max     int
}

func newUndoStack(max int) *undoStack {
	if max <= 0 {
		max = DefaultUndoDepth
	}
	return &undoStack{max: max}
}

// push appends a batch, evicting from the front when over the bound.
func (s *undoStack) push(batch []EditOperation) {
	s.batches = append(s.batches, batch)
	if len(s.batches) > s.max {
		excess := len(s.batches) - s.max
		s.batches = s.batches[excess:]
	}
}

// pop removes and returns the newest batch.
func (s *undoStack) pop() ([]EditOperation, error) {
	if len(s.batches) == 0 {
		return nil, ErrUndoStackEmpty
	}
	batch := s.batches[len(s.batches)-1]
	s.batches = s.batches[:len(s.batches)-1]
	return batch, nil
}

func (s *undoStack) depth() int {
	return len(s.batches)
}

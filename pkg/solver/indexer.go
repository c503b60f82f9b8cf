package solver

// indexer gives a unique SAT variable to a combination of scheduling
// attributes and vice versa. Variables are 1-based as required by CNF.
type indexer struct {
	exams uint64
	slots uint64
	rooms uint64
}

func newIndexer(exams, slots, rooms uint64) indexer {
	return indexer{exams: exams, slots: slots, rooms: rooms}
}

func (ix indexer) index(exam, slot, room uint64) uint64 {
	return exam + ix.exams*slot + ix.exams*ix.slots*room + 1
}

func (ix indexer) attributes(index uint64) (exam, slot, room uint64) {
	index = index - 1
	exam = index % ix.exams
	index = index / ix.exams

	slot = index % ix.slots
	index = index / ix.slots

	room = index % ix.rooms
	return exam, slot, room
}

func (ix indexer) variables() uint64 {
	return ix.exams * ix.slots * ix.rooms
}

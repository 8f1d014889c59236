package executor

// queue is a growable ring buffer of pending work. It is not safe for
// concurrent use; the executor guards it with its condition.
type queue struct {
	elems               []*workItem
	nelems, popi, pushi int
}

func (q *queue) Len() int {
	return q.nelems
}

func (q *queue) Push(elem *workItem) {
	if q.nelems == len(q.elems) {
		q.expand()
	}
	q.elems[q.pushi] = elem
	q.nelems++
	q.pushi = (q.pushi + 1) % len(q.elems)
}

// Pop returns the oldest item, or nil when the queue is empty.
func (q *queue) Pop() *workItem {
	if q.nelems == 0 {
		return nil
	}
	elem := q.elems[q.popi]
	q.elems[q.popi] = nil
	q.nelems--
	q.popi = (q.popi + 1) % len(q.elems)
	return elem
}

func (q *queue) expand() {
	curcap := len(q.elems)
	var newcap int
	switch {
	case curcap == 0:
		newcap = 8
	case curcap < 1024:
		newcap = curcap * 2
	default:
		newcap = curcap + curcap/4
	}
	elems := make([]*workItem, newcap)

	if q.popi == 0 {
		copy(elems, q.elems)
		q.pushi = curcap
	} else {
		// Keep the tail segment at the end so pushi stays valid.
		newpopi := newcap - (curcap - q.popi)
		copy(elems, q.elems[:q.popi])
		copy(elems[newpopi:], q.elems[q.popi:])
		q.popi = newpopi
	}
	q.elems = elems
}

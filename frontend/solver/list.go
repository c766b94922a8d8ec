package solver

import "iter"

// constraintList is an intrusive doubly-linked list of constraints. The
// solver moves constraints between the active and retired lists on every
// simplification and restores them on scope exit, so linking and unlinking a
// node must not allocate.
//
// A constraint may be linked into at most one list at a time.
type constraintList struct {
	head, tail *Constraint
	size       int
}

func (l *constraintList) empty() bool { return l.head == nil }

func (l *constraintList) len() int { return l.size }

func (l *constraintList) front() *Constraint { return l.head }

func (l *constraintList) pushBack(c *Constraint) {
	c.next = nil
	c.prev = l.tail
	if l.tail != nil {
		l.tail.next = c
	} else {
		l.head = c
	}
	l.tail = c
	l.size++
}

func (l *constraintList) pushFront(c *Constraint) {
	c.prev = nil
	c.next = l.head
	if l.head != nil {
		l.head.prev = c
	} else {
		l.tail = c
	}
	l.head = c
	l.size++
}

func (l *constraintList) remove(c *Constraint) {
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		l.head = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		l.tail = c.prev
	}
	c.next, c.prev = nil, nil
	l.size--
}

// insertBefore links c back into l just before the given element, or at
// the back when before is nil.
func (l *constraintList) insertBefore(c, before *Constraint) {
	if before == nil {
		l.pushBack(c)
		return
	}
	c.prev = before.prev
	c.next = before
	if before.prev != nil {
		before.prev.next = c
	} else {
		l.head = c
	}
	before.prev = c
	l.size++
}

func (l *constraintList) popFront() *Constraint {
	c := l.head
	if c != nil {
		l.remove(c)
	}
	return c
}

// items yields the constraints in list order. The next link is captured
// before yielding, so the current constraint may be removed during
// iteration.
func (l *constraintList) items() iter.Seq[*Constraint] {
	return func(yield func(*Constraint) bool) {
		for c := l.head; c != nil; {
			next := c.next
			if !yield(c) {
				return
			}
			c = next
		}
	}
}

// spliceBackAll moves every constraint of other to the back of l,
// preserving order and emptying other.
func (l *constraintList) spliceBackAll(other *constraintList) {
	for !other.empty() {
		l.pushBack(other.popFront())
	}
}

// spliceFrontAll moves every constraint of other to the front of l,
// preserving other's internal order, and empties other.
func (l *constraintList) spliceFrontAll(other *constraintList) {
	if other.empty() {
		return
	}
	if l.head != nil {
		other.tail.next = l.head
		l.head.prev = other.tail
	} else {
		l.tail = other.tail
	}
	l.head = other.head
	l.size += other.size
	other.head, other.tail, other.size = nil, nil, 0
}

// spliceFrontRangeTo moves the prefix [head, until) of l to the back of
// dst, preserving order. until must be an element of l or nil (meaning the
// whole list).
func (l *constraintList) spliceFrontRangeTo(dst *constraintList, until *Constraint) {
	for l.head != until {
		dst.pushBack(l.popFront())
	}
}

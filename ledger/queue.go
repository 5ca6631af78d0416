package ledger

import (
	"github.com/robinvdvleuten/capgains/record"
	"github.com/shopspring/decimal"
)

// Queue holds the open lots of a single currency in acquisition order.
// Lots are appended at the tail and consumed from the head, so the oldest
// lot is always matched first.
type Queue struct {
	lots []record.Half
	head int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a lot at the tail.
func (q *Queue) Push(lot record.Half) {
	q.lots = append(q.lots, lot)
}

// Len returns the number of open lots.
func (q *Queue) Len() int {
	return len(q.lots) - q.head
}

// Front returns the oldest open lot.
func (q *Queue) Front() (record.Half, bool) {
	if q.Len() == 0 {
		return record.Half{}, false
	}
	return q.lots[q.head], true
}

// SetFrontAmount replaces the amount of the oldest open lot.
func (q *Queue) SetFrontAmount(amount decimal.Decimal) {
	q.lots[q.head].Amount = amount
}

// PopFront removes the oldest open lot.
func (q *Queue) PopFront() (record.Half, bool) {
	if q.Len() == 0 {
		return record.Half{}, false
	}
	lot := q.lots[q.head]
	q.lots[q.head] = record.Half{}
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 32 && q.head*2 >= len(q.lots) {
		q.lots = append([]record.Half(nil), q.lots[q.head:]...)
		q.head = 0
	}
	return lot, true
}

// Lots returns a copy of the open lots, oldest first.
func (q *Queue) Lots() []record.Half {
	lots := make([]record.Half, q.Len())
	copy(lots, q.lots[q.head:])
	return lots
}

// Total returns the sum of the open lot amounts.
func (q *Queue) Total() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range q.lots[q.head:] {
		total = total.Add(lot.Amount)
	}
	return total
}

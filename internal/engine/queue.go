package engine

// messageQueue is an unbounded FIFO of pending deliveries.
//
// The queue is unbounded so a node may emit any number of packets within
// one drain; runaway growth is caught by the step quota instead.
// Not safe for concurrent use: only the scheduler touches it.
type messageQueue struct {
	messages []Message
}

func newMessageQueue() *messageQueue {
	return &messageQueue{messages: make([]Message, 0, 32)}
}

// Enqueue appends a message to the tail.
func (q *messageQueue) Enqueue(m Message) {
	q.messages = append(q.messages, m)
}

// TryDequeue removes and returns the head message.
// Returns (Message{}, false) if the queue is empty.
func (q *messageQueue) TryDequeue() (Message, bool) {
	if len(q.messages) == 0 {
		return Message{}, false
	}

	m := q.messages[0]
	// Clear the slot so the backing array does not pin string payloads
	q.messages[0] = Message{}

	if len(q.messages) == 1 {
		q.messages = q.messages[:0]
	} else {
		q.messages = q.messages[1:]
	}
	return m, true
}

// Len returns the number of pending messages.
func (q *messageQueue) Len() int {
	return len(q.messages)
}

// Clear discards every pending message and returns how many were dropped.
func (q *messageQueue) Clear() int {
	n := len(q.messages)
	clear(q.messages)
	q.messages = q.messages[:0]
	return n
}

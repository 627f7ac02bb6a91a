package connection

import "sync"

// Synchronized is a connection that serializes the operations of another
// connection so that it can be shared between goroutines.
//
// - implements connection.Connection
type Synchronized[A, H comparable] struct {
	sync.Mutex
	conn Connection[A, H]
}

// NewSynchronized wraps the connection.
func NewSynchronized[A, H comparable](conn Connection[A, H]) *Synchronized[A, H] {
	return &Synchronized[A, H]{
		conn: conn,
	}
}

// UploadCode implements connection.Connection.
func (s *Synchronized[A, H]) UploadCode(call UploadCall[H]) (H, error) {
	s.Lock()
	defer s.Unlock()

	return s.conn.UploadCode(call)
}

// Instantiate implements connection.Connection.
func (s *Synchronized[A, H]) Instantiate(
	call InstantiateCall[A, H]) (ContractResult[A], error) {

	s.Lock()
	defer s.Unlock()

	return s.conn.Instantiate(call)
}

// Exec implements connection.Connection.
func (s *Synchronized[A, H]) Exec(call ExecCall[A]) (ContractResult[[]byte], error) {
	s.Lock()
	defer s.Unlock()

	return s.conn.Exec(call)
}

// Read implements connection.Connection.
func (s *Synchronized[A, H]) Read(call ReadCall[A]) (ContractResult[[]byte], error) {
	s.Lock()
	defer s.Unlock()

	return s.conn.Read(call)
}

package feed

import (
	"net"

	tomb "gopkg.in/tomb.v2"
)

const defaultNWorkers = 10

// connPool is a small fixed-size worker pool of goroutines that each read
// one connection's next record and hand decoded events back over a shared
// channel. It mirrors the task-queue shape of the teacher's TCP server
// worker pool, sized down to the single responsibility this package needs:
// draining connections without spinning up a goroutine per socket.
type connPool struct {
	tasks chan net.Conn
}

func newConnPool(n int) *connPool {
	if n <= 0 {
		n = defaultNWorkers
	}
	return &connPool{tasks: make(chan net.Conn, n)}
}

// AddTask enqueues a connection for the next free worker to read from.
func (p *connPool) AddTask(conn net.Conn) {
	p.tasks <- conn
}

// Setup starts n workers, each looping on handle until the tomb is dying.
// A worker that finishes handling one connection returns to waiting on the
// task channel rather than exiting, so workers are reused across reads.
func (p *connPool) Setup(t *tomb.Tomb, n int, handle func(t *tomb.Tomb, conn net.Conn) error) {
	if n <= 0 {
		n = defaultNWorkers
	}
	for i := 0; i < n; i++ {
		t.Go(func() error {
			for {
				select {
				case <-t.Dying():
					return nil
				case conn := <-p.tasks:
					if err := handle(t, conn); err != nil {
						return err
					}
				}
			}
		})
	}
}

// Package dump implements the optional packet-logging sidecar: when
// enabled, it writes raw inbound/outbound frames to files for forensic
// replay without ever blocking the connection write path.
package dump

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Direction names the half of a connection a dumped frame traveled.
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// queueCapacity bounds the buffered channel; once full, writes are dropped
// rather than allowed to back up into the connection's write lane.
const queueCapacity = 256

type entry struct {
	connUUID string
	dir      Direction
	seq      uint64
	packetID byte
	data     []byte
}

// Dumper drains a buffered channel of dumped frames to disk in the
// background. Send is non-blocking: a full queue drops the frame and logs
// a warning rather than stalling its caller.
type Dumper struct {
	baseDir string
	logger  *logrus.Logger
	queue   chan entry
}

// New clears baseDir/in and baseDir/out and starts the background drain
// goroutine. Call Close to stop it.
func New(baseDir string, logger *logrus.Logger) (*Dumper, error) {
	for _, dir := range []Direction{Inbound, Outbound} {
		path := filepath.Join(baseDir, string(dir))
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("dump: clearing %s: %w", path, err)
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("dump: creating %s: %w", path, err)
		}
	}

	d := &Dumper{
		baseDir: baseDir,
		logger:  logger,
		queue:   make(chan entry, queueCapacity),
	}
	go d.drain()
	return d, nil
}

// Send enqueues a frame for writing. It never blocks: if the queue is
// full, the frame is dropped.
func (d *Dumper) Send(connUUID string, dir Direction, seq uint64, packetID byte, data []byte) {
	select {
	case d.queue <- entry{connUUID: connUUID, dir: dir, seq: seq, packetID: packetID, data: data}:
	default:
		d.logger.Warn("dump: queue full, dropping frame")
	}
}

// Close stops accepting new frames. Frames already queued are still
// written before the drain goroutine exits.
func (d *Dumper) Close() {
	close(d.queue)
}

func (d *Dumper) drain() {
	for e := range d.queue {
		name := fmt.Sprintf("%s_%020d-%02x.bin", e.connUUID, e.seq, e.packetID)
		path := filepath.Join(d.baseDir, string(e.dir), name)

		if err := os.WriteFile(path, e.data, 0644); err != nil {
			d.logger.Warnf("dump: writing %s: %s", path, err)
		}
	}
}

package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	serial "go.bug.st/serial"

	"turn-guidance-service/internal/domain"
)

// SerialSource reads NMEA sentences from a GPS receiver on a serial port.
type SerialSource struct {
	Device string
	Baud   int
}

func NewSerialSource(device string, baud int) *SerialSource {
	return &SerialSource{Device: device, Baud: baud}
}

// Run opens the port and pushes samples until ctx is done.
func (s *SerialSource) Run(ctx context.Context, push func(domain.PositionSample)) error {
	port, err := serial.Open(s.Device, &serial.Mode{BaudRate: s.Baud})
	if err != nil {
		return fmt.Errorf("open gps serial %s: %w", s.Device, err)
	}

	// closing the port unblocks the pending read
	stop := context.AfterFunc(ctx, func() {
		if err := port.Close(); err != nil {
			log.Printf("device=%s event=gps_close_failed err=%v", s.Device, err)
		}
	})
	defer stop()

	err = ReadNMEA(ctx, port, time.Now, push)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// ReadNMEA parses sentences from r until EOF or ctx is done. Malformed
// sentences are skipped.
func ReadNMEA(ctx context.Context, r io.Reader, now func() time.Time, push func(domain.PositionSample)) error {
	var p Parser
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sample, ok, err := p.Parse(sc.Text(), now())
		if err != nil {
			if !errors.Is(err, ErrUnsupported) {
				log.Printf("event=nmea_skipped err=%v", err)
			}
			continue
		}
		if ok {
			push(sample)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read nmea: %w", err)
	}
	return nil
}

// Package rumble drives a gamepad's rumble motors through the evdev
// force-feedback interface.
package rumble

import (
	"encoding/binary"
	"math"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	evFF     = 0x15
	ffRumble = 0x50

	// _IOW('E', 0x80, struct ff_effect)
	eviocsff = 0x40304580

	effectSize = 48
	eventSize  = 24
)

// device is the kernel side: effect upload and event writes.
type device interface {
	Upload(effect []byte) (int16, error)
	Write(event []byte) error
	Close() error
}

type evdev struct {
	fd int
}

func (d *evdev) Upload(effect []byte) (int16, error) {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), eviocsff, uintptr(unsafe.Pointer(&effect[0])))
	if errno != 0 {
		return 0, errno
	}
	// The kernel writes the allocated id back into the struct.
	return int16(binary.LittleEndian.Uint16(effect[2:4])), nil
}

func (d *evdev) Write(event []byte) error {
	_, err := unix.Write(d.fd, event)
	return err
}

func (d *evdev) Close() error {
	return unix.Close(d.fd)
}

// Rumbler sets the left (strong) and right (weak) motors.  Writes that don't
// change anything are skipped, so it is safe to call every tick.
type Rumbler struct {
	lock sync.Mutex
	dev  device

	id          int16
	left, right float64
	playing     bool
}

func Open(path string) (*Rumbler, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "opening rumble device %s", path)
	}
	return newRumbler(&evdev{fd: fd}), nil
}

func newRumbler(dev device) *Rumbler {
	return &Rumbler{dev: dev, id: -1}
}

func magnitude(v float64) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return math.MaxUint16
	}
	return uint16(v * math.MaxUint16)
}

func encodeEffect(id int16, left, right float64) []byte {
	b := make([]byte, effectSize)
	binary.LittleEndian.PutUint16(b[0:2], ffRumble)
	binary.LittleEndian.PutUint16(b[2:4], uint16(id))
	// Replay length 0 plays until stopped.
	binary.LittleEndian.PutUint16(b[16:18], magnitude(left))
	binary.LittleEndian.PutUint16(b[18:20], magnitude(right))
	return b
}

func encodePlay(id int16, play bool) []byte {
	b := make([]byte, eventSize)
	binary.LittleEndian.PutUint16(b[16:18], evFF)
	binary.LittleEndian.PutUint16(b[18:20], uint16(id))
	if play {
		binary.LittleEndian.PutUint32(b[20:24], 1)
	}
	return b
}

func (r *Rumbler) SetRumble(left, right float64) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	left, right = clamp(left), clamp(right)
	if r.id >= 0 && left == r.left && right == r.right {
		return nil
	}
	play := left > 0 || right > 0
	if !play {
		if r.playing {
			if err := r.dev.Write(encodePlay(r.id, false)); err != nil {
				return errors.Wrap(err, "stopping rumble")
			}
			r.playing = false
		}
		if r.id >= 0 {
			r.left, r.right = 0, 0
			return nil
		}
	}

	id, err := r.dev.Upload(encodeEffect(r.id, left, right))
	if err != nil {
		return errors.Wrap(err, "uploading rumble effect")
	}
	r.id = id
	r.left, r.right = left, right
	if play && !r.playing {
		if err := r.dev.Write(encodePlay(r.id, true)); err != nil {
			return errors.Wrap(err, "starting rumble")
		}
		r.playing = true
	}
	return nil
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (r *Rumbler) Close() error {
	_ = r.SetRumble(0, 0)
	return r.dev.Close()
}

package rumble

import (
	"encoding/binary"
	"testing"
)

type fakeDevice struct {
	effects [][]byte
	events  [][]byte
	nextID  int16
}

func (f *fakeDevice) Upload(effect []byte) (int16, error) {
	f.effects = append(f.effects, effect)
	id := int16(binary.LittleEndian.Uint16(effect[2:4]))
	if id == -1 {
		id = f.nextID
	}
	return id, nil
}

func (f *fakeDevice) Write(event []byte) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeDevice) Close() error { return nil }

func playValue(ev []byte) uint32 {
	return binary.LittleEndian.Uint32(ev[20:24])
}

func TestEffectLayout(t *testing.T) {
	b := encodeEffect(-1, 1, 0.5)
	if len(b) != effectSize {
		t.Fatalf("Effect is %d bytes", len(b))
	}
	if binary.LittleEndian.Uint16(b[0:2]) != ffRumble || int16(binary.LittleEndian.Uint16(b[2:4])) != -1 {
		t.Fatal("Bad effect header")
	}
	if binary.LittleEndian.Uint16(b[16:18]) != 0xffff || binary.LittleEndian.Uint16(b[18:20]) != 0x7fff {
		t.Fatalf("Bad magnitudes %x", b[16:20])
	}
	ev := encodePlay(3, true)
	if len(ev) != eventSize || binary.LittleEndian.Uint16(ev[16:18]) != evFF ||
		binary.LittleEndian.Uint16(ev[18:20]) != 3 || playValue(ev) != 1 {
		t.Fatalf("Bad play event %x", ev)
	}
}

func TestSetRumbleDeduplicates(t *testing.T) {
	dev := &fakeDevice{nextID: 4}
	r := newRumbler(dev)

	for i := 0; i < 3; i++ {
		if err := r.SetRumble(1, 0); err != nil {
			t.Fatal(err)
		}
	}
	if len(dev.effects) != 1 || len(dev.events) != 1 || playValue(dev.events[0]) != 1 {
		t.Fatalf("Expected one upload and one play, got %d/%d", len(dev.effects), len(dev.events))
	}

	// Changing strength re-uploads under the same id without replaying.
	r.SetRumble(1, 1)
	if len(dev.effects) != 2 || len(dev.events) != 1 {
		t.Fatalf("Expected a second upload only, got %d/%d", len(dev.effects), len(dev.events))
	}
	if int16(binary.LittleEndian.Uint16(dev.effects[1][2:4])) != 4 {
		t.Fatal("Effect should be updated in place")
	}

	r.SetRumble(0, 0)
	r.SetRumble(0, 0)
	if len(dev.events) != 2 || playValue(dev.events[1]) != 0 {
		t.Fatalf("Expected a single stop event, got %d events", len(dev.events))
	}
}

func TestInitialZeroUploadsOnce(t *testing.T) {
	dev := &fakeDevice{nextID: 0}
	r := newRumbler(dev)
	r.SetRumble(0, 0)
	r.SetRumble(0, 0)
	if len(dev.effects) != 1 || len(dev.events) != 0 {
		t.Fatalf("Expected one upload and no events, got %d/%d", len(dev.effects), len(dev.events))
	}
}

package bno08x

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func packet(index uint8, yawDegrees float64) []byte {
	buf := make([]byte, packetLen)
	buf[0], buf[1] = 0xaa, 0xaa
	buf[2] = index
	binary.LittleEndian.PutUint16(buf[3:5], uint16(int16(math.Round(yawDegrees*100))))
	var checksum uint8
	for _, b := range buf[2 : packetLen-1] {
		checksum += b
	}
	buf[packetLen-1] = checksum
	return buf
}

func newTestIMU(now *time.Time) *BNO08X {
	b := New("")
	b.now = func() time.Time { return *now }
	return b
}

func TestDecodePacket(t *testing.T) {
	r, err := DecodePacket(packet(7, -123.45))
	if err != nil {
		t.Fatal(err)
	}
	if r.Index != 7 || r.Yaw != -12345 {
		t.Fatalf("Unexpected report %v", r)
	}

	bad := packet(7, 10)
	bad[packetLen-1]++
	if _, err := DecodePacket(bad); err != ErrBadChecksum {
		t.Fatalf("Expected bad checksum, got %v", err)
	}
}

func TestReadReportsResyncsAndUnwraps(t *testing.T) {
	now := time.Date(2017, 3, 4, 10, 0, 0, 0, time.UTC)
	b := newTestIMU(&now)

	var stream bytes.Buffer
	stream.Write([]byte{0x01, 0x02, 0x03}) // junk before the first header
	for i, yaw := range []float64{170, 178, -176, -170} {
		stream.Write(packet(uint8(i), yaw))
	}
	corrupt := packet(9, 0)
	corrupt[packetLen-1]++
	stream.Write(corrupt)
	stream.Write(packet(10, -160))

	// The stream ends with EOF, which is reported as an error.
	if err := b.ReadReports(context.Background(), &stream); err == nil {
		t.Fatal("Expected an error at end of stream")
	}
	a, err := b.Angle()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a-30) > 1e-9 {
		t.Fatalf("Expected 30 degrees across the seam, got %v", a)
	}
	if r, _ := b.CurrentReport(); r.Index != 10 {
		t.Fatalf("Expected last report 10, got %v", r.Index)
	}
}

func TestResetAndInvert(t *testing.T) {
	now := time.Date(2017, 3, 4, 10, 0, 0, 0, time.UTC)
	b := newTestIMU(&now)
	b.Invert = true
	if _, err := b.Angle(); err != ErrNoReports {
		t.Fatalf("Expected ErrNoReports, got %v", err)
	}

	b.setReport(Report{Yaw: 4500})
	b.setReport(Report{Yaw: 6000})
	if a, _ := b.Angle(); a != -15 {
		t.Fatalf("Expected inverted -15, got %v", a)
	}
	b.Reset()
	b.setReport(Report{Yaw: 5000})
	if a, _ := b.Angle(); a != 10 {
		t.Fatalf("Expected 10 after reset, got %v", a)
	}
}

func TestStale(t *testing.T) {
	now := time.Date(2017, 3, 4, 10, 0, 0, 0, time.UTC)
	b := newTestIMU(&now)
	b.setReport(Report{Yaw: 100})
	now = now.Add(time.Second)
	if _, err := b.Angle(); err != ErrStale {
		t.Fatalf("Expected ErrStale, got %v", err)
	}
}

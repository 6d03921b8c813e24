package limitswitch

import (
	"testing"

	"github.com/pkg/errors"
)

type fakeLine struct {
	value  int
	err    error
	closed bool
}

func (f *fakeLine) Value() (int, error) { return f.value, f.err }
func (f *fakeLine) Close() error        { f.closed = true; return nil }

func TestIsClosed(t *testing.T) {
	l := &fakeLine{}
	s := New("upper", l)
	if c, err := s.IsClosed(); c || err != nil {
		t.Fatalf("Inactive line should read open, got %v %v", c, err)
	}
	l.value = 1
	if c, err := s.IsClosed(); !c || err != nil {
		t.Fatalf("Active line should read closed, got %v %v", c, err)
	}
}

func TestReadErrorReadsOpen(t *testing.T) {
	s := New("lower", &fakeLine{value: 1, err: errors.New("gone")})
	c, err := s.IsClosed()
	if err == nil {
		t.Fatal("Expected the read error")
	}
	if c {
		t.Fatal("A failed read must not report closed")
	}
}

package screen

import (
	"image"
	"image/color"
	"testing"
)

func TestCharge(t *testing.T) {
	if Charge(10) != 0 || Charge(14) != 1 {
		t.Error("Charge should clamp to [0, 1]")
	}
	if c := Charge(12.15); c < 0.49 || c > 0.51 {
		t.Errorf("Expected half charge at 12.15V, got %v", c)
	}
}

func TestEncodeRotatesAndPacks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, S, S))
	img.Set(1, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	buf := Encode(img)
	if len(buf) != S*S*2 {
		t.Fatalf("Unexpected frame size %d", len(buf))
	}
	// Pixel (1, 0) lands at column 127 of row 1.
	red := (S-1)*2 + 1*S*2
	if buf[red+1] != 0xf8 || buf[red] != 0 {
		t.Errorf("Red pixel encoded as %x %x", buf[red+1], buf[red])
	}
	blue := (S-2)*2 + 0
	if buf[blue+1] != 0 || buf[blue] != 0x1f {
		t.Errorf("Blue pixel encoded as %x %x", buf[blue+1], buf[blue])
	}
}

func TestRender(t *testing.T) {
	img := Render(Status{Phase: "Teleop", Selection: "Left Auto/Red", Heading: 45, Voltage: 12.4, Notice: "stalled"})
	if img.Bounds().Dx() != S || img.Bounds().Dy() != S {
		t.Fatalf("Unexpected image size %v", img.Bounds())
	}
}

func TestUpdate(t *testing.T) {
	s := New()
	s.Update(func(st *Status) { st.Phase = "Auto" })
	s.Update(func(st *Status) { st.Heading = 12 })
	if st := s.Status(); st.Phase != "Auto" || st.Heading != 12 {
		t.Fatalf("Unexpected status %+v", st)
	}
	var nilScreen *Screen
	nilScreen.Update(func(st *Status) { st.Phase = "x" })
}

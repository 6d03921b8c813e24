// Package screen draws the robot's status on the small TFT on the back of
// the robot: current phase, the autonomous selection, heading, battery and
// the most recent notice.
package screen

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"
)

const S = 128

type Status struct {
	Phase     string
	Selection string
	DriveMode string
	Heading   float64
	Voltage   float64
	Notice    string
}

// Screen holds the latest status; the update loop renders it twice a
// second.
type Screen struct {
	lock   sync.Mutex
	status Status
}

func New() *Screen {
	return &Screen{}
}

func (s *Screen) Update(f func(st *Status)) {
	if s == nil {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	f(&s.status)
}

func (s *Screen) Status() Status {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.status
}

func (s *Screen) LoopUpdatingScreen(ctx context.Context, device string) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var buf [S * S * 2]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}
		buf := Encode(Render(s.Status()))
		if err := writeFrame(f, buf); err != nil {
			fmt.Println("Screen failure: ", err)
			return
		}
	}
}

func writeFrame(f io.WriteSeeker, buf []byte) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	for i := 0; i < S; i++ {
		if _, err := f.Write(buf[i*S*2 : (i+1)*S*2]); err != nil {
			return err
		}
		time.Sleep(10 * time.Microsecond)
	}
	return nil
}

func Render(st Status) image.Image {
	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGBA(1, 0.9, 0, 1)

	dc.DrawString(st.Phase, 4, 14)
	dc.DrawString(st.Selection, 4, 30)
	dc.DrawString(st.DriveMode, 4, 46)
	dc.DrawString(fmt.Sprintf("%.1f deg", st.Heading), 4, 62)

	drawHeading(dc, st.Heading)

	dc.Push()
	dc.Translate(94, 20)
	drawPowerBar(dc, st.Voltage)
	dc.Pop()

	if st.Notice != "" {
		dc.Push()
		dc.Translate(14, 112)
		DrawWarning(dc)
		dc.Pop()
		dc.SetRGBA(1, 0.9, 0, 1)
		dc.DrawString(st.Notice, 30, 116)
	}
	return dc.Image()
}

func drawHeading(dc *gg.Context, heading float64) {
	dc.Push()
	defer dc.Pop()
	dc.Translate(40, 88)
	dc.DrawCircle(0, 0, 14)
	dc.Stroke()
	dc.Rotate(gg.Radians(heading))
	dc.DrawRegularPolygon(3, 0, -8, 6, 0)
	dc.Fill()
}

// Encode converts the image to the panel's RGB565 layout, which is mounted
// rotated by 90 degrees.
func Encode(img image.Image) []byte {
	buf := make([]byte, S*S*2)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
	return buf
}

const (
	// 12V lead-acid under light load.
	emptyVoltage = 11.5
	fullVoltage  = 12.8
)

// Charge maps battery voltage onto [0, 1].
func Charge(voltage float64) float64 {
	c := (voltage - emptyVoltage) / (fullVoltage - emptyVoltage)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func drawPowerBar(dc *gg.Context, voltage float64) {
	charge := Charge(voltage)

	// Colour depends on charge level.
	if charge < 0.1 {
		dc.SetRGBA(1, 0.2, 0, 1)
	}
	dc.DrawRectangle(0, 70, 30, 10)
	for n := 2; n < 13; n++ {
		if charge >= (float64(n) / 13) {
			dc.DrawRectangle(2, 75-float64(n)*5, 26, 3)
		}
	}
	dc.Fill()
	dc.DrawString(fmt.Sprintf("%.1fv", voltage), -2, 93)
	dc.SetRGBA(1, 0.9, 0, 1)
}

func DrawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 14, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -3, 3)
}

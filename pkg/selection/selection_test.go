package selection

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
)

func TestParsePosition(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out Position
	}{
		{"middle", Middle},
		{"Drive Forward", Middle},
		{"Left Auto", Left},
		{"RIGHT", Right},
		{"do_nothing", DoNothing},
		{"Do Nothing", DoNothing},
		{" demo ", Demo},
	} {
		p, err := ParsePosition(tc.in)
		if err != nil {
			t.Errorf("ParsePosition(%q) failed: %v", tc.in, err)
			continue
		}
		if p != tc.out {
			t.Errorf("ParsePosition(%q) = %v, expected %v", tc.in, p, tc.out)
		}
	}
	if _, err := ParsePosition("centre"); err == nil {
		t.Error("Expected an error for an unknown position")
	}
}

func TestParseColorAndDriveMode(t *testing.T) {
	if c, err := ParseColor("red"); err != nil || c != Red {
		t.Errorf("ParseColor(red) = %v, %v", c, err)
	}
	if _, err := ParseColor("green"); err == nil {
		t.Error("Expected an error for green")
	}
	if m, err := ParseDriveMode("Flight Stick"); err != nil || m != FlightStick {
		t.Errorf("ParseDriveMode(Flight Stick) = %v, %v", m, err)
	}
	if m, err := ParseDriveMode("triggers"); err != nil || m != Triggers {
		t.Errorf("ParseDriveMode(triggers) = %v, %v", m, err)
	}
}

func TestCycling(t *testing.T) {
	p := DoNothing
	for i := 0; i < int(numPositions); i++ {
		p = p.Next()
	}
	if p != DoNothing {
		t.Errorf("Cycling all positions should wrap back, got %v", p)
	}
	if Red.Next() != Blue {
		t.Error("Red should wrap to Blue")
	}
	if FlightStick.Next() != Sticks {
		t.Error("Flight Stick should wrap to Sticks")
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	f := &FileSource{Path: filepath.Join(dir, "selection.yaml")}

	sel, err := f.Selected()
	if err != nil {
		t.Fatalf("Missing file should not be an error: %v", err)
	}
	if sel != (Selection{}) {
		t.Fatalf("Missing file should give defaults, got %v", sel)
	}

	want := Selection{Position: Right, Color: Red, DriveMode: Triggers}
	if err := f.Save(want); err != nil {
		t.Fatal(err)
	}
	sel, err = f.Selected()
	if err != nil {
		t.Fatal(err)
	}
	if sel != want {
		t.Fatalf("Round trip through file gave %v, expected %v", sel, want)
	}
}

func TestFileSourceBadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.yaml")
	if err := ioutil.WriteFile(path, []byte("position: centre\n"), 0666); err != nil {
		t.Fatal(err)
	}
	sel, err := (&FileSource{Path: path}).Selected()
	if err == nil {
		t.Fatal("Expected a parse error")
	}
	if sel.Position != DoNothing {
		t.Fatalf("Bad file should fall back to Do Nothing, got %v", sel.Position)
	}
}

func TestOverridesAndChooser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.yaml")
	if err := ioutil.WriteFile(path, []byte("position: left\ncolor: red\n"), 0666); err != nil {
		t.Fatal(err)
	}
	demo := Demo
	src := WithOverrides(&FileSource{Path: path}, Overrides{Position: &demo})
	sel, err := src.Selected()
	if err != nil {
		t.Fatal(err)
	}
	if sel.Position != Demo || sel.Color != Red {
		t.Fatalf("Expected Demo/Red, got %v", sel)
	}

	c := NewChooser(src)
	if got, _ := c.Selected(); got != sel {
		t.Fatalf("Untouched chooser should defer to its fallback, got %v", got)
	}
	if got := c.CycleColor(); got.Color != Blue || got.Position != Demo {
		t.Fatalf("Cycling color from Demo/Red gave %v", got)
	}
	if got := c.CyclePosition(); got.Position != DoNothing {
		t.Fatalf("Cycling position from Demo should wrap to Do Nothing, got %v", got.Position)
	}
	if got, _ := c.Selected(); got.Position != DoNothing || got.Color != Blue {
		t.Fatalf("Chooser should now report its own choice, got %v", got)
	}
}

func TestParseErrorsCarryStack(t *testing.T) {
	_, err := ParseColor("green")
	if err == nil {
		t.Fatal("Expected an error for green")
	}
	trace := fmt.Sprintf("%+v", err)
	if !strings.Contains(trace, "selection.ParseColor") {
		t.Fatalf("Expected a stack trace naming ParseColor, got:\n%s", trace)
	}
}

func TestPinnedChoicesSurviveTheChooser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.yaml")
	if err := ioutil.WriteFile(path, []byte("position: left\ncolor: blue\n"), 0666); err != nil {
		t.Fatal(err)
	}
	red := Red
	pinned := Overrides{Color: &red}
	c := NewChooser(WithOverrides(&FileSource{Path: path}, pinned))
	c.Pinned = pinned

	if got := c.CycleColor(); got.Color != Red {
		t.Fatalf("Cycling a pinned color should leave it Red, got %v", got)
	}
	if got := c.CyclePosition(); got.Position != Right || got.Color != Red {
		t.Fatalf("Expected Right/Red, got %v", got)
	}
	if got, _ := c.Selected(); got.Position != Right || got.Color != Red {
		t.Fatalf("Expected Right/Red, got %v", got)
	}
}

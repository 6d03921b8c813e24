package selection

import (
	"io/ioutil"
	"os"
	"sync"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Source supplies the current selection.  It is consulted once at the start
// of each phase.
type Source interface {
	Selected() (Selection, error)
}

// FileSource reads the selection from a YAML file each time it is asked, so
// the pit crew can edit it right up to the start of the match.  A missing
// file yields the zero Selection (Do Nothing, Blue, Sticks).
type FileSource struct {
	Path string
}

func (f *FileSource) Selected() (Selection, error) {
	data, err := ioutil.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return Selection{}, nil
	}
	if err != nil {
		return Selection{}, errors.Wrapf(err, "reading selection from %s", f.Path)
	}
	var sel Selection
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return Selection{}, errors.Wrapf(err, "parsing selection from %s", f.Path)
	}
	return sel, nil
}

// Save writes sel to the file so that the choice survives a restart.
func (f *FileSource) Save(sel Selection) error {
	data, err := yaml.Marshal(&sel)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(f.Path, data, 0666)
}

// Overrides pins some of the choices regardless of what the underlying source
// says.  Nil fields are left alone.
type Overrides struct {
	Position  *Position
	Color     *Color
	DriveMode *DriveMode
}

func (o Overrides) Empty() bool {
	return o.Position == nil && o.Color == nil && o.DriveMode == nil
}

// Apply returns sel with the pinned choices substituted.
func (o Overrides) Apply(sel Selection) Selection {
	if o.Position != nil {
		sel.Position = *o.Position
	}
	if o.Color != nil {
		sel.Color = *o.Color
	}
	if o.DriveMode != nil {
		sel.DriveMode = *o.DriveMode
	}
	return sel
}

type overridden struct {
	src Source
	o   Overrides
}

func WithOverrides(src Source, o Overrides) Source {
	if o.Empty() {
		return src
	}
	return &overridden{src: src, o: o}
}

func (s *overridden) Selected() (Selection, error) {
	sel, err := s.src.Selected()
	return s.o.Apply(sel), err
}

// Chooser lets the driver change the selection from the gamepad while the
// robot is disabled.  Until the first change it defers to Fallback; after
// that it returns its own choice.  Pinned choices win over both, so cycling
// a pinned field has no effect.
type Chooser struct {
	Fallback Source
	Pinned   Overrides

	lock    sync.Mutex
	touched bool
	sel     Selection
}

func NewChooser(fallback Source) *Chooser {
	return &Chooser{Fallback: fallback}
}

func (c *Chooser) Selected() (Selection, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.touched || c.Fallback == nil {
		return c.Pinned.Apply(c.sel), nil
	}
	sel, err := c.Fallback.Selected()
	return c.Pinned.Apply(sel), err
}

func (c *Chooser) CyclePosition() Selection {
	return c.update(func(s *Selection) { s.Position = s.Position.Next() })
}

func (c *Chooser) CycleColor() Selection {
	return c.update(func(s *Selection) { s.Color = s.Color.Next() })
}

func (c *Chooser) CycleDriveMode() Selection {
	return c.update(func(s *Selection) { s.DriveMode = s.DriveMode.Next() })
}

func (c *Chooser) update(f func(s *Selection)) Selection {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.touched && c.Fallback != nil {
		// Start from whatever the fallback currently says; a broken file just
		// means starting from the defaults.
		c.sel, _ = c.Fallback.Selected()
	}
	c.touched = true
	f(&c.sel)
	c.sel = c.Pinned.Apply(c.sel)
	return c.sel
}

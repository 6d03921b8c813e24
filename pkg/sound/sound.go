// Package sound plays short WAV cues on the robot's speaker so the drive
// team can hear phase changes from behind the glass.
package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

// Player queues sounds to a background goroutine.  A nil Player is silent.
type Player struct {
	Dir    string
	sounds chan string
}

// Init opens the speaker and starts the player goroutine.  Sound names are
// resolved against dir.
func Init(dir string) *Player {
	p := &Player{Dir: dir, sounds: make(chan string, 4)}
	go p.loop()
	return p
}

// Play queues a sound without blocking; if the queue is full the sound is
// dropped.
func (p *Player) Play(name string) {
	if p == nil || name == "" {
		return
	}
	select {
	case p.sounds <- p.resolve(name):
	default:
		fmt.Println("Sound queue full, dropping", name)
	}
}

func (p *Player) resolve(name string) string {
	if filepath.IsAbs(name) || p.Dir == "" {
		return name
	}
	return filepath.Join(p.Dir, name)
}

// drain swallows queued sounds once the speaker is unusable so that Play
// never backs up.
func (p *Player) drain() {
	for s := range p.sounds {
		fmt.Println("Unable to play", s)
	}
}

func (p *Player) loop() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Println("Sound player panicked:", r)
		}
		p.drain()
	}()
	sampleRate := beep.SampleRate(44100)
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/5)); err != nil {
		fmt.Println("Failed to open speaker", err)
		return
	}
	var playing playback
	for path := range p.sounds {
		playing.stop()
		if err := playing.start(path); err != nil {
			fmt.Println("Failed to play sound:", err)
		}
	}
}

// playback is the sound currently on the speaker.  A new sound cuts off the
// previous one.
type playback struct {
	ctrl   *beep.Ctrl
	stream beep.StreamSeekCloser
}

func (pb *playback) start(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	stream, _, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "decoding %s", path)
	}
	pb.stream = stream
	pb.ctrl = &beep.Ctrl{Streamer: stream}
	speaker.Play(pb.ctrl)
	return nil
}

func (pb *playback) stop() {
	if pb.ctrl != nil {
		speaker.Lock()
		pb.ctrl.Paused = true
		pb.ctrl.Streamer = nil
		speaker.Unlock()
		pb.ctrl = nil
	}
	if pb.stream != nil {
		pb.stream.Close()
		pb.stream = nil
	}
}

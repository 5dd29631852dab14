// Package audio plays short tones for merges and explosions.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/pthm-cable/metaballs/config"
)

// maxMergeSteps caps how far a burst of merges raises the merge pitch.
const maxMergeSteps = 6

// Player implements game.Sounds on the beep speaker.
type Player struct {
	rate          beep.SampleRate
	volume        float64
	explosionFreq float64
	mergeFreq     float64
	tone          time.Duration

	play func(beep.Streamer)
}

// NewPlayer initialises the speaker. Callers should treat an error as
// "run silent" rather than fatal.
func NewPlayer(cfg *config.Config) (*Player, error) {
	p := newPlayer(cfg)
	if err := speaker.Init(p.rate, p.rate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("initialising speaker: %w", err)
	}
	p.play = func(s beep.Streamer) { speaker.Play(s) }
	return p, nil
}

func newPlayer(cfg *config.Config) *Player {
	a := cfg.Audio
	return &Player{
		rate:          beep.SampleRate(a.SampleRate),
		volume:        a.Volume,
		explosionFreq: a.ExplosionFreq,
		mergeFreq:     a.MergeFreq,
		tone:          cfg.Derived.ToneDuration,
	}
}

// Merge plays a rising chirp, higher for larger bursts.
func (p *Player) Merge(n int) {
	if n <= 0 {
		return
	}
	steps := min(n-1, maxMergeSteps)
	freq := p.mergeFreq * math.Pow(2, float64(steps)/12)
	if s, err := p.toneAt(freq, p.tone); err == nil {
		p.play(s)
	}
}

// Explosion plays a low tone with its octave, longer for more fragments.
func (p *Player) Explosion(fragments int) {
	duration := p.tone + time.Duration(max(fragments, 0))*p.tone/8

	fund, err := generators.SineTone(p.rate, p.explosionFreq)
	if err != nil {
		return
	}
	sub, err := generators.SineTone(p.rate, p.explosionFreq/2)
	if err != nil {
		return
	}
	mixed := beep.Take(p.rate.N(duration), beep.Mix(fund, sub))
	p.play(withVolume(mixed, p.volume/2))
}

// toneAt builds a sine tone of the given length at the player volume.
func (p *Player) toneAt(freq float64, d time.Duration) (beep.Streamer, error) {
	sine, err := generators.SineTone(p.rate, freq)
	if err != nil {
		return nil, err
	}
	return withVolume(beep.Take(p.rate.N(d), sine), p.volume), nil
}

// Close stops playback and releases the audio device.
func (p *Player) Close() {
	speaker.Clear()
	speaker.Close()
}

// withVolume applies a linear gain. math.Log2(0) is -Inf, so 0 is silent.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

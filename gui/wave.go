//go:build gui

package gui

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	barCount   = 40
	barWidth   = 6
	barGap     = 2
	waveHeight = 72
	minBarPx   = 3
)

var (
	colorIdle    = color.RGBA{90, 90, 90, 255}
	colorWarn    = color.RGBA{255, 135, 0, 255}
	colorProcess = color.RGBA{255, 215, 0, 255}

	// Amplitude ramp while recording, low to high
	colorsRec = []color.RGBA{
		{95, 0, 0, 255},
		{135, 0, 0, 255},
		{175, 0, 0, 255},
		{215, 0, 0, 255},
		{255, 0, 0, 255},
		{255, 70, 70, 255},
	}
)

// WaveWidget renders the rolling microphone level as a bar meter, newest
// bar on the right.
type WaveWidget struct {
	widget.BaseWidget
	mu         sync.Mutex
	levels     [barCount]float64
	level      float64
	frame      int
	recording  bool
	processing bool
	noVoice    bool
	stopCh     chan struct{}
}

func NewWaveWidget() *WaveWidget {
	w := &WaveWidget{stopCh: make(chan struct{})}
	w.ExtendBaseWidget(w)
	go w.animate()
	return w
}

func (w *WaveWidget) SetRecording(r bool) {
	w.mu.Lock()
	w.recording = r
	if !r {
		w.level = 0
	} else {
		w.processing = false
		w.levels = [barCount]float64{}
	}
	w.mu.Unlock()
}

func (w *WaveWidget) SetLevel(l float64) {
	w.mu.Lock()
	if w.recording {
		if l > w.level {
			w.level = w.level*0.2 + l*0.8
		} else {
			w.level = w.level*0.7 + l*0.3
		}
	}
	w.mu.Unlock()
}

func (w *WaveWidget) SetNoVoice(v bool) {
	w.mu.Lock()
	w.noVoice = v
	w.mu.Unlock()
}

func (w *WaveWidget) SetProcessing(p bool) {
	w.mu.Lock()
	w.processing = p
	w.mu.Unlock()
}

func (w *WaveWidget) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
}

func (w *WaveWidget) animate() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.mu.Lock()
			w.frame++
			if w.recording {
				copy(w.levels[:], w.levels[1:])
				w.levels[barCount-1] = w.level
			}
			w.mu.Unlock()
			fyne.Do(func() {
				w.Refresh()
			})
		}
	}
}

func (w *WaveWidget) MinSize() fyne.Size {
	return fyne.NewSize(float32(barCount*(barWidth+barGap)+barGap), float32(waveHeight))
}

func (w *WaveWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &waveRenderer{wave: w}
	r.bars = make([]*canvas.Rectangle, barCount)
	for i := range r.bars {
		r.bars[i] = canvas.NewRectangle(colorIdle)
	}
	return r
}

type waveRenderer struct {
	wave *WaveWidget
	bars []*canvas.Rectangle
	size fyne.Size
}

func (r *waveRenderer) Layout(size fyne.Size) {
	r.size = size
	r.place()
}

func (r *waveRenderer) MinSize() fyne.Size {
	return r.wave.MinSize()
}

// place sizes each bar from its level, vertically centered.
func (r *waveRenderer) place() {
	r.wave.mu.Lock()
	levels := r.wave.levels
	frame := r.wave.frame
	recording := r.wave.recording
	processing := r.wave.processing
	r.wave.mu.Unlock()

	h := r.size.Height
	if h == 0 {
		h = waveHeight
	}
	cellW := r.size.Width / float32(barCount)
	if cellW == 0 {
		cellW = barWidth + barGap
	}

	for i, bar := range r.bars {
		barH := float32(minBarPx)
		switch {
		case recording:
			barH = float32(math.Min(levels[i]*4.0, 1.0)) * h
		case processing:
			// Travelling pulse while waiting on transcribe/rewrite
			phase := math.Sin(float64(frame)*0.25 - float64(i)*0.5)
			barH = float32(0.15+0.10*math.Max(phase, 0)) * h
		}
		if barH < minBarPx {
			barH = minBarPx
		}
		bar.Move(fyne.NewPos(float32(i)*cellW+barGap/2, (h-barH)/2))
		bar.Resize(fyne.NewSize(cellW-barGap, barH))
	}
}

func (r *waveRenderer) Refresh() {
	r.wave.mu.Lock()
	levels := r.wave.levels
	recording := r.wave.recording
	processing := r.wave.processing
	noVoice := r.wave.noVoice
	r.wave.mu.Unlock()

	r.place()

	for i, bar := range r.bars {
		c := colorIdle
		switch {
		case noVoice:
			c = colorWarn
		case processing:
			c = colorProcess
		case recording:
			band := int(math.Min(levels[i]*4.0, 0.999) * float64(len(colorsRec)))
			c = colorsRec[band]
		}
		bar.FillColor = c
		bar.Refresh()
	}
}

func (r *waveRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, len(r.bars))
	for i, b := range r.bars {
		objs[i] = b
	}
	return objs
}

func (r *waveRenderer) Destroy() {
	r.wave.Stop()
}

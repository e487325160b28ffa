// Command scope renders a simple SDL2 radar scope: tracked aircraft
// plotted as blips around the configured receiver location, adapted from
// OJPARKINSON/viz1090's renderer and lifecycle structure.
package main

import (
	"log"
	"math"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"go1090track/internal/config"
	"go1090track/internal/frame"
	"go1090track/internal/geo"
	"go1090track/internal/message"
	"go1090track/internal/rtlsdr"
	"go1090track/internal/track"
)

var (
	colorBackground = sdl.Color{R: 8, G: 12, B: 8, A: 255}
	colorRing       = sdl.Color{R: 0, G: 60, B: 0, A: 255}
	colorPlane      = sdl.Color{R: 0, G: 220, B: 0, A: 255}
	colorPlaneStale = sdl.Color{R: 0, G: 100, B: 0, A: 255}
)

const (
	windowSize  = 800
	centerX     = windowSize / 2
	centerY     = windowSize / 2
	rangeRingsN = 4
)

func main() {
	v := config.NewViper()
	_ = v.ReadInConfig()
	cfg := config.New(v)

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		log.Fatalf("scope: sdl init: %v", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("go1090track scope", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		windowSize, windowSize, sdl.WINDOW_SHOWN)
	if err != nil {
		log.Fatalf("scope: create window: %v", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		log.Fatalf("scope: create renderer: %v", err)
	}
	defer renderer.Destroy()

	t := track.New(cfg.Track, nil)
	dec := frame.NewDecoder()

	stop, err := rtlsdr.StartReceive(cfg.RTLADSBPath, func(f rtlsdr.Frame) {
		msg, err := dec.Decode(f[:], time.Now().UnixMilli(), message.SourceADSB)
		if err != nil {
			return
		}
		t.Update(msg)
	})
	if err != nil {
		log.Fatalf("scope: %v", err)
	}
	defer stop()

	maxRange := cfg.Track.MaxRangeMeters
	if maxRange <= 0 {
		maxRange = 250 * 1852 // default 250 NM scope radius
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	sweep := time.NewTicker(time.Second)
	defer sweep.Stop()

running:
	for {
		select {
		case <-sweep.C:
			t.PeriodicUpdate(time.Now().UnixMilli())
		case <-ticker.C:
			for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
				if _, ok := ev.(*sdl.QuitEvent); ok {
					break running
				}
			}
			render(renderer, t, cfg.Track, maxRange)
		}
	}
}

func render(r *sdl.Renderer, t *track.Tracker, cfg track.Config, maxRangeMeters float64) {
	r.SetDrawColor(colorBackground.R, colorBackground.G, colorBackground.B, colorBackground.A)
	r.Clear()

	r.SetDrawColor(colorRing.R, colorRing.G, colorRing.B, colorRing.A)
	for i := 1; i <= rangeRingsN; i++ {
		drawCircle(r, centerX, centerY, int32(i*(windowSize/2)/rangeRingsN))
	}

	for _, a := range t.Snapshot() {
		if a.Lat == 0 && a.Lon == 0 {
			continue
		}
		dist := geo.GreatCircleDistance(cfg.Latitude, cfg.Longitude, a.Lat, a.Lon)
		bearing := geo.Bearing(cfg.Latitude, cfg.Longitude, a.Lat, a.Lon)
		if dist > maxRangeMeters {
			continue
		}
		radius := (dist / maxRangeMeters) * (windowSize / 2)
		theta := (bearing - 90) * math.Pi / 180
		x := int32(centerX + radius*math.Cos(theta))
		y := int32(centerY + radius*math.Sin(theta))

		col := colorPlane
		if time.Now().UnixMilli()-a.SeenMs > 30000 {
			col = colorPlaneStale
		}
		r.SetDrawColor(col.R, col.G, col.B, col.A)
		r.FillRect(&sdl.Rect{X: x - 2, Y: y - 2, W: 4, H: 4})
	}

	r.Present()
}

func drawCircle(r *sdl.Renderer, cx, cy, radius int32) {
	const segments = 64
	for i := 0; i < segments; i++ {
		theta1 := float64(i) / segments * 2 * math.Pi
		theta2 := float64(i+1) / segments * 2 * math.Pi
		x1 := cx + int32(float64(radius)*math.Cos(theta1))
		y1 := cy + int32(float64(radius)*math.Sin(theta1))
		x2 := cx + int32(float64(radius)*math.Cos(theta2))
		y2 := cy + int32(float64(radius)*math.Sin(theta2))
		r.DrawLine(x1, y1, x2, y2)
	}
}

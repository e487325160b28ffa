// Command trackview is an interactive terminal display of the tracker's
// live aircraft table, adapted from the teacher's gocui+aurora TUI.
package main

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jroimartin/gocui"
	. "github.com/logrusorgru/aurora"

	"go1090track/internal/config"
	"go1090track/internal/frame"
	"go1090track/internal/message"
	"go1090track/internal/rtlsdr"
	"go1090track/internal/track"
)

type context struct {
	decoder *frame.Decoder
	tracker *track.Tracker
}

func newContext(cfg track.Config) *context {
	return &context{
		decoder: frame.NewDecoder(),
		tracker: track.New(cfg, nil),
	}
}

func (c *context) update(g *gocui.Gui) error {
	s, err := g.View("status")
	if err != nil {
		return err
	}
	s.Clear()
	fmt.Fprintf(s, " A/C: %02d  LAST UPDATE: %s\n",
		Green(c.tracker.Count()),
		Bold(Green(time.Now().Format("2006-01-02 15:04:05"))))

	l, err := g.View("list")
	if err != nil {
		return err
	}
	l.Clear()

	fmt.Fprintln(l, " ICAO ADDR    FLIGHT     ALT    SPD    HDG     LAT     LON  SEEN")
	fmt.Fprintln(l, " ===================================================================")

	aircraft := c.tracker.Snapshot()
	sort.Slice(aircraft, func(i, j int) bool { return aircraft[i].Address < aircraft[j].Address })

	now := time.Now()
	for _, a := range aircraft {
		seenAgo := now.Add(-time.Duration(now.UnixMilli()-a.SeenMs) * time.Millisecond)
		fmt.Fprintln(l, Sprintf(Yellow(" %06x       %9s  %-5.0f  %-5.0f  %-3.0f  %6.2f  %6.2f  %s"),
			a.Address,
			a.Flight,
			a.AltGeom,
			a.GS,
			a.Track,
			a.Lat,
			a.Lon,
			seenAgo.Format("15:04:05")))
	}

	return nil
}

func layout(g *gocui.Gui) error {
	const maxX = 80
	_, maxY := g.Size()

	v, err := g.SetView("status", 0, 0, maxX-2, 2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Title = " STATUS "
	fmt.Fprintln(v, " A/C: --  LAST UPDATE: 0000-00-00 00:00:00")

	v, err = g.SetView("list", 0, 3, maxX-2, maxY-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Title = " A/C "
	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

func main() {
	v := config.NewViper()
	_ = v.ReadInConfig()
	cfg := config.New(v)

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		log.Panicln(err)
	}
	defer g.Close()

	g.SetManagerFunc(layout)
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		log.Panicln(err)
	}

	ctx := newContext(cfg.Track)

	handler := func(f rtlsdr.Frame) {
		msg, err := ctx.decoder.Decode(f[:], time.Now().UnixMilli(), message.SourceADSB)
		if err != nil {
			return
		}
		ctx.tracker.Update(msg)
		g.Update(ctx.update)
	}

	stop, err := rtlsdr.StartReceive(cfg.RTLADSBPath, handler)
	if err != nil {
		log.Panicln("error: ", err)
	}

	go func() {
		for range time.Tick(time.Second) {
			ctx.tracker.PeriodicUpdate(time.Now().UnixMilli())
			g.Update(ctx.update)
		}
	}()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Panicln(err)
	}

	stop()
}

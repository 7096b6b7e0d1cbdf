// Package main provides a skin verification tool that loads a skin directory,
// prints its motion definition and simulates the frame timeline of each state
// on a virtual clock. No window or graphics driver is needed.
//
// Usage:
//
//	go run cmd/verify_skin/main.go [flags]
//
// Flags:
//
//	--dir <path>         Skin directory holding skin.yaml (default: "data/skins/neko")
//	--state <name>       Only simulate this state (default: all states)
//	--duration <ms>      Simulation limit per state in milliseconds (default: 5000)
//	--density <factor>   Display density used to scale distances (default: 1)
//	--verbose            Enable verbose logging
//
// Purpose:
//   - Check that a skin's manifest, definition and images are consistent
//   - Inspect frame timings of nested repeat-items
//   - Verify nextState / checkWall / checkMove wiring before installing a skin
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/png" // Register PNG decoder
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/decker502/aneko/internal/motionparams"
	"github.com/decker502/aneko/pkg/drawable"
	"github.com/decker502/aneko/pkg/scheduler"
	"github.com/decker502/aneko/pkg/skin"
)

var (
	dirFlag      = flag.String("dir", "data/skins/neko", "Skin directory holding skin.yaml")
	stateFlag    = flag.String("state", "", "Only simulate this state")
	durationFlag = flag.Int("duration", 5000, "Simulation limit per state in milliseconds")
	densityFlag  = flag.Float64("density", 1, "Display density used to scale distances")
	verboseFlag  = flag.Bool("verbose", false, "Enable verbose logging")
)

// namedImage 只读取图片头，不解码像素
type namedImage struct {
	ref    string
	bounds image.Rectangle
}

func (i *namedImage) Bounds() image.Rectangle { return i.bounds }

// headerImages 实现 drawable.ImageSource，用 image.DecodeConfig 读取尺寸
type headerImages struct {
	fsys  fs.FS
	dir   string
	cache map[string]*namedImage
}

func (h *headerImages) Image(ref string) (drawable.Image, error) {
	if img, ok := h.cache[ref]; ok {
		return img, nil
	}
	name := path.Join(h.dir, ref+".png")
	f, err := h.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	img := &namedImage{ref: ref, bounds: image.Rect(0, 0, cfg.Width, cfg.Height)}
	h.cache[ref] = img
	return img, nil
}

func main() {
	flag.Parse()
	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	dir := filepath.Clean(*dirFlag)
	s, err := skin.LoadManifest(os.DirFS(filepath.Dir(dir)), filepath.Base(dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	params, err := s.LoadParams(*densityFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}

	printParams(s, params)

	imageDir := s.Images
	if imageDir == "" {
		imageDir = "."
	}
	images := &headerImages{fsys: s.FS, dir: imageDir, cache: make(map[string]*namedImage)}

	failed := false
	for _, state := range params.States() {
		if *stateFlag != "" && state != *stateFlag {
			continue
		}
		if err := simulate(params, state, images, time.Duration(*durationFlag)*time.Millisecond); err != nil {
			fmt.Printf("FAIL: %s - %v\n", state, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func printParams(s *skin.Skin, p *motionparams.Params) {
	fmt.Printf("Skin: %s", s.Name)
	if s.Author != "" {
		fmt.Printf(" by %s", s.Author)
	}
	fmt.Printf("\nDefinition: %s\n", s.Definition)
	fmt.Printf("acceleration=%.1f maxVelocity=%.1f deaccelerationDistance=%.1f proximityDistance=%.1f\n",
		p.Acceleration(), p.MaxVelocity(), p.DeaccelerationDistance(), p.ProximityDistance())
	fmt.Printf("initialState=%s awakeState=%s\n\n", p.InitialState(), p.AwakeState())

	for _, state := range p.States() {
		var flags []string
		if next, ok := p.NextState(state); ok {
			mark := ""
			if !p.HasState(next) {
				mark = " (undefined!)"
			}
			flags = append(flags, "next="+next+mark)
		}
		if p.NeedCheckWall(state) {
			flags = append(flags, "checkWall")
		}
		if p.NeedCheckMove(state) {
			flags = append(flags, "checkMove")
		}
		fmt.Printf("  %-16s %s\n", state, strings.Join(flags, " "))
	}
	fmt.Println()
}

// simulate 在虚拟时钟上播放一个状态的帧序列，打印每次切帧的时间点
func simulate(p *motionparams.Params, state string, images drawable.ImageSource, limit time.Duration) error {
	m, _ := p.Motion(state)
	sched := scheduler.NewHandler()
	d, err := drawable.Build(m.Items, images, sched)
	if err != nil {
		return err
	}

	ended := false
	d.SetOnMotionEnd(func(*drawable.MotionDrawable) { ended = true })

	fmt.Printf("OK: %s\n", state)
	d.Start()
	last := ""
	report := func() {
		img, _ := d.CurrentImage().(*namedImage)
		if img != nil && img.ref != last {
			fmt.Printf("    %6dms %s\n", sched.Now().Milliseconds(), img.ref)
			last = img.ref
		}
	}
	report()

	for !ended {
		next, ok := sched.NextAt()
		if !ok || next > limit {
			break
		}
		sched.Advance(next - sched.Now())
		report()
	}

	if ended {
		fmt.Printf("    %6dms end\n", sched.Now().Milliseconds())
	} else {
		fmt.Printf("    (still running after %v)\n", limit)
		d.Stop()
	}
	return nil
}

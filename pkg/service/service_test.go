package service

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/decker502/aneko/pkg/behaviour"
	"github.com/decker502/aneko/pkg/drawable"
	"github.com/decker502/aneko/pkg/scheduler"
	"github.com/decker502/aneko/pkg/settings"
	"github.com/decker502/aneko/pkg/skin"
	"github.com/decker502/aneko/pkg/types"
)

const testDefinition = `<motion-params acceleration="1000" maxVelocity="1000"
    deaccelerationDistance="0" proximityDistance="10">
  <motion state="stop">
    <item drawable="@drawable/mati1" />
  </motion>
  <motion state="awake" checkMove="true">
    <item drawable="@drawable/awake" duration="250" />
  </motion>
  <motion state="moveRight">
    <repeat-item>
      <item drawable="@drawable/right1" duration="125" />
      <item drawable="@drawable/right2" duration="125" />
    </repeat-item>
  </motion>
</motion-params>
`

// fakeImages 返回 32x32 的假图片，不需要图形驱动
type fakeImages struct{}

func (fakeImages) Image(ref string) (drawable.Image, error) {
	return image.Rect(0, 0, 32, 32), nil
}

func testSkins() fstest.MapFS {
	return fstest.MapFS{
		"neko/skin.yaml":    {Data: []byte("name: neko\ndefinition: motion.xml\n")},
		"neko/motion.xml":   {Data: []byte(testDefinition)},
		"tora/skin.yaml":    {Data: []byte("name: tora\ndefinition: motion.xml\n")},
		"tora/motion.xml":   {Data: []byte(testDefinition)},
		"broken/skin.yaml":  {Data: []byte("name: broken\ndefinition: motion.xml\n")},
		"broken/motion.xml": {Data: []byte("<motion-params><motion>")},
	}
}

type harness struct {
	sched    *scheduler.Handler
	prefs    *settings.Manager
	registry *skin.Registry
	svc      *Service
	frames   []Frame
	states   []string
	notices  []string
}

func newHarness(t *testing.T, fsys fstest.MapFS, builtinDir string) *harness {
	t.Helper()
	builtin, err := skin.LoadManifest(fsys, builtinDir)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	registry := skin.NewRegistry(builtin, nil)
	if err := registry.ScanFS(fsys, "/skins"); err != nil {
		t.Fatalf("ScanFS() error = %v", err)
	}

	h := &harness{
		sched:    scheduler.NewHandler(),
		prefs:    settings.NewManager(nil),
		registry: registry,
	}
	h.svc = New(Options{
		Sched:    h.sched,
		Registry: registry,
		Settings: h.prefs,
		Display:  types.Size{W: 800, H: 600},
		Render: func(f Frame) {
			h.frames = append(h.frames, f)
			if f.Drawable != nil && f.StateChanged {
				h.states = append(h.states, h.svc.State().CurrentState())
			}
		},
		Notify: func(msg string) { h.notices = append(h.notices, msg) },
		Images: func(*skin.Skin) drawable.ImageSource { return fakeImages{} },
		Rand:   rand.New(rand.NewPCG(7, 11)),
	})
	return h
}

func (h *harness) lastFrame() Frame {
	if len(h.frames) == 0 {
		return Frame{}
	}
	return h.frames[len(h.frames)-1]
}

// TestService_WakeWalkStop 测试完整流程：唤醒 → 向右移动 → 到达后停下
func TestService_WakeWalkStop(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	if err := h.svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	state := h.svc.State()
	if state.CurrentState() != "stop" {
		t.Fatalf("initial state = %q, want stop", state.CurrentState())
	}
	if got := state.Target(); got != types.Pt(400, 300) {
		t.Errorf("initial target = %v, want display center", got)
	}
	state.SetCurrent(types.Pt(300, 300))

	h.sched.Advance(time.Second)

	want := []string{"awake", "moveRight", "stop"}
	if fmt.Sprint(h.states) != fmt.Sprint(want) {
		t.Fatalf("state changes = %v, want %v", h.states, want)
	}
	if state.IsMoving() {
		t.Error("character should have stopped")
	}
	if x := state.Current().X; math.Abs(x-393.75) > 1e-6 {
		t.Errorf("final x = %v, want 393.75", x)
	}
	if h.svc.tick.Pending() {
		t.Error("tick should not re-arm once nothing changes")
	}

	last := h.lastFrame()
	if last.Drawable != state.CurrentDrawable() {
		t.Error("last frame should show the stop drawable")
	}
	if last.Alpha != 0xff {
		t.Errorf("Alpha = %d, want 255", last.Alpha)
	}
	if last.Position != image.Pt(377, 284) {
		t.Errorf("Position = %v, want (377,284)", last.Position)
	}
	if d, _ := state.Drawable("moveRight"); d.IsRunning() {
		t.Error("previous drawable should be stopped")
	}
}

// TestService_IdleAtTarget 测试已在目标附近时 tick 不会重复排期
func TestService_IdleAtTarget(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	if err := h.svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.svc.State().SetCurrent(types.Pt(400, 300))

	h.sched.Advance(time.Second)
	if len(h.frames) != 0 {
		t.Errorf("rendered %d frames, want 0", len(h.frames))
	}
	if h.svc.tick.Pending() {
		t.Error("idle tick should not re-arm")
	}
}

func TestService_StartDisabled(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	h.prefs.SetEnable(false)

	if err := h.svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h.svc.IsStarted() || h.svc.State() != nil {
		t.Error("service should stay stopped while disabled")
	}
}

func TestService_SkinSelection(t *testing.T) {
	tests := []struct {
		name       string
		pref       string
		wantSkin   string
		wantNotice bool
	}{
		{"default", "", "neko", false},
		{"preferred", "tora", "tora", false},
		{"not installed", "ghost", "neko", true},
		{"broken definition", "broken", "neko", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testSkins(), "neko")
			h.prefs.SetSkin(tt.pref)
			if err := h.svc.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if got := h.svc.Skin().Name; got != tt.wantSkin {
				t.Errorf("Skin() = %q, want %q", got, tt.wantSkin)
			}
			if got := len(h.notices) > 0; got != tt.wantNotice {
				t.Errorf("notified = %v (%v), want %v", got, h.notices, tt.wantNotice)
			}
		})
	}
}

func TestService_NoUsableSkin(t *testing.T) {
	h := newHarness(t, testSkins(), "broken")
	err := h.svc.Start()
	if !errors.Is(err, ErrNoSkin) {
		t.Fatalf("Start() error = %v, want ErrNoSkin", err)
	}
	if h.svc.IsStarted() {
		t.Error("service should not be started")
	}
}

// TestService_PreferenceReload 测试非开关类设置变化会重新加载皮肤
func TestService_PreferenceReload(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	if err := h.svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.svc.State().SetCurrent(types.Pt(300, 300))
	h.sched.Advance(0)

	old := h.svc.State()
	oldAwake, _ := old.Drawable("awake")
	if !oldAwake.IsRunning() {
		t.Fatal("awake drawable should be running")
	}

	h.prefs.SetTransparency(0.5)
	h.prefs.SetBehaviour(behaviour.Further)

	state := h.svc.State()
	if state == old {
		t.Fatal("state should be replaced")
	}
	if oldAwake.IsRunning() {
		t.Error("old runtime should be released")
	}
	if state.Alpha() != 127 {
		t.Errorf("Alpha() = %d, want 127", state.Alpha())
	}
	if state.Behaviour() != behaviour.Further {
		t.Errorf("Behaviour() = %v, want further", state.Behaviour())
	}
	if !h.svc.tick.Pending() {
		t.Error("reload should request a tick")
	}
}

func TestService_VisibilityStops(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	if err := h.svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	h.prefs.SetVisible(false)
	if h.svc.IsStarted() {
		t.Fatal("hiding should stop the service")
	}
	if h.lastFrame().Drawable != nil {
		t.Error("stop should render an empty frame")
	}
	if h.sched.Pending() != 0 {
		t.Errorf("Pending() = %d after stop, want 0", h.sched.Pending())
	}
}

func TestService_Toggle(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	if err := h.svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := h.svc.Toggle(); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if h.svc.IsStarted() || h.prefs.Preferences().Visible {
		t.Fatal("first toggle should hide")
	}

	if err := h.svc.Toggle(); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !h.svc.IsStarted() || !h.prefs.Preferences().Visible {
		t.Error("second toggle should show again")
	}
}

func TestService_TouchAndCancel(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	h.svc.Touch(types.Pt(1, 1)) // 未启动时忽略

	if err := h.svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	tick := h.svc.tick

	h.svc.Touch(types.Pt(120, 80))
	if got := h.svc.State().Target(); got != types.Pt(120, 80) {
		t.Errorf("Target() = %v, want (120,80)", got)
	}
	if h.svc.tick != tick {
		t.Error("pending tick should be reused")
	}

	h.svc.State().SetCurrent(types.Pt(50, 60))
	h.svc.Cancel()
	if got := h.svc.State().Target(); got != types.Pt(50, 60) {
		t.Errorf("Target() after Cancel = %v, want current position", got)
	}
	if v := h.svc.State().Velocity(); v != (types.Point{}) {
		t.Errorf("Velocity() after Cancel = %v, want zero", v)
	}
}

func TestService_OnConfigurationChanged(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	h.svc.OnConfigurationChanged(types.Size{W: 640, H: 480})
	if err := h.svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := h.svc.State().Target(); got != types.Pt(320, 240) {
		t.Errorf("Target() = %v, want (320,240)", got)
	}

	h.svc.State().SetCurrent(types.Pt(320, 240))
	h.sched.Advance(time.Second)
	if h.svc.tick.Pending() {
		t.Fatal("tick should be idle at the target")
	}

	h.svc.OnConfigurationChanged(types.Size{W: 1024, H: 768})
	if got := h.svc.State().Display(); got != (types.Size{W: 1024, H: 768}) {
		t.Errorf("Display() = %v", got)
	}
	if !h.svc.tick.Pending() {
		t.Error("display change should request a tick")
	}
}

// TestService_SpawnPoint 测试出生点总在屏幕外 100 像素的边框上
func TestService_SpawnPoint(t *testing.T) {
	h := newHarness(t, testSkins(), "neko")
	dw, dh := 800.0, 600.0
	for i := 0; i < 200; i++ {
		p := h.svc.spawnPoint()
		onEdge := p.X == -100 || p.X == dw+100 || p.Y == -100 || p.Y == dh+100
		if !onEdge {
			t.Fatalf("spawn %v is not on the off-screen border", p)
		}
		if p.X < -100 || p.X > dw+100 || p.Y < -100 || p.Y > dh+100 {
			t.Fatalf("spawn %v is outside the border", p)
		}
	}
}

func TestService_OnSkinFileChanged(t *testing.T) {
	root := t.TempDir()
	writeSkin := func(name, definition string) string {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		manifest := fmt.Sprintf("name: %s\ndefinition: motion.xml\n", name)
		if err := os.WriteFile(filepath.Join(dir, skin.ManifestFile), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, "motion.xml")
		if err := os.WriteFile(path, []byte(definition), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	toraPath := writeSkin("tora", testDefinition)
	mikePath := writeSkin("mike", testDefinition)

	builtin, err := skin.LoadManifest(testSkins(), "neko")
	if err != nil {
		t.Fatal(err)
	}
	registry := skin.NewRegistry(builtin, []string{root})
	registry.Rescan()

	prefs := settings.NewManager(nil)
	prefs.SetSkin("tora")
	svc := New(Options{
		Sched:    scheduler.NewHandler(),
		Registry: registry,
		Settings: prefs,
		Display:  types.Size{W: 800, H: 600},
		Images:   func(*skin.Skin) drawable.ImageSource { return fakeImages{} },
		Rand:     rand.New(rand.NewPCG(1, 2)),
	})
	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if svc.Skin().Name != "tora" {
		t.Fatalf("Skin() = %q, want tora", svc.Skin().Name)
	}

	state := svc.State()
	svc.OnSkinFileChanged(mikePath)
	if svc.State() != state {
		t.Error("change to another skin should not reload")
	}

	svc.OnSkinFileChanged(toraPath)
	if svc.State() == state {
		t.Error("change to the selected skin should reload")
	}
	if svc.Skin().Name != "tora" {
		t.Errorf("Skin() = %q after reload, want tora", svc.Skin().Name)
	}
}

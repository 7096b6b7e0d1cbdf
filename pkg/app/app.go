// Package app 提供桌面宠物应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image"
	_ "image/png" // Register PNG decoder
	"io"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/aneko/pkg/behaviour"
	"github.com/decker502/aneko/pkg/config"
	"github.com/decker502/aneko/pkg/embedded"
	"github.com/decker502/aneko/pkg/scheduler"
	"github.com/decker502/aneko/pkg/service"
	"github.com/decker502/aneko/pkg/settings"
	"github.com/decker502/aneko/pkg/skin"
	"github.com/decker502/aneko/pkg/types"
)

// 嵌入资源路径
const (
	embeddedConfigPath = "data/config.yaml"
	builtinSkinDir     = "data/skins/neko"
	iconPath           = "assets/icon.png"
)

// gdataAppName 偏好设置的存储命名空间
const gdataAppName = "aneko"

// noticeDuration 提示文字的显示时长
const noticeDuration = 5 * time.Second

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ConfigPath 外部配置文件路径，为空则使用嵌入的 data/config.yaml
	ConfigPath string
	// Skin 覆盖偏好设置中的皮肤（会被保存）
	Skin string
	// Behaviour 覆盖偏好设置中的移动策略（会被保存）
	Behaviour string
}

// App 是应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	cfg      *config.AppConfig
	sched    *scheduler.Handler
	prefs    *settings.Manager
	registry *skin.Registry
	svc      *service.Service
	watcher  *skin.Watcher

	frame   service.Frame
	display types.Size

	// Layout 记录的窗口尺寸，在 Update 中与 display 比较
	layoutMu   sync.Mutex
	layoutSize types.Size

	cursor     image.Point
	cursorSeen bool

	notice      string
	noticeUntil time.Duration

	// toggleCh 接收来自其他线程（移动端宿主）的显示切换请求
	toggleCh chan struct{}
}

// NewApp 创建并初始化应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	appCfg, err := loadAppConfig(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	log.Printf("[App] Config loaded (interval=%v, default skin=%s)", appCfg.Interval(), appCfg.Skins.Default)

	// 偏好设置存储失败时进入降级模式
	store, err := gdata.Open(gdata.Config{AppName: gdataAppName})
	if err != nil {
		log.Printf("[App] Warning: preferences store unavailable: %v (settings will not persist)", err)
		store = nil
	}
	prefs := settings.NewManager(store)
	if err := applyOverrides(prefs, cfg); err != nil {
		return nil, err
	}

	builtin, err := skin.LoadManifest(embedded.FS(), builtinSkinDir)
	if err != nil {
		return nil, fmt.Errorf("内置皮肤加载失败: %w", err)
	}
	registry := skin.NewRegistry(builtin, appCfg.Skins.Dirs)
	registry.Rescan()
	log.Printf("[App] Skins available: %v", registry.Names())

	display, density := DisplayMetrics(appCfg)
	log.Printf("[App] Display %dx%d, density %.2f", display.W, display.H, density)

	a := &App{
		cfg:      appCfg,
		sched:    scheduler.NewHandler(),
		prefs:    prefs,
		registry: registry,
		display:  display,
		toggleCh: make(chan struct{}, 1),
	}

	if appCfg.Skins.Watch {
		w, err := skin.NewWatcher(registry.Dirs()...)
		if err != nil {
			log.Printf("[App] Warning: skin watcher disabled: %v", err)
		} else {
			a.watcher = w
		}
	}

	var rng *rand.Rand
	if seed := appCfg.Random.Seed; seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	a.svc = service.New(service.Options{
		Sched:       a.sched,
		Registry:    registry,
		Settings:    prefs,
		DefaultSkin: appCfg.Skins.Default,
		Interval:    appCfg.Interval(),
		Density:     density,
		Display:     display,
		Render:      a.onRender,
		Notify:      a.onNotify,
		Rand:        rng,
	})
	if err := a.svc.Start(); err != nil {
		a.Close()
		return nil, fmt.Errorf("动画服务启动失败: %w", err)
	}

	return a, nil
}

func loadAppConfig(path string) (*config.AppConfig, error) {
	if path != "" {
		return config.LoadAppConfig(path)
	}
	return config.LoadAppConfigFS(embedded.FS(), embeddedConfigPath)
}

// applyOverrides 将命令行参数写入偏好设置
func applyOverrides(prefs *settings.Manager, cfg Config) error {
	if cfg.Skin != "" {
		prefs.SetSkin(cfg.Skin)
	}
	if cfg.Behaviour != "" {
		b, ok := behaviour.FromName(cfg.Behaviour)
		if !ok {
			return fmt.Errorf("unknown behaviour %q (want one of %v)", cfg.Behaviour, behaviour.Names())
		}
		prefs.SetBehaviour(b)
	}
	return nil
}

// ConfigureWindow 按配置设置覆盖窗口属性，需在 RunGame 之前调用
func (a *App) ConfigureWindow() {
	w := a.cfg.Window
	ebiten.SetWindowTitle(w.Title)
	ebiten.SetWindowDecorated(w.Decorated)
	ebiten.SetWindowFloating(w.Floating)
	ebiten.SetWindowMousePassthrough(w.MousePassthrough)
	ebiten.SetWindowSize(a.display.W, a.display.H)
	ebiten.SetWindowPosition(0, 0)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	if icon, err := loadIcon(); err != nil {
		log.Printf("[App] Warning: %v", err)
	} else {
		ebiten.SetWindowIcon([]image.Image{icon})
	}
}

// RunOptions 返回 RunGameWithOptions 使用的参数
func (a *App) RunOptions() *ebiten.RunGameOptions {
	return &ebiten.RunGameOptions{
		ScreenTransparent: a.cfg.Window.Transparent,
		SkipTaskbar:       a.cfg.Window.Floating,
	}
}

func loadIcon() (image.Image, error) {
	file, err := embedded.Open(iconPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open icon: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode icon: %w", err)
	}
	return img, nil
}

// Update 更新逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	a.drainWatcher()
	a.drainToggle()
	a.checkDisplay()
	a.handleInput()

	deltaTime := 1.0 / 60.0
	a.sched.Advance(secondsToDuration(deltaTime))
	return nil
}

// drainWatcher 处理文件监听器送来的事件（不阻塞）
func (a *App) drainWatcher() {
	if a.watcher == nil {
		return
	}
	for {
		select {
		case path := <-a.watcher.Events:
			a.svc.OnSkinFileChanged(path)
		case err := <-a.watcher.Errors:
			log.Printf("[App] Warning: skin watcher: %v", err)
		default:
			return
		}
	}
}

// RequestToggle 请求切换显示状态，可在任意线程调用
func (a *App) RequestToggle() {
	select {
	case a.toggleCh <- struct{}{}:
	default:
	}
}

func (a *App) drainToggle() {
	select {
	case <-a.toggleCh:
		a.toggle()
	default:
	}
}

func (a *App) toggle() {
	if err := a.svc.Toggle(); err != nil {
		log.Printf("[App] Warning: %v", err)
	}
}

func (a *App) checkDisplay() {
	a.layoutMu.Lock()
	size := a.layoutSize
	a.layoutMu.Unlock()

	if size.W <= 0 || size.H <= 0 || size == a.display {
		return
	}
	log.Printf("[App] Display changed to %dx%d", size.W, size.H)
	a.display = size
	a.svc.OnConfigurationChanged(size)
}

// handleInput 鼠标 / 触摸位置作为窗口外触摸事件；空格让角色就地停下，T 切换显示
func (a *App) handleInput() {
	if ids := ebiten.AppendTouchIDs(nil); len(ids) > 0 {
		x, y := ebiten.TouchPosition(ids[0])
		a.touch(image.Pt(x, y))
	} else {
		a.touch(image.Pt(ebiten.CursorPosition()))
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.svc.Cancel()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		a.toggle()
	}
}

// touch 只在位置变化时转发，避免静止的光标不断重置目标
func (a *App) touch(p image.Point) {
	if a.cursorSeen && p == a.cursor {
		return
	}
	a.cursor = p
	a.cursorSeen = true
	a.svc.Touch(types.Pt(float64(p.X), float64(p.Y)))
}

// Draw 绘制当前帧
func (a *App) Draw(screen *ebiten.Image) {
	if a.notice != "" && a.sched.Now() < a.noticeUntil {
		ebitenutil.DebugPrintAt(screen, a.notice, 8, 8)
	}

	d := a.frame.Drawable
	if d == nil {
		return
	}
	img, ok := d.CurrentImage().(*ebiten.Image)
	if !ok || img == nil {
		return
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(a.frame.Position.X), float64(a.frame.Position.Y))
	op.ColorScale.ScaleAlpha(float32(a.frame.Alpha) / 0xff)
	screen.DrawImage(img, op)
}

// Layout 使用窗口尺寸作为逻辑屏幕尺寸，尺寸变化在下一次 Update 中通知服务
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.layoutMu.Lock()
	a.layoutSize = types.Size{W: outsideWidth, H: outsideHeight}
	a.layoutMu.Unlock()
	return outsideWidth, outsideHeight
}

func (a *App) onRender(f service.Frame) {
	a.frame = f
}

// onNotify 在屏幕左上角显示提示文字
func (a *App) onNotify(msg string) {
	log.Printf("[App] Notice: %s", msg)
	a.notice = msg
	a.noticeUntil = a.sched.Now() + noticeDuration
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Close 停止服务并关闭文件监听
func (a *App) Close() error {
	if a.svc != nil {
		a.svc.Stop()
	}
	if a.watcher != nil {
		return a.watcher.Close()
	}
	return nil
}

// Service 返回动画服务
func (a *App) Service() *service.Service {
	return a.svc
}

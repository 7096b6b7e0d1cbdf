// Package service 驱动角色动画：加载皮肤、按固定间隔 tick 状态机、在帧序列
// 播放完毕时续接下一个状态，并把结果交给渲染回调
//
// 所有方法都必须在同一个逻辑线程（宿主的 Update 循环）中调用。
package service

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math/rand/v2"
	"time"

	"github.com/decker502/aneko/pkg/drawable"
	"github.com/decker502/aneko/pkg/motion"
	"github.com/decker502/aneko/pkg/scheduler"
	"github.com/decker502/aneko/pkg/settings"
	"github.com/decker502/aneko/pkg/skin"
	"github.com/decker502/aneko/pkg/types"
)

// DefaultInterval 默认 tick 间隔
const DefaultInterval = 125 * time.Millisecond

// ErrNoSkin 内置皮肤也无法加载时返回
var ErrNoSkin = errors.New("no usable skin")

// Frame 一次渲染所需的信息
// Drawable 为 nil 表示角色已隐藏
type Frame struct {
	Drawable     *drawable.MotionDrawable
	Position     image.Point // 左上角坐标
	Alpha        int
	StateChanged bool
}

// RenderFunc 在状态或位置变化后调用
type RenderFunc func(f Frame)

// Notifier 向用户显示一条提示（例如皮肤加载失败）
type Notifier func(msg string)

// ImagesFunc 为皮肤创建图片解析服务
type ImagesFunc func(s *skin.Skin) drawable.ImageSource

// Options 创建服务所需的依赖
type Options struct {
	Sched    *scheduler.Handler
	Registry *skin.Registry
	Settings *settings.Manager

	// DefaultSkin 偏好设置未指定皮肤时使用的皮肤名
	DefaultSkin string

	Interval time.Duration
	Density  float64
	Display  types.Size

	Render RenderFunc
	Notify Notifier

	// Images 为 nil 时使用 skin.NewImageLoader
	Images ImagesFunc

	// Rand 为 nil 时使用随机种子
	Rand *rand.Rand
}

// Service 动画服务
type Service struct {
	sched    *scheduler.Handler
	registry *skin.Registry
	settings *settings.Manager

	defaultSkin string
	interval    time.Duration
	density     float64
	display     types.Size

	render RenderFunc
	notify Notifier
	images ImagesFunc
	rng    *rand.Rand

	started bool
	state   *motion.State
	skin    *skin.Skin
	shown   *drawable.MotionDrawable
	tick    *scheduler.Timer
}

// New 创建动画服务并注册偏好设置监听器；服务创建后处于停止状态
func New(opts Options) *Service {
	s := &Service{
		sched:       opts.Sched,
		registry:    opts.Registry,
		settings:    opts.Settings,
		defaultSkin: opts.DefaultSkin,
		interval:    opts.Interval,
		density:     opts.Density,
		display:     opts.Display,
		render:      opts.Render,
		notify:      opts.Notify,
		images:      opts.Images,
		rng:         opts.Rand,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.density <= 0 {
		s.density = 1
	}
	if s.images == nil {
		s.images = func(sk *skin.Skin) drawable.ImageSource { return sk.NewImageLoader() }
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.settings == nil {
		s.settings = settings.NewManager(nil)
	}
	if s.render == nil {
		s.render = func(Frame) {}
	}
	if s.notify == nil {
		s.notify = func(msg string) { log.Printf("[AnimationService] %s", msg) }
	}

	s.settings.AddListener(s.onPreferenceChanged)
	return s
}

// IsStarted 返回服务是否已启动
func (s *Service) IsStarted() bool { return s.started }

// State 返回当前的状态机，未启动时为 nil
func (s *Service) State() *motion.State { return s.state }

// Skin 返回当前加载的皮肤，未启动时为 nil
func (s *Service) Skin() *skin.Skin { return s.skin }

// Display 返回显示区域尺寸
func (s *Service) Display() types.Size { return s.display }

// Start 启动动画
//
// 偏好设置为禁用或隐藏时不启动，返回 nil；内置皮肤也无法加载时返回错误
func (s *Service) Start() error {
	if s.started {
		return nil
	}
	if !s.prefEnabled() {
		log.Printf("[AnimationService] Disabled by preferences, not starting")
		return nil
	}

	s.started = true
	if err := s.loadMotionState(); err != nil {
		s.started = false
		return err
	}

	log.Printf("[AnimationService] Started with skin '%s'", s.skin.Name)
	s.requestAnimate()
	return nil
}

// Stop 停止动画并释放状态机
func (s *Service) Stop() {
	if !s.started {
		return
	}
	s.started = false

	s.tick.Stop()
	s.tick = nil
	if s.state != nil {
		s.state.Release()
	}
	s.state = nil
	s.skin = nil
	s.shown = nil

	s.render(Frame{})
	log.Printf("[AnimationService] Stopped")
}

// Toggle 切换可见性；变为可见时启动服务
func (s *Service) Toggle() error {
	visible := s.settings.Preferences().Visible
	s.settings.SetVisible(!visible)
	if !visible {
		return s.Start()
	}
	return nil
}

// Touch 处理窗口外的触摸（鼠标）位置，按移动策略设置新目标
func (s *Service) Touch(p types.Point) {
	if s.state == nil {
		return
	}
	s.state.SetTargetPosition(p)
	s.requestAnimate()
}

// Cancel 处理触摸取消：角色就地停下
func (s *Service) Cancel() {
	if s.state == nil {
		return
	}
	s.state.ForceStop()
	s.requestAnimate()
}

// OnConfigurationChanged 显示区域尺寸变化时调用，运行中会请求一次 tick
func (s *Service) OnConfigurationChanged(display types.Size) {
	s.display = display
	if !s.started || s.state == nil {
		return
	}
	s.state.SetDisplay(display)
	s.requestAnimate()
}

// OnSkinFileChanged 皮肤目录中的文件发生变化时调用
// 重新扫描皮肤目录；变化的是当前选中的皮肤时重新加载
func (s *Service) OnSkinFileChanged(path string) {
	if s.registry == nil {
		return
	}
	s.registry.Rescan()
	if !s.started {
		return
	}

	name, ok := s.registry.SkinForPath(path)
	if !ok || name != s.preferredSkin() {
		return
	}
	log.Printf("[AnimationService] Skin '%s' changed on disk, reloading", name)
	if err := s.loadMotionState(); err != nil {
		log.Printf("[AnimationService] Warning: %v", err)
		return
	}
	s.requestAnimate()
}

func (s *Service) prefEnabled() bool {
	prefs := s.settings.Preferences()
	return prefs.Enable && prefs.Visible
}

func (s *Service) preferredSkin() string {
	if name := s.settings.Preferences().Skin; name != "" {
		return name
	}
	return s.defaultSkin
}

func (s *Service) onPreferenceChanged(key string) {
	if !s.started {
		return
	}

	switch key {
	case settings.KeyEnable, settings.KeyVisible:
		if !s.prefEnabled() {
			s.Stop()
		}
	default:
		if err := s.loadMotionState(); err != nil {
			log.Printf("[AnimationService] Warning: %v", err)
			return
		}
		s.requestAnimate()
	}
}

// loadMotionState 优先加载偏好的皮肤，失败时提示用户并回退到内置皮肤
func (s *Service) loadMotionState() error {
	if s.registry == nil {
		return ErrNoSkin
	}

	if name := s.preferredSkin(); name != "" && name != s.registry.Builtin().Name {
		sk, ok := s.registry.Lookup(name)
		if !ok {
			s.notify(fmt.Sprintf("Skin '%s' is not installed, using the built-in skin", name))
		} else if err := s.loadSkin(sk); err != nil {
			log.Printf("[AnimationService] Failed to load skin '%s': %v", name, err)
			s.notify(fmt.Sprintf("Failed to load skin '%s', using the built-in skin", name))
		} else {
			return nil
		}
	}

	if err := s.loadSkin(s.registry.Builtin()); err != nil {
		return fmt.Errorf("%w: %w", ErrNoSkin, err)
	}
	return nil
}

// loadSkin 构建新的状态机，成功后替换旧的状态机
func (s *Service) loadSkin(sk *skin.Skin) error {
	params, err := sk.LoadParams(s.density)
	if err != nil {
		return err
	}

	var state *motion.State
	state, err = motion.New(motion.Options{
		Params: params,
		Images: s.images(sk),
		Sched:  s.sched,
		OnMotionEnd: func(d *drawable.MotionDrawable) {
			if s.started && s.state == state && d == state.CurrentDrawable() {
				s.updateToNext()
			}
		},
		Rand: s.rng,
	})
	if err != nil {
		return fmt.Errorf("skin '%s': %w", sk.Name, err)
	}

	prefs := s.settings.Preferences()
	state.SetAlpha(prefs.Alpha())
	state.SetBehaviour(prefs.BehaviourValue())
	state.SetDisplay(s.display)
	state.SetCurrent(s.spawnPoint())
	state.SetTargetDirect(s.display.Center())

	if s.state != nil {
		s.state.Release()
	}
	s.state = state
	s.skin = sk
	s.shown = nil
	return nil
}

// spawnPoint 在屏幕外 100 像素处随机选择出生点
// pos 的 0~199 落在上下边，200~399 落在左右边
func (s *Service) spawnPoint() types.Point {
	dw, dh := s.display.W, s.display.H
	pos := s.rng.IntN(400)
	ratio := pos % 100

	var cx, cy int
	if pos/200 == 0 {
		cx = (dw+200)*ratio/100 - 100
		if (pos/100)%2 == 0 {
			cy = -100
		} else {
			cy = dh + 100
		}
	} else {
		if (pos/100)%2 == 0 {
			cx = -100
		} else {
			cx = dw + 100
		}
		cy = (dh+200)*ratio/100 - 100
	}
	return types.Pt(float64(cx), float64(cy))
}

// requestAnimate 安排一次 tick；已有待执行的 tick 时不做任何事
func (s *Service) requestAnimate() {
	if s.tick.Pending() {
		return
	}
	s.tick = s.sched.Post(s.animate)
}

func (s *Service) animate() {
	s.tick = nil
	if s.state == nil {
		return
	}

	s.state.Update(s.interval.Seconds())
	if !s.state.StateChanged() && !s.state.PositionMoved() {
		return
	}

	changed := s.state.StateChanged()
	if changed {
		s.updateDrawable()
	}
	s.updatePosition(changed)

	s.tick = s.sched.PostDelayed(s.interval, s.animate)
}

// updateDrawable 隐藏旧播放器，并从头播放当前状态的播放器
func (s *Service) updateDrawable() {
	if s.state == nil {
		return
	}
	d := s.state.CurrentDrawable()
	if d == nil {
		return
	}

	if s.shown != nil && s.shown != d {
		s.shown.Stop()
	}
	s.shown = d

	d.SetAlpha(s.state.Alpha())
	d.Stop()
	d.Start()
}

func (s *Service) updatePosition(stateChanged bool) {
	if s.state == nil {
		return
	}
	d := s.state.CurrentDrawable()
	pos := s.state.Position()
	w, h := d.IntrinsicSize()
	d.SetBounds(image.Rect(pos.X, pos.Y, pos.X+w, pos.Y+h))

	s.render(Frame{
		Drawable:     d,
		Position:     pos,
		Alpha:        s.state.Alpha(),
		StateChanged: stateChanged,
	})
}

// updateToNext 当前帧序列播放完毕后续接下一个状态
func (s *Service) updateToNext() {
	if s.state.CheckWall() || s.state.UpdateMovingState() || s.state.ChangeToNextState() {
		s.updateDrawable()
		s.updatePosition(true)
		s.requestAnimate()
	}
}

// Package motion 实现角色的动作状态机
//
// 状态机持有一份已解析的动作定义、每个状态对应的帧序列播放器，以及角色的
// 位置 / 目标 / 速度。每次 tick（Update）执行接近检测、唤醒检测与物理积分；
// 当前状态的帧序列播放完毕时，由宿主调用续接流程
// （CheckWall → UpdateMovingState → ChangeToNextState）。
package motion

import (
	"fmt"
	"image"
	"log"
	"math"
	"math/rand/v2"

	"github.com/decker502/aneko/internal/motionparams"
	"github.com/decker502/aneko/pkg/behaviour"
	"github.com/decker502/aneko/pkg/drawable"
	"github.com/decker502/aneko/pkg/scheduler"
	"github.com/decker502/aneko/pkg/types"
)

// State 动作状态机（一个角色的运行时）
type State struct {
	params    *motionparams.Params
	drawables map[string]*drawable.MotionDrawable
	onEnd     drawable.OnMotionEnd

	cur    types.Point
	target types.Point
	vel    types.Point // 像素/秒

	display   types.Size
	alpha     int
	behaviour behaviour.Behaviour
	rng       *rand.Rand

	curState      string
	moving        bool
	stateChanged  bool
	positionMoved bool
}

// Options 创建状态机所需的依赖
type Options struct {
	Params *motionparams.Params
	Images drawable.ImageSource
	Sched  *scheduler.Handler

	// OnMotionEnd 当前状态的帧序列播放完毕时调用
	OnMotionEnd drawable.OnMotionEnd

	// Rand 移动策略使用的随机数源，为 nil 时使用随机种子
	Rand *rand.Rand
}

// New 创建状态机并进入初始状态
//
// 每个状态的帧序列在此处一次性构建为播放器；任一图片无法解析时返回错误
func New(opts Options) (*State, error) {
	params := opts.Params
	if params == nil {
		return nil, fmt.Errorf("motion params are required")
	}
	if !params.HasState(params.InitialState()) {
		return nil, fmt.Errorf("%w: %q", motionparams.ErrUnknownInitialState, params.InitialState())
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := &State{
		params:    params,
		drawables: make(map[string]*drawable.MotionDrawable),
		onEnd:     opts.OnMotionEnd,
		display:   types.Size{W: 1, H: 1},
		alpha:     0xff,
		rng:       rng,
	}

	for _, name := range params.States() {
		m, _ := params.Motion(name)
		d, err := drawable.Build(m.Items, opts.Images, opts.Sched)
		if err != nil {
			return nil, fmt.Errorf("failed to build state '%s': %w", name, err)
		}
		s.drawables[name] = d
	}

	s.changeState(params.InitialState())
	s.moving = false
	return s, nil
}

// Params 返回动作定义
func (s *State) Params() *motionparams.Params { return s.params }

// CurrentState 返回当前状态名
func (s *State) CurrentState() string { return s.curState }

// CurrentDrawable 返回当前状态的播放器
func (s *State) CurrentDrawable() *drawable.MotionDrawable {
	return s.drawables[s.curState]
}

// Drawable 返回指定状态的播放器
func (s *State) Drawable(state string) (*drawable.MotionDrawable, bool) {
	d, ok := s.drawables[state]
	return d, ok
}

// IsMoving 返回是否处于移动模式
func (s *State) IsMoving() bool { return s.moving }

// StateChanged 返回最近一次求值中状态是否发生变化
func (s *State) StateChanged() bool { return s.stateChanged }

// PositionMoved 返回最近一次 tick 中位置是否发生变化
func (s *State) PositionMoved() bool { return s.positionMoved }

// Current 返回角色中心的当前位置
func (s *State) Current() types.Point { return s.cur }

// SetCurrent 设置角色中心的当前位置
func (s *State) SetCurrent(p types.Point) { s.cur = p }

// Target 返回目标位置
func (s *State) Target() types.Point { return s.target }

// Velocity 返回当前速度（像素/秒）
func (s *State) Velocity() types.Point { return s.vel }

// Display 返回显示区域尺寸
func (s *State) Display() types.Size { return s.display }

// SetDisplay 原地更新显示区域尺寸，下一次 tick 生效
func (s *State) SetDisplay(d types.Size) { s.display = d }

// Alpha 返回透明度 0~255
func (s *State) Alpha() int { return s.alpha }

// SetAlpha 设置透明度 0~255
func (s *State) SetAlpha(alpha int) { s.alpha = alpha }

// Behaviour 返回当前移动策略
func (s *State) Behaviour() behaviour.Behaviour { return s.behaviour }

// SetBehaviour 设置移动策略
func (s *State) SetBehaviour(b behaviour.Behaviour) { s.behaviour = b }

// Update 执行一次 tick
//
// 参数：
//   - dt: tick 间隔（秒）
//
// 处理顺序：
//  1. 接近检测：距离目标不超过 proximityDistance 时，若正在移动则停下并回到初始状态
//  2. 唤醒检测：未在移动时切换到 awake 状态；awake 状态不存在时直接进入物理积分
//  3. 物理积分：朝目标加速、限速、更新位置，并按速度方向选择移动状态
func (s *State) Update(dt float64) {
	s.stateChanged = false
	s.positionMoved = false

	d := s.target.Sub(s.cur)
	dist := d.Len()
	if dist <= s.params.ProximityDistance() {
		if s.moving {
			s.vel = types.Point{}
			s.changeState(s.params.InitialState())
		}
		return
	}

	if !s.moving {
		if awake := s.params.AwakeState(); s.params.HasState(awake) {
			s.changeState(awake)
			return
		}
	}

	accel := s.params.Acceleration()
	s.vel = s.vel.Add(d.Mul(accel * dt / dist))

	speed := s.vel.Len()
	vmax := s.params.MaxVelocity() * math.Min((dist+1)/(s.params.DeaccelerationDistance()+1), 1)
	if speed > vmax {
		s.vel = s.vel.Mul(vmax / speed)
	}

	s.cur = s.cur.Add(s.vel.Mul(dt))
	s.positionMoved = true

	s.changeToMovingState()
}

// CheckWall 检测角色是否撞到屏幕边缘（仅当前状态声明了 checkWall 时）
//
// 按左、右、上、下的顺序检测，命中第一个即停止；对应的 wall 状态存在时，
// 将当前位置与目标位置都修正到边缘内侧并切换状态
//
// 返回：
//   - bool: 是否切换到了 wall 状态
func (s *State) CheckWall() bool {
	if !s.params.NeedCheckWall(s.curState) {
		return false
	}

	w, h := s.CurrentDrawable().IntrinsicSize()
	dw2 := float64(w) / 2
	dh2 := float64(h) / 2
	dispW := float64(s.display.W)
	dispH := float64(s.display.H)

	nx, ny := s.cur.X, s.cur.Y
	var dir motionparams.WallDirection
	switch {
	case s.cur.X >= 0 && s.cur.X < dw2:
		nx = dw2
		dir = motionparams.WallLeft
	case s.cur.X <= dispW && s.cur.X > dispW-dw2:
		nx = dispW - dw2
		dir = motionparams.WallRight
	case s.cur.Y >= 0 && s.cur.Y < dh2:
		ny = dh2
		dir = motionparams.WallUp
	case s.cur.Y <= dispH && s.cur.Y > dispH-dh2:
		ny = dispH - dh2
		dir = motionparams.WallDown
	default:
		return false
	}

	next := s.params.WallState(dir)
	if !s.params.HasState(next) {
		return false
	}

	s.cur = types.Pt(nx, ny)
	s.target = s.cur
	s.changeState(next)
	return true
}

// UpdateMovingState 若当前状态声明了 checkMove 且尚未到达目标，重新选择移动状态
func (s *State) UpdateMovingState() bool {
	if !s.params.NeedCheckMove(s.curState) {
		return false
	}
	if s.target.Dist(s.cur) <= s.params.ProximityDistance() {
		return false
	}

	s.changeToMovingState()
	return true
}

// ChangeToNextState 切换到当前状态声明的 nextState；nextState 未定义时跳过
func (s *State) ChangeToNextState() bool {
	next, ok := s.params.NextState(s.curState)
	if !ok || !s.params.HasState(next) {
		return false
	}

	s.changeState(next)
	return true
}

// SetTargetPosition 通过当前移动策略设置目标位置
func (s *State) SetTargetPosition(p types.Point) {
	s.target = s.behaviour.TargetPosition(p, s.cur, s.display, s.rng)
}

// SetTargetDirect 不经过移动策略直接设置目标位置
func (s *State) SetTargetDirect(p types.Point) {
	s.target = p
}

// ForceStop 以当前位置为请求点重新设置目标，并清零速度
func (s *State) ForceStop() {
	s.SetTargetPosition(s.cur)
	s.vel = types.Point{}
}

// Position 返回当前帧左上角的绘制坐标
func (s *State) Position() image.Point {
	w, h := s.CurrentDrawable().IntrinsicSize()
	return image.Pt(
		int(s.cur.X-float64(w)/2),
		int(s.cur.Y-float64(h)/2),
	)
}

// Release 停止所有播放器并解除回调，替换运行时之前调用
func (s *State) Release() {
	for _, d := range s.drawables {
		d.SetOnMotionEnd(nil)
		d.Stop()
	}
}

// changeState 切换状态；同名或未定义的状态不做任何事
func (s *State) changeState(state string) {
	if state == s.curState {
		return
	}
	d, ok := s.drawables[state]
	if !ok {
		return
	}

	log.Printf("[MotionState] %s -> %s", s.curState, state)
	s.curState = state
	s.stateChanged = true
	s.moving = false
	d.SetOnMotionEnd(s.onEnd)
}

func (s *State) changeToMovingState() {
	next := s.params.MoveState(DirectionOf(s.vel))
	if !s.params.HasState(next) {
		return
	}

	s.changeState(next)
	s.moving = true
}

// DirectionOf 将速度方向映射到 8 个移动方向之一
// x 轴正方向为 Right，屏幕坐标系中顺时针依次递增
func DirectionOf(v types.Point) motionparams.MoveDirection {
	bucket := int(math.Atan2(v.Y, v.X)*4/math.Pi+8.5) % 8
	return motionparams.MoveDirection(bucket)
}

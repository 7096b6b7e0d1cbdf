package drawable

import (
	"image"
	"time"

	"github.com/decker502/aneko/pkg/scheduler"
)

// Unbounded 表示不限时长 / 无限重复
const Unbounded = -1

// OnMotionEnd 在播放器完整播放结束时调用
type OnMotionEnd func(d *MotionDrawable)

type frameInfo struct {
	frame    Frame
	duration int // 毫秒，-1 表示持续到总时长上限
}

// MotionDrawable 帧序列播放器
//
// 状态：
//   - curFrame: 当前帧下标，-1 表示尚未开始
//   - curRepeat: 已完成的轮数
//   - curDuration: 自开始以来已排期的累计时长（毫秒，跨轮累计），-1 表示已停止
//
// 同一时刻每个播放器最多只有一个待触发的定时器
type MotionDrawable struct {
	sched *scheduler.Handler

	frames        []frameInfo
	totalDuration int
	repeatCount   int

	curFrame    int
	curRepeat   int
	curDuration int

	onEnd OnMotionEnd
	timer *scheduler.Timer

	visible bool
	alpha   int
	bounds  image.Rectangle
}

// New 创建播放器
//
// 参数：
//   - sched: 驱动帧切换的调度器
//   - totalDuration: 总时长（毫秒），-1 表示不限
//   - repeatCount: 重复次数，-1 表示无限
func New(sched *scheduler.Handler, totalDuration, repeatCount int) *MotionDrawable {
	return &MotionDrawable{
		sched:         sched,
		totalDuration: totalDuration,
		repeatCount:   repeatCount,
		curFrame:      -1,
		curDuration:   -1,
		visible:       true,
		alpha:         0xff,
	}
}

// AddFrame 追加一帧
// 嵌套播放器的结束回调会被接管，作为本播放器的"当前帧结束"信号
func (d *MotionDrawable) AddFrame(f Frame, duration int) {
	if child, ok := f.(*MotionDrawable); ok {
		child.onEnd = d.childEnd
	}
	d.frames = append(d.frames, frameInfo{frame: f, duration: duration})
}

// SetOnMotionEnd 设置结束回调，替换之前的回调
func (d *MotionDrawable) SetOnMotionEnd(fn OnMotionEnd) {
	d.onEnd = fn
}

// FrameCount 返回帧数
func (d *MotionDrawable) FrameCount() int { return len(d.frames) }

// TotalDuration 返回总时长上限（毫秒）
func (d *MotionDrawable) TotalDuration() int { return d.totalDuration }

// RepeatCount 返回重复次数
func (d *MotionDrawable) RepeatCount() int { return d.repeatCount }

// CurrentFrameIndex 返回当前帧下标，尚未开始时为 -1
func (d *MotionDrawable) CurrentFrameIndex() int { return d.curFrame }

// CurrentRepeat 返回已完成的轮数
func (d *MotionDrawable) CurrentRepeat() int { return d.curRepeat }

// Elapsed 返回累计时长，已停止时为 -1
func (d *MotionDrawable) Elapsed() int { return d.curDuration }

// CurrentFrame 返回当前帧；尚未开始时返回第一帧
func (d *MotionDrawable) CurrentFrame() Frame {
	idx := d.curFrame
	if idx < 0 {
		idx = 0
	}
	if idx >= len(d.frames) {
		return nil
	}
	return d.frames[idx].frame
}

func (d *MotionDrawable) IntrinsicSize() (int, int) {
	if f := d.CurrentFrame(); f != nil {
		return f.IntrinsicSize()
	}
	return 0, 0
}

func (d *MotionDrawable) CurrentImage() Image {
	if f := d.CurrentFrame(); f != nil {
		return f.CurrentImage()
	}
	return nil
}

// SetAlpha 设置透明度并传递给当前帧
func (d *MotionDrawable) SetAlpha(alpha int) {
	if d.alpha == alpha {
		return
	}
	d.alpha = alpha
	if f := d.CurrentFrame(); f != nil {
		f.SetAlpha(alpha)
	}
}

// Alpha 返回透明度
func (d *MotionDrawable) Alpha() int { return d.alpha }

// SetBounds 设置绘制区域并传递给当前帧
func (d *MotionDrawable) SetBounds(r image.Rectangle) {
	d.bounds = r
	if f := d.CurrentFrame(); f != nil {
		f.SetBounds(r)
	}
}

// Visible 返回播放器是否可见
func (d *MotionDrawable) Visible() bool { return d.visible }

// SetVisible 设置可见性
// 隐藏会停止播放；显示时若可见性发生变化或 restart 为 true，则从头播放
func (d *MotionDrawable) SetVisible(visible, restart bool) bool {
	changed := d.visible != visible
	d.visible = visible
	if f := d.CurrentFrame(); f != nil {
		f.SetVisible(visible, restart)
	}

	if visible {
		if changed || restart {
			d.Stop()
			d.Start()
		}
	} else {
		d.Stop()
	}
	return changed
}

// IsRunning 返回是否正在播放
func (d *MotionDrawable) IsRunning() bool {
	return d.curDuration >= 0
}

// Start 从第一帧开始播放；正在播放时不做任何事
func (d *MotionDrawable) Start() {
	if d.IsRunning() {
		return
	}
	d.curFrame = -1
	d.curRepeat = 0
	d.curDuration = 0
	d.advance()
}

// Stop 停止播放并取消待触发的定时器；已停止时不做任何事
func (d *MotionDrawable) Stop() {
	if !d.IsRunning() {
		return
	}
	d.halt()
}

// halt 取消定时器并停止当前的嵌套播放器
func (d *MotionDrawable) halt() {
	d.timer.Stop()
	d.timer = nil
	d.curDuration = -1
	if child, ok := d.CurrentFrame().(*MotionDrawable); ok {
		child.Stop()
	}
}

func (d *MotionDrawable) childEnd(child *MotionDrawable) {
	// 只有当前帧的结束才推进
	if Frame(child) == d.CurrentFrame() && d.IsRunning() {
		d.advance()
	}
}

func (d *MotionDrawable) finish() {
	d.halt()
	if d.onEnd != nil {
		d.onEnd(d)
	}
}

// advance 切换到下一帧，或在重复次数 / 总时长耗尽时结束
func (d *MotionDrawable) advance() {
	if len(d.frames) == 0 {
		d.finish()
		return
	}

	next := d.curFrame + 1
	nextRepeat := d.curRepeat
	if next >= len(d.frames) {
		next = 0
		nextRepeat++
		if d.repeatCount >= 0 && nextRepeat >= d.repeatCount {
			d.finish()
			return
		}
	}

	if d.totalDuration >= 0 && d.curDuration >= d.totalDuration {
		d.finish()
		return
	}

	if f := d.CurrentFrame(); f != nil {
		f.SetVisible(false, false)
	}

	d.curFrame = next
	d.curRepeat = nextRepeat

	info := d.frames[next]
	info.frame.SetVisible(d.visible, true)
	info.frame.SetAlpha(d.alpha)
	info.frame.SetBounds(d.bounds)

	effective := d.effectiveDuration(info.duration)

	// 子播放器可能已同步结束并推进过本播放器
	if d.curFrame != next || !d.IsRunning() {
		return
	}

	d.timer.Stop()
	d.timer = nil
	if effective >= 0 {
		delay := time.Duration(effective-d.curDuration) * time.Millisecond
		d.timer = d.sched.PostDelayed(delay, d.advance)
		d.curDuration = effective
	}
}

// effectiveDuration 计算当前帧结束时的累计时长，-1 表示不自动推进
func (d *MotionDrawable) effectiveDuration(frame int) int {
	switch {
	case frame < 0 && d.totalDuration < 0:
		return Unbounded
	case frame < 0:
		return d.totalDuration
	case d.totalDuration < 0:
		return d.curDuration + frame
	default:
		return min(d.curDuration+frame, d.totalDuration)
	}
}

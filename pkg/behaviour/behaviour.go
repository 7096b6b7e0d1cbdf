// Package behaviour 实现角色的移动策略
//
// 移动策略把用户请求的目标点（例如鼠标 / 触摸位置）转换为角色真正要去的位置：
//   - Closer: 直接走向请求点
//   - Further: 远离请求点，跑向屏幕边缘
//   - Whimsical: 忽略请求点，在当前位置附近随机游荡
//
// 所有策略都是纯函数，随机数由调用方注入，便于测试时固定种子
package behaviour

import (
	"math"
	"math/rand/v2"

	"github.com/decker502/aneko/pkg/types"
)

// Behaviour 移动策略
type Behaviour int

const (
	Closer Behaviour = iota
	Further
	Whimsical
)

var names = [...]string{
	Closer:    "closer",
	Further:   "further",
	Whimsical: "whimsical",
}

// String 返回策略在偏好设置中的名称
func (b Behaviour) String() string {
	if b < 0 || int(b) >= len(names) {
		return "unknown"
	}
	return names[b]
}

// Names 返回所有策略名称，按下标顺序
func Names() []string {
	return names[:]
}

// FromName 按名称查找策略
func FromName(name string) (Behaviour, bool) {
	for i, n := range names {
		if n == name {
			return Behaviour(i), true
		}
	}
	return Closer, false
}

// FromIndex 按下标查找策略，越界时返回 Closer
func FromIndex(i int) Behaviour {
	if i < 0 || i >= len(names) {
		return Closer
	}
	return Behaviour(i)
}

// TargetPosition 计算角色的新目标位置
//
// 参数：
//   - p: 请求的目标点
//   - cur: 角色当前位置
//   - display: 显示区域尺寸
//   - rng: 随机数源
func (b Behaviour) TargetPosition(p, cur types.Point, display types.Size, rng *rand.Rand) types.Point {
	switch b {
	case Further:
		return further(p, display, rng)
	case Whimsical:
		return whimsical(cur, display, rng)
	default:
		return p
	}
}

// further 从请求点穿过屏幕中心找到屏幕边缘的出口点，
// 然后取请求点到出口点之间 90%~100% 的位置
func further(p types.Point, display types.Size, rng *rand.Rand) types.Point {
	w, h := float64(display.W), float64(display.H)

	d := display.Center().Sub(p)
	if d.X == 0 && d.Y == 0 {
		ang := rng.Float64() * math.Pi * 2
		d = types.Pt(math.Cos(ang), math.Sin(ang))
	}
	if d.X < 0 {
		d = d.Mul(-1)
	}

	var e1, e2 types.Point
	if d.Y > d.X*h/w || d.Y < -d.X*h/w {
		// 斜率大于屏幕宽高比，与上下边相交
		dxdy := d.X / d.Y
		e1 = types.Pt((w-h*dxdy)/2, 0)
		e2 = types.Pt((w+h*dxdy)/2, h)
	} else {
		dydx := d.Y / d.X
		e1 = types.Pt(0, (h-w*dydx)/2)
		e2 = types.Pt(w, (h+w*dydx)/2)
	}

	e := e2
	if e1.Dist(p) > e2.Dist(p) {
		e = e1
	}

	r := 0.9 + rng.Float64()*0.1
	return e.Mul(r).Add(p.Mul(1 - r))
}

// whimsical 在当前位置附近随机取点，半径为 [min(w,h)/2, min(w,h)]，
// 越界的坐标反射回屏幕内
func whimsical(cur types.Point, display types.Size, rng *rand.Rand) types.Point {
	minWh2 := float64(min(display.W, display.H)) / 2
	r := rng.Float64()*minWh2 + minWh2
	// 角度按 [0,360) 取值但作为弧度使用
	a := rng.Float64() * 360

	return types.Pt(
		reflect(cur.X+r*math.Cos(a), float64(display.W)),
		reflect(cur.Y+r*math.Sin(a), float64(display.H)),
	)
}

func reflect(c, bound float64) float64 {
	switch {
	case c < 0:
		return -c
	case c >= bound:
		return bound*2 - c - 1
	default:
		return c
	}
}

// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，用于解决循环引用问题
package types

import "math"

// Point 屏幕坐标（像素），也用作速度向量（像素/秒）
type Point struct {
	X, Y float64
}

// Pt 是 Point{x, y} 的简写
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add 返回 p+q
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub 返回 p-q
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Mul 返回 p*k
func (p Point) Mul(k float64) Point {
	return Point{p.X * k, p.Y * k}
}

// Len 返回向量长度
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist 返回 p 到 q 的距离
func (p Point) Dist(q Point) float64 {
	return p.Sub(q).Len()
}

// Size 显示区域尺寸（像素）
type Size struct {
	W, H int
}

// Center 返回区域中心
func (s Size) Center() Point {
	return Point{float64(s.W) / 2, float64(s.H) / 2}
}

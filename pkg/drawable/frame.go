// Package drawable 实现帧序列播放器（MotionDrawable）
//
// 一个播放器持有一组帧，每帧可以是单张图片（ImageFrame），也可以是嵌套的播放器
// （repeat-item）。播放器由共享的 scheduler.Handler 驱动：当前帧的时长到期后
// 自动切换到下一帧，直到重复次数或总时长耗尽，然后触发结束回调。
package drawable

import "image"

// Image 是可绘制图片的最小抽象
// *ebiten.Image 满足该接口，测试中可以使用不依赖 GPU 的假图片
type Image interface {
	Bounds() image.Rectangle
}

// Frame 是播放器中的一帧
type Frame interface {
	// IntrinsicSize 返回当前显示内容的固有尺寸（像素）
	IntrinsicSize() (w, h int)

	// SetVisible 设置可见性；对嵌套播放器而言，隐藏即停止，
	// 显示且 restart 为 true 时从头播放。返回可见性是否发生变化
	SetVisible(visible, restart bool) bool

	// SetAlpha 设置透明度 0~255
	SetAlpha(alpha int)

	// SetBounds 设置绘制区域
	SetBounds(r image.Rectangle)

	// CurrentImage 返回当前应绘制的图片
	CurrentImage() Image
}

// ImageFrame 是单张图片帧（叶子节点）
type ImageFrame struct {
	img     Image
	visible bool
	alpha   int
	bounds  image.Rectangle
}

// NewImageFrame 创建图片帧，默认可见、不透明
func NewImageFrame(img Image) *ImageFrame {
	return &ImageFrame{img: img, visible: true, alpha: 0xff}
}

func (f *ImageFrame) IntrinsicSize() (int, int) {
	if f.img == nil {
		return 0, 0
	}
	b := f.img.Bounds()
	return b.Dx(), b.Dy()
}

func (f *ImageFrame) SetVisible(visible, restart bool) bool {
	changed := f.visible != visible
	f.visible = visible
	return changed
}

func (f *ImageFrame) SetAlpha(alpha int)          { f.alpha = alpha }
func (f *ImageFrame) SetBounds(r image.Rectangle) { f.bounds = r }
func (f *ImageFrame) CurrentImage() Image         { return f.img }

// Visible 返回帧是否可见
func (f *ImageFrame) Visible() bool { return f.visible }

// Alpha 返回帧的透明度
func (f *ImageFrame) Alpha() int { return f.alpha }

// Bounds 返回帧的绘制区域
func (f *ImageFrame) Bounds() image.Rectangle { return f.bounds }

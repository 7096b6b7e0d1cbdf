package drawable

import (
	"errors"
	"fmt"

	"github.com/decker502/aneko/internal/motionparams"
	"github.com/decker502/aneko/pkg/scheduler"
)

// ErrZeroTime 表示帧序列的总时长或全部帧时长为 0，播放时时钟无法前进
var ErrZeroTime = errors.New("sequence takes no time")

// ImageSource 按引用名解析图片，例如 "mati1"
type ImageSource interface {
	Image(ref string) (Image, error)
}

// Build 将动作定义中的帧序列构建为播放器树
//
// 参数：
//   - seq: 帧序列定义（repeat-item 会递归构建为嵌套播放器）
//   - images: 图片解析服务
//   - sched: 驱动所有播放器的调度器
//
// 返回：
//   - *MotionDrawable: 根播放器
//   - error: 任一图片无法解析，或序列不占用时间（ErrZeroTime）时返回错误
func Build(seq motionparams.Sequence, images ImageSource, sched *scheduler.Handler) (*MotionDrawable, error) {
	if !seq.TakesTime() {
		return nil, ErrZeroTime
	}
	d := New(sched, seq.Duration, seq.RepeatCount)
	for _, item := range seq.Items {
		if item.IsRepeat() {
			child, err := Build(*item.Repeat, images, sched)
			if err != nil {
				return nil, err
			}
			d.AddFrame(child, item.Duration)
			continue
		}

		img, err := images.Image(item.Drawable)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve drawable '%s': %w", item.Drawable, err)
		}
		d.AddFrame(NewImageFrame(img), item.Duration)
	}
	return d, nil
}

package app

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/aneko/pkg/config"
	"github.com/decker502/aneko/pkg/types"
)

// DisplayMetrics 返回显示区域尺寸与像素密度
// 配置中未指定的项从当前显示器读取
func DisplayMetrics(cfg *config.AppConfig) (types.Size, float64) {
	m := ebiten.Monitor()
	w, h := m.Size()
	return resolveDisplay(cfg.Display, w, h, m.DeviceScaleFactor())
}

// resolveDisplay 合并配置与显示器参数
// 配置中的宽高必须同时指定（validateAppConfig 保证），密度 <= 0 时使用显示器缩放系数
func resolveDisplay(cfg config.DisplayConfig, monitorW, monitorH int, scale float64) (types.Size, float64) {
	size := types.Size{W: monitorW, H: monitorH}
	if cfg.Width > 0 && cfg.Height > 0 {
		size = types.Size{W: cfg.Width, H: cfg.Height}
	}

	density := cfg.Density
	if density <= 0 {
		density = scale
	}
	if density <= 0 {
		density = 1
	}
	return size, density
}

package config

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置（data/config.yaml）
type AppConfig struct {
	Animation AnimationConfig `yaml:"animation"`
	Display   DisplayConfig   `yaml:"display"`
	Skins     SkinsConfig     `yaml:"skins"`
	Window    WindowConfig    `yaml:"window"`
	Random    RandomConfig    `yaml:"random"`
}

// AnimationConfig 动画 tick 配置
type AnimationConfig struct {
	// IntervalMs tick 间隔（毫秒），默认 125
	IntervalMs int `yaml:"interval_ms"`
}

// DisplayConfig 显示区域配置
type DisplayConfig struct {
	// Density 像素密度系数，0 表示使用显示器的 DeviceScaleFactor
	Density float64 `yaml:"density"`

	// Width / Height 显示区域尺寸，0 表示使用显示器尺寸
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SkinsConfig 皮肤配置
type SkinsConfig struct {
	// Default 偏好设置中没有选择皮肤时使用的皮肤名
	Default string `yaml:"default"`

	// Dirs 外部皮肤目录列表，每个子目录包含一个 skin.yaml
	Dirs []string `yaml:"dirs,omitempty"`

	// Watch 是否监听皮肤目录变化并自动重新加载
	Watch bool `yaml:"watch"`
}

// WindowConfig 覆盖窗口配置
type WindowConfig struct {
	Title       string `yaml:"title"`
	Transparent bool   `yaml:"transparent"`
	Floating    bool   `yaml:"floating"`
	Decorated   bool   `yaml:"decorated"`
	// MousePassthrough 鼠标穿透（角色不拦截点击）
	MousePassthrough bool `yaml:"mouse_passthrough"`
}

// RandomConfig 随机数配置
type RandomConfig struct {
	// Seed 随机种子，0 表示每次启动使用不同的种子
	Seed uint64 `yaml:"seed"`
}

// 默认值
const (
	DefaultIntervalMs = 125
	DefaultSkin       = "neko"
	DefaultTitle      = "ANeko"
)

// DefaultAppConfig 返回默认配置
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Animation: AnimationConfig{IntervalMs: DefaultIntervalMs},
		Skins:     SkinsConfig{Default: DefaultSkin},
		Window: WindowConfig{
			Title:            DefaultTitle,
			Transparent:      true,
			Floating:         true,
			MousePassthrough: true,
		},
	}
}

// Interval 返回 tick 间隔
func (c *AppConfig) Interval() time.Duration {
	return time.Duration(c.Animation.IntervalMs) * time.Millisecond
}

// ParseAppConfig 解析 YAML 配置，未出现的字段保留默认值
func ParseAppConfig(data []byte) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("无法解析应用配置: %w", err)
	}
	if err := validateAppConfig(cfg); err != nil {
		return nil, fmt.Errorf("应用配置验证失败: %w", err)
	}
	return cfg, nil
}

// LoadAppConfig 从磁盘加载配置文件
//
// 参数：
//   - path: 配置文件路径
//
// 返回：
//   - *AppConfig: 解析后的配置对象
//   - error: 加载或解析错误
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取配置文件 %s: %w", path, err)
	}
	cfg, err := ParseAppConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadAppConfigFS 从 fs.FS（例如嵌入资源）加载配置文件
func LoadAppConfigFS(fsys fs.FS, path string) (*AppConfig, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("无法读取配置文件 %s: %w", path, err)
	}
	cfg, err := ParseAppConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// validateAppConfig 验证配置的完整性和正确性
func validateAppConfig(cfg *AppConfig) error {
	if cfg.Animation.IntervalMs <= 0 {
		return fmt.Errorf("animation.interval_ms 必须大于 0，当前为 %d", cfg.Animation.IntervalMs)
	}
	if cfg.Display.Density < 0 {
		return fmt.Errorf("display.density 不能为负数: %v", cfg.Display.Density)
	}
	if cfg.Display.Width < 0 || cfg.Display.Height < 0 {
		return fmt.Errorf("display 尺寸不能为负数: %dx%d", cfg.Display.Width, cfg.Display.Height)
	}
	if (cfg.Display.Width == 0) != (cfg.Display.Height == 0) {
		return fmt.Errorf("display.width 与 display.height 必须同时设置")
	}
	if cfg.Skins.Default == "" {
		return fmt.Errorf("缺少必填字段 'skins.default'")
	}
	for i, dir := range cfg.Skins.Dirs {
		if dir == "" {
			return fmt.Errorf("skins.dirs[%d] 为空", i)
		}
	}
	return nil
}

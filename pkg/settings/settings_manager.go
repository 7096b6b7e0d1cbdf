// Package settings 管理用户偏好设置（开关、可见性、透明度、移动策略、皮肤）
//
// 设置以 YAML 序列化，通过 gdata 跨平台存储持久化。gdata 管理器为 nil 时
// 进入降级模式，仅在内存中保存设置。
package settings

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/decker502/aneko/pkg/behaviour"
)

// 偏好设置键，变更监听器以此区分发生变化的设置项
const (
	KeyEnable       = "motion.enable"
	KeyVisible      = "motion.visible"
	KeyTransparency = "motion.transparency"
	KeyBehaviour    = "motion.behaviour"
	KeySkin         = "motion.skin"
)

// Preferences 用户偏好设置
type Preferences struct {
	Enable       bool    `yaml:"enable"`       // 是否启用
	Visible      bool    `yaml:"visible"`      // 是否显示（托盘切换）
	Transparency float64 `yaml:"transparency"` // 透明度 0.0（不透明）~ 1.0
	Behaviour    string  `yaml:"behaviour"`    // closer / further / whimsical
	Skin         string  `yaml:"skin"`         // 皮肤名，为空时使用配置中的默认皮肤
}

// DefaultPreferences 返回默认设置
func DefaultPreferences() *Preferences {
	return &Preferences{
		Enable:       true,
		Visible:      true,
		Transparency: 0.0,
		Behaviour:    behaviour.Closer.String(),
	}
}

// Alpha 将透明度换算为 0~255 的 alpha 值
func (p *Preferences) Alpha() int {
	return int((1 - p.Transparency) * 0xff)
}

// BehaviourValue 返回移动策略，未知名称回退为 Closer
func (p *Preferences) BehaviourValue() behaviour.Behaviour {
	b, _ := behaviour.FromName(p.Behaviour)
	return b
}

// ChangeListener 在设置项变化后调用，key 为 Key* 常量之一
type ChangeListener func(key string)

// Manager 设置管理器
// 负责偏好设置的加载、保存、内存管理与变更通知
type Manager struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式）
	prefs        *Preferences
	listeners    []ChangeListener
}

// 存储路径常量
const (
	prefsObject   = "settings"
	prefsProperty = "preferences"
)

// NewManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *Manager: 设置管理器实例（加载失败时使用默认设置）
func NewManager(gdataManager *gdata.Manager) *Manager {
	m := &Manager{
		gdataManager: gdataManager,
		prefs:        DefaultPreferences(),
	}

	if err := m.Load(); err != nil {
		// 加载失败不是致命错误，使用默认设置
		log.Printf("[SettingsManager] Warning: Failed to load preferences: %v (using defaults)", err)
	}
	return m
}

// Load 从 gdata 加载设置
// gdataManager 为 nil 或数据不存在时使用默认设置
func (m *Manager) Load() error {
	if m.gdataManager == nil {
		m.prefs = DefaultPreferences()
		return nil
	}

	if !m.gdataManager.ObjectPropExists(prefsObject, prefsProperty) {
		m.prefs = DefaultPreferences()
		return nil
	}

	data, err := m.gdataManager.LoadObjectProp(prefsObject, prefsProperty)
	if err != nil {
		m.prefs = DefaultPreferences()
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	// 以默认值为底，兼容缺少字段的旧数据
	loaded := DefaultPreferences()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		m.prefs = DefaultPreferences()
		return fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	loaded.Transparency = clampUnit(loaded.Transparency)

	m.prefs = loaded
	log.Printf("[SettingsManager] Preferences loaded successfully")
	return nil
}

// Save 保存设置到 gdata；降级模式下不做任何事
func (m *Manager) Save() error {
	if m.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(m.prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := m.gdataManager.SaveObjectProp(prefsObject, prefsProperty, data); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	log.Printf("[SettingsManager] Preferences saved successfully")
	return nil
}

// Preferences 返回当前设置的副本
func (m *Manager) Preferences() Preferences {
	return *m.prefs
}

// AddListener 注册设置变更监听器
func (m *Manager) AddListener(fn ChangeListener) {
	m.listeners = append(m.listeners, fn)
}

// ClearListeners 移除所有监听器
func (m *Manager) ClearListeners() {
	m.listeners = nil
}

// SetEnable 设置启用开关
func (m *Manager) SetEnable(enable bool) {
	if m.prefs.Enable == enable {
		return
	}
	m.prefs.Enable = enable
	m.changed(KeyEnable)
}

// SetVisible 设置可见性
func (m *Manager) SetVisible(visible bool) {
	if m.prefs.Visible == visible {
		return
	}
	m.prefs.Visible = visible
	m.changed(KeyVisible)
}

// SetTransparency 设置透明度，值会被限制在 0.0 ~ 1.0 范围内
func (m *Manager) SetTransparency(transparency float64) {
	transparency = clampUnit(transparency)
	if m.prefs.Transparency == transparency {
		return
	}
	m.prefs.Transparency = transparency
	m.changed(KeyTransparency)
}

// SetBehaviour 设置移动策略
func (m *Manager) SetBehaviour(b behaviour.Behaviour) {
	name := b.String()
	if m.prefs.Behaviour == name {
		return
	}
	m.prefs.Behaviour = name
	m.changed(KeyBehaviour)
}

// SetSkin 设置皮肤
func (m *Manager) SetSkin(skin string) {
	if m.prefs.Skin == skin {
		return
	}
	m.prefs.Skin = skin
	m.changed(KeySkin)
}

// changed 保存设置并通知监听器
func (m *Manager) changed(key string) {
	if err := m.Save(); err != nil {
		log.Printf("[SettingsManager] Warning: %v", err)
	}
	for _, fn := range m.listeners {
		fn(key)
	}
}

// clampUnit 将值限制在 0.0 ~ 1.0 范围内
func clampUnit(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

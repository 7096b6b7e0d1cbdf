package settings

import (
	"testing"

	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/aneko/pkg/behaviour"
)

// openTestStore 在临时目录中创建 gdata 管理器
func openTestStore(t *testing.T, appName string) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_DATA_HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return m
}

// TestDefaultPreferences 测试默认值
func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	if !p.Enable || !p.Visible {
		t.Error("Enable/Visible: want true")
	}
	if p.Transparency != 0 {
		t.Errorf("Transparency: got %v, want 0", p.Transparency)
	}
	if p.Behaviour != "closer" {
		t.Errorf("Behaviour: got %q, want closer", p.Behaviour)
	}
	if p.Alpha() != 0xff {
		t.Errorf("Alpha(): got %d, want 255", p.Alpha())
	}
}

func TestPreferences_Alpha(t *testing.T) {
	tests := []struct {
		transparency float64
		want         int
	}{
		{0, 255},
		{0.5, 127},
		{1, 0},
	}
	for _, tt := range tests {
		p := Preferences{Transparency: tt.transparency}
		if got := p.Alpha(); got != tt.want {
			t.Errorf("Alpha() with %v = %d, want %d", tt.transparency, got, tt.want)
		}
	}
}

func TestPreferences_BehaviourValue(t *testing.T) {
	p := Preferences{Behaviour: "whimsical"}
	if p.BehaviourValue() != behaviour.Whimsical {
		t.Errorf("BehaviourValue() = %v, want whimsical", p.BehaviourValue())
	}
	p.Behaviour = "sleepy"
	if p.BehaviourValue() != behaviour.Closer {
		t.Errorf("unknown behaviour should fall back to closer, got %v", p.BehaviourValue())
	}
}

// TestNewManagerNilGdata 测试 gdataManager 为 nil 时的降级场景
func TestNewManagerNilGdata(t *testing.T) {
	m := NewManager(nil)
	if m.Preferences() != *DefaultPreferences() {
		t.Errorf("Preferences() = %+v, want defaults", m.Preferences())
	}
	m.SetSkin("tora")
	if err := m.Save(); err != nil {
		t.Errorf("Save() in degraded mode: %v", err)
	}
	if m.Preferences().Skin != "tora" {
		t.Error("in-memory change lost in degraded mode")
	}
}

// TestManager_LoadSave 测试设置修改后自动保存并可重新加载
func TestManager_LoadSave(t *testing.T) {
	store := openTestStore(t, "test_aneko_prefs")

	m1 := NewManager(store)
	m1.SetVisible(false)
	m1.SetTransparency(0.25)
	m1.SetBehaviour(behaviour.Further)
	m1.SetSkin("tora")

	m2 := NewManager(store)
	got := m2.Preferences()
	want := Preferences{
		Enable:       true,
		Visible:      false,
		Transparency: 0.25,
		Behaviour:    "further",
		Skin:         "tora",
	}
	if got != want {
		t.Errorf("reloaded preferences = %+v, want %+v", got, want)
	}
}

// TestManager_Listeners 测试变更通知只在值变化时触发
func TestManager_Listeners(t *testing.T) {
	m := NewManager(nil)
	var keys []string
	m.AddListener(func(key string) { keys = append(keys, key) })

	m.SetEnable(true) // 未变化
	m.SetEnable(false)
	m.SetVisible(false)
	m.SetTransparency(2) // 被限制为 1.0
	m.SetTransparency(1)
	m.SetBehaviour(behaviour.Whimsical)
	m.SetSkin("tora")

	want := []string{KeyEnable, KeyVisible, KeyTransparency, KeyBehaviour, KeySkin}
	if len(keys) != len(want) {
		t.Fatalf("notified keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if m.Preferences().Transparency != 1 {
		t.Errorf("Transparency = %v, want 1", m.Preferences().Transparency)
	}

	m.ClearListeners()
	m.SetSkin("neko")
	if len(keys) != len(want) {
		t.Error("cleared listener was still notified")
	}
}

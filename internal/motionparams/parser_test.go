package motionparams

import (
	"errors"
	"os"
	"strings"
	"testing"
	"testing/fstest"
)

// checkNeko verifies the fixture shared by neko.xml and neko.yaml.
func checkNeko(t *testing.T, p *Params) {
	t.Helper()

	// density 2.0
	floats := []struct {
		name string
		got  float64
		want float64
	}{
		{"Acceleration", p.Acceleration(), 400},
		{"MaxVelocity", p.MaxVelocity(), 240},
		{"DeaccelerationDistance", p.DeaccelerationDistance(), 120},
		{"ProximityDistance", p.ProximityDistance(), 20},
	}
	for _, f := range floats {
		if f.got != f.want {
			t.Errorf("%s = %v, want %v", f.name, f.got, f.want)
		}
	}

	if p.InitialState() != "stop" || p.AwakeState() != "awake" {
		t.Errorf("InitialState/AwakeState = %q/%q, want stop/awake", p.InitialState(), p.AwakeState())
	}
	if got := p.MoveState(MoveRight); got != "moveRight" {
		t.Errorf("MoveState(MoveRight) = %q, want moveRight", got)
	}
	if got := p.WallState(WallRight); got != "wallRight" {
		t.Errorf("WallState(WallRight) = %q, want wallRight", got)
	}

	wantStates := []string{"awake", "moveRight", "stop", "wallRight"}
	if got := p.States(); strings.Join(got, ",") != strings.Join(wantStates, ",") {
		t.Errorf("States() = %v, want %v", got, wantStates)
	}

	stop, ok := p.Motion("stop")
	if !ok {
		t.Fatal("state stop not found")
	}
	if stop.Items.Duration != Unbounded || stop.Items.RepeatCount != 1 {
		t.Errorf("stop sequence bounds = %d/%d, want -1/1", stop.Items.Duration, stop.Items.RepeatCount)
	}
	if len(stop.Items.Items) != 3 {
		t.Fatalf("stop has %d items, want 3", len(stop.Items.Items))
	}
	if it := stop.Items.Items[0]; it.Drawable != "mati2" || it.Duration != 250 || it.IsRepeat() {
		t.Errorf("stop[0] = %+v, want mati2/250", it)
	}
	rep := stop.Items.Items[1]
	if !rep.IsRepeat() || rep.Duration != Unbounded {
		t.Fatalf("stop[1] = %+v, want a repeat group with duration -1", rep)
	}
	if rep.Repeat.RepeatCount != 4 || rep.Repeat.Duration != Unbounded || len(rep.Repeat.Items) != 2 {
		t.Errorf("stop[1].Repeat = %+v, want 4 passes, unbounded, 2 items", rep.Repeat)
	}
	if !p.NeedCheckMove("stop") || p.NeedCheckWall("stop") {
		t.Error("stop: want checkMove=true checkWall=false")
	}
	if _, ok := p.NextState("stop"); ok {
		t.Error("stop should have no next state")
	}

	awake, _ := p.Motion("awake")
	if awake.Items.Duration != 750 {
		t.Errorf("awake duration = %d, want 750", awake.Items.Duration)
	}
	if it := awake.Items.Items[0]; it.Drawable != "awake" || it.Duration != Unbounded {
		t.Errorf("awake[0] = %+v, want awake/-1", it)
	}
	if next, ok := p.NextState("awake"); !ok || next != "stop" {
		t.Errorf("NextState(awake) = %q, %v, want stop, true", next, ok)
	}

	if !p.NeedCheckWall("moveRight") || !p.NeedCheckMove("moveRight") {
		t.Error("moveRight: want checkWall and checkMove")
	}

	wall, _ := p.Motion("wallRight")
	wrep := wall.Items.Items[0].Repeat
	// repeatCount omitted stays unbounded even with a finite duration
	if wrep.Duration != 1000 || wrep.RepeatCount != Unbounded {
		t.Errorf("wallRight repeat = %d/%d, want 1000/-1", wrep.Duration, wrep.RepeatCount)
	}
}

// TestParse_Neko tests a complete XML definition
func TestParse_Neko(t *testing.T) {
	f, err := os.Open("testdata/neko.xml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	p, err := Parse(f, 2.0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	checkNeko(t, p)
}

// TestParse_Defaults tests that omitted attributes fall back to defaults
func TestParse_Defaults(t *testing.T) {
	p, err := LoadFile(os.DirFS("testdata"), "minimal.xml", 1.5)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if p.Acceleration() != 1.5*DefaultAcceleration {
		t.Errorf("Acceleration = %v, want %v", p.Acceleration(), 1.5*DefaultAcceleration)
	}
	if p.MaxVelocity() != 1.5*DefaultMaxVelocity {
		t.Errorf("MaxVelocity = %v, want %v", p.MaxVelocity(), 1.5*DefaultMaxVelocity)
	}
	if p.DeaccelerationDistance() != 1.5*DefaultDeaccelerationDistance {
		t.Errorf("DeaccelerationDistance = %v", p.DeaccelerationDistance())
	}
	if p.ProximityDistance() != 1.5*DefaultProximityDistance {
		t.Errorf("ProximityDistance = %v", p.ProximityDistance())
	}
	if p.AwakeState() != DefaultAwakeState {
		t.Errorf("AwakeState = %q, want %q", p.AwakeState(), DefaultAwakeState)
	}
	if got := p.MoveState(MoveUpLeft); got != "moveUpLeft" {
		t.Errorf("MoveState(MoveUpLeft) = %q", got)
	}
	if got := p.WallState(WallDown); got != "wallDown" {
		t.Errorf("WallState(WallDown) = %q", got)
	}
	if p.HasState("awake") {
		t.Error("awake should not be defined")
	}
}

func TestParse_Prefixes(t *testing.T) {
	doc := `<motion-params initialState="idle" moveStatePrefix="run" wallStatePrefix="hit">
	  <motion state="idle"><item drawable="a"/></motion>
	</motion-params>`

	p, err := Parse(strings.NewReader(doc), 1)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.MoveState(MoveDownLeft); got != "runDownLeft" {
		t.Errorf("MoveState = %q, want runDownLeft", got)
	}
	if got := p.WallState(WallUp); got != "hitUp" {
		t.Errorf("WallState = %q, want hitUp", got)
	}
}

func TestParse_NestedRepeat(t *testing.T) {
	doc := `<motion-params>
	  <motion state="stop">
	    <repeat-item repeatCount="2" duration="900">
	      <item drawable="a" duration="100"/>
	      <repeat-item repeatCount="3">
	        <item drawable="b" duration="50"/>
	      </repeat-item>
	    </repeat-item>
	  </motion>
	</motion-params>`

	p, err := Parse(strings.NewReader(doc), 1)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	m, _ := p.Motion("stop")
	outer := m.Items.Items[0].Repeat
	if outer.RepeatCount != 2 || outer.Duration != 900 {
		t.Errorf("outer = %d/%d, want 2/900", outer.RepeatCount, outer.Duration)
	}
	inner := outer.Items[1]
	if !inner.IsRepeat() || inner.Repeat.RepeatCount != 3 || inner.Repeat.Items[0].Drawable != "b" {
		t.Errorf("inner = %+v", inner)
	}
}

// TestParse_Errors tests the failure modes of the XML grammar
func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantErr   error
		element   string
		attribute string
	}{
		{
			name:    "unknown root",
			doc:     `<params><motion state="stop"><item drawable="a"/></motion></params>`,
			wantErr: ErrUnknownElement,
			element: "params",
		},
		{
			name:    "unknown child of motion-params",
			doc:     `<motion-params><state name="stop"/></motion-params>`,
			wantErr: ErrUnknownElement,
			element: "state",
		},
		{
			name:      "motion without state",
			doc:       `<motion-params><motion><item drawable="a"/></motion></motion-params>`,
			wantErr:   ErrMissingAttribute,
			element:   "motion",
			attribute: "state",
		},
		{
			name:      "item without drawable",
			doc:       `<motion-params><motion state="stop"><item duration="10"/></motion></motion-params>`,
			wantErr:   ErrMissingAttribute,
			element:   "item",
			attribute: "drawable",
		},
		{
			name:      "non-integer duration",
			doc:       `<motion-params><motion state="stop"><item drawable="a" duration="fast"/></motion></motion-params>`,
			wantErr:   ErrInvalidAttribute,
			element:   "item",
			attribute: "duration",
		},
		{
			name:      "non-integer acceleration",
			doc:       `<motion-params acceleration="1.5"><motion state="stop"><item drawable="a"/></motion></motion-params>`,
			wantErr:   ErrInvalidAttribute,
			element:   "motion-params",
			attribute: "acceleration",
		},
		{
			name:    "element inside item",
			doc:     `<motion-params><motion state="stop"><item drawable="a"><item drawable="b"/></item></motion></motion-params>`,
			wantErr: ErrUnknownElement,
			element: "item",
		},
		{
			name:    "unknown element inside repeat-item",
			doc:     `<motion-params><motion state="stop"><repeat-item><frame/></repeat-item></motion></motion-params>`,
			wantErr: ErrUnknownElement,
			element: "frame",
		},
		{
			name:    "empty motion",
			doc:     `<motion-params><motion state="stop"></motion></motion-params>`,
			wantErr: ErrEmptySequence,
			element: "motion",
		},
		{
			name:    "empty repeat-item",
			doc:     `<motion-params><motion state="stop"><repeat-item repeatCount="2"/></motion></motion-params>`,
			wantErr: ErrEmptySequence,
			element: "repeat-item",
		},
		{
			name:      "repeat-item of zero-length frames",
			doc:       `<motion-params><motion state="stop"><repeat-item><item drawable="a" duration="0"/><item drawable="b" duration="0"/></repeat-item></motion></motion-params>`,
			wantErr:   ErrInvalidAttribute,
			element:   "repeat-item",
			attribute: "duration",
		},
		{
			name:      "repeat-item capped at zero",
			doc:       `<motion-params><motion state="stop"><repeat-item duration="0"><item drawable="a" duration="100"/></repeat-item></motion></motion-params>`,
			wantErr:   ErrInvalidAttribute,
			element:   "repeat-item",
			attribute: "duration",
		},
		{
			name:      "motion capped at zero",
			doc:       `<motion-params><motion state="stop" duration="0" nextState="stop"><item drawable="a" duration="100"/></motion></motion-params>`,
			wantErr:   ErrInvalidAttribute,
			element:   "motion",
			attribute: "duration",
		},
		{
			name:      "motion of zero-length frames",
			doc:       `<motion-params><motion state="stop" nextState="stop"><item drawable="a" duration="0"/></motion></motion-params>`,
			wantErr:   ErrInvalidAttribute,
			element:   "motion",
			attribute: "duration",
		},
		{
			name:      "initial state not defined",
			doc:       `<motion-params initialState="sleep"><motion state="stop"><item drawable="a"/></motion></motion-params>`,
			wantErr:   ErrUnknownInitialState,
			element:   "motion-params",
			attribute: "initialState",
		},
		{
			name:    "empty document",
			doc:     ``,
			wantErr: ErrUnknownInitialState,
			element: "motion-params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc), 1)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not a *ConfigError", err)
			}
			if ce.Element != tt.element {
				t.Errorf("Element = %q, want %q", ce.Element, tt.element)
			}
			if tt.attribute != "" && ce.Attribute != tt.attribute {
				t.Errorf("Attribute = %q, want %q", ce.Attribute, tt.attribute)
			}
		})
	}
}

func TestParse_ZeroLengthFrameBesideTimedFrame(t *testing.T) {
	doc := `<motion-params>
  <motion state="stop">
    <repeat-item repeatCount="2">
      <item drawable="a" duration="0"/>
    </repeat-item>
    <item drawable="b" duration="100"/>
  </motion>
</motion-params>`
	p, err := Parse(strings.NewReader(doc), 1)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	m, ok := p.Motion("stop")
	if !ok {
		t.Fatal("state stop missing")
	}
	if len(m.Items.Items) != 2 || !m.Items.Items[0].IsRepeat() {
		t.Fatalf("items = %+v, want a repeat group then a frame", m.Items.Items)
	}
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := Parse(strings.NewReader(`<motion-params><motion state="stop">`), 1)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Parse() error = %v, want *ConfigError", err)
	}
}

func TestParse_IgnoresUnknownAttributes(t *testing.T) {
	doc := `<motion-params xmlns:android="http://schemas.android.com/apk/res/android" color="red">
	  <motion state="stop" speed="3"><item drawable="a" android:duration="99"/></motion>
	</motion-params>`

	p, err := Parse(strings.NewReader(doc), 1)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	m, _ := p.Motion("stop")
	if m.Items.Items[0].Duration != Unbounded {
		t.Errorf("namespaced duration should be ignored, got %d", m.Items.Items[0].Duration)
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{
		Source:    "skins/neko/motion.xml",
		Line:      12,
		Element:   "item",
		Attribute: "drawable",
		Err:       ErrMissingAttribute,
	}
	want := "skins/neko/motion.xml:12: <item> drawable: missing required attribute"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	fsys := fstest.MapFS{
		"skin/motion.xml": {Data: []byte(`<motion-params><motion state="stop"><item/></motion></motion-params>`)},
		"skin/motion.txt": {Data: []byte(`motion-params: {}`)},
	}

	t.Run("error carries source", func(t *testing.T) {
		_, err := LoadFile(fsys, "skin/motion.xml", 1)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("LoadFile() error = %v, want *ConfigError", err)
		}
		if ce.Source != "skin/motion.xml" {
			t.Errorf("Source = %q, want skin/motion.xml", ce.Source)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		if _, err := LoadFile(fsys, "skin/motion.txt", 1); err == nil {
			t.Error("expected an error for .txt")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(fsys, "skin/none.xml", 1); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

package motionparams

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Element and attribute names of the definition grammar.
const (
	tagMotionParams = "motion-params"
	tagMotion       = "motion"
	tagItem         = "item"
	tagRepeatItem   = "repeat-item"

	attrAcceleration    = "acceleration"
	attrMaxVelocity     = "maxVelocity"
	attrDeacceleration  = "deaccelerationDistance"
	attrProximity       = "proximityDistance"
	attrInitialState    = "initialState"
	attrAwakeState      = "awakeState"
	attrMoveStatePrefix = "moveStatePrefix"
	attrWallStatePrefix = "wallStatePrefix"

	attrState     = "state"
	attrDuration  = "duration"
	attrNextState = "nextState"
	attrCheckWall = "checkWall"
	attrCheckMove = "checkMove"

	attrDrawable    = "drawable"
	attrRepeatCount = "repeatCount"

	drawableRefPrefix = "@drawable/"
)

// Parse reads an XML motion definition from r. The four physics attributes
// are given in density-independent units and are multiplied by density.
//
// Parameters:
//   - r: the XML document, rooted at <motion-params>
//   - density: display density factor (1.0 = mdpi)
//
// Returns:
//   - *Params: the parsed definition
//   - error: a *ConfigError describing the first problem found
//
// Example:
//
//	f, _ := os.Open("skins/neko/motion.xml")
//	params, err := motionparams.Parse(f, 2.0)
//	if err != nil {
//	    log.Fatalf("Failed to load skin: %v", err)
//	}
//	fmt.Println(params.InitialState())
func Parse(r io.Reader, density float64) (*Params, error) {
	p := &xmlParser{
		dec:     xml.NewDecoder(r),
		density: density,
		params:  newParams(),
	}
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	if err := p.params.validate(); err != nil {
		return nil, err
	}
	return p.params, nil
}

type xmlParser struct {
	dec     *xml.Decoder
	density float64
	params  *Params
}

func (p *xmlParser) line() int {
	line, _ := p.dec.InputPos()
	return line
}

func (p *xmlParser) fail(element, attribute string, err error) error {
	return &ConfigError{Line: p.line(), Element: element, Attribute: attribute, Err: err}
}

// nextChild returns the next child start element of the element currently
// being parsed, or nil once the matching end element (or EOF at the
// document level) is reached. Text, comments and directives are skipped.
func (p *xmlParser) nextChild() (*xml.StartElement, error) {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, &ConfigError{Line: p.line(), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return &t, nil
		case xml.EndElement:
			return nil, nil
		}
	}
}

func (p *xmlParser) parseDocument() error {
	for {
		el, err := p.nextChild()
		if err != nil {
			return err
		}
		if el == nil {
			return nil
		}
		if el.Name.Local != tagMotionParams {
			return p.fail(el.Name.Local, "", ErrUnknownElement)
		}
		if err := p.parseMotionParams(el); err != nil {
			return err
		}
	}
}

func (p *xmlParser) parseMotionParams(el *xml.StartElement) error {
	params := p.params
	attrs := el.Attr

	scaled := []struct {
		name string
		def  int
		dst  *float64
	}{
		{attrAcceleration, DefaultAcceleration, &params.acceleration},
		{attrDeacceleration, DefaultDeaccelerationDistance, &params.deaccelerationDistance},
		{attrMaxVelocity, DefaultMaxVelocity, &params.maxVelocity},
		{attrProximity, DefaultProximityDistance, &params.proximityDistance},
	}
	for _, s := range scaled {
		v, err := attrInt(attrs, s.name, s.def)
		if err != nil {
			return p.fail(tagMotionParams, s.name, err)
		}
		*s.dst = p.density * float64(v)
	}

	params.initialState = attrString(attrs, attrInitialState, DefaultInitialState)
	params.awakeState = attrString(attrs, attrAwakeState, DefaultAwakeState)
	params.moveStatePrefix = attrString(attrs, attrMoveStatePrefix, DefaultMoveStatePrefix)
	params.wallStatePrefix = attrString(attrs, attrWallStatePrefix, DefaultWallStatePrefix)

	for {
		child, err := p.nextChild()
		if err != nil {
			return err
		}
		if child == nil {
			return nil
		}
		if child.Name.Local != tagMotion {
			return p.fail(child.Name.Local, "", ErrUnknownElement)
		}
		if err := p.parseMotion(child); err != nil {
			return err
		}
	}
}

func (p *xmlParser) parseMotion(el *xml.StartElement) error {
	attrs := el.Attr
	name, ok := lookupAttr(attrs, attrState)
	if !ok {
		return p.fail(tagMotion, attrState, ErrMissingAttribute)
	}

	duration, err := attrInt(attrs, attrDuration, Unbounded)
	if err != nil {
		return p.fail(tagMotion, attrDuration, err)
	}

	motion := &Motion{
		Name:      name,
		CheckMove: attrBool(attrs, attrCheckMove, false),
		CheckWall: attrBool(attrs, attrCheckWall, false),
	}
	motion.NextState, motion.HasNext = lookupAttr(attrs, attrNextState)

	items, err := p.parseItems(tagMotion)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return p.fail(tagMotion, "", fmt.Errorf("state %q: %w", name, ErrEmptySequence))
	}

	motion.Items = Sequence{
		Duration:    duration,
		RepeatCount: 1,
		Items:       items,
	}
	if !motion.Items.TakesTime() {
		return p.fail(tagMotion, attrDuration, fmt.Errorf("state %q: %w: sequence takes no time", name, ErrInvalidAttribute))
	}
	p.params.motions[name] = motion
	return nil
}

// parseItems reads <item> and <repeat-item> children until the end of the
// enclosing element.
func (p *xmlParser) parseItems(parent string) ([]Item, error) {
	var items []Item
	for {
		child, err := p.nextChild()
		if err != nil {
			return nil, err
		}
		if child == nil {
			return items, nil
		}

		switch child.Name.Local {
		case tagItem:
			item, err := p.parseItem(child)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		case tagRepeatItem:
			item, err := p.parseRepeatItem(child)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		default:
			return nil, p.fail(child.Name.Local, "", fmt.Errorf("%w inside <%s>", ErrUnknownElement, parent))
		}
	}
}

func (p *xmlParser) parseItem(el *xml.StartElement) (Item, error) {
	ref, ok := lookupAttr(el.Attr, attrDrawable)
	ref = normalizeDrawableRef(ref)
	if !ok || ref == "" {
		return Item{}, p.fail(tagItem, attrDrawable, ErrMissingAttribute)
	}
	duration, err := attrInt(el.Attr, attrDuration, Unbounded)
	if err != nil {
		return Item{}, p.fail(tagItem, attrDuration, err)
	}

	// <item> is a leaf
	child, err := p.nextChild()
	if err != nil {
		return Item{}, err
	}
	if child != nil {
		return Item{}, p.fail(child.Name.Local, "", fmt.Errorf("%w inside <%s>", ErrUnknownElement, tagItem))
	}

	return Item{Drawable: ref, Duration: duration}, nil
}

func (p *xmlParser) parseRepeatItem(el *xml.StartElement) (Item, error) {
	duration, err := attrInt(el.Attr, attrDuration, Unbounded)
	if err != nil {
		return Item{}, p.fail(tagRepeatItem, attrDuration, err)
	}
	repeat, err := attrInt(el.Attr, attrRepeatCount, Unbounded)
	if err != nil {
		return Item{}, p.fail(tagRepeatItem, attrRepeatCount, err)
	}

	items, err := p.parseItems(tagRepeatItem)
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, p.fail(tagRepeatItem, "", ErrEmptySequence)
	}

	seq := &Sequence{
		Duration:    duration,
		RepeatCount: repeat,
		Items:       items,
	}
	if !seq.TakesTime() {
		return Item{}, p.fail(tagRepeatItem, attrDuration, fmt.Errorf("%w: sequence takes no time", ErrInvalidAttribute))
	}
	return Item{Duration: Unbounded, Repeat: seq}, nil
}

// validate checks cross-state invariants once every state has been read.
func (p *Params) validate() error {
	if !p.HasState(p.initialState) {
		return &ConfigError{
			Element:   tagMotionParams,
			Attribute: attrInitialState,
			Err:       fmt.Errorf("%w: %q", ErrUnknownInitialState, p.initialState),
		}
	}
	return nil
}

func lookupAttr(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func attrString(attrs []xml.Attr, name, def string) string {
	if v, ok := lookupAttr(attrs, name); ok {
		return v
	}
	return def
}

// attrInt accepts decimal, 0x-prefixed hex and 0-prefixed octal values.
func attrInt(attrs []xml.Attr, name string, def int) (int, error) {
	v, ok := lookupAttr(attrs, name)
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidAttribute, v)
	}
	return int(n), nil
}

// attrBool treats "true" (any case) and "1" as true and anything else as
// false.
func attrBool(attrs []xml.Attr, name string, def bool) bool {
	v, ok := lookupAttr(attrs, name)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}

func normalizeDrawableRef(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), drawableRefPrefix)
}

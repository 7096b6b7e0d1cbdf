package motionparams

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const keyMotions, keyItems = "motions", "items"

// ParseYAML reads a YAML motion definition. The document mirrors the XML
// grammar: a "motion-params" mapping holding the global attributes and a
// "motions" list; each motion holds an "items" list whose entries are
// single-key mappings, either "item" or "repeat-item".
//
//	motion-params:
//	  initialState: stop
//	  motions:
//	    - state: stop
//	      items:
//	        - item: {drawable: mati1, duration: 250}
//	        - repeat-item:
//	            repeatCount: 3
//	            items:
//	              - item: {drawable: jare2, duration: 125}
//
// Unknown keys at any level are rejected.
func ParseYAML(data []byte, density float64) (*Params, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Err: err}
	}

	p := &yamlParser{density: density, params: newParams()}
	if err := p.parseDocument(&doc); err != nil {
		return nil, err
	}
	if err := p.params.validate(); err != nil {
		return nil, err
	}
	return p.params, nil
}

type yamlParser struct {
	density float64
	params  *Params
}

func (p *yamlParser) fail(n *yaml.Node, element, attribute string, err error) error {
	return &ConfigError{Line: n.Line, Element: element, Attribute: attribute, Err: err}
}

// pairs iterates over the key/value pairs of a mapping node.
func (p *yamlParser) pairs(n *yaml.Node, element string, fn func(key string, k, v *yaml.Node) error) error {
	if n.Kind != yaml.MappingNode {
		return p.fail(n, element, "", fmt.Errorf("%w: expected a mapping", ErrInvalidAttribute))
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if err := fn(k.Value, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (p *yamlParser) parseDocument(doc *yaml.Node) error {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		// empty document: no states, caught by validate
		return nil
	}
	return p.pairs(doc.Content[0], "", func(key string, k, v *yaml.Node) error {
		if key != tagMotionParams {
			return p.fail(k, key, "", ErrUnknownElement)
		}
		return p.parseMotionParams(v)
	})
}

func (p *yamlParser) parseMotionParams(n *yaml.Node) error {
	params := p.params
	params.acceleration = p.density * DefaultAcceleration
	params.maxVelocity = p.density * DefaultMaxVelocity
	params.deaccelerationDistance = p.density * DefaultDeaccelerationDistance
	params.proximityDistance = p.density * DefaultProximityDistance

	scaled := map[string]*float64{
		attrAcceleration:   &params.acceleration,
		attrMaxVelocity:    &params.maxVelocity,
		attrDeacceleration: &params.deaccelerationDistance,
		attrProximity:      &params.proximityDistance,
	}
	names := map[string]*string{
		attrInitialState:    &params.initialState,
		attrAwakeState:      &params.awakeState,
		attrMoveStatePrefix: &params.moveStatePrefix,
		attrWallStatePrefix: &params.wallStatePrefix,
	}

	return p.pairs(n, tagMotionParams, func(key string, k, v *yaml.Node) error {
		if dst, ok := scaled[key]; ok {
			i, err := p.intValue(v, tagMotionParams, key)
			if err != nil {
				return err
			}
			*dst = p.density * float64(i)
			return nil
		}
		if dst, ok := names[key]; ok {
			s, err := p.stringValue(v, tagMotionParams, key)
			if err != nil {
				return err
			}
			*dst = s
			return nil
		}
		if key != keyMotions {
			return p.fail(k, key, "", fmt.Errorf("%w inside <%s>", ErrUnknownElement, tagMotionParams))
		}
		if v.Kind != yaml.SequenceNode {
			return p.fail(v, tagMotionParams, keyMotions, fmt.Errorf("%w: expected a list", ErrInvalidAttribute))
		}
		for _, m := range v.Content {
			if err := p.parseMotion(m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *yamlParser) parseMotion(n *yaml.Node) error {
	motion := &Motion{}
	duration := Unbounded
	hasName := false
	var items []Item

	err := p.pairs(n, tagMotion, func(key string, k, v *yaml.Node) error {
		var err error
		switch key {
		case attrState:
			motion.Name, err = p.stringValue(v, tagMotion, key)
			hasName = true
		case attrDuration:
			duration, err = p.intValue(v, tagMotion, key)
		case attrNextState:
			if v.ShortTag() == "!!null" {
				// nextState: ~ is the same as leaving it out
				break
			}
			motion.NextState, err = p.stringValue(v, tagMotion, key)
			motion.HasNext = true
		case attrCheckWall:
			motion.CheckWall, err = p.boolValue(v, tagMotion, key)
		case attrCheckMove:
			motion.CheckMove, err = p.boolValue(v, tagMotion, key)
		case keyItems:
			items, err = p.parseItems(v, tagMotion)
		default:
			err = p.fail(k, key, "", fmt.Errorf("%w inside <%s>", ErrUnknownElement, tagMotion))
		}
		return err
	})
	if err != nil {
		return err
	}

	if !hasName {
		return p.fail(n, tagMotion, attrState, ErrMissingAttribute)
	}
	if len(items) == 0 {
		return p.fail(n, tagMotion, "", fmt.Errorf("state %q: %w", motion.Name, ErrEmptySequence))
	}

	motion.Items = Sequence{Duration: duration, RepeatCount: 1, Items: items}
	if !motion.Items.TakesTime() {
		return p.fail(n, tagMotion, attrDuration, fmt.Errorf("state %q: %w: sequence takes no time", motion.Name, ErrInvalidAttribute))
	}
	p.params.motions[motion.Name] = motion
	return nil
}

func (p *yamlParser) parseItems(n *yaml.Node, parent string) ([]Item, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, p.fail(n, parent, keyItems, fmt.Errorf("%w: expected a list", ErrInvalidAttribute))
	}

	items := make([]Item, 0, len(n.Content))
	for _, entry := range n.Content {
		if entry.Kind != yaml.MappingNode || len(entry.Content) != 2 {
			return nil, p.fail(entry, parent, keyItems,
				fmt.Errorf("%w: each entry must be a single %q or %q mapping", ErrInvalidAttribute, tagItem, tagRepeatItem))
		}

		k, v := entry.Content[0], entry.Content[1]
		switch k.Value {
		case tagItem:
			item, err := p.parseItem(v)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		case tagRepeatItem:
			item, err := p.parseRepeatItem(v)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		default:
			return nil, p.fail(k, k.Value, "", fmt.Errorf("%w inside <%s>", ErrUnknownElement, parent))
		}
	}
	return items, nil
}

func (p *yamlParser) parseItem(n *yaml.Node) (Item, error) {
	item := Item{Duration: Unbounded}
	err := p.pairs(n, tagItem, func(key string, k, v *yaml.Node) error {
		var err error
		switch key {
		case attrDrawable:
			item.Drawable, err = p.stringValue(v, tagItem, key)
			item.Drawable = normalizeDrawableRef(item.Drawable)
		case attrDuration:
			item.Duration, err = p.intValue(v, tagItem, key)
		default:
			err = p.fail(k, key, "", fmt.Errorf("%w inside <%s>", ErrUnknownElement, tagItem))
		}
		return err
	})
	if err != nil {
		return Item{}, err
	}
	if item.Drawable == "" {
		return Item{}, p.fail(n, tagItem, attrDrawable, ErrMissingAttribute)
	}
	return item, nil
}

func (p *yamlParser) parseRepeatItem(n *yaml.Node) (Item, error) {
	seq := &Sequence{Duration: Unbounded, RepeatCount: Unbounded}
	err := p.pairs(n, tagRepeatItem, func(key string, k, v *yaml.Node) error {
		var err error
		switch key {
		case attrDuration:
			seq.Duration, err = p.intValue(v, tagRepeatItem, key)
		case attrRepeatCount:
			seq.RepeatCount, err = p.intValue(v, tagRepeatItem, key)
		case keyItems:
			seq.Items, err = p.parseItems(v, tagRepeatItem)
		default:
			err = p.fail(k, key, "", fmt.Errorf("%w inside <%s>", ErrUnknownElement, tagRepeatItem))
		}
		return err
	})
	if err != nil {
		return Item{}, err
	}
	if len(seq.Items) == 0 {
		return Item{}, p.fail(n, tagRepeatItem, "", ErrEmptySequence)
	}
	if !seq.TakesTime() {
		return Item{}, p.fail(n, tagRepeatItem, attrDuration, fmt.Errorf("%w: sequence takes no time", ErrInvalidAttribute))
	}
	return Item{Duration: Unbounded, Repeat: seq}, nil
}

func (p *yamlParser) intValue(v *yaml.Node, element, attribute string) (int, error) {
	var i int
	if v.Kind != yaml.ScalarNode || v.Decode(&i) != nil {
		return 0, p.fail(v, element, attribute, fmt.Errorf("%w: %q is not an integer", ErrInvalidAttribute, v.Value))
	}
	return i, nil
}

func (p *yamlParser) boolValue(v *yaml.Node, element, attribute string) (bool, error) {
	var b bool
	if v.Kind != yaml.ScalarNode || v.Decode(&b) != nil {
		return false, p.fail(v, element, attribute, fmt.Errorf("%w: %q is not a boolean", ErrInvalidAttribute, v.Value))
	}
	return b, nil
}

func (p *yamlParser) stringValue(v *yaml.Node, element, attribute string) (string, error) {
	if v.Kind != yaml.ScalarNode {
		return "", p.fail(v, element, attribute, fmt.Errorf("%w: expected a string", ErrInvalidAttribute))
	}
	return v.Value, nil
}

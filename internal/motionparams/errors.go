package motionparams

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownElement      = errors.New("unknown element")
	ErrMissingAttribute    = errors.New("missing required attribute")
	ErrInvalidAttribute    = errors.New("invalid attribute value")
	ErrUnknownInitialState = errors.New("initial state is not defined")
	ErrEmptySequence       = errors.New("sequence has no frames")
)

// ConfigError reports a definition that cannot be loaded. It names the
// offending element and attribute where known, and wraps one of the Err*
// sentinels or the underlying decoder error.
type ConfigError struct {
	Source    string
	Line      int
	Element   string
	Attribute string
	Err       error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	} else if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Element != "" {
		fmt.Fprintf(&b, "<%s>", e.Element)
		if e.Attribute != "" {
			fmt.Fprintf(&b, " %s", e.Attribute)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func withSource(err error, source string) error {
	var ce *ConfigError
	if errors.As(err, &ce) && ce.Source == "" {
		ce.Source = source
	}
	return err
}

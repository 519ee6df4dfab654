package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
)

// ErrInvalidIntent is wrapped by every validation failure
var ErrInvalidIntent = errors.New("invalid intent")

// Kind names the store operation an intent maps to
type Kind string

const (
	KindRegister      Kind = "register"
	KindUnregister    Kind = "unregister"
	KindUpdateContext Kind = "update_context"
	KindSetModality   Kind = "set_modality"
	KindRefresh       Kind = "refresh"
	KindConfigure     Kind = "configure"
)

// Intent is a request to mutate the store. Which fields are read depends
// on Kind.
type Intent struct {
	Kind       Kind
	Element    attention.Scoreable
	ElementID  string
	Update     attention.ContextUpdate
	Modality   attention.Modality
	Attributes attention.Attributes
}

// Register asks for el to be added
func Register(el attention.Scoreable) Intent {
	return Intent{Kind: KindRegister, Element: el}
}

// Unregister asks for the element with elementID to be removed
func Unregister(elementID string) Intent {
	return Intent{Kind: KindUnregister, ElementID: elementID}
}

// UpdateContext asks for u to be merged into the context
func UpdateContext(u attention.ContextUpdate) Intent {
	return Intent{Kind: KindUpdateContext, Update: u}
}

// SetModality asks for the modality to change
func SetModality(m attention.Modality) Intent {
	return Intent{Kind: KindSetModality, Modality: m}
}

// Refresh asks for a pass with no state change
func Refresh() Intent {
	return Intent{Kind: KindRefresh}
}

// Configure asks for the attributes of widget elementID to be replaced
func Configure(elementID string, attrs attention.Attributes) Intent {
	return Intent{Kind: KindConfigure, ElementID: elementID, Attributes: attrs}
}

// Validate checks that the fields required by Kind are present
func (i Intent) Validate() error {
	switch i.Kind {
	case KindRegister:
		if i.Element == nil {
			return fmt.Errorf("%w: register without element", ErrInvalidIntent)
		}
	case KindUnregister:
		if i.Element == nil && i.ElementID == "" {
			return fmt.Errorf("%w: unregister without element or id", ErrInvalidIntent)
		}
	case KindUpdateContext:
		if i.Update.IsEmpty() {
			return fmt.Errorf("%w: empty context update", ErrInvalidIntent)
		}
	case KindSetModality:
		if strings.TrimSpace(string(i.Modality)) == "" {
			return fmt.Errorf("%w: empty modality", ErrInvalidIntent)
		}
	case KindConfigure:
		if i.ElementID == "" {
			return fmt.Errorf("%w: configure without id", ErrInvalidIntent)
		}
	case KindRefresh:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidIntent, i.Kind)
	}
	return nil
}

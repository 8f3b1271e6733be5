// Package callback maps callback class names to parameter contracts and
// turns callback descriptors into instantiation requests.
//
// Nothing here constructs or runs a callback. A contract only says which
// keyword arguments a class accepts, what literal kinds they take and
// which are required; the training runtime owns the constructors.
package callback

import (
	"fmt"
	"strings"

	"hpresolve/internal/literal"
)

// Param is one accepted keyword argument.
type Param struct {
	Name string `yaml:"name"`
	// Kinds lists the accepted literal kinds; empty accepts any value.
	// Float params also accept integers.
	Kinds    []literal.Kind `yaml:"kinds,omitempty"`
	Required bool           `yaml:"required,omitempty"`
}

// Accepts reports whether v (a kwargs value) fits the param.
func (p Param) Accepts(v any) bool {
	if len(p.Kinds) == 0 {
		return true
	}
	tv, ok := v.(literal.TypedValue)
	if !ok {
		return false
	}
	if tv.IsNull() {
		return !p.Required
	}
	for _, k := range p.Kinds {
		if k == tv.Kind || (k == literal.Float && tv.Kind == literal.Integer) {
			return true
		}
	}
	return false
}

// KindNames renders the accepted kinds for messages.
func (p Param) KindNames() string {
	if len(p.Kinds) == 0 {
		return "any"
	}
	names := make([]string, len(p.Kinds))
	for i, k := range p.Kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}

// Contract is the constructor signature of one callback class.
type Contract struct {
	ClassName     string  `yaml:"class_name"`
	Params        []Param `yaml:"params,omitempty"`
	AcceptsLogger bool    `yaml:"accepts_logger,omitempty"`
}

// Param returns the named param.
func (c *Contract) Param(name string) (Param, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Required returns the names of the required params.
func (c *Contract) Required() []string {
	var out []string
	for _, p := range c.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

func (c *Contract) validate() error {
	if c.ClassName == "" {
		return fmt.Errorf("contract without class_name")
	}
	seen := map[string]bool{}
	for _, p := range c.Params {
		if p.Name == "" {
			return fmt.Errorf("contract %s: param without name", c.ClassName)
		}
		if p.Name == loggerKwarg {
			return fmt.Errorf("contract %s: %q is reserved, use accepts_logger", c.ClassName, loggerKwarg)
		}
		if seen[p.Name] {
			return fmt.Errorf("contract %s: param %q declared twice", c.ClassName, p.Name)
		}
		seen[p.Name] = true
		for _, k := range p.Kinds {
			if !k.Valid() {
				return fmt.Errorf("contract %s: param %q has invalid kind %v", c.ClassName, p.Name, k)
			}
		}
	}
	return nil
}

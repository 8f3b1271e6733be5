package hparams

import (
	"fmt"
	"reflect"
	"strings"

	"hpresolve/internal/diag"
	"hpresolve/internal/document"
	"hpresolve/internal/literal"
)

var (
	typedValueType = reflect.TypeOf(literal.TypedValue{})
	kwargsType     = reflect.TypeOf(Kwargs{})
	anyMapType     = reflect.TypeOf(map[string]any{})
)

// DecodeBuild decodes a merged build section.
func DecodeBuild(n *document.Node) (BuildSpec, diag.List) {
	var spec BuildSpec
	var errs diag.List
	decodeValue(n, reflect.ValueOf(&spec).Elem(), "build", &errs)
	return spec, errs
}

// DecodeFit decodes a merged fit section. An absent, null or "none" scaler
// means "Null" and an absent nickname defaults to the class name.
func DecodeFit(n *document.Node) (FitSpec, diag.List) {
	var spec FitSpec
	var errs diag.List
	decodeValue(n, reflect.ValueOf(&spec).Elem(), "fit", &errs)
	if spec.Scaler == "" || strings.EqualFold(spec.Scaler, "none") {
		spec.Scaler = "Null"
	}
	for i := range spec.Callbacks {
		if spec.Callbacks[i].Nickname == "" {
			spec.Callbacks[i].Nickname = spec.Callbacks[i].ClassName
		}
	}
	return spec, errs
}

// setOrigin records where a CallbackSpec came from.
func (c *CallbackSpec) setOrigin(n *document.Node) {
	c.Source = n.Source()
	a := n.Origin()
	if a == nil {
		return
	}
	c.AnchorID = a.ID
	c.AnchorName = a.Name
	c.Overlay = n.Anchor == nil
}

type originSetter interface {
	setOrigin(*document.Node)
}

func mismatch(n *document.Node, path, want string) diag.Violation {
	found := n.Kind.String()
	if n.Kind == document.ScalarNode {
		found = fmt.Sprintf("%s %q", n.Scalar.Kind, n.Scalar.String())
	}
	return diag.New(diag.TypeMismatch, "expected %s, found %s", want, found).At(path).In(n.Source())
}

func decodeValue(n *document.Node, v reflect.Value, path string, errs *diag.List) {
	if n == nil {
		return
	}
	if n.IsNull() && v.Type() != typedValueType {
		return
	}

	switch {
	case v.Type() == typedValueType:
		if n.Kind != document.ScalarNode {
			errs.Add(mismatch(n, path, "a scalar"))
			return
		}
		v.Set(reflect.ValueOf(n.Scalar))
		return
	case v.Type() == kwargsType || v.Type() == anyMapType:
		if n.Kind != document.MappingNode {
			errs.Add(mismatch(n, path, "a mapping"))
			return
		}
		v.Set(reflect.ValueOf(n.Typed()).Convert(v.Type()))
		return
	}

	switch v.Kind() {
	case reflect.Struct:
		decodeStruct(n, v, path, errs)
	case reflect.Slice:
		if n.Kind != document.SequenceNode {
			errs.Add(mismatch(n, path, "a sequence"))
			return
		}
		s := reflect.MakeSlice(v.Type(), len(n.Items), len(n.Items))
		for i, item := range n.Items {
			decodeValue(item, s.Index(i), fmt.Sprintf("%s[%d]", path, i), errs)
		}
		v.Set(s)
	case reflect.String:
		text, ok := n.Scalar.Textual()
		if n.Kind != document.ScalarNode || !ok {
			errs.Add(mismatch(n, path, "a string"))
			return
		}
		v.SetString(text)
	case reflect.Int, reflect.Int64:
		if n.Kind != document.ScalarNode || n.Scalar.Kind != literal.Integer {
			errs.Add(mismatch(n, path, "an integer"))
			return
		}
		v.SetInt(n.Scalar.Int)
	case reflect.Float64:
		f, ok := n.Scalar.Numeric()
		if n.Kind != document.ScalarNode || !ok {
			errs.Add(mismatch(n, path, "a number"))
			return
		}
		v.SetFloat(f)
	case reflect.Bool:
		if n.Kind != document.ScalarNode || n.Scalar.Kind != literal.Boolean {
			errs.Add(mismatch(n, path, "a boolean"))
			return
		}
		v.SetBool(n.Scalar.Bool)
	case reflect.Interface:
		v.Set(reflect.ValueOf(n.Typed()))
	default:
		errs.Add(diag.New(diag.TypeMismatch, "unsupported field type %s", v.Type()).At(path))
	}
}

func decodeStruct(n *document.Node, v reflect.Value, path string, errs *diag.List) {
	if n.Kind != document.MappingNode {
		errs.Add(mismatch(n, path, "a mapping"))
		return
	}

	fields := map[string]int{}
	inline := -1
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, opts, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		switch {
		case name == "-":
		case name == "" && strings.Contains(opts, "inline"):
			inline = i
		case name != "":
			fields[name] = i
		}
	}

	for _, key := range n.Keys() {
		child, _ := n.Get(key)
		if i, ok := fields[key]; ok {
			decodeValue(child, v.Field(i), path+"."+key, errs)
			continue
		}
		if inline < 0 {
			errs.Add(diag.New(diag.MalformedDocument, "unknown field %q", key).At(path + "." + key).In(child.Source()))
			continue
		}
		extra := v.Field(inline)
		if extra.IsNil() {
			extra.Set(reflect.MakeMap(extra.Type()))
		}
		extra.SetMapIndex(reflect.ValueOf(key), reflect.ValueOf(child.Typed()))
	}

	if s, ok := v.Addr().Interface().(originSetter); ok {
		s.setOrigin(n)
	}
}

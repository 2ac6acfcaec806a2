// Package patch applies JSON Patch (RFC 6902) documents to flat payload structs.
//
// Members are addressed by their json tag names with single-segment JSON
// pointers ("/login"). Failures never panic: every failing operation is
// reported as an *Error, leaves the target untouched, and the remaining
// operations are still applied.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-openapi/jsonpointer"
)

const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
	OpMove    = "move"
	OpCopy    = "copy"
	OpTest    = "test"
)

// Operation is a single entry of a patch document.
type Operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Error describes why one operation could not be applied.
type Error struct {
	Index   int
	Op      string
	Path    string
	Field   string // json name of the addressed member, empty if unresolved
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("operation %d (%s %s): %s", e.Index, e.Op, e.Path, e.Message)
}

var errNotStructPointer = errors.New("patch target must be a non-nil pointer to a struct")

// Apply applies ops in order to target, which must be a pointer to a struct.
func Apply(ops []Operation, target interface{}) []*Error {
	doc, err := structValue(target)
	if err != nil {
		return []*Error{err}
	}
	return run(ops, func(op Operation) *Error { return applyOne(doc, op) })
}

// Check reports the errors Apply would return for ops whatever the current
// values of target are: unsupported operations, unresolvable paths and values
// that do not decode into the addressed member. Test comparisons are not
// evaluated and target is left untouched.
func Check(ops []Operation, target interface{}) []*Error {
	doc, err := structValue(target)
	if err != nil {
		return []*Error{err}
	}
	scratch := reflect.New(doc.Type()).Elem()
	return run(ops, func(op Operation) *Error {
		if op.Op == OpTest {
			return checkTest(scratch, op)
		}
		return applyOne(scratch, op)
	})
}

func structValue(target interface{}) (reflect.Value, *Error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, &Error{Index: -1, Message: errNotStructPointer.Error()}
	}
	return rv.Elem(), nil
}

func run(ops []Operation, apply func(Operation) *Error) []*Error {
	var errs []*Error
	for i, op := range ops {
		if err := apply(op); err != nil {
			err.Index = i
			err.Op = op.Op
			if err.Path == "" {
				err.Path = op.Path
			}
			errs = append(errs, err)
		}
	}
	return errs
}

func checkTest(doc reflect.Value, op Operation) *Error {
	_, name, perr := resolve(doc, op.Path)
	if perr != nil {
		return perr
	}
	if len(op.Value) == 0 {
		return &Error{Field: name, Message: "The 'value' member is required for a test operation."}
	}
	return nil
}

func applyOne(doc reflect.Value, op Operation) *Error {
	switch op.Op {
	case OpAdd, OpReplace:
		field, name, perr := resolve(doc, op.Path)
		if perr != nil {
			return perr
		}
		v, perr := decodeValue(field.Type(), op.Value, name)
		if perr != nil {
			return perr
		}
		field.Set(v)

	case OpRemove:
		field, _, perr := resolve(doc, op.Path)
		if perr != nil {
			return perr
		}
		field.Set(reflect.Zero(field.Type()))

	case OpMove, OpCopy:
		from, _, perr := resolve(doc, op.From)
		if perr != nil {
			perr.Path = op.From
			return perr
		}
		to, name, perr := resolve(doc, op.Path)
		if perr != nil {
			return perr
		}
		if from.Type() != to.Type() {
			return &Error{Field: name, Message: fmt.Sprintf("The value at '%s' cannot be assigned to '%s'.", op.From, op.Path)}
		}
		v := reflect.New(from.Type()).Elem()
		v.Set(from)
		if op.Op == OpMove {
			from.Set(reflect.Zero(from.Type()))
		}
		to.Set(v)

	case OpTest:
		if perr := checkTest(doc, op); perr != nil {
			return perr
		}
		field, name, _ := resolve(doc, op.Path)
		equal, err := jsonEqual(field.Interface(), op.Value)
		if err != nil {
			return &Error{Field: name, Message: fmt.Sprintf("The test value is invalid: %v.", err)}
		}
		if !equal {
			return &Error{Field: name, Message: fmt.Sprintf("The current value at '%s' is not equal to the test value.", op.Path)}
		}

	case "":
		return &Error{Message: "The 'op' member is required."}

	default:
		return &Error{Message: fmt.Sprintf("The operation '%s' is not supported.", op.Op)}
	}
	return nil
}

// resolve finds the struct field addressed by a single-segment JSON pointer.
// Names match json tags case-insensitively.
func resolve(doc reflect.Value, path string) (reflect.Value, string, *Error) {
	ptr, err := jsonpointer.New(path)
	if err != nil {
		return reflect.Value{}, "", &Error{Path: path, Message: fmt.Sprintf("The path '%s' is not a valid JSON pointer.", path)}
	}
	tokens := ptr.DecodedTokens()
	if len(tokens) != 1 {
		return reflect.Value{}, "", &Error{Path: path, Message: fmt.Sprintf("The target location specified by path '%s' was not found.", path)}
	}

	t := doc.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if strings.EqualFold(name, tokens[0]) {
			return doc.Field(i), name, nil
		}
	}
	return reflect.Value{}, "", &Error{Path: path, Message: fmt.Sprintf("The target location specified by path '%s' was not found.", path)}
}

func decodeValue(t reflect.Type, raw json.RawMessage, name string) (reflect.Value, *Error) {
	if len(raw) == 0 {
		return reflect.Value{}, &Error{Field: name, Message: "The 'value' member is required."}
	}
	v := reflect.New(t)
	if string(raw) == "null" {
		return v.Elem(), nil
	}
	if err := json.Unmarshal(raw, v.Interface()); err != nil {
		return reflect.Value{}, &Error{Field: name, Message: fmt.Sprintf("The value '%s' is invalid for target location.", string(raw))}
	}
	return v.Elem(), nil
}

func jsonEqual(current interface{}, raw json.RawMessage) (bool, error) {
	encoded, err := json.Marshal(current)
	if err != nil {
		return false, err
	}
	var a, b interface{}
	if err := json.Unmarshal(encoded, &a); err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, err
	}
	return reflect.DeepEqual(a, b), nil
}

package coretypes

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// Primary types of the core families.
const (
	TypeMetadata  = "metadata"
	TypeLoader    = "loader"
	TypeObject    = "object"
	TypeField     = "field"
	TypeAttr      = "attr"
	TypeValidator = "validator"
	TypeKey       = "key"
	TypeView      = "view"
)

// element holds the identity every core node reports.
type element struct {
	typ     string
	subType string
	name    string
}

func (e element) Type() string    { return e.typ }
func (e element) SubType() string { return e.subType }
func (e element) Name() string    { return e.name }

func (e element) String() string {
	return fmt.Sprintf("%s.%s[%s]", e.typ, e.subType, e.name)
}

func newElement(typ, subType, name string) (element, error) {
	if strings.TrimSpace(name) == "" {
		return element{}, fmt.Errorf("%s.%s: name is required", typ, subType)
	}
	return element{typ: typ, subType: subType, name: name}, nil
}

// MetaData is a metadata.* node, the family every other type descends from.
type MetaData struct{ element }

// Loader is a loader.* node: the root of a metadata tree.
type Loader struct{ element }

// Object models an entity composed of fields, keys, validators and views.
type Object struct{ element }

// Field is a typed member of an object.
type Field struct{ element }

// Attribute is a named value attached to any other node.
type Attribute struct{ element }

// Validator checks a field or object value.
type Validator struct{ element }

// Key groups the fields that identify or reference an object.
type Key struct{ element }

// View describes how a field is rendered.
type View struct{ element }

func newMetaData(typ, subType, name string) (metadata.Node, error) {
	e, err := newElement(typ, subType, name)
	if err != nil {
		return nil, err
	}
	return &MetaData{e}, nil
}

func newLoader(typ, subType, name string) (metadata.Node, error) {
	e, err := newElement(typ, subType, name)
	if err != nil {
		return nil, err
	}
	return &Loader{e}, nil
}

func newObject(subType, name string) (metadata.Node, error) {
	e, err := newElement(TypeObject, subType, name)
	if err != nil {
		return nil, err
	}
	return &Object{e}, nil
}

func newField(subType, name string) (metadata.Node, error) {
	e, err := newElement(TypeField, subType, name)
	if err != nil {
		return nil, err
	}
	return &Field{e}, nil
}

func newAttribute(typ, subType, name string) (metadata.Node, error) {
	e, err := newElement(typ, subType, name)
	if err != nil {
		return nil, err
	}
	return &Attribute{e}, nil
}

func newView(typ, subType, name string) (metadata.Node, error) {
	e, err := newElement(typ, subType, name)
	if err != nil {
		return nil, err
	}
	return &View{e}, nil
}

// Validators and keys are built from the name alone; the subtype is bound
// when the implementation is declared.
func validatorFactory(subType string) metadata.NamedFactory {
	return func(name string) (metadata.Node, error) {
		e, err := newElement(TypeValidator, subType, name)
		if err != nil {
			return nil, err
		}
		return &Validator{e}, nil
	}
}

func keyFactory(subType string) metadata.NamedFactory {
	return func(name string) (metadata.Node, error) {
		e, err := newElement(TypeKey, subType, name)
		if err != nil {
			return nil, err
		}
		return &Key{e}, nil
	}
}

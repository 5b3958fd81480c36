package coretypes

import (
	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// Provider names, usable as dependencies by other providers.
const (
	ProviderCore       = "core-types"
	ProviderAttributes = "attribute-types"
	ProviderFields     = "field-types"
	ProviderObjects    = "object-types"
	ProviderValidators = "validator-types"
	ProviderKeys       = "key-types"
	ProviderViews      = "view-types"
)

func init() {
	for _, p := range Providers() {
		metadata.RegisterProvider(p)
	}
}

// Providers returns the core providers in declaration order.
func Providers() []metadata.Provider {
	return []metadata.Provider{
		metadata.NewDescribedProvider(ProviderCore,
			"metadata.base and loader types (root of every hierarchy)",
			1000, nil, registerCore),
		metadata.NewDescribedProvider(ProviderFields,
			"field.base and 13 concrete field types",
			800, []string{ProviderCore}, registerFields),
		metadata.NewDescribedProvider(ProviderAttributes,
			"attr.base and 8 concrete attribute types",
			750, []string{ProviderCore}, registerAttributes),
		metadata.NewDescribedProvider(ProviderObjects,
			"object.base and map, pojo, proxy objects",
			600, []string{ProviderCore, ProviderFields}, registerObjects),
		metadata.NewDescribedProvider(ProviderValidators,
			"validator.base, 5 concrete validators and the numeric range constraint",
			500, []string{ProviderCore}, registerValidators),
		metadata.NewDescribedProvider(ProviderKeys,
			"key.base and primary, foreign, secondary keys",
			500, []string{ProviderCore, ProviderObjects}, registerKeys),
		metadata.NewDescribedProvider(ProviderViews,
			"view.base and text view",
			400, []string{ProviderCore}, registerViews),
	}
}

// Strategy returns a discovery strategy over the core providers, for
// registries that do not use the self-registered set.
func Strategy() metadata.DiscoveryStrategy {
	return metadata.NewStaticStrategy(Providers()...)
}

func registerCore(r *metadata.Registry) error {
	if err := r.RegisterType(metadata.NewImplementation("metadata.MetaData", newMetaData), func(b *metadata.TypeDefinitionBuilder) {
		b.Type(TypeMetadata).SubType(metadata.BaseSubType).
			Description("Root metadata type shared by every family").
			AcceptsAttributes(metadata.Wildcard)
	}); err != nil {
		return err
	}
	if err := r.RegisterType(metadata.NewImplementation("loader.MetaDataLoader", newLoader), func(b *metadata.TypeDefinitionBuilder) {
		b.Type(TypeLoader).SubType(metadata.BaseSubType).
			Description("Base loader holding a tree of metadata").
			InheritsFrom(TypeMetadata, metadata.BaseSubType).
			AcceptsChildren(TypeObject, metadata.Wildcard).
			AcceptsChildren(TypeField, metadata.Wildcard).
			AcceptsChildren(TypeValidator, metadata.Wildcard).
			AcceptsChildren(TypeView, metadata.Wildcard)
	}); err != nil {
		return err
	}
	return r.RegisterType(metadata.NewImplementation("loader.SimpleLoader", newLoader), func(b *metadata.TypeDefinitionBuilder) {
		b.Type(TypeLoader).SubType("simple").
			Description("In-memory loader").
			InheritsFrom(TypeLoader, metadata.BaseSubType)
	})
}

type fieldSpec struct {
	subType     string
	impl        string
	description string
	intAttrs    []string
	stringAttrs []string
}

var fieldSpecs = []fieldSpec{
	{"string", "StringField", "String field with length and pattern validation",
		[]string{"maxLength", "minLength"}, []string{"pattern"}},
	{"int", "IntegerField", "Integer field with range validation", []string{"minValue", "maxValue"}, nil},
	{"long", "LongField", "Long field with range validation", []string{"minValue", "maxValue"}, nil},
	{"short", "ShortField", "Short field with range validation", []string{"minValue", "maxValue"}, nil},
	{"byte", "ByteField", "Byte field with range validation", []string{"minValue", "maxValue"}, nil},
	{"double", "DoubleField", "Double field with range and precision validation",
		[]string{"minValue", "maxValue", "precision"}, nil},
	{"float", "FloatField", "Float field with range and precision validation",
		[]string{"minValue", "maxValue", "precision"}, nil},
	{"boolean", "BooleanField", "Boolean field for true/false values", nil, nil},
	{"date", "DateField", "Date field with format support", nil, []string{"format", "dateFormat"}},
	{"class", "ClassField", "Class field for type references", nil, nil},
	{"object", "ObjectField", "Object field for complex object references", nil, []string{"objectRef"}},
	{"objectarray", "ObjectArrayField", "Object array field for collections of complex objects", nil, []string{"objectRef"}},
	{"stringarray", "StringArrayField", "String array field for collections of strings", nil, nil},
}

func registerFields(r *metadata.Registry) error {
	err := r.RegisterType(metadata.Implementation{Name: "field.MetaField", NewSubTyped: newField}, func(b *metadata.TypeDefinitionBuilder) {
		b.Type(TypeField).SubType(metadata.BaseSubType).
			Description("Base field metadata with common field attributes").
			InheritsFrom(TypeMetadata, metadata.BaseSubType).
			AcceptsParents(TypeMetadata, metadata.BaseSubType).
			AcceptsParents(TypeLoader, metadata.Wildcard).
			AcceptsParents(TypeObject, metadata.Wildcard).
			AcceptsNamedAttributes("boolean", "required").
			AcceptsNamedAttributes("string", "defaultValue").
			AcceptsNamedAttributes("string", "defaultView").
			AcceptsNamedAttributes("boolean", "isOptional").
			AcceptsNamedAttributes("boolean", "isReadOnly").
			AcceptsAttributes(metadata.Wildcard).
			AcceptsChildren(TypeValidator, metadata.Wildcard).
			AcceptsChildren(TypeView, metadata.Wildcard)
	})
	if err != nil {
		return err
	}

	for _, spec := range fieldSpecs {
		err := r.RegisterType(metadata.Implementation{Name: "field." + spec.impl, NewSubTyped: newField}, func(b *metadata.TypeDefinitionBuilder) {
			b.Type(TypeField).SubType(spec.subType).
				Description(spec.description).
				InheritsFromBaseField()
			for _, name := range spec.intAttrs {
				b.AcceptsNamedAttributes("int", name)
			}
			for _, name := range spec.stringAttrs {
				b.AcceptsNamedAttributes("string", name)
			}
			// any string attribute, for schema generation
			b.AcceptsAttributes("string")
		})
		if err != nil {
			return err
		}
	}
	return nil
}

var attributeSubTypes = []struct{ subType, impl string }{
	{"string", "StringAttribute"},
	{"int", "IntAttribute"},
	{"long", "LongAttribute"},
	{"double", "DoubleAttribute"},
	{"boolean", "BooleanAttribute"},
	{"class", "ClassAttribute"},
	{"properties", "PropertiesAttribute"},
	{"stringarray", "StringArrayAttribute"},
}

func registerAttributes(r *metadata.Registry) error {
	err := r.RegisterType(metadata.NewImplementation("attr.MetaAttribute", newAttribute), func(b *metadata.TypeDefinitionBuilder) {
		b.Type(TypeAttr).SubType(metadata.BaseSubType).
			Description("Base attribute metadata").
			InheritsFrom(TypeMetadata, metadata.BaseSubType).
			AcceptsParents(TypeMetadata, metadata.Wildcard).
			AcceptsParents(TypeField, metadata.Wildcard).
			AcceptsParents(TypeObject, metadata.Wildcard).
			AcceptsParents(TypeKey, metadata.Wildcard).
			AcceptsParents(TypeValidator, metadata.Wildcard).
			AcceptsParents(TypeView, metadata.Wildcard)
	})
	if err != nil {
		return err
	}
	for _, a := range attributeSubTypes {
		err := r.RegisterType(metadata.NewImplementation("attr."+a.impl, newAttribute), func(b *metadata.TypeDefinitionBuilder) {
			b.Type(TypeAttr).SubType(a.subType).
				Description(a.subType + " attribute value").
				InheritsFrom(TypeAttr, metadata.BaseSubType)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func registerObjects(r *metadata.Registry) error {
	err := r.RegisterType(metadata.Implementation{Name: "object.MetaObject", NewSubTyped: newObject}, func(b *metadata.TypeDefinitionBuilder) {
		b.Type(TypeObject).SubType(metadata.BaseSubType).
			Description("Base object metadata with common object attributes").
			InheritsFrom(TypeMetadata, metadata.BaseSubType).
			AcceptsParents(TypeMetadata, metadata.BaseSubType).
			AcceptsParents(TypeLoader, metadata.Wildcard).
			AcceptsNamedAttributes("string", "extends").
			AcceptsNamedAttributes("string", "implements").
			AcceptsNamedAttributes("boolean", "isInterface").
			AcceptsNamedAttributes("string", "description").
			AcceptsNamedAttributes("string", "objectRef").
			AcceptsChildren(TypeField, metadata.Wildcard).
			AcceptsChildren(TypeObject, metadata.Wildcard).
			AcceptsChildren(TypeKey, metadata.Wildcard).
			AcceptsChildren(TypeValidator, metadata.Wildcard).
			AcceptsChildren(TypeView, metadata.Wildcard)
	})
	if err != nil {
		return err
	}

	objects := []struct {
		subType, impl, description string
		stringAttrs                []string
	}{
		{"map", "MappedMetaObject", "Map-based object with key-value field access", nil},
		{"pojo", "PojoMetaObject", "Plain object with reflective field access", []string{"className", "packageName"}},
		{"proxy", "ProxyMetaObject", "Proxy object with dynamic field access", []string{"object", "proxyObject", "interfaceName"}},
	}
	for _, o := range objects {
		err := r.RegisterType(metadata.Implementation{Name: "object." + o.impl, NewSubTyped: newObject}, func(b *metadata.TypeDefinitionBuilder) {
			b.Type(TypeObject).SubType(o.subType).
				Description(o.description).
				InheritsFromBaseObject().
				AcceptsParents(TypeLoader, metadata.Wildcard)
			for _, name := range o.stringAttrs {
				b.AcceptsNamedAttributes("string", name)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func registerValidators(r *metadata.Registry) error {
	err := r.RegisterType(metadata.Implementation{Name: "validator.MetaValidator", NewNamed: validatorFactory(metadata.BaseSubType)},
		func(b *metadata.TypeDefinitionBuilder) {
			b.Type(TypeValidator).SubType(metadata.BaseSubType).
				Description("Base validator metadata").
				InheritsFrom(TypeMetadata, metadata.BaseSubType).
				AcceptsParents(TypeField, metadata.Wildcard).
				AcceptsParents(TypeMetadata, metadata.BaseSubType).
				AcceptsAttributes(metadata.Wildcard)
		})
	if err != nil {
		return err
	}

	validators := []struct{ subType, impl, description string }{
		{"required", "RequiredValidator", "Rejects missing values"},
		{"regex", "RegexValidator", "Matches values against a pattern"},
		{"numeric", "NumericValidator", "Checks numeric ranges"},
		{"length", "LengthValidator", "Checks value length"},
		{"array", "ArrayValidator", "Checks array sizes"},
	}
	for _, v := range validators {
		err := r.RegisterType(metadata.Implementation{Name: "validator." + v.impl, NewNamed: validatorFactory(v.subType)},
			func(b *metadata.TypeDefinitionBuilder) {
				b.Type(TypeValidator).SubType(v.subType).
					Description(v.description).
					InheritsFrom(TypeValidator, metadata.BaseSubType)
			})
		if err != nil {
			return err
		}
	}

	r.AddPlacementConstraint(NumericRangeConstraint())
	return nil
}

func registerKeys(r *metadata.Registry) error {
	err := r.RegisterType(metadata.Implementation{Name: "key.MetaKey", NewNamed: keyFactory(metadata.BaseSubType)},
		func(b *metadata.TypeDefinitionBuilder) {
			b.Type(TypeKey).SubType(metadata.BaseSubType).
				Description("Base key metadata").
				InheritsFrom(TypeMetadata, metadata.BaseSubType).
				AcceptsParents(TypeObject, metadata.Wildcard).
				AcceptsParents(TypeMetadata, metadata.Wildcard).
				AcceptsAttributes(metadata.Wildcard).
				AcceptsNamedAttributes("stringarray", "keys")
		})
	if err != nil {
		return err
	}

	keys := []struct {
		subType, impl string
		stringAttrs   []string
	}{
		{"primary", "PrimaryKey", nil},
		{"foreign", "ForeignKey", []string{"foreignObjectRef", "foreignKey"}},
		{"secondary", "SecondaryKey", nil},
	}
	for _, k := range keys {
		err := r.RegisterType(metadata.Implementation{Name: "key." + k.impl, NewNamed: keyFactory(k.subType)},
			func(b *metadata.TypeDefinitionBuilder) {
				b.Type(TypeKey).SubType(k.subType).
					Description(k.subType + " key").
					InheritsFrom(TypeKey, metadata.BaseSubType)
				for _, name := range k.stringAttrs {
					b.AcceptsNamedAttributes("string", name)
				}
			})
		if err != nil {
			return err
		}
	}
	return nil
}

func registerViews(r *metadata.Registry) error {
	if err := r.RegisterType(metadata.NewImplementation("view.MetaView", newView), func(b *metadata.TypeDefinitionBuilder) {
		b.Type(TypeView).SubType(metadata.BaseSubType).
			Description("Base view metadata").
			InheritsFrom(TypeMetadata, metadata.BaseSubType).
			AcceptsParents(TypeField, metadata.Wildcard).
			AcceptsParents(TypeObject, metadata.Wildcard).
			AcceptsParents(TypeMetadata, metadata.BaseSubType).
			AcceptsAttributes(metadata.Wildcard)
	}); err != nil {
		return err
	}
	return r.RegisterType(metadata.NewImplementation("view.TextView", newView), func(b *metadata.TypeDefinitionBuilder) {
		b.Type(TypeView).SubType("text").
			Description("Single-line text input").
			InheritsFrom(TypeView, metadata.BaseSubType).
			AcceptsNamedAttributes("string", "label").
			AcceptsNamedAttributes("int", "size")
	})
}

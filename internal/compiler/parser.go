package compiler

import (
	"fmt"
	"slices"

	"github.com/aretw0/strata/internal/dto"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// Parser converts between decoded documents and layers.
type Parser struct {
	strict bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithStrict rejects document keys that do not map onto the layer model.
func WithStrict(strict bool) ParserOption {
	return func(p *Parser) {
		p.strict = strict
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decode maps generic decoder output onto the layer document and builds it.
func (p *Parser) Decode(identifier string, raw map[string]any) (*layer.Layer, error) {
	var doc dto.LayerDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: p.strict,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode layer %s: %w", identifier, err)
	}
	return p.Build(identifier, &doc)
}

// Build validates a document and turns it into a layer.
// All problems found are reported together as a schema.AggregateError.
func (p *Parser) Build(identifier string, doc *dto.LayerDocument) (*layer.Layer, error) {
	keys := make([]string, 0, len(doc.Prims))
	for key := range doc.Prims {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var errs []error
	specs := make([]*domain.PrimSpec, 0, len(keys))
	for _, key := range keys {
		spec, primErrs := buildPrim(key, doc.Prims[key])
		errs = append(errs, primErrs...)
		if spec != nil {
			specs = append(specs, spec)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid layer %s: %w", identifier, &schema.AggregateError{Errors: errs})
	}

	return layer.New(identifier,
		layer.WithDefaultTarget(doc.DefaultTarget),
		layer.WithPrims(specs...),
	), nil
}

func buildPrim(key string, pd dto.PrimDocument) (*domain.PrimSpec, []error) {
	path, err := domain.ParsePath(key)
	if err != nil || path.IsRoot() {
		return nil, []error{&schema.ValidationError{Key: key, Reason: "invalid prim path"}}
	}

	specifier := domain.Specifier(pd.Specifier)
	if specifier == "" {
		specifier = domain.SpecifierDef
	}
	var errs []error
	if !specifier.IsValid() {
		errs = append(errs, &schema.ValidationError{Key: key, Reason: "unknown specifier", Value: pd.Specifier})
	}

	spec := domain.NewPrimSpec(path, specifier)
	spec.TypeName = pd.Type

	for i, rd := range pd.References {
		ref := domain.Reference{
			Identifier: rd.Identifier,
			TargetPath: domain.Path(rd.TargetPath),
		}
		if rd.TimeTransform != nil {
			tt := domain.TimeTransform{Scale: 1, Offset: rd.TimeTransform.Offset}
			if rd.TimeTransform.Scale != nil {
				tt.Scale = *rd.TimeTransform.Scale
			}
			ref.Transform = &tt
		}
		if err := ref.Validate(); err != nil {
			errs = append(errs, &schema.ValidationError{
				Key:    fmt.Sprintf("%s.references[%d]", key, i),
				Reason: err.Error(),
			})
			continue
		}
		spec.References = append(spec.References, ref)
	}

	for name, ad := range pd.Attributes {
		attr := domain.AttributeSpec{Name: name, TypeName: ad.Type}
		if ad.Default != nil {
			v, err := schema.Coerce(ad.Type, ad.Default)
			if err != nil {
				errs = append(errs, &schema.ValidationError{
					Key:    fmt.Sprintf("%s.%s", key, name),
					Reason: err.Error(),
					Value:  ad.Default,
				})
				continue
			}
			attr.Default = &v
		}
		spec.Attributes[name] = attr
	}
	if err := schema.ValidateAttributes(path, spec.Attributes); err != nil {
		errs = append(errs, schema.ValidationErrors(err)...)
	}

	return spec, errs
}

// Flatten converts a layer's current contents into a document.
func (p *Parser) Flatten(l *layer.Layer) (*dto.LayerDocument, error) {
	defaultTarget, specs := l.Snapshot()
	doc := &dto.LayerDocument{DefaultTarget: defaultTarget}
	if len(specs) == 0 {
		return doc, nil
	}

	doc.Prims = make(map[string]dto.PrimDocument, len(specs))
	for path, spec := range specs {
		pd := dto.PrimDocument{
			Specifier: string(spec.Specifier),
			Type:      spec.TypeName,
		}
		for _, ref := range spec.References {
			rd := dto.ReferenceDocument{
				Identifier: ref.Identifier,
				TargetPath: string(ref.TargetPath),
			}
			if ref.Transform != nil {
				scale := ref.Transform.Scale
				rd.TimeTransform = &dto.TransformDocument{Scale: &scale, Offset: ref.Transform.Offset}
			}
			pd.References = append(pd.References, rd)
		}
		if len(spec.Attributes) > 0 {
			pd.Attributes = make(map[string]dto.AttributeDocument, len(spec.Attributes))
			for name, attr := range spec.Attributes {
				ad := dto.AttributeDocument{Type: attr.TypeName}
				if attr.HasDefault() {
					raw, err := schema.Encode(*attr.Default)
					if err != nil {
						return nil, fmt.Errorf("attribute %s.%s: %w", path, name, err)
					}
					ad.Default = raw
				}
				pd.Attributes[name] = ad
			}
		}
		doc.Prims[string(path)] = pd
	}
	return doc, nil
}

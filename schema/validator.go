package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Option configures a Validator.
type Option func(*Validator)

// WithFailFast stops validation at the first failing field instead of
// collecting every failure.
func WithFailFast() Option {
	return func(v *Validator) {
		v.failFast = true
	}
}

// Validator checks raw front-matter records against the post schema. It holds
// no per-call state and is safe for concurrent use.
type Validator struct {
	resolver ImageResolver
	failFast bool
	check    *validator.Validate
}

// New returns a Validator that resolves image fields through resolver.
// A nil resolver rejects every image reference.
func New(resolver ImageResolver, opts ...Option) *Validator {
	v := &Validator{
		resolver: resolver,
		check:    validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// WithResolver returns a copy of v that resolves images through r. The copy
// shares the underlying checks, so it is cheap to create per content file.
func (v *Validator) WithResolver(r ImageResolver) *Validator {
	c := *v
	c.resolver = r
	return &c
}

type fieldRule struct {
	name     string
	required bool
	apply    func(ctx context.Context, v *Validator, raw Value, out *PostFrontMatter) []*FieldError
}

var postRules = []fieldRule{
	{name: FieldTitle, required: true, apply: func(_ context.Context, v *Validator, raw Value, out *PostFrontMatter) []*FieldError {
		s, err := v.text(FieldTitle, raw)
		if err != nil {
			return []*FieldError{err}
		}
		out.Title = s
		return nil
	}},
	{name: FieldDescription, required: true, apply: func(_ context.Context, v *Validator, raw Value, out *PostFrontMatter) []*FieldError {
		s, err := v.text(FieldDescription, raw)
		if err != nil {
			return []*FieldError{err}
		}
		out.Description = s
		return nil
	}},
	{name: FieldPubDate, required: true, apply: func(_ context.Context, _ *Validator, raw Value, out *PostFrontMatter) []*FieldError {
		t, err := date(FieldPubDate, raw)
		if err != nil {
			return []*FieldError{err}
		}
		out.PubDate = t
		return nil
	}},
	{name: FieldUpdatedDate, apply: func(_ context.Context, _ *Validator, raw Value, out *PostFrontMatter) []*FieldError {
		t, err := date(FieldUpdatedDate, raw)
		if err != nil {
			return []*FieldError{err}
		}
		out.UpdatedDate = Some(t)
		return nil
	}},
	{name: FieldHeroImage, apply: func(ctx context.Context, v *Validator, raw Value, out *PostFrontMatter) []*FieldError {
		ref, err := v.image(ctx, FieldHeroImage, raw)
		if err != nil {
			return []*FieldError{err}
		}
		out.HeroImage = Some(ref)
		return nil
	}},
	{name: FieldSocialImage, apply: func(ctx context.Context, v *Validator, raw Value, out *PostFrontMatter) []*FieldError {
		ref, err := v.image(ctx, FieldSocialImage, raw)
		if err != nil {
			return []*FieldError{err}
		}
		out.SocialImage = Some(ref)
		return nil
	}},
	{name: FieldTags, required: true, apply: func(_ context.Context, v *Validator, raw Value, out *PostFrontMatter) []*FieldError {
		tags, errs := v.tags(raw)
		if len(errs) > 0 {
			return errs
		}
		out.Tags = tags
		return nil
	}},
}

// Validate checks raw and returns the typed front-matter. On failure the
// error is a ValidationErrors listing each rejected field.
func (v *Validator) Validate(ctx context.Context, raw Record) (PostFrontMatter, error) {
	var (
		out  PostFrontMatter
		errs ValidationErrors
	)
	for _, rule := range postRules {
		val, ok := raw[rule.name]
		if !ok {
			if rule.required {
				errs = append(errs, &FieldError{
					Field:  rule.name,
					Kind:   MissingField,
					Index:  -1,
					Reason: "required field is missing",
				})
			}
		} else {
			errs = append(errs, rule.apply(ctx, v, val, &out)...)
		}
		if v.failFast && len(errs) > 0 {
			break
		}
	}
	if len(errs) > 0 {
		if v.failFast {
			errs = errs[:1]
		}
		return PostFrontMatter{}, errs
	}
	return out, nil
}

func (v *Validator) text(field string, raw Value) (string, *FieldError) {
	s, ok := raw.Str()
	if !ok {
		return "", wrongType(field, "string", raw)
	}
	if err := v.check.Var(s, "required"); err != nil {
		return "", &FieldError{Field: field, Kind: WrongType, Index: -1, Reason: "must not be empty", Err: err}
	}
	return s, nil
}

func date(field string, raw Value) (time.Time, *FieldError) {
	t, err := CoerceDate(raw)
	if err != nil {
		return time.Time{}, &FieldError{
			Field:  field,
			Kind:   UncoercibleDate,
			Index:  -1,
			Reason: fmt.Sprintf("cannot interpret %s as a date", raw),
			Err:    err,
		}
	}
	return t, nil
}

func (v *Validator) image(ctx context.Context, field string, raw Value) (AssetRef, *FieldError) {
	path, ok := raw.Str()
	if !ok {
		return AssetRef{}, wrongType(field, "string", raw)
	}
	if v.resolver == nil {
		return AssetRef{}, &FieldError{
			Field:  field,
			Kind:   UnresolvableImage,
			Index:  -1,
			Reason: fmt.Sprintf("cannot resolve image %q: no image resolver configured", path),
			Err:    ErrImageNotFound,
		}
	}
	ref, err := v.resolver.ResolveImage(ctx, path)
	if err != nil {
		reason := fmt.Sprintf("cannot resolve image %q", path)
		if !errors.Is(err, ErrImageNotFound) {
			reason += ": " + err.Error()
		}
		return AssetRef{}, &FieldError{Field: field, Kind: UnresolvableImage, Index: -1, Reason: reason, Err: err}
	}
	return ref, nil
}

func (v *Validator) tags(raw Value) ([]string, []*FieldError) {
	items, ok := raw.Items()
	if !ok {
		return nil, []*FieldError{wrongType(FieldTags, "array", raw)}
	}
	tags := make([]string, 0, len(items))
	var errs []*FieldError
	for i, item := range items {
		s, ok := item.Str()
		if !ok {
			errs = append(errs, &FieldError{
				Field:  FieldTags,
				Kind:   InvalidArrayElement,
				Index:  i,
				Reason: fmt.Sprintf("expected string, got %s", item.Kind()),
			})
		} else if err := v.check.Var(s, "required"); err != nil {
			errs = append(errs, &FieldError{
				Field:  FieldTags,
				Kind:   InvalidArrayElement,
				Index:  i,
				Reason: "must not be empty",
				Err:    err,
			})
		}
		if v.failFast && len(errs) > 0 {
			return nil, errs
		}
		tags = append(tags, s)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return tags, nil
}

func wrongType(field, want string, got Value) *FieldError {
	return &FieldError{
		Field:  field,
		Kind:   WrongType,
		Index:  -1,
		Reason: fmt.Sprintf("expected %s, got %s", want, got.Kind()),
	}
}

package metadata

import "sort"

// Annotatable is implemented by every metadata element that carries
// provider-specific annotations.
type Annotatable interface {
	Annotation(name string) (any, bool)
	SetAnnotation(name string, value any)
	RemoveAnnotation(name string)
	AnnotationNames() []string
}

// Annotations is a name to value mapping owned by a single element.
// The zero value is ready to use. Setting a nil value removes the entry.
type Annotations struct {
	values map[string]any
}

var _ Annotatable = (*Annotations)(nil)

// Annotation returns the value stored under name.
func (a *Annotations) Annotation(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// SetAnnotation stores value under name. A nil value removes the annotation.
func (a *Annotations) SetAnnotation(name string, value any) {
	if value == nil {
		a.RemoveAnnotation(name)
		return
	}
	if a.values == nil {
		a.values = make(map[string]any)
	}
	a.values[name] = value
}

// RemoveAnnotation deletes the annotation stored under name.
func (a *Annotations) RemoveAnnotation(name string) {
	delete(a.values, name)
}

// AnnotationNames returns all annotation names in ordinal order.
func (a *Annotations) AnnotationNames() []string {
	names := make([]string, 0, len(a.values))
	for name := range a.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StringAnnotation returns the annotation as a string, or "" when absent
// or of another type.
func (a *Annotations) StringAnnotation(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// BoolAnnotation returns the annotation as a bool, or false when absent.
func (a *Annotations) BoolAnnotation(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

// MarshalYAML renders the annotations as a plain mapping.
func (a Annotations) MarshalYAML() (any, error) {
	if len(a.values) == 0 {
		return nil, nil
	}
	return a.values, nil
}

// IsZero reports whether no annotation is set.
func (a Annotations) IsZero() bool {
	return len(a.values) == 0
}

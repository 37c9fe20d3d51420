package domain

import "strings"

// MetaObject identifies the business object an action operates on.
type MetaObject struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Alias     string `json:"alias" yaml:"alias"`
}

// ParseObject splits a namespaced alias ("my.app.ORDER") into a MetaObject.
// The last dot separates the namespace from the alias.
func ParseObject(aliasWithNamespace string) MetaObject {
	idx := strings.LastIndex(aliasWithNamespace, ".")
	if idx < 0 {
		return MetaObject{Alias: aliasWithNamespace}
	}
	return MetaObject{
		Namespace: aliasWithNamespace[:idx],
		Alias:     aliasWithNamespace[idx+1:],
	}
}

// AliasWithNamespace returns the fully qualified alias of the object.
func (o MetaObject) AliasWithNamespace() string {
	if o.Namespace == "" {
		return o.Alias
	}
	return o.Namespace + "." + o.Alias
}

// IsExactly reports whether both references point to the same object.
func (o MetaObject) IsExactly(other MetaObject) bool {
	return strings.EqualFold(o.AliasWithNamespace(), other.AliasWithNamespace())
}

// IsZero reports whether the reference is empty.
func (o MetaObject) IsZero() bool {
	return o.Alias == ""
}

func (o MetaObject) String() string {
	return o.AliasWithNamespace()
}

// Surface references the UI element (button, menu entry, ...) that triggered an action.
// Actions bound to the same surface share its permission context.
type Surface struct {
	ID   string `json:"id" yaml:"id"`
	Page string `json:"page,omitempty" yaml:"page,omitempty"`
}

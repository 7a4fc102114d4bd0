package entity

// Kind tells how a top-level resource behaves for routing purposes.
type Kind string

const (
	KindCollection Kind = "COLLECTION" // ordered sequence of item objects
	KindSingular   Kind = "SINGULAR"   // single value, usually an object
	KindMissing    Kind = "MISSING"    // name not present in the store
)

// ResourceView is the classified shape of a top-level store entry.
//
// Every route handler consumes this one tagged variant instead of doing
// ad hoc shape checks. Items is populated only for collections, Value only
// for singular resources.
type ResourceView struct {
	Kind  Kind
	Items []map[string]any
	Value any
	Raw   any
}

// Classify derives the ResourceView for a raw store value.
//
// A resource is a collection iff its value is an ordered sequence; any other
// value (object, scalar, null) makes it singular. present=false means the
// name is absent from the store entirely.
func Classify(value any, present bool) ResourceView {
	if !present {
		return ResourceView{Kind: KindMissing}
	}

	switch seq := value.(type) {
	case []any:
		items := make([]map[string]any, 0, len(seq))
		for _, el := range seq {
			if doc, ok := el.(map[string]any); ok {
				items = append(items, doc)
			}
		}
		return ResourceView{Kind: KindCollection, Items: items, Raw: value}
	case []map[string]any:
		return ResourceView{Kind: KindCollection, Items: seq, Raw: value}
	default:
		return ResourceView{Kind: KindSingular, Value: value, Raw: value}
	}
}

// IsObject reports whether a singular view currently holds a JSON object.
func (v ResourceView) IsObject() bool {
	_, ok := v.Value.(map[string]any)
	return v.Kind == KindSingular && ok
}

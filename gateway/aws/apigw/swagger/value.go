package swagger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//Kind represents document value kind
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Sequence
	Mapping
)

var kindNames = []string{"null", "bool", "number", "string", "sequence", "mapping"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

type (
	//Value represents an immutable node of a parsed JSON/YAML document.
	//All accessors are nil safe, a nil *Value behaves as an absent node.
	Value struct {
		kind   Kind
		scalar string
		items  []*Value
		pairs  []Pair
		index  map[string]int
	}

	//Pair represents mapping entry
	Pair struct {
		Key   string
		Value *Value
	}
)

//Kind returns value kind, Null for nil value
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

func (v *Value) IsNull() bool {
	return v.Kind() == Null
}

func (v *Value) IsMapping() bool {
	return v.Kind() == Mapping
}

func (v *Value) IsSequence() bool {
	return v.Kind() == Sequence
}

//Lookup returns mapping value for the key
func (v *Value) Lookup(key string) (*Value, bool) {
	if !v.IsMapping() {
		return nil, false
	}
	i, ok := v.index[key]
	if !ok {
		return nil, false
	}
	return v.pairs[i].Value, true
}

//Get returns mapping value for the key or nil
func (v *Value) Get(key string) *Value {
	ret, _ := v.Lookup(key)
	return ret
}

//Path returns nested mapping value or nil
func (v *Value) Path(keys ...string) *Value {
	ret := v
	for _, key := range keys {
		if ret = ret.Get(key); ret == nil {
			return nil
		}
	}
	return ret
}

//AsString returns string value, ok is false for non string kind
func (v *Value) AsString() (string, bool) {
	if v.Kind() != String {
		return "", false
	}
	return v.scalar, true
}

//Text returns scalar text representation, empty for null and collections
func (v *Value) Text() string {
	switch v.Kind() {
	case Bool, Number, String:
		return v.scalar
	}
	return ""
}

//Items returns sequence items
func (v *Value) Items() []*Value {
	if !v.IsSequence() {
		return nil
	}
	return v.items
}

//Pairs returns mapping entries in document order
func (v *Value) Pairs() []Pair {
	if !v.IsMapping() {
		return nil
	}
	return v.pairs
}

//Len returns number of items or entries
func (v *Value) Len() int {
	switch v.Kind() {
	case Sequence:
		return len(v.items)
	case Mapping:
		return len(v.pairs)
	}
	return 0
}

//Truthy returns false for null, false, zero, empty string and empty collections
func (v *Value) Truthy() bool {
	switch v.Kind() {
	case Bool:
		ret, _ := strconv.ParseBool(strings.ToLower(v.scalar))
		return ret
	case Number:
		f, err := strconv.ParseFloat(strings.ReplaceAll(v.scalar, "_", ""), 64)
		return err != nil || f != 0
	case String:
		return v.scalar != ""
	case Sequence, Mapping:
		return v.Len() > 0
	}
	return false
}

//Interface returns plain go representation (map[string]interface{}, []interface{}, string, int, float64, bool or nil)
func (v *Value) Interface() interface{} {
	switch v.Kind() {
	case Bool:
		ret, _ := strconv.ParseBool(strings.ToLower(v.scalar))
		return ret
	case Number:
		if i, err := strconv.Atoi(v.scalar); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(v.scalar, 64)
		return f
	case String:
		return v.scalar
	case Sequence:
		ret := make([]interface{}, 0, len(v.items))
		for _, item := range v.items {
			ret = append(ret, item.Interface())
		}
		return ret
	case Mapping:
		ret := make(map[string]interface{}, len(v.pairs))
		for _, pair := range v.pairs {
			ret[pair.Key] = pair.Value.Interface()
		}
		return ret
	}
	return nil
}

func (v *Value) put(key string, value *Value) {
	if i, ok := v.index[key]; ok {
		v.pairs[i].Value = value
		return
	}
	v.index[key] = len(v.pairs)
	v.pairs = append(v.pairs, Pair{Key: key, Value: value})
}

func newMapping() *Value {
	return &Value{kind: Mapping, index: map[string]int{}}
}

//Decode decodes JSON or YAML document
func Decode(data []byte) (*Value, error) {
	node := &yaml.Node{}
	if err := yaml.Unmarshal(data, node); err != nil {
		return nil, errors.Wrap(err, "failed to decode document")
	}
	return NewValue(node)
}

//ValueOf converts go value to document value, map keys are sorted
func ValueOf(source interface{}) (*Value, error) {
	node := &yaml.Node{}
	if err := node.Encode(source); err != nil {
		return nil, errors.Wrapf(err, "failed to encode %T", source)
	}
	return NewValue(node)
}

//NewValue creates a value from yaml node, CloudFormation short form tags are expanded.
//Anchored nodes are converted once and shared by every alias.
func NewValue(node *yaml.Node) (*Value, error) {
	builder := &valueBuilder{anchors: map[*yaml.Node]*Value{}}
	return builder.newValue(node, 0)
}

const maxDepth = 10000

type valueBuilder struct {
	anchors map[*yaml.Node]*Value
}

func (b *valueBuilder) newValue(node *yaml.Node, depth int) (*Value, error) {
	if node == nil || node.Kind == 0 {
		return &Value{kind: Null}, nil
	}
	if depth > maxDepth {
		return nil, errors.Wrapf(ErrInvalidDocument, "document nesting too deep at line %v", node.Line)
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return &Value{kind: Null}, nil
		}
		return b.newValue(node.Content[0], depth+1)
	}
	if node.Kind == yaml.AliasNode {
		return b.newValue(node.Alias, depth+1)
	}
	if node.Anchor == "" {
		return b.convert(node, depth)
	}
	if value, ok := b.anchors[node]; ok {
		return value, nil
	}
	value, err := b.convert(node, depth)
	if err != nil {
		return nil, err
	}
	b.anchors[node] = value
	return value, nil
}

func (b *valueBuilder) convert(node *yaml.Node, depth int) (*Value, error) {
	if name, ok := intrinsicName(node.Tag); ok {
		plain := *node
		plain.Tag = ""
		plain.Anchor = ""
		inner, err := b.newValue(&plain, depth+1)
		if err != nil {
			return nil, err
		}
		if name == "Fn::GetAtt" && inner.Kind() == String {
			inner = splitAttribute(inner.scalar)
		}
		ret := newMapping()
		ret.put(name, inner)
		return ret, nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		ret := newMapping()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind == yaml.AliasNode && key.Alias != nil {
				key = key.Alias
			}
			if key.Kind != yaml.ScalarNode {
				return nil, errors.Wrapf(ErrInvalidDocument, "unsupported mapping key kind at line %v", key.Line)
			}
			value, err := b.newValue(node.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			ret.put(key.Value, value)
		}
		return ret, nil
	case yaml.SequenceNode:
		ret := &Value{kind: Sequence, items: make([]*Value, 0, len(node.Content))}
		for _, item := range node.Content {
			value, err := b.newValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			ret.items = append(ret.items, value)
		}
		return ret, nil
	case yaml.ScalarNode:
		return &Value{kind: scalarKind(node), scalar: node.Value}, nil
	}
	return nil, errors.Wrapf(ErrInvalidDocument, "unsupported node kind %v at line %v", node.Kind, node.Line)
}

func scalarKind(node *yaml.Node) Kind {
	switch node.ShortTag() {
	case "!!null":
		return Null
	case "!!bool":
		return Bool
	case "!!int", "!!float":
		return Number
	}
	return String
}

//intrinsicName maps CloudFormation short form tag (i.e. !Sub) to its long form key
func intrinsicName(tag string) (string, bool) {
	if len(tag) < 2 || tag[0] != '!' || tag[1] == '!' || strings.HasPrefix(tag, "!<") {
		return "", false
	}
	name := tag[1:]
	switch name {
	case "Ref", "Condition":
		return name, true
	}
	return "Fn::" + name, true
}

func splitAttribute(text string) *Value {
	ret := &Value{kind: Sequence}
	parts := strings.SplitN(text, ".", 2)
	for _, part := range parts {
		ret.items = append(ret.items, &Value{kind: String, scalar: part})
	}
	return ret
}

//GoString returns debug representation
func (v *Value) GoString() string {
	return fmt.Sprintf("swagger.Value(%v:%v)", v.Kind(), v.Interface())
}

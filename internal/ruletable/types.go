// Package ruletable holds the static tables every rule consults: the closed type
// set, type conversions, entity capabilities, event mount restrictions, and the
// node titles rules key on.
package ruletable

import "strings"

// BaseTypes are the scalar data types, in display order.
var BaseTypes = []string{
	"实体",
	"GUID",
	"整数",
	"布尔值",
	"浮点数",
	"字符串",
	"三维向量",
	"元件ID",
	"配置ID",
}

// ListSuffix turns a base type into its list type, e.g. 整数 -> 整数列表.
const ListSuffix = "列表"

// DictSuffix ends the "<Key>-<Value>字典" alias form.
const DictSuffix = "字典"

// Meta-types accepted wherever a port or annotation type is expected.
const (
	TypeFlow    = "流程"
	TypeGeneric = "泛型"
	TypeAny     = "any"
	TypeEnum    = "枚举"
	TypeBool    = "布尔值"
	TypeStruct  = "结构体"
)

// MetaTypes lists the reserved meta-types.
var MetaTypes = []string{TypeFlow, TypeGeneric, TypeAny, TypeEnum}

// StructFieldExtraTypes are accepted as struct field types on top of base and list types.
var StructFieldExtraTypes = []string{TypeStruct, TypeStruct + ListSuffix, "阵营"}

var (
	baseSet = toSet(BaseTypes)
	listSet = func() map[string]bool {
		m := make(map[string]bool, len(BaseTypes))
		for _, t := range BaseTypes {
			m[t+ListSuffix] = true
		}
		return m
	}()
)

// ListTypes returns the list type of every base type.
func ListTypes() []string {
	out := make([]string, 0, len(BaseTypes))
	for _, t := range BaseTypes {
		out = append(out, t+ListSuffix)
	}
	return out
}

// IsBaseType reports whether name is a scalar type.
func IsBaseType(name string) bool { return baseSet[name] }

// IsListType reports whether name is the list form of a scalar type.
func IsListType(name string) bool { return listSet[name] }

// IsScalarOrList reports whether name is a scalar or list-of-scalar type.
func IsScalarOrList(name string) bool { return baseSet[name] || listSet[name] }

// ElementType returns the element type of a list type.
func ElementType(name string) (string, bool) {
	if !listSet[name] {
		return "", false
	}
	return strings.TrimSuffix(name, ListSuffix), true
}

// StructFieldTypes returns every type a basic struct field may carry.
func StructFieldTypes() []string {
	out := append([]string{}, BaseTypes...)
	out = append(out, ListTypes()...)
	return append(out, StructFieldExtraTypes...)
}

// SplitDictAlias splits a "<Key>-<Value>字典" alias. The separator is the first
// '-' or '_' in the name. ok is false when name is not in alias form.
func SplitDictAlias(name string) (key, value string, ok bool) {
	if !strings.HasSuffix(name, DictSuffix) {
		return "", "", false
	}
	body := strings.TrimSuffix(name, DictSuffix)
	idx := strings.IndexAny(body, "-_")
	if idx <= 0 || idx == len(body)-1 {
		return "", "", false
	}
	return body[:idx], body[idx+1:], true
}

// TypeSet is a closed set of type names with dictionary-alias support.
type TypeSet map[string]bool

// NewTypeSet returns the base allowed set (scalars, lists, struct field types,
// meta-types) extended with extra names such as registry port types.
func NewTypeSet(extra ...string) TypeSet {
	s := TypeSet{}
	for _, group := range [][]string{BaseTypes, ListTypes(), StructFieldTypes(), MetaTypes, extra} {
		for _, t := range group {
			if t = strings.TrimSpace(t); t != "" {
				s[t] = true
			}
		}
	}
	return s
}

// Allows reports whether name is in the set or is a dictionary alias whose key
// and value are both in the set.
func (s TypeSet) Allows(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if s[name] {
		return true
	}
	k, v, ok := SplitDictAlias(name)
	return ok && s.Allows(k) && s.Allows(v)
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

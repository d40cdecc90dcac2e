package ruletable

import (
	"strconv"
	"strings"
)

// Conversion describes an implicit conversion between two data types.
type Conversion struct {
	From, To string
	Rule     string
}

// Conversions is the table of supported implicit conversions.
var Conversions = []Conversion{
	{"整数", "布尔值", "0转为否，非0转为是"},
	{"整数", "浮点数", "整数转浮点数"},
	{"整数", "字符串", "整数转字符串"},
	{"布尔值", "整数", "否转为0，是转为1"},
	{"布尔值", "字符串", "布尔值转字符串"},
	{"浮点数", "整数", "浮点数截断为整数"},
	{"浮点数", "字符串", "浮点数转字符串"},
	{"三维向量", "字符串", "三维向量转字符串"},
	{"实体", "字符串", "实体转字符串"},
	{"GUID", "字符串", "GUID转字符串"},
	{"阵营", "字符串", "阵营转字符串"},
}

var conversionIndex = func() map[[2]string]string {
	m := make(map[[2]string]string, len(Conversions))
	for _, c := range Conversions {
		m[[2]string{c.From, c.To}] = c.Rule
	}
	return m
}()

// CanConvert reports whether a value of type from may flow into a port of type
// to. Identical types and the generic meta-types always convert.
func CanConvert(from, to string) (bool, string) {
	if from == to || to == TypeGeneric || to == TypeAny || from == TypeGeneric || from == TypeAny {
		return true, ""
	}
	if rule, ok := conversionIndex[[2]string{from, to}]; ok {
		return true, rule
	}
	return false, "不支持从'" + from + "'到'" + to + "'的类型转换"
}

// LiteralCompatible reports whether the textual constant value fits typ. Types
// without a literal syntax accept any value.
func LiteralCompatible(value, typ string) bool {
	v := stripQuotes(value)
	switch typ {
	case "整数", "GUID", "元件ID", "配置ID":
		return isIntLiteral(v)
	case "浮点数":
		return isFloatLiteral(v)
	case "布尔值":
		switch strings.ToLower(v) {
		case "true", "false", "是", "否", "1", "0":
			return true
		}
		return false
	case "三维向量":
		parts := splitTuple(v)
		if len(parts) != 3 {
			return false
		}
		for _, p := range parts {
			if !isFloatLiteral(p) {
				return false
			}
		}
		return true
	}
	if elem, ok := ElementType(typ); ok {
		for _, p := range splitList(v) {
			if !LiteralCompatible(p, elem) {
				return false
			}
		}
		return true
	}
	return true
}

func stripQuotes(s string) string {
	v := strings.TrimSpace(s)
	if len(v) >= 2 {
		l, r := v[0], v[len(v)-1]
		if (l == '\'' && r == '\'') || (l == '"' && r == '"') {
			return strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return v
}

func isIntLiteral(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloatLiteral(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func splitTuple(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = s[1 : len(s)-1]
	}
	return splitTopLevel(s)
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '[' || s[0] == '{') {
		s = s[1 : len(s)-1]
	}
	return splitTopLevel(s)
}

// splitTopLevel splits on commas outside brackets.
func splitTopLevel(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

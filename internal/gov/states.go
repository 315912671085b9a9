package gov

import "strings"

// State 联邦州：两位代码与规范名称
type State struct {
	Code string
	Name string
}

// States 16 个联邦州，按代码排序
var States = []State{
	{"BB", "Brandenburg"},
	{"BE", "Berlin"},
	{"BW", "Baden-Württemberg"},
	{"BY", "Bayern"},
	{"HB", "Bremen"},
	{"HE", "Hessen"},
	{"HH", "Hamburg"},
	{"MV", "Mecklenburg-Vorpommern"},
	{"NI", "Niedersachsen"},
	{"NW", "Nordrhein-Westfalen"},
	{"RP", "Rheinland-Pfalz"},
	{"SH", "Schleswig-Holstein"},
	{"SL", "Saarland"},
	{"SN", "Sachsen"},
	{"ST", "Sachsen-Anhalt"},
	{"TH", "Thüringen"},
}

// StateByCode 按两位代码查找（大小写不敏感）
func StateByCode(code string) (State, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, s := range States {
		if s.Code == code {
			return s, true
		}
	}
	return State{}, false
}

// CanonicalRegion 将边界数据或请求中的州名归一为规范名称
// 约束：接受两位代码、规范名与去变音写法（"Thueringen"）；无法识别时原样返回去空白后的输入。
func CanonicalRegion(name string) string {
	n := strings.TrimSpace(name)
	if s, ok := StateByCode(n); ok {
		return s.Name
	}
	f := FoldRegion(n)
	for _, s := range States {
		if FoldRegion(s.Name) == f {
			return s.Name
		}
	}
	return n
}

// FoldRegion 州名比较键：小写、变音折叠
func FoldRegion(s string) string {
	r := strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss", "Ä", "ae", "Ö", "oe", "Ü", "ue")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

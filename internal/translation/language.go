package translation

import (
	"strings"

	"golang.org/x/text/language"
)

// IsEnglish reports whether tag names any English variant.
func IsEnglish(tag string) bool {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return false
	}
	base, _ := t.Base()
	return base.String() == "en"
}

// CloudCode maps an election language tag to the code the translation API
// expects: regional variants collapse to their base language, Chinese keeps
// the simplified/traditional distinction.
func CloudCode(tag string) string {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return tag
	}
	base, _ := t.Base()
	if base.String() != "zh" {
		return base.String()
	}
	script, _ := t.Script()
	if script.String() == "Hant" {
		return "zh-TW"
	}
	return "zh-CN"
}

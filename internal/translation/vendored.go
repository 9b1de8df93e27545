package translation

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed vendored_translations.yaml
var vendoredYAML []byte

// Dictionary is a read-only table of reviewed translations keyed by language
// then English source text.
type Dictionary struct {
	entries map[string]map[string]string
}

// ParseDictionary decodes a YAML document of the form
// language -> English text -> translation.
func ParseDictionary(data []byte) (*Dictionary, error) {
	raw := map[string]map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode vendored translations: %w", err)
	}
	d := &Dictionary{entries: make(map[string]map[string]string, len(raw))}
	for lang, table := range raw {
		normalized := make(map[string]string, len(table))
		for source, target := range table {
			normalized[norm.NFC.String(source)] = target
		}
		d.entries[strings.TrimSpace(lang)] = normalized
	}
	return d, nil
}

// Vendored returns the dictionary shipped with the binary.
func Vendored() *Dictionary {
	d, err := ParseDictionary(vendoredYAML)
	if err != nil {
		panic(err)
	}
	return d
}

// Lookup returns the vendored translation of text into language.
func (d *Dictionary) Lookup(language, text string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.entries[language][text]
	return v, ok
}

// Len reports the number of entries across all languages.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, table := range d.entries {
		n += len(table)
	}
	return n
}

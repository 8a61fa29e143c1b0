package input

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// Rune aliases for keys that are awkward as config keys
var runeAliases = map[string]rune{
	"space":     ' ',
	"backslash": '\\',
}

var keysByName = func() map[string]tcell.Key {
	m := make(map[string]tcell.Key, len(tcell.KeyNames))
	for k, name := range tcell.KeyNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

// LoadKeyConfig turns key name -> action name bindings into a sparse override table
// Key names are single characters, rune aliases, or tcell key names ("Up", "Ctrl-C")
func LoadKeyConfig(bindings map[string]string) (*KeyTable, error) {
	kt := &KeyTable{
		Keys:  make(map[tcell.Key]Action),
		Runes: make(map[rune]Action),
	}
	for keyStr, actionName := range bindings {
		a, ok := ActionByName(strings.ToLower(strings.TrimSpace(actionName)))
		if !ok {
			return nil, fmt.Errorf("key %q: unknown action %q", keyStr, actionName)
		}
		if r, ok := resolveRune(keyStr); ok {
			kt.Runes[unicode.ToLower(r)] = a
			continue
		}
		k, ok := keysByName[strings.ToLower(keyStr)]
		if !ok {
			return nil, fmt.Errorf("unknown key name: %q", keyStr)
		}
		kt.Keys[k] = a
	}
	return kt, nil
}

func resolveRune(s string) (rune, bool) {
	if r, ok := runeAliases[strings.ToLower(s)]; ok {
		return r, true
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return runes[0], true
	}
	return 0, false
}

// MergeKeyTable returns base with override applied, ActionNone entries unbind the key
func MergeKeyTable(base, override *KeyTable) *KeyTable {
	result := base.Clone()
	if override == nil {
		return result
	}
	for k, a := range override.Keys {
		if a == ActionNone {
			delete(result.Keys, k)
		} else {
			result.Keys[k] = a
		}
	}
	for r, a := range override.Runes {
		if a == ActionNone {
			delete(result.Runes, r)
		} else {
			result.Runes[r] = a
		}
	}
	return result
}

package textmap

import (
	"strings"
	"testing"
)

func TestFromString(t *testing.T) {
	m := FromString("Foo: bar\nBAZ=qux\nmalformed-line")

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	for _, key := range []string{"foo", "FOO", "Foo"} {
		v, ok := m.Get(key)
		if !ok {
			t.Errorf("Get(%q) not found", key)
		}
		if v != "bar" {
			t.Errorf("Get(%q) = %q, want %q", key, v, "bar")
		}
	}

	v, ok := m.Get("baz")
	if !ok || v != "qux" {
		t.Errorf("Get(baz) = %q, %v, want qux, true", v, ok)
	}

	if m.Has("malformed-line") {
		t.Error("separator-less line should be skipped")
	}
}

func TestFromString_FirstSeparatorWins(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		key   string
		value string
	}{
		{"colon before equals", "path: /sdk/tools=bin", "path", "/sdk/tools=bin"},
		{"equals before colon", "target=android-33:ext", "target", "android-33:ext"},
		{"value with spaces", "Description :  Android SDK Platform-Tools  ", "description", "Android SDK Platform-Tools"},
		{"empty value", "AvdId=", "avdid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromString(tt.line)
			v, ok := m.Get(tt.key)
			if !ok {
				t.Fatalf("key %q not found", tt.key)
			}
			if v != tt.value {
				t.Errorf("Get(%q) = %q, want %q", tt.key, v, tt.value)
			}
		})
	}
}

func TestFromString_SkipsEmptyKeys(t *testing.T) {
	m := FromString(": no key\n = also no key\n")
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestFromString_ManifestBlock(t *testing.T) {
	// Shape of an sdkmanager --list_installed row block.
	manifest := strings.Join([]string{
		"Path: platform-tools",
		"Version: 34.0.5",
		"Description: Android SDK Platform-Tools",
		"Location: platform-tools",
	}, "\n")

	m := FromString(manifest)
	if m.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", m.Len())
	}
	if v, _ := m.Get("VERSION"); v != "34.0.5" {
		t.Errorf("Get(VERSION) = %q, want 34.0.5", v)
	}
}

func TestSet_ReplacesCaseInsensitively(t *testing.T) {
	m := New()
	m.Set("Key", "a")
	m.Set("KEY", "b")

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if v, _ := m.Get("key"); v != "b" {
		t.Errorf("Get(key) = %q, want b", v)
	}
}

func TestFilterSlice(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}
	out := FilterSlice(in, func(n int) bool { return n%2 == 0 })

	if len(out) != 2 || out[0] != 2 || out[1] != 4 {
		t.Errorf("FilterSlice = %v, want [2 4]", out)
	}
	if len(in) != 5 {
		t.Error("input slice must not be mutated")
	}
}

func TestFilterMap(t *testing.T) {
	in := map[string]int{"a": 1, "b": 2, "c": 3}
	out := FilterMap(in, func(_ string, v int) bool { return v > 1 })

	if len(out) != 2 {
		t.Errorf("FilterMap kept %d entries, want 2", len(out))
	}
	if _, ok := out["a"]; ok {
		t.Error("entry a should have been filtered out")
	}
	if len(in) != 3 {
		t.Error("input map must not be mutated")
	}
}

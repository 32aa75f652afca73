package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"camelCase", "getUserById", []string{"get", "user", "by", "id"}},
		{"snake_case", "parse_config_file", []string{"parse", "config", "file"}},
		{"acronym", "HTTPHandler", []string{"http", "handler"}},
		{"mixed punctuation", "foo.bar(baz)", []string{"foo", "bar", "baz"}},
		{"short tokens dropped", "a b cd", []string{"cd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenizeCode(tt.input))
		})
	}
}

func TestSplitCamelCase(t *testing.T) {
	assert.Equal(t, []string{"parse", "HTTP", "Request"}, SplitCamelCase("parseHTTPRequest"))
	assert.Equal(t, []string{}, SplitCamelCase(""))
}

func TestBuildStopWordMap(t *testing.T) {
	m := BuildStopWordMap([]string{"Func", "VAR"})
	_, hasFunc := m["func"]
	_, hasVar := m["var"]
	assert.True(t, hasFunc)
	assert.True(t, hasVar)
	assert.Len(t, m, 2)
}

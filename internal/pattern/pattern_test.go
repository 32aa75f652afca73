package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semerr "github.com/semidx/semidx/internal/errors"
)

func TestNewFilter_RejectsMalformedPatterns(t *testing.T) {
	_, err := NewFilter([]string{"[unclosed"}, nil)
	require.Error(t, err)
	assert.Equal(t, semerr.ErrCodeInvalidPattern, semerr.GetCode(err))

	_, err = NewFilter(nil, []string{"a{b"})
	assert.Error(t, err)
}

func TestShouldInclude_EmptyPatternsIncludeEverything(t *testing.T) {
	f, err := NewFilter(nil, nil)
	require.NoError(t, err)

	assert.True(t, f.ShouldInclude("/any/path/at/all.txt"))
	assert.True(t, f.ShouldInclude("relative/file.go"))
}

func TestShouldInclude_ExcludeWinsOverInclude(t *testing.T) {
	f, err := NewFilter([]string{"**/*.go"}, []string{"**/vendor/**"})
	require.NoError(t, err)

	assert.True(t, f.ShouldInclude("/proj/main.go"))
	assert.False(t, f.ShouldInclude("/proj/vendor/dep/dep.go"))
}

func TestShouldInclude_SuffixMatchingOnAbsolutePaths(t *testing.T) {
	// A relative exclude pattern must match deep inside an absolute path.
	f, err := NewFilter(nil, []string{"node_modules/**"})
	require.NoError(t, err)

	assert.False(t, f.ShouldInclude("/home/user/project/node_modules/lodash/index.js"))
	assert.True(t, f.ShouldInclude("/home/user/project/src/index.js"))
}

func TestShouldInclude_IncludeOnlyNarrowsSelection(t *testing.T) {
	f, err := NewFilter([]string{"**/*.md"}, nil)
	require.NoError(t, err)

	assert.True(t, f.ShouldInclude("/docs/guide.md"))
	assert.True(t, f.ShouldInclude("README.md"))
	assert.False(t, f.ShouldInclude("/docs/guide.txt"))
}

func TestShouldInclude_ExtensionPattern(t *testing.T) {
	f, err := NewFilter([]string{"*.rs"}, nil)
	require.NoError(t, err)

	// Suffix matching lets a bare extension pattern hit nested files.
	assert.True(t, f.ShouldInclude("/src/lib.rs"))
	assert.False(t, f.ShouldInclude("/src/lib.go"))
}

func TestShouldInclude_WindowsSeparatorsNormalized(t *testing.T) {
	f, err := NewFilter(nil, []string{"**/target/**"})
	require.NoError(t, err)

	assert.False(t, f.ShouldInclude(`C:\proj\target\debug\out`))
}

func TestHasPatterns(t *testing.T) {
	empty, err := NewFilter(nil, nil)
	require.NoError(t, err)
	assert.False(t, empty.HasPatterns())

	some, err := NewFilter([]string{"*.go"}, nil)
	require.NoError(t, err)
	assert.True(t, some.HasPatterns())
}

package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxSamePath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"shared prefix", []string{"/a/b/c", "/a/b/d"}, "/a/b"},
		{"nothing shared", []string{"/a/b", "/x/y"}, ""},
		{"path without slash", []string{"noSlash", "/a/b"}, ""},
		{"empty set", nil, ""},
		{"identical paths stop before leaf", []string{"/a/b", "/a/b"}, "/a"},
		{"single path", []string{"/api/v1/pets/{id}"}, "/api/v1/pets"},
		{"differs at second segment", []string{"/api/users", "/api/pets/{id}"}, "/api"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MaxSamePath(tc.paths, ""), tc.name)
	}
}

func TestMaxSamePath_Accumulator(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/root", MaxSamePath(nil, "/root"))
	assert.Equal(t, "/root/x", MaxSamePath([]string{"x/y", "x/z"}, "/root"))
}

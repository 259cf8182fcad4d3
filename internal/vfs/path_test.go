package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"/":                     "/",
		"assets/img/logo.png":   "/assets/img/logo.png",
		"/assets//img/logo.png": "/assets/img/logo.png",
		"/assets/./course.json": "/assets/course.json",
		"/assets/img/":          "/assets/img",
		"/a/b/../c":             "/a/c",
	}
	for input, want := range cases {
		require.Equal(t, want, NormalizePath(input), "input %q", input)
	}
}

func TestNormalizePathIsIdempotent(t *testing.T) {
	for _, p := range []string{"/", "/assets/img/logo.png", "x/y", "//x//y/"} {
		once := NormalizePath(p)
		require.Equal(t, once, NormalizePath(once))
	}
}

func TestIsUnder(t *testing.T) {
	require.True(t, isUnder("/assets/js/a.js", "/"))
	require.True(t, isUnder("/assets/js/a.js", "/assets"))
	require.True(t, isUnder("/assets", "/assets"))
	require.False(t, isUnder("/assets-old/a.js", "/assets"))
	require.False(t, isUnder("/data/course.json", "/assets"))
}

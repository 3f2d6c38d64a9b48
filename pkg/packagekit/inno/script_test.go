package inno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	text := "; preamble comment\r\n" +
		"#define Foo \"bar\"\r\n" +
		"[Setup]\r\n" +
		"AppName=Mine\r\n" +
		"\r\n" +
		"[ Files ] ; trailing junk\r\n" +
		"Source: \"a.txt\"; DestDir: \"{app}\"\r\n" +
		"[setup]\r\n" +
		"AppVersion=2\r\n" +
		"[Empty]\r\n" +
		"not [a header]\r\n"

	script := Parse(text)

	require.Equal(t, []string{"; preamble comment", `#define Foo "bar"`}, script.Preamble)
	require.Len(t, script.Sections, 3)

	setup := script.Section("SETUP")
	require.NotNil(t, setup)
	require.Equal(t, "[Setup]", setup.Header)
	require.Equal(t, "Setup", setup.Name)
	require.Equal(t, []string{"AppName=Mine", "", "AppVersion=2"}, setup.Lines)

	files := script.Section("files")
	require.NotNil(t, files)
	require.Equal(t, "[ Files ] ; trailing junk", files.Header)
	require.Equal(t, "Files", files.Name)
	require.Equal(t, []string{`Source: "a.txt"; DestDir: "{app}"`}, files.Lines)

	empty := script.Section("Empty")
	require.NotNil(t, empty)
	require.Equal(t, []string{"not [a header]"}, empty.Lines)

	require.Nil(t, script.Section("Code"))
}

func TestParseEdgeCases(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name     string
		in       string
		preamble []string
		sections []string
	}{
		{
			name: "empty",
			in:   "",
		},
		{
			name:     "no sections",
			in:       "just some text\nand more",
			preamble: []string{"just some text", "and more"},
		},
		{
			name:     "unterminated header is content",
			in:       "[Setup\nAppName=x\n",
			preamble: []string{"[Setup", "AppName=x"},
		},
		{
			name:     "header without body",
			in:       "[Setup]\n[Files]",
			sections: []string{"Setup", "Files"},
		},
	}

	for _, tt := range tests {
		script := Parse(tt.in)
		require.Equal(t, tt.preamble, script.Preamble, tt.name)

		var names []string
		for _, s := range script.Sections {
			names = append(names, s.Name)
		}
		require.Equal(t, tt.sections, names, tt.name)
	}
}

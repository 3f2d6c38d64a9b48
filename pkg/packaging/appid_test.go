package packaging

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAppID tests that our AppId generation is stable. Changing any
// of these breaks upgrades of already installed applications.
func TestAppID(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		md     Metadata
		out    string
		hashed bool
	}{
		{
			md:     Metadata{"name": "Demo", "version": "1.0.0.0", "url": "http://example.com/demo"},
			out:    "{{de529a32-d992-5864-a378-93db313170cb}",
			hashed: true,
		},
		{
			md:     Metadata{"name": "example", "author_email": "you@your.domain", "url": "http://www.your.domain/example"},
			out:    "{{d7ebde2b-0528-58d0-8307-2dc09facc7bc}",
			hashed: true,
		},
		{
			md:     Metadata{"name": "example", "version": "1.0.0.0", "author_email": "you@your.domain"},
			out:    "{{ce9d0622-e9bb-533b-a50e-56e682257cb2}",
			hashed: true,
		},
		{
			// Only the first character of the version takes part
			md:     Metadata{"name": "example", "version": "1.9.3", "author_email": "you@your.domain"},
			out:    "{{ce9d0622-e9bb-533b-a50e-56e682257cb2}",
			hashed: true,
		},
		{
			md:     Metadata{"name": "example", "author_email": "you@your.domain"},
			out:    "{{739f75e1-bd1d-5472-8caf-7e767f8ffd49}",
			hashed: true,
		},
		{
			md:     Metadata{"name": "example", "version": "1.0"},
			out:    "example",
			hashed: false,
		},
		{
			md:     Metadata{},
			out:    "",
			hashed: false,
		},
	}

	for _, tt := range tests {
		require.Equal(t, tt.out, AppID(tt.md))
		require.Equal(t, tt.hashed, AppIDIsHashed(tt.md))
	}
}

func TestAppIDDeterministic(t *testing.T) {
	t.Parallel()

	appIDRegex := regexp.MustCompile(`^\{\{[0-9a-f]{8}-[0-9a-f]{4}-5[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\}$`)

	for _, url := range []string{"http://example.com/demo", "https://github.com/kolide/launcher", "x"} {
		md := Metadata{"name": "Demo", "url": url}
		first := AppID(md)
		require.Equal(t, first, AppID(Metadata{"name": "Demo", "url": url}))
		require.Regexp(t, appIDRegex, first)
	}
}

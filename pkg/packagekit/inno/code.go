package inno

import (
	_ "embed"
	"io"
	"text/template"

	"github.com/pkg/errors"
)

// helperCodeTemplate holds the pascal procedures the generated
// BeforeInstall hooks call.
//
//go:embed assets/code.iss
var helperCodeTemplate []byte

func renderHelperCode(w io.Writer, is64bit bool) error {
	var data = struct {
		Is64bit bool
	}{
		Is64bit: is64bit,
	}

	t, err := template.New("code").Parse(string(helperCodeTemplate))
	if err != nil {
		return errors.Wrap(err, "not able to parse code template")
	}
	return t.ExecuteTemplate(w, "code", data)
}

package packaging

import (
	"fmt"

	"github.com/google/uuid"
)

// AppID derives the installer's AppId from project metadata. The
// AppId is how windows recognizes a later installer as an upgrade of
// an earlier one, so it must be stable across builds. We get that by
// hashing a name-based uuid (v5, url namespace) from, in order of
// preference:
//
//  1. the project url
//  2. mailto:<author_email>?subject=<name>-<first char of version>
//  3. mailto:<author_email>?subject=<name>
//
// If none of those are available, the bare project name is used. It
// is stable, but nothing stops two unrelated projects from sharing
// it.
//
// The leading brace is doubled, as inno setup treats a single `{` as
// the start of a constant.
func AppID(md Metadata) string {
	var src string

	switch {
	case md.Get("url") != "":
		src = md.Get("url")
	case md.Get("name") != "" && md.Get("version") != "" && md.Get("author_email") != "":
		src = Expand("mailto:%(author_email)s?subject=%(name)s-%(version).1s", md)
	case md.Get("name") != "" && md.Get("author_email") != "":
		src = Expand("mailto:%(author_email)s?subject=%(name)s", md)
	default:
		return md.Get("name")
	}

	return fmt.Sprintf("{{%s}", uuid.NewSHA1(uuid.NameSpaceURL, []byte(src)).String())
}

// AppIDIsHashed reports whether AppID produced a uuid, rather than
// falling back to the bare name.
func AppIDIsHashed(md Metadata) bool {
	return md.Get("url") != "" || (md.Get("name") != "" && md.Get("author_email") != "")
}

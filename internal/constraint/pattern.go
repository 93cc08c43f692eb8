package constraint

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Pattern is a regular expression written as /body/flags.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// ParsePattern parses /body/flags. Supported flags are i, m and s; g, y and
// u are accepted and ignored since matching is always a single test.
func ParsePattern(src string) (*Pattern, error) {
	end := strings.LastIndex(src, "/")
	if !strings.HasPrefix(src, "/") || end < 1 {
		return nil, errors.New("Invalid RegExp syntax, matcher should be surrounded with slashes")
	}
	body, flags := src[1:end], src[end+1:]
	if body == "" {
		return nil, errors.New("Invalid RegExp syntax, empty matcher")
	}

	var modes strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(modes.String(), f) {
				modes.WriteRune(f)
			}
		case 'g', 'y', 'u':
		default:
			return nil, errors.Errorf("Invalid RegExp flag %q in %s", f, src)
		}
	}
	expr := body
	if modes.Len() > 0 {
		expr = "(?" + modes.String() + ")" + body
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid RegExp %s", src)
	}
	return &Pattern{source: src, re: re}, nil
}

func (p *Pattern) MatchString(s string) bool { return p.re.MatchString(s) }

func (p *Pattern) String() string { return p.source }

package auditlog

import (
	"regexp"
	"strings"
)

const redacted = "<redacted>"

// secretFlags take a credential as their value.
var secretFlags = map[string]bool{
	"--token":        true,
	"--api-key":      true,
	"--access-token": true,
}

var secretPatterns = []*regexp.Regexp{
	// Google API keys.
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
	// OAuth 2.0 access tokens issued by Google.
	regexp.MustCompile(`ya29\.[0-9A-Za-z_\-.]+`),
	// key= query parameters in probe URLs.
	regexp.MustCompile(`([?&]key=)[^&\s"]+`),
}

// SanitizeArgs returns args with the values of credential flags replaced and
// any secret-shaped text redacted.
func SanitizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if secretFlags[arg] {
			out = append(out, arg, redacted)
			i++
			continue
		}
		if name, _, ok := strings.Cut(arg, "="); ok && secretFlags[name] {
			out = append(out, name+"="+redacted)
			continue
		}
		out = append(out, Redact(arg))
	}
	return out
}

// Redact replaces API keys, access tokens and key= query values in s.
func Redact(s string) string {
	for _, re := range secretPatterns {
		if re.NumSubexp() > 0 {
			s = re.ReplaceAllString(s, "${1}"+redacted)
			continue
		}
		s = re.ReplaceAllString(s, redacted)
	}
	return s
}

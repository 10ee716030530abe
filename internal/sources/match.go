package sources

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Project page links as they appear in plugin descriptions and resource pages.
// All of them must match a whole line.
var (
	GitHubLinkPattern = regexp.MustCompile(
		`^.*https?://(?:www\.)?github\.com/(?P<user>[\w\-]+)/(?P<repo>[\w\-]+)(?:[/#].*)?.*$`)
	HangarLinkPattern = regexp.MustCompile(
		`^.*https?://hangar\.papermc\.io/(?P<author>[\w\-]+)/(?P<project>[\w\-]+)(?:[/#].*)?.*$`)
	SpigotLinkPattern = regexp.MustCompile(
		`^.*https?://(?:www\.)?spigotmc\.org/resources/.*\.(?P<id>\d+)(?:[/#].*)?.*$`)
)

// CompileFullMatch compiles a user supplied pattern that has to match the whole input
func CompileFullMatch(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	return re, nil
}

// NamedGroup returns the submatch named name, or "" when re did not match
func NamedGroup(re *regexp.Regexp, s, name string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if i := re.SubexpIndex(name); i >= 0 {
		return m[i]
	}
	return ""
}

// isJSON reports whether body looks like a JSON object or array
func isJSON(body string) bool {
	return strings.HasPrefix(body, "[") && strings.HasSuffix(body, "]") ||
		strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}")
}

// parseJSON parses body as JSON, reporting malformed documents
func parseJSON(url, body string) (gjson.Result, error) {
	if !gjson.Valid(body) {
		return gjson.Result{}, invalidResponse(url, "malformed JSON")
	}
	return gjson.Parse(body), nil
}

// gjsonPath converts a JSONPath expression such as $.files[0].url or
// $['data'].version into gjson path syntax. Plain gjson paths pass through.
func gjsonPath(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "$") {
		return path
	}
	path = strings.TrimPrefix(path, "$")

	var sb strings.Builder
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				sb.WriteString(path[i:])
				return sb.String()
			}
			segment := strings.Trim(path[i+1:i+end], `'"`)
			if segment == "*" {
				segment = "#"
			}
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(escapeGJSON(segment))
			i += end
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func escapeGJSON(segment string) string {
	if segment == "#" {
		return segment
	}
	var sb strings.Builder
	for _, r := range segment {
		if strings.ContainsRune(`.*?|#@\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

package finder

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config is a decomposed finder name.
type Config struct {
	// Name is the finder name as requested.
	Name string

	// All is true for findAllBy finders, which return every match.
	All bool

	// Bang is true when a miss is an error instead of nil.
	Bang bool

	// Segments are the field segments in call order, as spelled in the
	// name ("Name", "first_name"). They are not resolved to fields.
	Segments []string
}

const (
	camelBang = "Bang"
	snakeBang = "!"
)

// Parse decomposes name into its preferred reading. The second result is
// false when name is not a finder at all, including the all+bang
// combination which never resolves.
func Parse(name string) (Config, bool) {
	readings := Readings(name)
	if len(readings) == 0 {
		return Config{}, false
	}
	return readings[0], true
}

// Readings returns every way name parses as a finder, preferred first.
// A camel-case name ending in "Bang" is ambiguous: findByBigBang is the
// bang finder of Big, or the plain finder of BigBang. The bang reading
// comes first; callers fall back to the plain one when its fields do not
// resolve.
func Readings(name string) []Config {
	var out []Config
	if cfg, ok := parse(name, true); ok {
		out = append(out, cfg)
	}
	if strings.HasSuffix(name, camelBang) {
		if cfg, ok := parse(name, false); ok {
			out = append(out, cfg)
		}
	}
	return out
}

func parse(name string, bangs bool) (Config, bool) {
	cfg := Config{Name: name}

	rest := name
	if bangs {
		rest, cfg.Bang = trimBang(name)
	}

	var ok bool
	if strings.HasPrefix(rest, "find_") {
		ok = parseSnake(rest, &cfg)
	} else {
		ok = parseCamel(rest, &cfg)
	}
	if !ok || (cfg.All && cfg.Bang) {
		return Config{}, false
	}
	return cfg, true
}

func trimBang(name string) (string, bool) {
	if rest, ok := strings.CutSuffix(name, snakeBang); ok {
		return rest, true
	}
	if rest, ok := strings.CutSuffix(name, camelBang); ok {
		return rest, true
	}
	return name, false
}

func parseSnake(name string, cfg *Config) bool {
	var rest string
	switch {
	case strings.HasPrefix(name, "find_all_by_"):
		cfg.All = true
		rest = strings.TrimPrefix(name, "find_all_by_")
	case strings.HasPrefix(name, "find_by_"):
		rest = strings.TrimPrefix(name, "find_by_")
	default:
		return false
	}
	return setSegments(cfg, strings.Split(rest, "_and_"))
}

func parseCamel(name string, cfg *Config) bool {
	// leading letter is case-insensitive: findBy and FindBy both resolve
	if len(name) < 4 || !strings.EqualFold(name[:1], "f") || name[1:4] != "ind" {
		return false
	}

	var rest string
	switch tail := name[4:]; {
	case strings.HasPrefix(tail, "AllBy"):
		cfg.All = true
		rest = strings.TrimPrefix(tail, "AllBy")
	case strings.HasPrefix(tail, "By"):
		rest = strings.TrimPrefix(tail, "By")
	default:
		return false
	}
	return setSegments(cfg, splitCamelAnd(rest))
}

// splitCamelAnd splits on "And" when it starts a new camel-case word, so
// "NameAndCode" splits but "LandArea" and "Brand" do not.
func splitCamelAnd(s string) []string {
	var parts []string
	start := 0
	for i := 1; i+3 < len(s); i++ {
		if s[i:i+3] != "And" {
			continue
		}
		next, _ := utf8.DecodeRuneInString(s[i+3:])
		if !unicode.IsUpper(next) {
			continue
		}
		parts = append(parts, s[start:i])
		start = i + 3
		i += 2
	}
	return append(parts, s[start:])
}

func setSegments(cfg *Config, segments []string) bool {
	for _, seg := range segments {
		if seg == "" {
			return false
		}
	}
	cfg.Segments = segments
	return true
}

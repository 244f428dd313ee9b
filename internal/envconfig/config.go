// Package envconfig reads process configuration from TAGSTREAM_* variables.
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
)

// DefaultHost is used when TAGSTREAM_HOST is unset.
const DefaultHost = "127.0.0.1:8377"

// Host returns the listen address (TAGSTREAM_HOST). A bare port or host gets
// the missing half from DefaultHost; a scheme prefix is ignored.
func Host() string {
	s := Var("TAGSTREAM_HOST")
	if s == "" {
		return DefaultHost
	}
	if _, rest, ok := strings.Cut(s, "://"); ok {
		s = rest
	}
	s, _, _ = strings.Cut(s, "/")
	defHost, defPort, _ := net.SplitHostPort(DefaultHost)
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		host, port = s, defPort
		if _, err := strconv.ParseUint(s, 10, 16); err == nil {
			host, port = defHost, s
		}
	}
	if host == "" {
		host = defHost
	}
	return net.JoinHostPort(host, port)
}

// AllowedOrigins returns the CORS origins (TAGSTREAM_ORIGINS) plus the local
// defaults.
func AllowedOrigins() (origins []string) {
	if s := Var("TAGSTREAM_ORIGINS"); s != "" {
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}
	return origins
}

// Tags returns the comma separated tag list override (TAGSTREAM_TAGS), or "".
func Tags() string {
	return Var("TAGSTREAM_TAGS")
}

// LogLevel returns the log level (TAGSTREAM_DEBUG). "true"/"1" enables debug,
// "2" enables trace; other integers scale by -4 like slog levels.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("TAGSTREAM_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// UnsafeHTML passes raw HTML through the Markdown renderer (TAGSTREAM_UNSAFE_HTML).
var UnsafeHTML = Bool("TAGSTREAM_UNSAFE_HTML")

// Var returns an environment variable stripped of whitespace and quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a reader for a boolean variable. Unparsable
// non-empty values count as true.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool returns a reader for a boolean variable defaulting to false.
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// AsMap returns every known variable with its current value, for `tagstream env`
// style diagnostics and debug logs.
func AsMap() map[string]string {
	return map[string]string{
		"TAGSTREAM_HOST":        Host(),
		"TAGSTREAM_ORIGINS":     strings.Join(AllowedOrigins(), ","),
		"TAGSTREAM_TAGS":        Tags(),
		"TAGSTREAM_DEBUG":       LogLevel().String(),
		"TAGSTREAM_UNSAFE_HTML": strconv.FormatBool(UnsafeHTML()),
	}
}

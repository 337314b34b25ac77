// regexp.go: the RegExp value
//
// A RegExp is a compiled RE2 pattern plus its textual flag set:
//
//	g  global: re-find returns every match, re-replace replaces every match
//	i  case-insensitive
//	m  multi-line: ^ and $ match at line boundaries
//	s  dot matches newline
//
// Compiled programs are shared through a small LRU cache keyed by
// pattern+flags, so building the same regexp in a loop compiles it once.
package schem

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
)

// RegExp is a compiled pattern. Source and Flags are kept verbatim for
// printing.
type RegExp struct {
	Source string
	Flags  string
	re     *regexp.Regexp
}

// Global reports whether the g flag is set.
func (r *RegExp) Global() bool { return strings.ContainsRune(r.Flags, 'g') }

// Regexp exposes the compiled program.
func (r *RegExp) Regexp() *regexp.Regexp { return r.re }

// NewRegExp compiles pattern with flags drawn from "gims".
func NewRegExp(pattern, flags string) (*RegExp, error) {
	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'g':
		case 'i', 'm', 's':
			inline.WriteRune(f)
		default:
			return nil, &TypeError{Msg: fmt.Sprintf("invalid regexp flag %q", f)}
		}
	}
	re, err := compileCached(pattern, inline.String())
	if err != nil {
		return nil, &TypeError{Msg: fmt.Sprintf("invalid regexp /%s/: %v", pattern, err)}
	}
	return &RegExp{Source: pattern, Flags: flags, re: re}, nil
}

//// END_OF_PUBLIC

const regexpCacheSize = 128

var (
	regexpCacheMu sync.Mutex
	regexpCache   = lru.New(regexpCacheSize)
)

type regexpKey struct{ pattern, flags string }

func compileCached(pattern, inline string) (*regexp.Regexp, error) {
	key := regexpKey{pattern, inline}
	regexpCacheMu.Lock()
	if re, ok := regexpCache.Get(key); ok {
		regexpCacheMu.Unlock()
		return re.(*regexp.Regexp), nil
	}
	regexpCacheMu.Unlock()

	src := pattern
	if inline != "" {
		src = "(?" + inline + ")" + pattern
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, err
	}
	regexpCacheMu.Lock()
	regexpCache.Add(key, re)
	regexpCacheMu.Unlock()
	return re, nil
}

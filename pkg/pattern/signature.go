package pattern

import "regexp"

// Matcher is the common interface behind a compiled pattern-event signature.
// A pattern is either entirely literal or entirely regex (a pattern-wide flag
// chooses the discriminant for every signature it declares).
type Matcher interface {
	Matches(s string) bool
	String() string
}

type literalMatcher string

func (m literalMatcher) Matches(s string) bool { return string(m) == s }
func (m literalMatcher) String() string        { return string(m) }

type regexMatcher struct {
	re  *regexp.Regexp
	src string
}

func (m regexMatcher) Matches(s string) bool { return m.re.MatchString(s) }
func (m regexMatcher) String() string        { return m.src }

// CompileSignature builds a Matcher for a raw signature string according to
// useRegex. An empty signature, as on Flow pattern events, yields a literal
// matcher that accepts only the empty string. The composition matcher never
// consults it for Flow events (§4.5: satisfied by reachability, not a
// signature check); the ingestor's batch ordering does call it for every
// chain event. Every signature that is declared gets literal or regex
// matching as usual.
func CompileSignature(sig string, useRegex bool) (Matcher, error) {
	if sig == "" {
		return literalMatcher(""), nil
	}
	if !useRegex {
		return literalMatcher(sig), nil
	}
	re, err := regexp.Compile(sig)
	if err != nil {
		return nil, &InvalidPatternError{Reason: "bad signature regex " + sig + ": " + err.Error()}
	}
	return regexMatcher{re: re, src: sig}, nil
}

package videouri

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Video URIs take the form:
//
//	scheme:[param1=value1,param2=value2,...]//resource
//
// The bracketed parameter block is optional. The resource is whatever
// follows "//" and is handed to the backend verbatim, so for composing
// backends it may itself be a complete video URI.
var (
	ErrMalformedURI    = errors.New("malformed video uri")
	ErrParamConversion = errors.New("uri param conversion failed")
)

// Uri is a parsed video source or sink address. It is constructed once
// per open call and never mutated afterwards.
type Uri struct {
	Scheme   string
	Params   map[string]string
	Resource string
}

// Dimensions is a WxH param value, e.g. "640x480".
type Dimensions struct {
	W, H int
}

// Position is an X+Y param value, e.g. "2+2".
type Position struct {
	X, Y int
}

// Parse splits a video URI string into scheme, params and resource.
// The scheme separator is mandatory, everything else is optional.
func Parse(s string) (Uri, error) {
	sep := strings.Index(s, ":")
	if sep < 1 {
		return Uri{}, fmt.Errorf("%w: no scheme separator in %q", ErrMalformedURI, s)
	}

	uri := Uri{Scheme: s[:sep], Params: map[string]string{}}

	rest := s[sep+1:]
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return Uri{}, fmt.Errorf("%w: unterminated param block in %q", ErrMalformedURI, s)
		}
		parseParams(rest[1:end], uri.Params)
		rest = rest[end+1:]
	}

	if len(rest) > 0 {
		if !strings.HasPrefix(rest, "//") {
			return Uri{}, fmt.Errorf("%w: missing resource separator in %q", ErrMalformedURI, s)
		}
		uri.Resource = rest[2:]
	}

	return uri, nil
}

func parseParams(block string, into map[string]string) {
	if len(block) == 0 {
		return
	}
	for _, pair := range strings.Split(block, ",") {
		kv := strings.SplitN(pair, "=", 2)
		key := strings.TrimSpace(kv[0])
		if len(key) == 0 {
			continue
		}
		value := ""
		if len(kv) == 2 {
			value = kv[1]
		}
		// last occurrence of a duplicated key wins
		into[key] = value
	}
}

// String reconstructs an equivalent URI string. Param ordering is not
// preserved from parse time so keys are emitted sorted to keep the
// output deterministic.
func (u Uri) String() string {
	var sb strings.Builder
	sb.WriteString(u.Scheme)
	sb.WriteString(":")
	if len(u.Params) > 0 {
		keys := make([]string, 0, len(u.Params))
		for k := range u.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("[")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(u.Params[k])
		}
		sb.WriteString("]")
	}
	sb.WriteString("//")
	sb.WriteString(u.Resource)
	return sb.String()
}

// Contains reports whether the given param key was present in the URI.
func (u Uri) Contains(key string) bool {
	_, ok := u.Params[key]
	return ok
}

// Param returns the raw string value for key, or def when absent.
func (u Uri) Param(key, def string) string {
	if v, ok := u.Params[key]; ok {
		return v
	}
	return def
}

// Int converts the value held against key to an integer. Absence of the
// key yields def; a present but unconvertible value is an error.
func (u Uri) Int(key string, def int) (int, error) {
	v, ok := u.Params[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, conversionErr(key, v, "integer")
	}
	return n, nil
}

// Float converts the value held against key to a float64.
func (u Uri) Float(key string, def float64) (float64, error) {
	v, ok := u.Params[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, conversionErr(key, v, "float")
	}
	return f, nil
}

// Bool converts the value held against key to a bool. Accepts 0/1 and
// the usual textual forms.
func (u Uri) Bool(key string, def bool) (bool, error) {
	v, ok := u.Params[key]
	if !ok {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return def, conversionErr(key, v, "bool")
}

// Dims converts a WxH value held against key, e.g. size=640x480.
func (u Uri) Dims(key string, def Dimensions) (Dimensions, error) {
	v, ok := u.Params[key]
	if !ok {
		return def, nil
	}
	parts := strings.SplitN(strings.ToLower(v), "x", 2)
	if len(parts) != 2 {
		return def, conversionErr(key, v, "dimensions")
	}
	w, werr := strconv.Atoi(parts[0])
	h, herr := strconv.Atoi(parts[1])
	if werr != nil || herr != nil {
		return def, conversionErr(key, v, "dimensions")
	}
	return Dimensions{W: w, H: h}, nil
}

// Pos converts an X+Y value held against key, e.g. pos=2+2.
func (u Uri) Pos(key string, def Position) (Position, error) {
	v, ok := u.Params[key]
	if !ok {
		return def, nil
	}
	parts := strings.SplitN(v, "+", 2)
	if len(parts) != 2 {
		return def, conversionErr(key, v, "position")
	}
	x, xerr := strconv.Atoi(parts[0])
	y, yerr := strconv.Atoi(parts[1])
	if xerr != nil || yerr != nil {
		return def, conversionErr(key, v, "position")
	}
	return Position{X: x, Y: y}, nil
}

func conversionErr(key, value, want string) error {
	return fmt.Errorf("%w: param %q value %q is not a valid %s", ErrParamConversion, key, value, want)
}

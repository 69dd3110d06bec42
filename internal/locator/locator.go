// Package locator parses and composes storage locator links of the form
//
//	scheme://host/.../buckets/{container}/objects/{object...}[/operation]
//
// The object key is percent-decoded and may itself contain "/".
package locator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/docseek/docseek/internal/apperr"
)

// Locator addresses a stored object in the repository's blob store.
type Locator struct {
	ContainerKey string `json:"container_key"`
	ObjectKey    string `json:"object_key"`
}

// DefaultPrefix is the service path that precedes "buckets" in repository links.
const DefaultPrefix = "oss/v2"

// operationSuffixes are trailing path segments naming an operation on the object
// rather than part of its key.
var operationSuffixes = map[string]struct{}{
	"signeds3download": {},
	"signeds3upload":   {},
	"signed":           {},
	"details":          {},
}

// Parse extracts the container and object keys from link.
//
// When the object is spread over several raw segments and the last one is an
// operation name (details, signed, signeds3download, signeds3upload), that
// segment is dropped: objects/nested/deeper/details yields "nested/deeper".
// A key that really ends in "/details" must have its slashes escaped, as
// Compose does, to survive the round trip. A lone segment is always the key.
func Parse(link string) (Locator, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return Locator{}, fmt.Errorf("%w: empty link", apperr.ErrMalformedLocator)
	}
	u, err := url.Parse(link)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", apperr.ErrMalformedLocator, err)
	}

	// Split the escaped path so %2F inside a segment survives until decoding.
	segs := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")

	b := -1
	for i, s := range segs {
		if s == "buckets" {
			b = i
			break
		}
	}
	// buckets/{container}/objects/{object...}
	if b < 0 || len(segs) < b+4 || segs[b+2] != "objects" {
		return Locator{}, fmt.Errorf("%w: unexpected path %q", apperr.ErrMalformedLocator, u.EscapedPath())
	}

	container, err := url.PathUnescape(segs[b+1])
	if err != nil || container == "" {
		return Locator{}, fmt.Errorf("%w: bad container segment %q", apperr.ErrMalformedLocator, segs[b+1])
	}

	rest := segs[b+3:]
	if len(rest) > 1 {
		if _, ok := operationSuffixes[rest[len(rest)-1]]; ok {
			rest = rest[:len(rest)-1]
		}
	}
	object, err := url.PathUnescape(strings.Join(rest, "/"))
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", apperr.ErrMalformedLocator, err)
	}
	if object == "" {
		return Locator{}, fmt.Errorf("%w: empty object key", apperr.ErrMalformedLocator)
	}

	return Locator{ContainerKey: container, ObjectKey: object}, nil
}

// Compose builds a link for loc under baseURL. The object key is escaped as a
// single path segment, so Parse(Compose(b, l)) == l.
func Compose(baseURL string, loc Locator) string {
	return strings.TrimRight(baseURL, "/") + "/" + DefaultPrefix + "/" + loc.Path()
}

// Path returns the escaped "buckets/{container}/objects/{object}" path of loc.
func (l Locator) Path() string {
	return "buckets/" + url.PathEscape(l.ContainerKey) + "/objects/" + url.PathEscape(l.ObjectKey)
}

func (l Locator) String() string {
	return l.ContainerKey + "/" + l.ObjectKey
}

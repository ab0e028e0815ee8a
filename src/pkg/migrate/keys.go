package migrate

import (
	"fmt"
	"reflect"

	"github.com/Masterminds/semver/v3"
)

// TypeKey returns the Version tag denoting obj's concrete runtime type.
// Type tags let class-shaped data use its own types as graph nodes instead
// of explicit version values; reflect.Type values are comparable, so they
// work as registry keys like any other Version.
func TypeKey(obj any) Version {
	return reflect.TypeOf(obj)
}

// TypeKeyOf returns the Version tag for T without needing a value of it.
// TypeKeyOf[ProfileV2]() equals TypeKey(ProfileV2{}).
func TypeKeyOf[T any]() Version {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// SemverKey parses s as semantic version and returns its canonical form as
// the Version key, so "v1.2" and "1.2.0" address the same graph node.
func SemverKey(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid semver key %q: %w", s, err)
	}
	return v.String(), nil
}

// MustSemverKey is SemverKey for version literals known at compile time.
func MustSemverKey(s string) Version {
	v, err := SemverKey(s)
	if err != nil {
		panic(err)
	}
	return v
}

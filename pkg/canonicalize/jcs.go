// Package canonicalize provides RFC 8785 (JSON Canonicalization Scheme)
// serialization for deterministic hashing and signing of trustcore records.
//
// Two implementations using different canonical forms cannot cross-verify
// ledgers or interoperate on exported snapshots, so this package is the
// single source of canonical bytes for the whole module.
package canonicalize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/gowebpki/jcs"

	"github.com/verity-labs/trustcore/pkg/crypto"
)

// Marshal returns the RFC 8785 canonical JSON representation of v.
//
// The value is first marshaled with encoding/json (so struct tags are
// respected), then transformed to canonical form: keys sorted by UTF-8
// code points, no insignificant whitespace, canonical number formatting.
func Marshal(v any) ([]byte, error) {
	if hasNaNOrInf(reflect.ValueOf(v)) {
		return nil, fmt.Errorf("canonicalize: value contains NaN or Infinity")
	}

	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: pre-marshal failed: %w", err)
	}

	canonical, err := jcs.Transform(intermediate)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: jcs transform failed: %w", err)
	}
	return canonical, nil
}

// Hash returns the prefixed hex digest (e.g. "sha256:...") of the canonical
// JSON representation of v.
func Hash(d crypto.Digest, v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return crypto.SumHex(d, b), nil
}

// hasNaNOrInf walks v looking for float values that are not valid JSON
// numbers. encoding/json rejects them too, but with an opaque error; we
// fail earlier with a canonicalization error instead.
//
//nolint:gocognit // complexity acceptable
func hasNaNOrInf(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return math.IsNaN(f) || math.IsInf(f, 0)
	case reflect.Map:
		for _, key := range v.MapKeys() {
			if hasNaNOrInf(v.MapIndex(key)) {
				return true
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if hasNaNOrInf(v.Index(i)) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if hasNaNOrInf(v.Field(i)) {
				return true
			}
		}
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			return hasNaNOrInf(v.Elem())
		}
	}
	return false
}

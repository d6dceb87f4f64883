// Package ident implements the store's identifier and provenance model:
// BaseUrl/VersionedUrl for ontology types, EntityId/EntityEditionId for
// entities, and the tagged ActorId used to attribute every edition to
// whoever wrote it.
package ident

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BaseUrl is the stable, versionless URL identifying a type family. Its
// canonical form always ends in "/"; BaseUrl is byte-stable once parsed so
// it can be used as a map key and compared with ==.
type BaseUrl struct {
	raw string
}

// ParseBaseUrl validates that s is an absolute URL ending in "/".
func ParseBaseUrl(s string) (BaseUrl, error) {
	if !strings.HasSuffix(s, "/") {
		return BaseUrl{}, fmt.Errorf("ident: base URL %q must end in '/'", s)
	}
	u, err := url.Parse(s)
	if err != nil {
		return BaseUrl{}, fmt.Errorf("ident: invalid base URL %q: %w", s, err)
	}
	if !u.IsAbs() {
		return BaseUrl{}, fmt.Errorf("ident: base URL %q must be absolute", s)
	}
	return BaseUrl{raw: s}, nil
}

func (b BaseUrl) String() string { return b.raw }

// MarshalJSON renders the base URL as a bare JSON string.
func (b BaseUrl) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(b.raw)), nil
}

// UnmarshalJSON parses a bare JSON string into a BaseUrl, validating it.
func (b *BaseUrl) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := ParseBaseUrl(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalText renders the raw URL, letting BaseUrl serve as a map key in
// any map encoding/json marshals (e.g. entity.Properties).
func (b BaseUrl) MarshalText() ([]byte, error) {
	return []byte(b.raw), nil
}

// UnmarshalText parses and validates the raw URL, the map-key counterpart
// to MarshalText.
func (b *BaseUrl) UnmarshalText(text []byte) error {
	parsed, err := ParseBaseUrl(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// OntologyTypeVersion is an unsigned, monotonically increasing edition
// counter scoped to a single BaseUrl. Versions start at 1; 0 is never
// assigned to a real edition.
type OntologyTypeVersion uint32

// VersionedUrl names one immutable edition of a type: "{base}v/{n}".
type VersionedUrl struct {
	BaseURL BaseUrl
	Version OntologyTypeVersion
}

// String renders the canonical "{base}v/{n}" form.
func (v VersionedUrl) String() string {
	return fmt.Sprintf("%sv/%d", v.BaseURL.raw, v.Version)
}

// ParseVersionedUrl parses "{base}v/{n}", rejecting anything after the
// version number and non-numeric versions.
func ParseVersionedUrl(s string) (VersionedUrl, error) {
	idx := strings.LastIndex(s, "v/")
	if idx < 0 || idx == 0 || s[idx-1] != '/' {
		return VersionedUrl{}, fmt.Errorf("ident: %q is not a versioned URL (missing '.../v/<n>' suffix)", s)
	}
	base := s[:idx]
	versionPart := s[idx+2:]
	if versionPart == "" {
		return VersionedUrl{}, fmt.Errorf("ident: %q has no version number", s)
	}
	version, err := strconv.ParseUint(versionPart, 10, 32)
	if err != nil {
		return VersionedUrl{}, fmt.Errorf("ident: %q has a non-numeric version: %w", s, err)
	}
	baseURL, err := ParseBaseUrl(base)
	if err != nil {
		return VersionedUrl{}, fmt.Errorf("ident: %q has an invalid base: %w", s, err)
	}
	return VersionedUrl{BaseURL: baseURL, Version: OntologyTypeVersion(version)}, nil
}

// MarshalJSON renders the versioned URL as a bare JSON string.
func (v VersionedUrl) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(v.String())), nil
}

// UnmarshalJSON parses a bare JSON string into a VersionedUrl.
func (v *VersionedUrl) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := ParseVersionedUrl(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// OntologyTypeRecordId is a VersionedUrl naming one edition row; the two
// are structurally identical (one record per edition), kept as distinct
// names because the store layer reads record IDs off rows while query
// code reads versioned URLs off schemas.
type OntologyTypeRecordId = VersionedUrl

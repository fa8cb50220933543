package job

import (
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var sha256Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// staticURLAttrs is the closed attribute schema of the static_url
// variant. Anything else is a malformed declaration: a typo'd optional
// attribute silently changing task behavior is exactly what the closed
// schema exists to stop.
var staticURLAttrs = map[string]struct{}{
	"url":              {},
	"sha256":           {},
	"size":             {},
	"artifact_name":    {},
	"strip_components": {},
	"add_prefix":       {},
}

// Validate checks a raw declaration against the fetch schema and
// returns the typed descriptor. It has no side effects and collects
// every violated constraint rather than stopping at the first; on
// failure the returned error is a *ValidationError holding all of them.
func Validate(raw *RawJob) (*Descriptor, error) {
	var issues []error

	d := &Descriptor{
		Name:         raw.Name,
		Description:  raw.Description,
		ManifestName: raw.ManifestName,
	}

	if raw.Name == "" {
		issues = append(issues, &MissingFieldError{Field: "name"})
	}
	if raw.Description == "" {
		issues = append(issues, &MissingFieldError{Field: "description"})
	}

	switch raw.Kind {
	case string(KindStaticURL):
		d.Kind = KindStaticURL
		issues = append(issues, validateStaticURL(raw, d)...)
	case "":
		issues = append(issues, &MissingFieldError{Field: "fetch"})
	default:
		issues = append(issues, &UnsupportedKindError{Kind: raw.Kind})
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Job: raw.Name, Issues: issues}
	}
	return d, nil
}

func validateStaticURL(raw *RawJob, d *Descriptor) []error {
	var issues []error

	var unknown []string
	for name := range raw.Attrs {
		if _, ok := staticURLAttrs[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		issues = append(issues, &MalformedFieldError{Field: name, Reason: "not a recognized attribute"})
	}

	d.URL = requireString(raw.Attrs, "url", &issues)
	if d.URL != "" && strings.HasSuffix(d.URL, "/") {
		issues = append(issues, &MalformedFieldError{Field: "url", Reason: "final path segment must name a file"})
	}
	d.SHA256 = requireString(raw.Attrs, "sha256", &issues)
	if d.SHA256 != "" && !sha256Pattern.MatchString(d.SHA256) {
		issues = append(issues, &MalformedFieldError{Field: "sha256", Reason: "must be 64 lowercase hex characters"})
	}

	if size, ok, err := intAttr(raw.Attrs, "size"); err != nil {
		issues = append(issues, err)
	} else if !ok {
		issues = append(issues, &MissingFieldError{Field: "size"})
	} else if size <= 0 {
		issues = append(issues, &MalformedFieldError{Field: "size", Reason: "must be positive"})
	} else {
		d.Size = size
	}

	if name, ok, err := stringAttr(raw.Attrs, "artifact_name"); err != nil {
		issues = append(issues, err)
	} else if ok && name == "" {
		issues = append(issues, &MalformedFieldError{Field: "artifact_name", Reason: "must not be empty"})
	} else {
		d.ArtifactName = name
	}

	if strip, ok, err := intAttr(raw.Attrs, "strip_components"); err != nil {
		issues = append(issues, err)
	} else if ok && strip < 0 {
		issues = append(issues, &MalformedFieldError{Field: "strip_components", Reason: "must not be negative"})
	} else if ok {
		d.StripComponents = int(strip)
	}

	if prefix, _, err := stringAttr(raw.Attrs, "add_prefix"); err != nil {
		issues = append(issues, err)
	} else {
		d.AddPrefix = prefix
	}

	if raw.GPG != nil {
		gpg := &GPGSignature{}
		gpg.SigURL = requireString(raw.GPG, "gpg_signature.sig_url", &issues, "sig_url")
		gpg.KeyPath = requireString(raw.GPG, "gpg_signature.key_path", &issues, "key_path")
		d.GPG = gpg
	}

	return issues
}

// requireString fetches a mandatory non-empty string attribute,
// appending the appropriate issue when it is absent or unusable. The
// optional final argument overrides the map key looked up, so nested
// block attributes can be reported under their qualified name.
func requireString(attrs map[string]cty.Value, field string, issues *[]error, key ...string) string {
	lookup := field
	if len(key) > 0 {
		lookup = key[0]
	}
	s, ok, err := stringAttr(attrs, lookup)
	if err != nil {
		*issues = append(*issues, &MalformedFieldError{Field: field, Reason: "must be a string"})
		return ""
	}
	if !ok {
		*issues = append(*issues, &MissingFieldError{Field: field})
		return ""
	}
	if s == "" {
		*issues = append(*issues, &MalformedFieldError{Field: field, Reason: "must not be empty"})
	}
	return s
}

// stringAttr returns the attribute as a string. The second result
// reports presence; absent and null attributes are treated alike.
func stringAttr(attrs map[string]cty.Value, name string) (string, bool, error) {
	v, ok := attrs[name]
	if !ok || v.IsNull() {
		return "", false, nil
	}
	conv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", true, &MalformedFieldError{Field: name, Reason: "must be a string"}
	}
	return conv.AsString(), true, nil
}

// intAttr returns the attribute as an integer, rejecting fractional
// numbers and values of any non-numeric type.
func intAttr(attrs map[string]cty.Value, name string) (int64, bool, error) {
	v, ok := attrs[name]
	if !ok || v.IsNull() {
		return 0, false, nil
	}
	conv, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, true, &MalformedFieldError{Field: name, Reason: "must be an integer"}
	}
	bf := conv.AsBigFloat()
	i, acc := bf.Int64()
	if acc != big.Exact {
		return 0, true, &MalformedFieldError{Field: name, Reason: fmt.Sprintf("must be an integer, got %s", bf.String())}
	}
	return i, true, nil
}

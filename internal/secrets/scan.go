// File: internal/secrets/scan.go
// Brief: Scan synthesized templates for literal credential material.

package secrets

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// Finding reports one suspicious literal in a synthesized template.
type Finding struct {
	Template string
	Path     string
	Rule     string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", f.Template, f.Path, f.Message, f.Rule)
}

// High-confidence credential shapes. Values are matched wherever they appear;
// parameter references and intrinsics survive as JSON objects and are never
// flagged.
var valueRules = []struct {
	id, message string
	re          *regexp.Regexp
}{
	{"private_key", "literal private key material", regexp.MustCompile(`-----BEGIN ([A-Z ]+ )?PRIVATE KEY-----`)},
	{"jwt", "literal signed token", regexp.MustCompile(`\beyJ[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}\b`)},
	{"aws_access_key", "literal cloud access key id", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"github_token", "literal forge token", regexp.MustCompile(`\b(ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{20,}\b`)},
}

// suspiciousKeyRE matches names that usually carry secrets. A name alone is
// fine when its value is a reference; a name plus a literal string is a
// finding.
var suspiciousKeyRE = regexp.MustCompile(`(?i)(token|secret|password|passwd|api[_-]?key|private[_-]?key|aws[_-]?secret)`)

// ScanTemplate walks one rendered template and returns findings for literal
// credential material: secret-shaped values anywhere, and secret-named keys
// whose value is a plain string rather than a reference to be resolved at
// apply time. Findings are sorted by path for stable output.
func ScanTemplate(templateName string, raw []byte) ([]Finding, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", templateName, err)
	}
	var findings []Finding
	walkTemplate("", doc, func(path, key, value string) {
		for _, r := range valueRules {
			if r.re.MatchString(value) {
				findings = append(findings, Finding{
					Template: templateName,
					Path:     path,
					Rule:     r.id,
					Message:  r.message,
				})
				return
			}
		}
		// Short literals next to a secret-named key are unit or mode
		// strings ("minutes", "enabled"), not credentials.
		if key != "" && suspiciousKeyRE.MatchString(key) && len(value) >= 8 {
			findings = append(findings, Finding{
				Template: templateName,
				Path:     path,
				Rule:     "secret_named_literal",
				Message:  fmt.Sprintf("%s carries a literal value; inject it at runtime instead", key),
			})
		}
	})
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Rule < findings[j].Rule
	})
	return findings, nil
}

// walkTemplate visits every string leaf with its JSON path and nearest key.
// Environment entries ({"Name": ..., "Value": ...}) pair the name with the
// value so secret-named variables are caught even though name and value sit
// in sibling fields.
func walkTemplate(path string, v any, visit func(path, key, value string)) {
	switch node := v.(type) {
	case map[string]any:
		if name, ok := node["Name"].(string); ok {
			if value, ok := node["Value"].(string); ok {
				visit(path+"."+name, name, value)
				return
			}
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := path + "." + k
			if s, ok := node[k].(string); ok {
				visit(child, k, s)
				continue
			}
			walkTemplate(child, node[k], visit)
		}
	case []any:
		for i, item := range node {
			walkTemplate(fmt.Sprintf("%s[%d]", path, i), item, visit)
		}
	case string:
		visit(path, "", node)
	}
}

package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// renderLiteral produces the literal form of an annotation value.
// Scalars render as themselves; composites render as compact JSON.
func renderLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return "null"
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
	case int:
		return fmt.Sprintf("%d", v)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}

// escapeLiteral applies N-Triples string escaping.
func escapeLiteral(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}

// SerializeNTriples writes the graph in N-Triples form. With sorted
// set, triples are emitted in lexical order for reproducible output;
// otherwise insertion order is kept.
func (g *Graph) SerializeNTriples(w io.Writer, sorted bool) error {
	triples := g.triples
	if sorted {
		triples = make([]Triple, len(g.triples))
		copy(triples, g.triples)
		sort.Slice(triples, func(i, j int) bool {
			a, b := triples[i], triples[j]
			if a.Subject != b.Subject {
				return a.Subject < b.Subject
			}
			if a.Predicate != b.Predicate {
				return a.Predicate < b.Predicate
			}
			return a.Object < b.Object
		})
	}
	for _, t := range triples {
		var line string
		if t.Literal {
			line = fmt.Sprintf("<%s> <%s> %q .\n", t.Subject, t.Predicate, escapeLiteral(t.Object))
		} else {
			line = fmt.Sprintf("<%s> <%s> <%s> .\n", t.Subject, t.Predicate, t.Object)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// SerializeDebug writes a compact human-readable rendering: subjects
// shortened relative to base, predicates shortened to their local
// names, and type objects title-cased ("path-item" reads as
// "Path Item"). Triples are grouped by subject in sorted order.
func (g *Graph) SerializeDebug(w io.Writer, base string) error {
	triples := make([]Triple, len(g.triples))
	copy(triples, g.triples)
	sort.SliceStable(triples, func(i, j int) bool {
		a, b := triples[i], triples[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Predicate < b.Predicate
	})

	titler := cases.Title(language.English, cases.NoLower)
	var lastSubject string
	for _, t := range triples {
		subject := shorten(t.Subject, base)
		if subject != lastSubject {
			if lastSubject != "" {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%s\n", subject); err != nil {
				return err
			}
			lastSubject = subject
		}

		predicate := localName(t.Predicate, g.ns)
		object := t.Object
		switch {
		case t.Predicate == RDFType:
			predicate = "type"
			object = titler.String(splitWords(localName(t.Object, g.ns)))
		case !t.Literal:
			object = shorten(t.Object, base)
		default:
			object = fmt.Sprintf("%q", object)
		}
		if _, err := fmt.Fprintf(w, "    %s: %s\n", predicate, object); err != nil {
			return err
		}
	}
	return nil
}

// shorten trims the base prefix from an identifier, keeping at least
// the fragment readable.
func shorten(uri, base string) string {
	if base == "" || !strings.HasPrefix(uri, base) {
		return uri
	}
	short := strings.TrimPrefix(uri, base)
	if short == "" {
		return "<root>"
	}
	return short
}

// splitWords breaks a kebab-case or camel-case type name into
// space-separated words, so "path-item" and "PathItem" both read as
// "path item" before title casing.
func splitWords(name string) string {
	name = strings.ReplaceAll(name, "-", " ")
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if (prev >= 'a' && prev <= 'z') || (prev >= 'A' && prev <= 'Z' && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// localName trims the ontology or RDF namespace from a term.
func localName(term, ns string) string {
	if strings.HasPrefix(term, ns) {
		return strings.TrimPrefix(term, ns)
	}
	if idx := strings.LastIndexAny(term, "#/"); idx >= 0 {
		return term[idx+1:]
	}
	return term
}

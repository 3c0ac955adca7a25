// Package enml rewrites the note markup dialect carried inside .enex exports
// into sanitized HTML. The input element set is small and fixed, so the
// conversion works as staged string rewriting rather than a full DOM
// transform, the same strategy the rest of the codebase uses for markup
// surgery. Known limitation: attribute values containing ">" are handled
// heuristically.
package enml

import (
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"
)

// Resource is the resolved location of one extracted attachment, keyed in a
// ResourceMap by the content hash the markup references.
type Resource struct {
	URL      string
	Mime     string
	FileName string
}

type ResourceMap map[string]Resource

type Options struct {
	// SkipSanitize leaves event handlers and script-scheme URLs in place.
	// The zero value sanitizes, which is what every production caller wants.
	SkipSanitize bool
}

var (
	xmlPrologRegex  = regexp.MustCompile(`(?i)<\?xml[^>]*\?>`)
	doctypeRegex    = regexp.MustCompile(`(?is)<!DOCTYPE[^>]*>`)
	enNoteOpenRegex = regexp.MustCompile(`(?is)<en-note([^>]*?)(/?)>`)
	enNoteEndRegex  = regexp.MustCompile(`(?i)</en-note>`)
	enMediaRegex    = regexp.MustCompile(`(?is)<en-media\b([^>]*?)/?>(?:\s*</en-media>)?`)
	enTodoRegex     = regexp.MustCompile(`(?is)<en-todo\b([^>]*?)/?>(?:\s*</en-todo>)?`)
	enCryptRegex    = regexp.MustCompile(`(?is)<en-crypt\b[^>]*?(?:/>|>.*?</en-crypt>)`)
	attrRegex       = regexp.MustCompile(`([a-zA-Z_:][a-zA-Z0-9_:.-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

	eventAttrRegex = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	jsURLRegex     = regexp.MustCompile(`(?i)(href|src)\s*=\s*(["'])\s*javascript:[^"']*(["'])`)
	dataHrefRegex  = regexp.MustCompile(`(?i)href\s*=\s*(["'])\s*data:[^"']*(["'])`)

	tagRegex        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Elements that could carry executable or interactive behaviour are removed
// outright, content included, before any attribute-level sanitization runs.
var denylistTags = []string{
	"script", "style", "iframe", "frame", "frameset",
	"object", "embed", "applet", "form", "button",
}

type denyPattern struct {
	paired *regexp.Regexp
	single *regexp.Regexp
}

var denyPatterns = buildDenyPatterns()

func buildDenyPatterns() []denyPattern {
	patterns := make([]denyPattern, 0, len(denylistTags))
	for _, tag := range denylistTags {
		patterns = append(patterns, denyPattern{
			paired: regexp.MustCompile(`(?is)<` + tag + `\b[^>]*>.*?</` + tag + `\s*>`),
			single: regexp.MustCompile(`(?is)</?` + tag + `\b[^>]*>`),
		})
	}
	return patterns
}

const encryptedPlaceholder = `<span class="en-crypt">[encrypted content - not imported]</span>`

// ConvertToHTML rewrites note markup into HTML, resolving media references
// through the supplied resource map. It never fails: unresolvable references
// become visible placeholders and unknown elements pass through untouched.
func ConvertToHTML(markup string, resources ResourceMap, opts Options) string {
	out := xmlPrologRegex.ReplaceAllString(markup, "")
	out = doctypeRegex.ReplaceAllString(out, "")
	out = rewriteRoot(out)
	out = rewriteMedia(out, resources)
	out = rewriteTodos(out)
	out = enCryptRegex.ReplaceAllString(out, encryptedPlaceholder)
	out = stripDenylist(out)
	if !opts.SkipSanitize {
		out = sanitize(out)
	}
	return strings.TrimSpace(out)
}

// SanitizeHTML applies only the structural denylist and attribute
// sanitization stages; used for HTML arriving from other import paths.
func SanitizeHTML(html string) string {
	return strings.TrimSpace(sanitize(stripDenylist(html)))
}

// ExtractPlainText produces the search projection: the converted document
// with every tag stripped, the few entities the format emits decoded, and
// whitespace collapsed.
func ExtractPlainText(markup string) string {
	html := ConvertToHTML(markup, nil, Options{})
	text := tagRegex.ReplaceAllString(html, " ")
	text = decodeEntities(text)
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

func rewriteRoot(markup string) string {
	out := enNoteOpenRegex.ReplaceAllStringFunc(markup, func(match string) string {
		groups := enNoteOpenRegex.FindStringSubmatch(match)
		attrs := strings.TrimRight(groups[1], " \t\r\n")
		if groups[2] == "/" {
			return `<div class="en-note"` + attrs + `></div>`
		}
		return `<div class="en-note"` + attrs + `>`
	})
	return enNoteEndRegex.ReplaceAllString(out, "</div>")
}

func rewriteMedia(markup string, resources ResourceMap) string {
	return enMediaRegex.ReplaceAllStringFunc(markup, func(match string) string {
		groups := enMediaRegex.FindStringSubmatch(match)
		attrs := parseAttrs(groups[1])
		hash := attrs["hash"]
		mime := attrs["type"]
		if mime == "" {
			mime = "application/octet-stream"
		}
		res, ok := resources[hash]
		if !ok {
			return fmt.Sprintf(`<span class="en-media-missing" data-hash="%s" data-mime="%s">[missing attachment]</span>`,
				stdhtml.EscapeString(hash), stdhtml.EscapeString(mime))
		}
		return renderMedia(res, mime, attrs)
	})
}

func renderMedia(res Resource, mime string, attrs map[string]string) string {
	url := stdhtml.EscapeString(res.URL)
	dims := dimensionAttrs(attrs)
	switch {
	case strings.HasPrefix(mime, "image/"):
		alt := res.FileName
		if alt == "" {
			alt = "image"
		}
		return fmt.Sprintf(`<img src="%s" alt="%s" loading="lazy"%s/>`, url, stdhtml.EscapeString(alt), dims)
	case strings.HasPrefix(mime, "audio/"):
		return fmt.Sprintf(`<audio controls><source src="%s" type="%s"></audio>`, url, stdhtml.EscapeString(mime))
	case strings.HasPrefix(mime, "video/"):
		return fmt.Sprintf(`<video controls%s><source src="%s" type="%s"></video>`, dims, url, stdhtml.EscapeString(mime))
	case mime == "application/pdf":
		return downloadLink(res, url, "PDF document")
	default:
		return downloadLink(res, url, "Attachment")
	}
}

func downloadLink(res Resource, escapedURL, fallback string) string {
	label := res.FileName
	if label == "" {
		label = fallback
	}
	return fmt.Sprintf(`<a href="%s" class="en-attachment" download="%s">%s</a>`,
		escapedURL, stdhtml.EscapeString(res.FileName), stdhtml.EscapeString(label))
}

var digitsRegex = regexp.MustCompile(`^[0-9]+$`)

func dimensionAttrs(attrs map[string]string) string {
	var builder strings.Builder
	if width := attrs["width"]; digitsRegex.MatchString(width) {
		builder.WriteString(fmt.Sprintf(` width="%s"`, width))
	}
	if height := attrs["height"]; digitsRegex.MatchString(height) {
		builder.WriteString(fmt.Sprintf(` height="%s"`, height))
	}
	return builder.String()
}

func rewriteTodos(markup string) string {
	return enTodoRegex.ReplaceAllStringFunc(markup, func(match string) string {
		groups := enTodoRegex.FindStringSubmatch(match)
		attrs := parseAttrs(groups[1])
		if strings.EqualFold(attrs["checked"], "true") {
			return `<input type="checkbox" checked disabled/>`
		}
		return `<input type="checkbox" disabled/>`
	})
}

func stripDenylist(markup string) string {
	for _, pattern := range denyPatterns {
		markup = pattern.paired.ReplaceAllString(markup, "")
		markup = pattern.single.ReplaceAllString(markup, "")
	}
	return markup
}

func sanitize(markup string) string {
	out := eventAttrRegex.ReplaceAllString(markup, "")
	out = jsURLRegex.ReplaceAllString(out, `$1=$2#$3`)
	// data: URLs are neutralized in hyperlink targets only; inline image
	// data is common in real notes and not executable.
	out = dataHrefRegex.ReplaceAllString(out, `href=$1#$2`)
	return out
}

func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, groups := range attrRegex.FindAllStringSubmatch(raw, -1) {
		value := groups[2]
		if value == "" && groups[3] != "" {
			value = groups[3]
		}
		attrs[strings.ToLower(groups[1])] = value
	}
	return attrs
}

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&amp;", "&",
)

// decodeEntities handles the small fixed set the export format is known to
// emit; the replacer runs a single pass, so a decoded &amp; cannot
// manufacture a new entity.
func decodeEntities(text string) string {
	return entityReplacer.Replace(text)
}

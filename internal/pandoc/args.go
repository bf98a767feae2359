// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import "strings"

// option describes a pandoc flag by its short and long spellings.
type option struct {
	short string // e.g. "-t"; empty when the flag has no short form
	long  string // e.g. "--to"
}

var (
	optTo           = option{short: "-t", long: "--to"}
	optWrite        = option{short: "-w", long: "--write"}
	optFrom         = option{short: "-f", long: "--from"}
	optRead         = option{short: "-r", long: "--read"}
	optOutput       = option{short: "-o", long: "--output"}
	optExtractMedia = option{long: "--extract-media"}
	optTrackChanges = option{long: "--track-changes"}
)

// match reports whether arg selects o and, if so, the inline value and
// whether the value is carried by the next token instead.
func (o option) match(arg string) (value string, ok, needsNext bool) {
	switch {
	case arg == o.long || (o.short != "" && arg == o.short):
		return "", true, true
	case strings.HasPrefix(arg, o.long+"="):
		return arg[len(o.long)+1:], true, false
	case o.short != "" && len(arg) > len(o.short) && strings.HasPrefix(arg, o.short) && !strings.HasPrefix(arg, "--"):
		return arg[len(o.short):], true, false
	}
	return "", false, false
}

// lastValue scans args for any of opts and returns the value of the last
// occurrence. A selector with no following token is ignored.
func lastValue(args []string, opts ...option) (string, bool) {
	var (
		found bool
		value string
	)
	for i := 0; i < len(args); i++ {
		for _, o := range opts {
			v, ok, next := o.match(args[i])
			if !ok {
				continue
			}
			if next {
				if i+1 >= len(args) {
					break
				}
				i++
				v = args[i]
			}
			value, found = v, true
			break
		}
	}
	return value, found
}

// WriterFormat returns the writer format selected by args (-t X, --to X,
// --to=X, -tX, or the -w/--write aliases), or def when none is present.
// The last occurrence wins.
func WriterFormat(args []string, def string) string {
	if v, ok := lastValue(args, optTo, optWrite); ok && v != "" {
		return v
	}
	return def
}

// ReaderFormat returns the reader format selected by args (-f/--from or
// -r/--read), or def when none is present.
func ReaderFormat(args []string, def string) string {
	if v, ok := lastValue(args, optFrom, optRead); ok && v != "" {
		return v
	}
	return def
}

// without returns args minus every occurrence of opts, including the
// separate value token of the two-token forms. Order is preserved.
func without(args []string, opts ...option) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		dropped := false
		for _, o := range opts {
			if _, ok, next := o.match(args[i]); ok {
				if next {
					i++
				}
				dropped = true
				break
			}
		}
		if !dropped {
			out = append(out, args[i])
		}
	}
	return out
}

// RenderArgs narrows a passthrough list to the options that are safe to
// combine with a forced JSON-to-text render: target format, output path and
// media extraction selectors are dropped, everything else is kept in order.
func RenderArgs(args []string) []string {
	return without(args, optTo, optWrite, optOutput, optExtractMedia)
}

// ParseArgs narrows a passthrough list for a text-to-JSON parse. Target and
// output selectors are dropped; media extraction is kept because it happens
// while reading. Reading DOCX always turns on --track-changes=all unless the
// caller chose a --track-changes mode, since comments are only surfaced that
// way.
func ParseArgs(args []string, from string) []string {
	out := without(args, optTo, optWrite, optOutput)
	if baseFormat(from) == "docx" {
		if _, ok := lastValue(out, optTrackChanges); !ok {
			out = append(out, "--track-changes=all")
		}
	}
	return out
}

// baseFormat strips extension modifiers: "markdown+smart-raw_html" -> "markdown".
func baseFormat(format string) string {
	if i := strings.IndexAny(format, "+-"); i > 0 {
		return format[:i]
	}
	return format
}

// MarkdownReader picks the reader that can parse what writer produced.
// Formats that cannot express attributed spans are read back as pandoc
// markdown.
func MarkdownReader(writer string) string {
	switch baseFormat(writer) {
	case "markdown", "markdown_mmd", "markdown_phpextra", "markdown_strict", "commonmark_x":
		return writer
	}
	return "markdown"
}

package mux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/avokadi/husk/internal/status"
)

// Segment templates follow the DASH identifier grammar: literals mixed
// with $RepresentationID$, $Number$, $Time$, and $Bandwidth$, where the
// numeric identifiers accept a %0<width>d format tag and $$ escapes a
// dollar sign.

// ValidateSegmentTemplate checks a segment template against the
// identifier grammar. Exactly one of $Number$ and $Time$ must appear.
func ValidateSegmentTemplate(template string) error {
	if template == "" {
		return status.InvalidArgument("segment template is empty")
	}
	parts := strings.Split(template, "$")
	if len(parts)%2 == 0 {
		return status.InvalidArgument("segment template %q has unbalanced '$'", template)
	}

	numberOrTime := 0
	for i := 1; i < len(parts); i += 2 {
		identifier, format := splitFormatTag(parts[i])
		switch identifier {
		case "":
			// "$$" escape.
			if format != "" {
				return status.InvalidArgument("segment template %q has a format tag on '$$'", template)
			}
		case "RepresentationID":
			if format != "" {
				return status.InvalidArgument(
					"segment template %q: $RepresentationID$ does not accept a format tag", template)
			}
		case "Number", "Time":
			numberOrTime++
			if err := validateFormatTag(template, format); err != nil {
				return err
			}
		case "Bandwidth":
			if err := validateFormatTag(template, format); err != nil {
				return err
			}
		default:
			return status.InvalidArgument("segment template %q has unknown identifier $%s$", template, parts[i])
		}
	}

	if numberOrTime == 0 {
		return status.InvalidArgument("segment template %q needs $Number$ or $Time$", template)
	}
	if numberOrTime > 1 {
		return status.InvalidArgument("segment template %q must not mix $Number$ and $Time$", template)
	}
	return nil
}

func splitFormatTag(identifier string) (name, format string) {
	if i := strings.IndexByte(identifier, '%'); i >= 0 {
		return identifier[:i], identifier[i:]
	}
	return identifier, ""
}

func validateFormatTag(template, format string) error {
	if format == "" {
		return nil
	}
	if !strings.HasPrefix(format, "%0") || !strings.HasSuffix(format, "d") {
		return status.InvalidArgument("segment template %q has invalid format tag %q", template, format)
	}
	width := format[2 : len(format)-1]
	if width == "" {
		return status.InvalidArgument("segment template %q has invalid format tag %q", template, format)
	}
	if _, err := strconv.Atoi(width); err != nil {
		return status.InvalidArgument("segment template %q has invalid format tag %q", template, format)
	}
	return nil
}

// FillTemplate substitutes identifiers to produce a concrete segment
// name. The template is assumed valid.
func FillTemplate(template string, number uint32, timeMs int64, representationID string, bandwidth uint32) string {
	parts := strings.Split(template, "$")
	var b strings.Builder
	for i, part := range parts {
		if i%2 == 0 {
			b.WriteString(part)
			continue
		}
		identifier, format := splitFormatTag(part)
		switch identifier {
		case "":
			b.WriteByte('$')
		case "RepresentationID":
			b.WriteString(representationID)
		case "Number":
			b.WriteString(formatValue(int64(number), format))
		case "Time":
			b.WriteString(formatValue(timeMs, format))
		case "Bandwidth":
			b.WriteString(formatValue(int64(bandwidth), format))
		}
	}
	return b.String()
}

func formatValue(v int64, format string) string {
	if format == "" {
		return strconv.FormatInt(v, 10)
	}
	width, _ := strconv.Atoi(format[2 : len(format)-1])
	return fmt.Sprintf("%0*d", width, v)
}

package presenter

import (
	"bufio"
	"fmt"
	"io"
)

// RenderText writes v for a plain terminal. Suggestions are numbered so
// they can be picked by typing the number.
func RenderText(w io.Writer, v View) error {
	out := bufio.NewWriter(w)

	switch {
	case v.IsIdle():
		fmt.Fprintf(out, "%s  [%s]\n", v.Title, v.Badge)
		if len(v.Suggestions) > 0 {
			fmt.Fprintf(out, "\n%s:\n", v.SuggestionsHeading)
			for i, s := range v.Suggestions {
				fmt.Fprintf(out, "  %d. %s\n", i+1, s)
			}
		}

	case v.Loading:
		fmt.Fprintf(out, "%s %q\n", v.LoadingLabel, v.Query)

	case v.Error != nil:
		fmt.Fprintf(out, "%s\n  %s\n  (/retry: %s)\n", v.Error.Title, v.Error.Message, v.Error.RetryLabel)

	default:
		if v.Sources != nil {
			fmt.Fprintf(out, "%s\n", v.Sources.Heading)
			for _, c := range v.Sources.Cards {
				fmt.Fprintf(out, "  %-4s %s | %s\n       %s\n", c.Label(), c.Domain, c.Title, c.URI)
			}
			fmt.Fprintln(out)
		}
		if v.Answer != nil {
			for _, line := range v.Answer.Lines() {
				fmt.Fprintln(out, line)
			}
		}
	}

	return out.Flush()
}

package numeric

import (
	"regexp"
	"strings"
)

var (
	fracRe  = regexp.MustCompile(`\\[dt]?frac\s*\{([^{}]*)\}\s*\{([^{}]*)\}`)
	sqrtRe  = regexp.MustCompile(`\\sqrt\s*\{([^{}]*)\}`)
	cmdRe   = regexp.MustCompile(`\\([A-Za-z]+)`)
	spaceRe = regexp.MustCompile(`\\[,;:! ]`)
)

var symbolReplacer = strings.NewReplacer(
	"**", "^",
	"·", "*",
	"×", "*",
	"÷", "/",
	"−", "-",
	"π", "pi",
	`\cdot`, "*",
	`\times`, "*",
	`\div`, "/",
	`\left`, "",
	`\right`, "",
	`\pi`, "pi",
	`\infty`, "inf",
)

// Clean rewrites common LaTeX and Unicode notation into the plain
// expression syntax accepted by Parse.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "$")
	s = symbolReplacer.Replace(s)
	s = spaceRe.ReplaceAllString(s, " ")

	// \frac and \sqrt may nest; rewrite innermost first until stable.
	for {
		next := fracRe.ReplaceAllString(s, "(($1)/($2))")
		next = sqrtRe.ReplaceAllString(next, "sqrt($1)")
		if next == s {
			break
		}
		s = next
	}

	s = cmdRe.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("{", "(", "}", ")", "[", "(", "]", ")").Replace(s)
	return s
}

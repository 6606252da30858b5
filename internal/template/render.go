// Package template renders warming message templates: spintax variant groups
// first, then variable token substitution.
package template

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
)

var groupPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Render expands a template in two passes. Pass 1 replaces every {a|b|c}
// variant group with one option chosen uniformly at random; groups without a
// pipe are left for pass 2. Pass 2 substitutes recognized variable tokens
// (case-insensitive) with computed values plus any caller-supplied overrides.
// Unresolved tokens stay as literal text.
func Render(content string, overrides map[string]string) string {
	out := groupPattern.ReplaceAllStringFunc(content, func(match string) string {
		inner := match[1 : len(match)-1]
		if !strings.Contains(inner, "|") {
			return match
		}
		options := strings.Split(inner, "|")
		return options[rand.Intn(len(options))]
	})

	vars := defaultVariables(time.Now())
	for k, v := range overrides {
		vars[strings.ToLower(k)] = v
	}

	for name, value := range vars {
		pattern := regexp.MustCompile(`(?i)\{` + regexp.QuoteMeta(name) + `\}`)
		out = pattern.ReplaceAllLiteralString(out, value)
	}

	return out
}

// defaultVariables is the closed set of recognized tokens: current time,
// current date, and weekday name. Unknown tokens pass through unchanged.
func defaultVariables(now time.Time) map[string]string {
	return map[string]string{
		"hora": now.Format("15:04"),
		"data": now.Format("02/01/2006"),
		"dia":  weekdayName(now.Weekday()),
	}
}

func weekdayName(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "domingo"
	case time.Monday:
		return "segunda-feira"
	case time.Tuesday:
		return "terça-feira"
	case time.Wednesday:
		return "quarta-feira"
	case time.Thursday:
		return "quinta-feira"
	case time.Friday:
		return "sexta-feira"
	default:
		return "sábado"
	}
}

package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var wordSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// DisplayName turns an identifier into a title-cased label.
// Example: "text_processor" -> "Text Processor"
func DisplayName(s string) string {
	s = strings.Join(strings.Fields(wordSeparators.Replace(s)), " ")
	return cases.Title(language.English).String(s)
}

// UpperCamelCase converts snake_case or kebab-case to UpperCamelCase.
// Example: "created_by_id" -> "CreatedById"
func UpperCamelCase(s string) string {
	return strings.ReplaceAll(DisplayName(s), " ", "")
}

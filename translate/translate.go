// Package translate formats user-facing text for the host locale.
package translate

import (
	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = NewPrinter()

// NewPrinter returns a printer for the first supported locale of the host,
// falling back to en-US.
func NewPrinter() *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil || len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// NewPrinterFor returns a printer for an explicit language tag such as
// "de-DE".
func NewPrinterFor(tag string) *message.Printer {
	return message.NewPrinter(language.Make(tag))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

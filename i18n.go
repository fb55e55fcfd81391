package genson

import (
	"embed"
	"errors"
	"sync"

	i18n "github.com/kaptinlin/go-i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

var (
	bundleOnce sync.Once
	bundle     *i18n.I18n
	bundleErr  error
)

// diagnosticsBundle returns the package-wide i18n bundle used to localise
// CLI-facing diagnostics (parse failures, rejected configuration, map
// inference notices). It is loaded once and shared across locales.
func diagnosticsBundle() (*i18n.I18n, error) {
	bundleOnce.Do(func() {
		b := i18n.NewBundle(
			i18n.WithDefaultLocale("en"),
			i18n.WithLocales("en", "zh-Hans"),
		)
		bundleErr = b.LoadFS(localesFS, "locales/*.json")
		bundle = b
	})
	return bundle, bundleErr
}

// Localize renders message key in locale with the given template
// variables, falling back to the bare key if the bundle failed to load or
// the key is unknown in that locale.
func Localize(locale, key string, vars map[string]any) string {
	b, err := diagnosticsBundle()
	if err != nil {
		return key
	}
	localizer := b.NewLocalizer(locale)
	return localizer.Get(key, i18n.Vars(vars))
}

// supportedLocaleNames are the locales locales/*.json ships messages for,
// in the same order as supportedLocales so a Match's index selects the
// matching entry directly.
var supportedLocaleNames = []string{"en", "zh-Hans"}

// supportedLocales mirrors supportedLocaleNames as language.Tags.
// localeMatcher resolves a caller's BCP 47 preference (e.g. from --locale
// or $LANG) against them, the way golang.org/x/text/language is meant to be
// used instead of comparing tag strings by hand.
var (
	supportedLocales = []language.Tag{language.English, language.Make("zh-Hans")}
	localeMatcher    = language.NewMatcher(supportedLocales)
)

// ResolveLocale matches pref against the locales this package ships
// messages for, falling back to "en" when pref is empty or matches
// nothing closely enough to be useful.
func ResolveLocale(pref string) string {
	if pref == "" {
		return "en"
	}
	_, index, confidence := localeMatcher.Match(language.Make(pref))
	if confidence == language.No {
		return "en"
	}
	return supportedLocaleNames[index]
}

// LocalizeError renders err as a user-facing diagnostic in locale when it
// wraps one of this package's sentinel errors, so the CLI's fatal-error
// path (§7 items 4-6) is translatable without touching the call sites that
// construct the error. An err this package does not recognise falls back
// to err.Error() unchanged.
func LocalizeError(err error, locale string) string {
	if err == nil {
		return ""
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return Localize(locale, "error.document_parse", map[string]any{
			"index":   parseErr.Index,
			"message": parseErr.Message,
		})
	}
	var aggErr *AggregateParseError
	if errors.As(err, &aggErr) {
		return Localize(locale, "error.aggregate_parse", map[string]any{"count": len(aggErr.Errs)})
	}
	var overrideErr *FieldOverrideError
	if errors.As(err, &overrideErr) {
		return Localize(locale, "error.unknown_field_override", map[string]any{
			"field": overrideErr.Field,
			"kind":  overrideErr.Kind,
		})
	}

	switch {
	case errors.Is(err, ErrEmptyInput):
		return Localize(locale, "error.empty_input", nil)
	case errors.Is(err, ErrContradictoryConfig):
		return Localize(locale, "error.contradictory_config", nil)
	case errors.Is(err, ErrInvalidConfig):
		return Localize(locale, "error.invalid_config", map[string]any{"details": unwrapDetails(err)})
	case errors.Is(err, ErrSourceRead):
		return Localize(locale, "error.source_read", map[string]any{"details": unwrapDetails(err)})
	case errors.Is(err, ErrSchemaWrite):
		return Localize(locale, "error.schema_write", map[string]any{"details": unwrapDetails(err)})
	default:
		return err.Error()
	}
}

// unwrapDetails returns the wrapped cause's own message, or err's full
// message when err wraps nothing.
func unwrapDetails(err error) string {
	if u := errors.Unwrap(err); u != nil {
		return u.Error()
	}
	return err.Error()
}

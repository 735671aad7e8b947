package locale

import "context"

type translatorKey struct{}

// WithTranslator stores the request's translator in ctx.
func WithTranslator(ctx context.Context, t *Translator) context.Context {
	return context.WithValue(ctx, translatorKey{}, t)
}

// FromContext returns the request's translator, or nil. A nil translator
// leaves messages untranslated.
func FromContext(ctx context.Context) *Translator {
	if t, ok := ctx.Value(translatorKey{}).(*Translator); ok {
		return t
	}
	return nil
}

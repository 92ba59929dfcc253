package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// tokenSource adapts an acquisition flow to oauth2.TokenSource. Every Token
// call goes through the acquirer's cache, so wrapping it in
// oauth2.ReuseTokenSource is unnecessary.
type tokenSource struct {
	ctx   context.Context
	fetch AcquireFunc
}

// TokenSource returns an oauth2.TokenSource that obtains tokens with fetch,
// typically a closure over one of the Acquire methods. ctx is used for every
// acquisition; cancelling it makes Token fail.
func (a *Acquirer) TokenSource(ctx context.Context, fetch AcquireFunc) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, fetch: fetch}
}

// Token implements oauth2.TokenSource.
func (s *tokenSource) Token() (*oauth2.Token, error) {
	token, err := s.fetch(s.ctx)
	if err != nil {
		return nil, err
	}
	return token.ToOAuth2Token(), nil
}

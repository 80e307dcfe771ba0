package environment

import "context"

// MultiProvider asks each provider in turn and returns the first non-empty
// value.
type MultiProvider struct {
	providers []Provider
}

func NewMultiProvider(providers ...Provider) *MultiProvider {
	return &MultiProvider{
		providers: providers,
	}
}

func (p *MultiProvider) Get(ctx context.Context, name string) (string, bool) {
	found := false
	for _, provider := range p.providers {
		value, ok := provider.Get(ctx, name)
		if value != "" {
			return value, true
		}
		found = found || ok
	}

	return "", found
}

// NewDefaultProvider reads the process environment first, then the given
// dotenv files in order. Missing files are skipped.
func NewDefaultProvider(envFiles ...string) (Provider, error) {
	providers := []Provider{NewOsEnvProvider()}
	for _, f := range envFiles {
		p, err := NewEnvFileProvider(f)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewMultiProvider(providers...), nil
}

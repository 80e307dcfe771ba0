package environment

import (
	"context"
	"os"
)

type OsEnvProvider struct{}

func NewOsEnvProvider() *OsEnvProvider {
	return &OsEnvProvider{}
}

func (p *OsEnvProvider) Get(_ context.Context, name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapProvider serves a fixed set of variables.
type MapProvider map[string]string

func (p MapProvider) Get(_ context.Context, name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

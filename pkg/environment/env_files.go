package environment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

type KeyValuePair struct {
	Key   string
	Value string
}

// EnvFileProvider serves the variables of a dotenv file.
type EnvFileProvider struct {
	values map[string]string
}

// NewEnvFileProvider reads path. A missing file yields an empty provider.
func NewEnvFileProvider(path string) (*EnvFileProvider, error) {
	pairs, err := ReadEnvFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	values := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		values[kv.Key] = kv.Value
	}
	return &EnvFileProvider{values: values}, nil
}

func (p *EnvFileProvider) Get(_ context.Context, name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// ReadEnvFile parses KEY=VALUE lines. Blank lines and # comments are
// skipped, a leading "export " is ignored, and matching single or double
// quotes around the value are removed.
func ReadEnvFile(path string) ([]KeyValuePair, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lines []KeyValuePair

	for line := range strings.SplitSeq(string(buf), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid env file line: %s", line)
		}

		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)

		for _, q := range []string{`"`, `'`} {
			if len(v) >= 2 && strings.HasPrefix(v, q) && strings.HasSuffix(v, q) {
				v = v[1 : len(v)-1]
				break
			}
		}

		lines = append(lines, KeyValuePair{
			Key:   k,
			Value: v,
		})
	}

	return lines, nil
}

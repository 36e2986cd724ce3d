package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// TokenParameter is the SSM parameter name, relative to the prefix, that
// holds {"token":"..."} when the key is not provided through the environment.
const TokenParameter = "/coze-token"

// ErrMissingCredential means no source produced an API key.
var ErrMissingCredential = errors.New("credentials: api credential is not configured")

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type tokenPayload struct {
	Token string `json:"token"`
}

// Resolver returns the upstream API key. The environment value wins; the
// parameter store is consulted only when it is blank. A fetched key is kept
// for the life of the process, a failed fetch is retried on the next call.
type Resolver struct {
	envKey    string
	getter    Getter
	paramName string

	mu     sync.Mutex
	cached string
}

// NewResolver builds a Resolver. getter and paramPrefix are optional; without
// both, only envKey is used.
func NewResolver(envKey string, getter Getter, paramPrefix string) *Resolver {
	r := &Resolver{envKey: strings.TrimSpace(envKey)}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if getter != nil && paramPrefix != "" {
		r.getter = getter
		r.paramName = paramPrefix + TokenParameter
	}
	return r
}

func (r *Resolver) APIKey(ctx context.Context) (string, error) {
	if r.envKey != "" {
		return r.envKey, nil
	}
	if r.getter == nil {
		return "", ErrMissingCredential
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached != "" {
		return r.cached, nil
	}

	raw, err := r.getter.GetParameter(ctx, r.paramName)
	if err != nil {
		return "", fmt.Errorf("credentials: fetch %s: %w", r.paramName, err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("credentials: unmarshal %s as JSON: %w", r.paramName, err)
	}
	token := strings.TrimSpace(tp.Token)
	if token == "" {
		return "", fmt.Errorf("%w: %s has an empty token", ErrMissingCredential, r.paramName)
	}
	r.cached = token
	return token, nil
}

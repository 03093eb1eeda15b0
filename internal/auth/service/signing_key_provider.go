package service

import (
	"sync"
	"sync/atomic"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

// SigningKeyProvider hands out the HMAC key for access tokens. Once a key is
// resolved it never changes for the lifetime of the process.
type SigningKeyProvider struct {
	configured []byte
	production bool
	log        *logger.Logger

	key  atomic.Pointer[[]byte]
	mu   sync.Mutex
	rand func(int) ([]byte, error)
}

func NewSigningKeyProvider(secret string, production bool, log *logger.Logger) *SigningKeyProvider {
	p := &SigningKeyProvider{
		production: production,
		log:        log,
		rand:       crypto.RandomBytes,
	}
	if secret != "" {
		p.configured = []byte(secret)
	}
	return p
}

func (p *SigningKeyProvider) GetSigningKey() ([]byte, error) {
	if p.configured != nil {
		return p.configured, nil
	}

	if key := p.key.Load(); key != nil {
		return *key, nil
	}

	if p.production {
		return nil, ErrSigningKeyUnavailable
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if key := p.key.Load(); key != nil {
		return *key, nil
	}

	generated, err := p.rand(constants.DevSigningKeySize)
	if err != nil {
		return nil, ErrSigningKeyUnavailable.WithCause(err)
	}
	p.key.Store(&generated)
	metrics.SigningKeysGenerated.Inc()

	p.log.Warn("JWT_SECRET is not set: generated an ephemeral signing key, tokens will not survive a restart")

	return generated, nil
}

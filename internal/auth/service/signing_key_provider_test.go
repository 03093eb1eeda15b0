package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
)

func TestSigningKeyProvider_ConfiguredSecret(t *testing.T) {
	p := NewSigningKeyProvider(testSecret, true, logger.NewNop())

	key, err := p.GetSigningKey()
	require.NoError(t, err)
	assert.Equal(t, []byte(testSecret), key)
}

func TestSigningKeyProvider_ProductionWithoutSecret(t *testing.T) {
	p := NewSigningKeyProvider("", true, logger.NewNop())

	_, err := p.GetSigningKey()
	require.ErrorIs(t, err, ErrSigningKeyUnavailable)
}

func TestSigningKeyProvider_DevelopmentGeneratesOnce(t *testing.T) {
	p := NewSigningKeyProvider("", false, logger.NewNop())

	first, err := p.GetSigningKey()
	require.NoError(t, err)
	assert.Len(t, first, constants.DevSigningKeySize)

	second, err := p.GetSigningKey()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSigningKeyProvider_ConcurrentFirstAccessConverges(t *testing.T) {
	p := NewSigningKeyProvider("", false, logger.NewNop())
	var generated atomic.Int32
	p.rand = func(n int) ([]byte, error) {
		generated.Add(1)
		b := make([]byte, n)
		b[0] = byte(generated.Load())
		return b, nil
	}

	const workers = 32
	keys := make([][]byte, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, err := p.GetSigningKey()
			assert.NoError(t, err)
			keys[i] = key
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), generated.Load())
	for _, key := range keys {
		assert.Equal(t, keys[0], key)
	}
}

func TestSigningKeyProvider_GenerationFailure(t *testing.T) {
	p := NewSigningKeyProvider("", false, logger.NewNop())
	p.rand = func(int) ([]byte, error) { return nil, errors.New("entropy exhausted") }

	_, err := p.GetSigningKey()
	require.ErrorIs(t, err, ErrSigningKeyUnavailable)
}

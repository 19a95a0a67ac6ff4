package budget

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/singleflight"
)

// defaultEncoding is used when a model or encoding name cannot be resolved.
const defaultEncoding = "cl100k_base"

// TiktokenCounter implements TokenCounter with the tiktoken-go library.
// It is safe for concurrent use.
type TiktokenCounter struct {
	encodingName string
	tke          *tiktoken.Tiktoken
	mu           sync.RWMutex
}

// NewTiktokenCounter creates a counter for the given encoding or model name.
// Unknown names fall back to the default encoding rather than failing, so a
// misconfigured deployment still counts tokens.
func NewTiktokenCounter(modelOrEncoding string) (*TiktokenCounter, error) {
	if modelOrEncoding == "" {
		modelOrEncoding = defaultEncoding
	}
	encodingName := modelOrEncoding
	tke, err := tiktoken.GetEncoding(modelOrEncoding)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(modelOrEncoding)
		if err != nil {
			tke, err = tiktoken.GetEncoding(defaultEncoding)
			if err != nil {
				return nil, fmt.Errorf("failed to get default encoding %q: %w", defaultEncoding, err)
			}
			encodingName = defaultEncoding
		} else {
			encodingName = modelEncodingName(modelOrEncoding)
		}
	}
	return &TiktokenCounter{encodingName: encodingName, tke: tke}, nil
}

// modelEncodingName resolves the encoding a model name maps to, mirroring the
// lookup EncodingForModel performs, so GetEncoding reports the encoding that
// is actually active instead of the default.
func modelEncodingName(model string) string {
	if enc, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return enc
	}
	for prefix, enc := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return enc
		}
	}
	return defaultEncoding
}

var (
	counterCache  sync.Map
	counterBuilds singleflight.Group
)

// CachedTiktokenCounter returns a shared counter for the given encoding or
// model name, creating it on first use. Building an encoder loads its BPE
// vocabulary, so concurrent requests for the same encoding coalesce into one
// build and every caller after that reuses the cached counter.
func CachedTiktokenCounter(modelOrEncoding string) (*TiktokenCounter, error) {
	if modelOrEncoding == "" {
		modelOrEncoding = defaultEncoding
	}
	if cached, ok := counterCache.Load(modelOrEncoding); ok {
		if counter, valid := cached.(*TiktokenCounter); valid {
			return counter, nil
		}
	}
	v, err, _ := counterBuilds.Do(modelOrEncoding, func() (any, error) {
		return NewTiktokenCounter(modelOrEncoding)
	})
	if err != nil {
		return nil, err
	}
	counter, ok := v.(*TiktokenCounter)
	if !ok {
		return nil, fmt.Errorf("unexpected counter type %T", v)
	}
	counterCache.Store(modelOrEncoding, counter)
	return counter, nil
}

// CountTokens counts the tokens in text using the configured encoding.
func (tc *TiktokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if tc.tke == nil {
		return 0, fmt.Errorf("tiktoken encoder is not initialized for encoding %s", tc.encodingName)
	}
	return len(tc.tke.Encode(text, nil, nil)), nil
}

// GetEncoding returns the name of the encoding in use.
func (tc *TiktokenCounter) GetEncoding() string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.encodingName
}

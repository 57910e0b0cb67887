/*
PURPOSE:
  Token counting fallback for servers that return no usage.

REQUIREMENTS:
  User-specified:
  - None.

  Implementation-discovered:
  - Unknown model ids fall back to cl100k_base.

ARCHITECTURE INTEGRATION:
  - Called by: internal/provider/openai/openai.go
  - Uses: github.com/pkoukk/tiktoken-go

ERROR HANDLING:
  - Encoder failures count zero tokens.

IMPLEMENTATION RULES:
  - Encoders cached per model id.

USAGE:
  n := countTokens("gpt-4o-mini", text)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/provider/openai/openai.go

MAINTENANCE:
  - None.
*/

package openai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

var (
	encodersMu sync.Mutex
	encoders   = make(map[string]*tiktoken.Tiktoken)
)

func encoderFor(modelID string) (*tiktoken.Tiktoken, error) {
	encodersMu.Lock()
	defer encodersMu.Unlock()

	if e, ok := encoders[modelID]; ok {
		return e, nil
	}
	e, err := tiktoken.EncodingForModel(modelID)
	if err != nil {
		e, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	encoders[modelID] = e
	return e, nil
}

// countTokens estimates the token count of text; 0 when no encoding is available.
func countTokens(modelID, text string) int {
	if text == "" {
		return 0
	}
	e, err := encoderFor(modelID)
	if err != nil {
		return 0
	}
	return len(e.Encode(text, nil, nil))
}

// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// applicationMessageSchema is the wire contract of the application topic.
// Anything that fails this schema can never produce a decision and is
// classified as unprocessable by the worker.
const applicationMessageSchema = `{
	"type": "object",
	"properties": {
		"applicantId": {"type": "string", "minLength": 1},
		"amount": {"type": "number"},
		"termMonths": {"type": "integer", "minimum": 1, "maximum": 60}
	},
	"required": ["applicantId", "amount", "termMonths"]
}`

var applicationMessageLoader = gojsonschema.NewStringLoader(applicationMessageSchema)

// ValidateApplicationMessage checks a raw channel payload against the topic
// schema. It returns nil when the payload is well-formed and a descriptive
// error listing every violation otherwise.
func ValidateApplicationMessage(payload []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(payload)

	result, err := gojsonschema.Validate(applicationMessageLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("payload violates schema: %s", strings.Join(details, "; "))
}

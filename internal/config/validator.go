package config

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/koustreak/featurerepo/internal/errs"
)

// Validate checks a decoded YAML document against Schema.
// Every schema violation is listed in the returned error.
func Validate(doc interface{}) error {
	schemaLoader := gojsonschema.NewStringLoader(Schema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errs.Wrap(errs.ErrKindValidation, "failed to validate schema", err)
	}

	if !result.Valid() {
		var b strings.Builder
		b.WriteString("configuration file is not valid:")
		for _, desc := range result.Errors() {
			b.WriteString("\n  - ")
			b.WriteString(desc.String())
		}
		return errs.New(errs.ErrKindValidation, b.String())
	}

	return nil
}

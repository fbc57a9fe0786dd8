package script

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// Validate checks raw YAML source against the definition schema. filename
// is used for error positions only.
//
// Schema and data are built in one fresh CUE context per call; cue.Value
// unification requires both sides to come from the same context.
func Validate(filename string, source []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Definition"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("definition schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, source)
	if err != nil {
		return NewDefinitionError(ErrCodeParse, "", "parse %s: %v", filename, err)
	}
	data := ctx.BuildFile(file)
	if err := data.Err(); err != nil {
		return NewDefinitionError(ErrCodeParse, "", "build %s: %v", filename, err)
	}

	if err := schema.Unify(data).Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return NewDefinitionError(ErrCodeSchema, "", "%s: %v", filename, err)
	}
	return nil
}

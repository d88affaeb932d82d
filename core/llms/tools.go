package llms

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool describes an external function the completion backend may request.
// Execution is never performed by the orchestration core; surfaced tool
// calls are handed to the caller, who reports results back.
type Tool struct {
	Name        string
	Description string
	// Parameters is the JSON schema of the tool's argument mapping.
	Parameters *jsonschema.Schema
}

// NewTool builds a tool description, reflecting the parameter schema from
// the passed parameters value (typically a struct with json tags).
func NewTool[T any](name, description string, parameters T) Tool {
	// TODO: Implement a custom reflector that only satisfies the subset of
	// jsonschema used by groq
	reflector := jsonschema.Reflector{DoNotReference: true}

	var schema *jsonschema.Schema
	if reflect.TypeOf(parameters).Kind() == reflect.Ptr {
		schema = reflector.ReflectFromType(reflect.TypeOf(parameters).Elem())
	} else {
		schema = reflector.Reflect(parameters)
	}

	return Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
}

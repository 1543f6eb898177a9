package todos

import (
	"errors"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const createSchemaJSON = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "minLength": 1}
  }
}`

const updateSchemaJSON = `{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "status": {"enum": ["Todo", "Doing", "Completed"]}
  }
}`

var (
	createSchema = mustCompile("https://todoboard.local/schemas/todo-create.json", createSchemaJSON)
	updateSchema = mustCompile("https://todoboard.local/schemas/todo-update.json", updateSchemaJSON)
)

func mustCompile(url, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(url)
}

// validateCreate accepts any object carrying a non-empty string title.
func validateCreate(doc any) (string, bool) {
	if err := createSchema.Validate(doc); err != nil {
		return MsgTitleRequired, false
	}
	return "", true
}

// validateUpdate maps the first failing instance location to a message.
// Titles only need to be strings; an empty title is a valid rename.
func validateUpdate(doc any) (string, bool) {
	err := updateSchema.Validate(doc)
	if err == nil {
		return "", true
	}
	return messageFor(err, map[string]string{
		"/status": MsgInvalidStatus,
	}, MsgInvalidBody), false
}

func messageFor(err error, byLocation map[string]string, fallback string) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fallback
	}
	var found string
	collectLeaf(ve, func(leaf *jsonschema.ValidationError) bool {
		if msg, ok := byLocation[leaf.InstanceLocation]; ok {
			found = msg
			return true
		}
		return false
	})
	if found == "" {
		return fallback
	}
	return found
}

// collectLeaf walks leaf causes depth first until visit returns true.
func collectLeaf(err *jsonschema.ValidationError, visit func(*jsonschema.ValidationError) bool) bool {
	if len(err.Causes) == 0 {
		return visit(err)
	}
	for _, cause := range err.Causes {
		if collectLeaf(cause, visit) {
			return true
		}
	}
	return false
}

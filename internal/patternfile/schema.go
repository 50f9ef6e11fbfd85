package patternfile

// schemaJSON is the JSON Schema a pattern file must satisfy before it is
// even decoded into a pattern.Spec, per §6's EXTERNAL INTERFACES and §11 of
// SPEC_FULL.md: gojsonschema gives ErrInvalidPattern a precise first line of
// defense ahead of decomposition, catching a malformed Events/Entities
// shape (wrong types, missing required fields) before Compile ever runs.
const schemaJSON = `{
  "type": "object",
  "required": ["Events"],
  "properties": {
    "Version": {"type": ["string", "number"]},
    "UseRegex": {"type": "boolean"},
    "Entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["ID"],
        "properties": {
          "ID": {"type": "integer", "minimum": 0},
          "Signature": {"type": "string"}
        }
      }
    },
    "Events": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["ID", "SubjectID", "ObjectID"],
        "properties": {
          "ID": {"type": "integer", "minimum": 0},
          "Signature": {"type": "string"},
          "Type": {"type": "string", "enum": ["Default", "Frequency", "Flow"]},
          "Frequency": {"type": "integer", "minimum": 2},
          "SubjectID": {"type": "integer", "minimum": 0},
          "ObjectID": {"type": "integer", "minimum": 0},
          "Parents": {
            "type": "array",
            "items": {"type": "integer", "minimum": 0}
          }
        }
      }
    }
  }
}`

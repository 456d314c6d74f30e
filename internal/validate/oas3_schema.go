package validate

// structuralSchema is a JSON Schema (draft-04) covering the structural core
// of OpenAPI 3.0: required top-level blocks, path item shape, operation
// responses, and parameter fields. It is deliberately narrower than the full
// OAS meta-schema; it catches the mechanical mistakes an emitter can make
// without rejecting documents over descriptive niceties.
const structuralSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "required": ["openapi", "info", "paths"],
  "properties": {
    "openapi": {
      "type": "string",
      "pattern": "^3\\.0\\.\\d+$"
    },
    "info": {
      "type": "object",
      "required": ["title", "version"],
      "properties": {
        "title": {"type": "string"},
        "version": {"type": "string"},
        "description": {"type": "string"}
      }
    },
    "servers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["url"],
        "properties": {
          "url": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "paths": {
      "type": "object",
      "patternProperties": {
        "^/": {
          "type": "object",
          "patternProperties": {
            "^(get|put|post|delete|options|head|patch|trace)$": {
              "$ref": "#/definitions/operation"
            }
          },
          "additionalProperties": false
        }
      },
      "additionalProperties": false
    },
    "components": {
      "type": "object",
      "properties": {
        "schemas": {
          "type": "object",
          "additionalProperties": {"$ref": "#/definitions/schema"}
        },
        "securitySchemes": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "required": ["type"],
            "properties": {
              "type": {"enum": ["apiKey", "http", "oauth2", "openIdConnect"]},
              "scheme": {"type": "string"},
              "in": {"enum": ["query", "header", "cookie"]},
              "name": {"type": "string"},
              "description": {"type": "string"}
            }
          }
        }
      }
    }
  },
  "definitions": {
    "operation": {
      "type": "object",
      "required": ["responses"],
      "properties": {
        "summary": {"type": "string"},
        "description": {"type": "string"},
        "operationId": {"type": "string"},
        "parameters": {
          "type": "array",
          "items": {"$ref": "#/definitions/parameter"}
        },
        "requestBody": {
          "type": "object",
          "required": ["content"],
          "properties": {
            "content": {"type": "object"},
            "required": {"type": "boolean"}
          }
        },
        "responses": {
          "type": "object",
          "minProperties": 1,
          "additionalProperties": {
            "type": "object",
            "required": ["description"],
            "properties": {
              "description": {"type": "string"},
              "content": {"type": "object"}
            }
          }
        }
      }
    },
    "parameter": {
      "type": "object",
      "required": ["name", "in"],
      "properties": {
        "name": {"type": "string"},
        "in": {"enum": ["path", "query", "header", "cookie"]},
        "required": {"type": "boolean"},
        "description": {"type": "string"},
        "schema": {"$ref": "#/definitions/schema"}
      }
    },
    "schema": {
      "type": "object",
      "properties": {
        "$ref": {"type": "string"},
        "type": {"enum": ["string", "integer", "number", "boolean", "array", "object"]},
        "nullable": {"type": "boolean"},
        "properties": {
          "type": "object",
          "additionalProperties": {"$ref": "#/definitions/schema"}
        },
        "required": {
          "type": "array",
          "items": {"type": "string"}
        },
        "items": {"$ref": "#/definitions/schema"},
        "oneOf": {
          "type": "array",
          "items": {"$ref": "#/definitions/schema"}
        }
      }
    }
  }
}`

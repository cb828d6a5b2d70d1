// Package docs holds the OpenAPI description served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Assessment sections in order",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.catalogResponse"}}
                }
            }
        },
        "/v1/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Start an assessment session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.CreateSessionResponse"}}
                }
            }
        },
        "/v1/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Current state, next required type and progress",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionView"}}
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "Delete the session, its transcript and result",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/sessions/{id}/answers": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Record one answer turn",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Answer", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SubmitAnswerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TurnResult"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/sessions/{id}/persona": {
            "put": {
                "consumes": ["application/json"],
                "tags": ["sessions"],
                "summary": "Store the opaque persona document",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/sessions/{id}/reset": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Reset the assessment to its initial state",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionView"}}
                }
            }
        },
        "/v1/sessions/{id}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Summary of a completed assessment",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AssessmentResult"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/sessions/{id}/transcript": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Recorded turns, oldest first",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.TranscriptEntry"}}}
                }
            }
        }
    },
    "definitions": {
        "handler.catalogResponse": {
            "type": "object",
            "properties": {
                "totalQuestions": {"type": "integer"},
                "sections": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "key": {"type": "string"},
                            "title": {"type": "string"},
                            "requiredCount": {"type": "integer"},
                            "typeSequence": {"type": "array", "items": {"$ref": "#/definitions/model.AnswerType"}}
                        }
                    }
                }
            }
        },
        "model.AnswerType": {
            "type": "string",
            "enum": ["text", "multiple_choice", "ranking", "complete"]
        },
        "model.Option": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "label": {"type": "string"}}
        },
        "model.AnswerPayload": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "optionId": {"type": "string"},
                "items": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string"},
                "question": {"type": "string"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/model.Option"}}
            }
        },
        "model.Answer": {
            "type": "object",
            "properties": {
                "type": {"$ref": "#/definitions/model.AnswerType"},
                "payload": {"$ref": "#/definitions/model.AnswerPayload"}
            }
        },
        "model.AssessmentState": {
            "type": "object",
            "properties": {
                "currentSection": {"type": "string"},
                "sectionCounts": {"type": "object", "additionalProperties": {"type": "integer"}},
                "typeCounts": {"type": "object", "additionalProperties": {"type": "integer"}},
                "totalAnswered": {"type": "integer"},
                "lastAnswerType": {"type": "string", "x-nullable": true}
            }
        },
        "model.SectionProgress": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "title": {"type": "string"},
                "completed": {"type": "integer"},
                "required": {"type": "integer"},
                "progress": {"type": "number"}
            }
        },
        "model.Progress": {
            "type": "object",
            "properties": {
                "questionsCompleted": {"type": "integer"},
                "totalQuestions": {"type": "integer"},
                "sectionKey": {"type": "string"},
                "sectionTitle": {"type": "string"},
                "sectionProgress": {"type": "number"},
                "percentComplete": {"type": "number"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/model.SectionProgress"}}
            }
        },
        "model.SubmitAnswerRequest": {
            "type": "object",
            "properties": {
                "type": {"$ref": "#/definitions/model.AnswerType"},
                "payload": {"$ref": "#/definitions/model.AnswerPayload"},
                "clientTurnId": {"type": "string"}
            }
        },
        "model.TurnResult": {
            "type": "object",
            "properties": {
                "answer": {"$ref": "#/definitions/model.Answer"},
                "state": {"$ref": "#/definitions/model.AssessmentState"},
                "next": {"$ref": "#/definitions/model.AnswerType"},
                "progress": {"$ref": "#/definitions/model.Progress"},
                "complete": {"type": "boolean"},
                "duplicate": {"type": "boolean"}
            }
        },
        "model.SessionView": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "state": {"$ref": "#/definitions/model.AssessmentState"},
                "next": {"$ref": "#/definitions/model.AnswerType"},
                "progress": {"$ref": "#/definitions/model.Progress"},
                "persona": {"type": "object"}
            }
        },
        "model.CreateSessionResponse": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "token": {"type": "string"},
                "next": {"$ref": "#/definitions/model.AnswerType"},
                "progress": {"$ref": "#/definitions/model.Progress"}
            }
        },
        "model.TranscriptEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "sessionId": {"type": "string"},
                "sequence": {"type": "integer"},
                "section": {"type": "string"},
                "type": {"$ref": "#/definitions/model.AnswerType"},
                "payload": {"$ref": "#/definitions/model.AnswerPayload"},
                "recordedAt": {"type": "string"}
            }
        },
        "model.AssessmentResult": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "sectionCounts": {"type": "object", "additionalProperties": {"type": "integer"}},
                "typeCounts": {"type": "object", "additionalProperties": {"type": "integer"}},
                "totalAnswered": {"type": "integer"},
                "persona": {"type": "object"},
                "completedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "SessionToken": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "careerchat API",
	Description:      "Conversational career assessment: sessions, answer turns and progress.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

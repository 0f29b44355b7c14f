// Package docs holds the swagger 2.0 document served under /docs, in the
// layout swag init emits. Keep it in step with the handler annotations.
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
        "/": {
            "get": {
                "description": "Reports whether the chat model is configured and lists the main endpoints.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Service info",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.InfoResponse"
                        }
                    }
                }
            }
        },
        "/api/chat": {
            "post": {
                "description": "Relays a user message to the assistant and returns its reply. Exit words (выход, exit, quit) end the dialog.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "chat"
                ],
                "summary": "Send chat message",
                "parameters": [
                    {
                        "description": "Message",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.ChatRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.ChatResponse"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Apology message from the bot",
                        "schema": {
                            "$ref": "#/definitions/handler.ChatResponse"
                        }
                    }
                }
            }
        },
        "/api/chats/{chat_id}/messages": {
            "get": {
                "description": "Stored turns of a chat, system prompt first.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "chat"
                ],
                "summary": "Chat history",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Chat id",
                        "name": "chat_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/store.Message"
                            }
                        }
                    },
                    "404": {
                        "description": "Chat not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/api/fda": {
            "get": {
                "description": "Look up drug information in the openFDA database. Results are cached for 24 hours.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "tools"
                ],
                "summary": "FDA drug lookup",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Drug name in English",
                        "name": "drug_name",
                        "in": "query",
                        "required": true
                    },
                    {
                        "enum": [
                            "general",
                            "label",
                            "adverse_events"
                        ],
                        "type": "string",
                        "description": "general, label or adverse_events",
                        "name": "search_type",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/tools.DrugLookup"
                        }
                    },
                    "400": {
                        "description": "Drug name is required",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "502": {
                        "description": "openFDA request failed",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "503": {
                        "description": "Lookup disabled",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/api/questionnaire": {
            "get": {
                "description": "Questions and answer options of the PHQ-9 form.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "survey"
                ],
                "summary": "Get questionnaire",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/questionnaire.Questionnaire"
                        }
                    }
                }
            }
        },
        "/api/sessions": {
            "post": {
                "description": "Issue a random 9-digit session id for a new form load.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "survey"
                ],
                "summary": "Create session",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handler.SessionResponse"
                        }
                    }
                }
            }
        },
        "/api/sessions/{session_id}/submissions": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "survey"
                ],
                "summary": "List session submissions",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "9-digit session id",
                        "name": "session_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/store.Submission"
                            }
                        }
                    },
                    "400": {
                        "description": "Invalid session id",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/api/submissions/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "survey"
                ],
                "summary": "Get submission",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Submission id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/store.Submission"
                        }
                    },
                    "404": {
                        "description": "Submission not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/chat_history/{chat_id}": {
            "get": {
                "description": "Stored turns of a chat, system prompt first.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "chat"
                ],
                "summary": "Chat history",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Chat id",
                        "name": "chat_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/store.Message"
                            }
                        }
                    },
                    "404": {
                        "description": "Chat not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Liveness/readiness check. No authentication required.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.healthResponse"
                        }
                    }
                }
            }
        },
        "/survay": {
            "post": {
                "description": "Accepts {\"session_id\": n, \"answers\": {question: answer}} or {\"answers\": [n, ...]}.\nScores ordinal answers and opens the follow-up chat.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "survey"
                ],
                "summary": "Submit questionnaire",
                "parameters": [
                    {
                        "description": "Submission",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/survey.Request"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/survey.Result"
                        }
                    },
                    "400": {
                        "description": "Invalid answers or session id",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/survey": {
            "post": {
                "description": "Accepts {\"session_id\": n, \"answers\": {question: answer}} or {\"answers\": [n, ...]}.\nScores ordinal answers and opens the follow-up chat.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "survey"
                ],
                "summary": "Submit questionnaire",
                "parameters": [
                    {
                        "description": "Submission",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/survey.Request"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/survey.Result"
                        }
                    },
                    "400": {
                        "description": "Invalid answers or session id",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Server error",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handler.ChatRequest": {
            "type": "object",
            "properties": {
                "chat_id": {
                    "type": "string"
                },
                "sender": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                }
            }
        },
        "handler.ChatResponse": {
            "type": "object",
            "properties": {
                "chat_id": {
                    "type": "string"
                },
                "sender": {
                    "type": "string"
                },
                "text": {
                    "type": "string"
                }
            }
        },
        "handler.InfoResponse": {
            "type": "object",
            "properties": {
                "ai_available": {
                    "type": "boolean"
                },
                "endpoints": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "tools": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "handler.SessionResponse": {
            "type": "object",
            "properties": {
                "session_id": {
                    "type": "integer"
                }
            }
        },
        "handler.healthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                }
            }
        },
        "questionnaire.Option": {
            "type": "object",
            "properties": {
                "label": {
                    "type": "string"
                },
                "value": {
                    "type": "integer"
                }
            }
        },
        "questionnaire.Question": {
            "type": "object",
            "properties": {
                "index": {
                    "type": "integer"
                },
                "text": {
                    "type": "string"
                }
            }
        },
        "questionnaire.Questionnaire": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "options": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/questionnaire.Option"
                    }
                },
                "questions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/questionnaire.Question"
                    }
                },
                "title": {
                    "type": "string"
                }
            }
        },
        "store.Message": {
            "type": "object",
            "properties": {
                "chat_id": {
                    "type": "string"
                },
                "content": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                }
            }
        },
        "store.Submission": {
            "type": "object",
            "properties": {
                "answers": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                },
                "chat_id": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "questionnaire_id": {
                    "type": "string"
                },
                "score": {
                    "type": "integer"
                },
                "session_id": {
                    "type": "integer"
                },
                "severity": {
                    "type": "string"
                },
                "severity_level": {
                    "type": "string"
                },
                "values": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                }
            }
        },
        "survey.Request": {
            "type": "object",
            "properties": {
                "answers": {
                    "type": "object"
                },
                "session_id": {
                    "type": "integer"
                }
            }
        },
        "survey.Result": {
            "type": "object",
            "properties": {
                "chat_id": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "score": {
                    "type": "integer"
                },
                "session_id": {
                    "type": "integer"
                },
                "severity": {
                    "type": "string"
                },
                "severity_level": {
                    "type": "string"
                },
                "submission_id": {
                    "type": "string"
                }
            }
        },
        "tools.DrugLookup": {
            "type": "object",
            "properties": {
                "drug_name": {
                    "type": "string"
                },
                "results": {},
                "search_type": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "total_results": {
                    "type": "integer"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Moodscreen API",
	Description:      "PHQ-9 screening questionnaire with a follow-up assistant chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

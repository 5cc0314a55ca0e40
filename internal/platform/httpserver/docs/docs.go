// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g internal/platform/httpserver/server.go -o internal/platform/httpserver/docs
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
        "/v1/polls": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "List polls",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ListPollsResponse"}}
                }
            },
            "post": {
                "description": "Creates a poll at the supplied or a freshly generated address with 1-based option ids.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Create a poll",
                "parameters": [
                    {"type": "string", "description": "Poll owner", "name": "X-User-Id", "in": "header", "required": true},
                    {"description": "Poll address and option labels", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CreatePollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.PollResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Get a poll",
                "parameters": [
                    {"type": "string", "description": "Poll address", "name": "poll_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.PollResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}/votes": {
            "post": {
                "description": "Records one vote for the caller; a second attempt on the same poll fails with UserAlreadyVoted.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Cast a vote",
                "parameters": [
                    {"type": "string", "description": "Voter", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "description": "Poll address", "name": "poll_id", "in": "path", "required": true},
                    {"description": "Chosen option id", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CastVoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.VoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Poll results",
                "parameters": [
                    {"type": "string", "description": "Poll address", "name": "poll_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ResultsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/polls/{poll_id}/receipts/{voter_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["polls"],
                "summary": "Vote receipt status",
                "parameters": [
                    {"type": "string", "description": "Poll address", "name": "poll_id", "in": "path", "required": true},
                    {"type": "string", "description": "Voter", "name": "voter_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ReceiptStatusResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "http.CreatePollRequest": {
            "type": "object",
            "properties": {"poll_id": {"type": "string"}, "options": {"type": "array", "items": {"type": "string"}}}
        },
        "http.CastVoteRequest": {
            "type": "object",
            "properties": {"option_id": {"type": "integer"}}
        },
        "http.OptionResponse": {
            "type": "object",
            "properties": {"label": {"type": "string"}, "id": {"type": "integer"}, "votes": {"type": "integer"}}
        },
        "http.PollResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "owner": {"type": "string"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/http.OptionResponse"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "http.VoteResponse": {
            "type": "object",
            "properties": {"poll": {"$ref": "#/definitions/http.PollResponse"}, "receipt_address": {"type": "string"}}
        },
        "http.ListPollsResponse": {
            "type": "object",
            "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/http.PollResponse"}}}
        },
        "http.ResultsResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/http.OptionResponse"}},
                "total_votes": {"type": "integer"},
                "leading_option_ids": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "http.ReceiptStatusResponse": {
            "type": "object",
            "properties": {
                "poll_id": {"type": "string"},
                "voter_id": {"type": "string"},
                "voted": {"type": "boolean"},
                "receipt_address": {"type": "string"}
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
	Title:            "strawpoll API",
	Description:      "One-vote-per-voter polls with atomic vote receipts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

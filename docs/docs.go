// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g main.go
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
        "/api/health": {
            "get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/participants/register": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["participants"], "summary": "Register or update the caller's profile",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/controller.RegisterReq"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/participants/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["participants"], "summary": "Caller's profile",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/submissions": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["submissions"], "summary": "Submit answers once per test",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/controller.SubmitReq"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Duplicate or not active", "schema": {"$ref": "#/definitions/util.Response"}},
                    "410": {"description": "Window closed", "schema": {"$ref": "#/definitions/util.Response"}},
                    "422": {"description": "Length mismatch", "schema": {"$ref": "#/definitions/util.Response"}},
                    "503": {"description": "Outcome unknown", "schema": {"$ref": "#/definitions/util.Response"}}
                }}
        },
        "/api/submissions/{testId}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["submissions"], "summary": "Caller's result for a test",
                "parameters": [{"type": "integer", "name": "testId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/admin/tests": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List tests, newest first",
                "parameters": [{"type": "integer", "default": 20, "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create a draft test",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/controller.CreateTestReq"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/admin/tests/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Test details",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/admin/tests/{id}/answer-key": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Set the answer key of a draft",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/controller.AnswerKeyReq"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/admin/tests/{id}/activate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Start the test window",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/admin/tests/{id}/end": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "End an active test now",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/admin/tests/{id}/leaderboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Leaderboard as html, csv or json",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "string", "default": "html", "name": "format", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/broadcast": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Message every participant",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/controller.BroadcastReq"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        },
        "/api/admin/sweep": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Run one expiry sweep now",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}}}
        }
    },
    "definitions": {
        "util.Response": {"type": "object", "properties": {"code": {"type": "integer"}, "message": {"type": "string"}, "data": {}}},
        "controller.RegisterReq": {"type": "object", "required": ["fullName"], "properties": {"username": {"type": "string"}, "fullName": {"type": "string"}, "region": {"type": "string"}}},
        "controller.SubmitReq": {"type": "object", "properties": {"text": {"type": "string"}, "testId": {"type": "integer"}, "answers": {"type": "string"}}},
        "controller.CreateTestReq": {"type": "object", "required": ["numQuestions", "durationHours"], "properties": {"title": {"type": "string"}, "numQuestions": {"type": "integer"}, "durationHours": {"type": "integer"}}},
        "controller.AnswerKeyReq": {"type": "object", "required": ["key"], "properties": {"key": {"type": "string"}}},
        "controller.BroadcastReq": {"type": "object", "required": ["text"], "properties": {"text": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "BluePrep API",
	Description:      "Timed multiple-choice tests: lifecycle, submissions and leaderboards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

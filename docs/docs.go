// Package docs registers the OpenAPI description served under /swagger.
// Maintained by hand; keep the paths in sync with the handler annotations.
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
        "/sessions/{sessionID}/chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Conversation"],
                "summary": "Handle a conversational message for an estimate session",
                "parameters": [
                    {"type": "string", "name": "sessionID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Chat reply, possibly with an updated itinerary"},
                    "400": {"description": "Invalid session id or body"},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/sessions/{sessionID}/itinerary/modifications": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Mutation"],
                "summary": "Apply a modification request to the itinerary",
                "parameters": [
                    {"type": "string", "name": "sessionID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Modification result; success=false carries a clarification"},
                    "400": {"description": "Invalid session id or body"},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/sessions/{sessionID}/itinerary/days/{dayNumber}/regenerate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Mutation"],
                "summary": "Regenerate every place on one itinerary day",
                "parameters": [
                    {"type": "string", "name": "sessionID", "in": "path", "required": true},
                    {"type": "integer", "name": "dayNumber", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Modification result"},
                    "400": {"description": "Invalid session id or day number"},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/sessions/{sessionID}/finalize": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Itinerary"],
                "summary": "Finalize a draft estimate",
                "parameters": [
                    {"type": "string", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Finalize result"},
                    "400": {"description": "Invalid session id"},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/sessions/{sessionID}/itinerary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Itinerary"],
                "summary": "Fetch the session and its itinerary items",
                "parameters": [
                    {"type": "string", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Session with ordered items"},
                    "400": {"description": "Invalid session id"},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/sessions/{sessionID}/itinerary/calendar.ics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Itinerary"],
                "summary": "Export the itinerary as an iCalendar file",
                "produces": ["text/calendar"],
                "parameters": [
                    {"type": "string", "name": "sessionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "VCALENDAR payload"},
                    "400": {"description": "Invalid session id"},
                    "404": {"description": "Session not found"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "CuraTrip Itinerary API",
	Description:      "Conversational itinerary modification for Korea travel estimates.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs holds the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g internal/platform/httpserver/server.go -d .,contexts
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
        "/v1/order-updates": {
            "post": {
                "description": "Queues an order-changed signal; the worker relays it to the order notifier.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["event-ticketing-automation"],
                "summary": "Record an order update",
                "parameters": [
                    {"type": "string", "description": "Request correlation id", "name": "X-Request-Id", "in": "header"},
                    {"description": "Updated order", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.OrderUpdateRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/http.OrderUpdateAcceptedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/orders/{order_id}/notify": {
            "post": {
                "description": "Runs the order notifier synchronously and reports its outcome.",
                "produces": ["application/json"],
                "tags": ["event-ticketing-automation"],
                "summary": "Replay the organizer notification for an order",
                "parameters": [
                    {"type": "string", "description": "Order id", "name": "order_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.NotifyOrderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/v1/ticket-expiry/runs": {
            "post": {
                "description": "Runs one reconciliation pass synchronously and returns its summary.",
                "produces": ["application/json"],
                "tags": ["event-ticketing-automation"],
                "summary": "Run ticket expiry now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ExpiryRunResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "http.OrderUpdateRequest": {
            "type": "object",
            "properties": {
                "order_id": {"type": "string"}
            }
        },
        "http.OrderUpdateAcceptedResponse": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"}
            }
        },
        "http.NotifyOrderResponse": {
            "type": "object",
            "properties": {
                "order_id": {"type": "string"},
                "event_id": {"type": "string"},
                "organizer_id": {"type": "string"},
                "outcome": {"type": "string"},
                "success_count": {"type": "integer"},
                "failure_count": {"type": "integer"}
            }
        },
        "http.ExpiryRunResponse": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "mode": {"type": "string"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "scanned": {"type": "integer"},
                "expired": {"type": "integer"},
                "already_expired": {"type": "integer"},
                "not_due": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed": {"type": "integer"}
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
	Title:            "ticketops automation API",
	Description:      "Order update intake, organizer notification replay and ticket expiry runs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Route Network Operations API",
        "description": "Flight generation from route templates, crew assignment and flight board health.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Scheduling", "description": "Flight generation runs and schedule configuration"},
        {"name": "Flights", "description": "Flight board compatibility labels"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check of Postgres and Redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/schedule/generate": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Queue a flight generation run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Queue not running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedule/runs/{id}": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Get a generation run report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedule/config": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Get schedule configuration",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Configuration missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Scheduling"],
                "summary": "Replace schedule configuration (ADMIN)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleConfigPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/flights/health": {
            "get": {
                "tags": ["Flights"],
                "summary": "Flight board with compatibility labels",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/flights/health/check": {
            "post": {
                "tags": ["Flights"],
                "summary": "Compatibility labels for selected flights",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No flight found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/flights/health/export": {
            "get": {
                "tags": ["Flights"],
                "summary": "Download the flight board",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/api/v1/employees/{id}/location": {
            "get": {
                "tags": ["Flights"],
                "summary": "Planned location of an employee",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "at", "in": "query", "type": "string", "format": "date-time"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/metrics/system": {
            "get": {
                "tags": ["Observability"],
                "summary": "Runtime metrics snapshot (ADMIN)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateRequest": {
            "type": "object",
            "properties": {
                "horizonStart": {"type": "string", "format": "date-time"}
            }
        },
        "CheckRequest": {
            "type": "object",
            "required": ["flightIds"],
            "properties": {
                "flightIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ScheduleConfigPayload": {
            "type": "object",
            "required": ["showPastFlightsTime", "showFutureFlightsTime", "warningScheduleDelayTime", "warningArrivalDelayTime", "warningArrivalShiftedTime", "minBetweenFlightsDelay", "maxFlightGenerationAttempts", "flightGenerationTimeout"],
            "properties": {
                "showPastFlightsTime": {"type": "string", "example": "168h"},
                "showFutureFlightsTime": {"type": "string", "example": "744h"},
                "warningScheduleDelayTime": {"type": "string", "example": "15m"},
                "warningArrivalDelayTime": {"type": "string", "example": "15m"},
                "warningArrivalShiftedTime": {"type": "string", "example": "15m"},
                "minBetweenFlightsDelay": {"type": "string", "example": "30m"},
                "maxFlightGenerationAttempts": {"type": "integer", "minimum": 1, "maximum": 1000},
                "flightGenerationTimeout": {"type": "string", "example": "5m"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Arborview Timetable API",
        "description": "Automated K-12 timetable generation and resource assignment",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Generation", "description": "Timetable generation runs and reports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/schedule/generate": {
            "post": {
                "tags": ["Generation"],
                "summary": "Run timetable generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A run is already in progress"}
                }
            }
        },
        "/schedule/runs/{id}": {
            "get": {
                "tags": ["Generation"],
                "summary": "Poll a generation run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown run"}
                }
            }
        },
        "/schedule/last-result": {
            "get": {
                "tags": ["Generation"],
                "summary": "Fetch the most recent run report",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No completed run"}
                }
            }
        },
        "/schedule/last-result/export": {
            "get": {
                "tags": ["Generation"],
                "summary": "Export the most recent run result",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File download"},
                    "404": {"description": "No completed run"}
                }
            }
        },
        "/schedule/history": {
            "get": {
                "tags": ["Generation"],
                "summary": "List past generation runs",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer", "default": 1},
                    {"name": "pageSize", "in": "query", "type": "integer", "default": 20}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/health-trend": {
            "get": {
                "tags": ["Generation"],
                "summary": "Quality trend over recent completed runs",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer", "default": 30}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/{id}": {
            "get": {
                "tags": ["Generation"],
                "summary": "Fetch a generated schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown schedule"}
                }
            }
        }
    },
    "definitions": {
        "GenerateRequest": {
            "type": "object",
            "required": ["name", "schoolDay"],
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["TRADITIONAL", "BLOCK", "ROTATING"]},
                "algorithm": {"type": "string", "enum": ["HILL_CLIMBING", "SIMULATED_ANNEALING", "TABU_SEARCH", "GENETIC_ALGORITHM", "CONSTRAINT_PROGRAMMING", "HYBRID"]},
                "timeBudgetSeconds": {"type": "integer"},
                "seed": {"type": "integer"},
                "simulation": {"type": "boolean"},
                "async": {"type": "boolean"},
                "initiatedBy": {"type": "string"},
                "lunchWaves": {"type": "integer"},
                "lunchWaveCapacity": {"type": "integer"},
                "schoolDay": {"$ref": "#/definitions/SchoolDayRequest"}
            }
        },
        "SchoolDayRequest": {
            "type": "object",
            "required": ["periodDuration", "schoolEnd"],
            "properties": {
                "firstPeriodStart": {"type": "integer", "description": "Minutes since midnight"},
                "periodDuration": {"type": "integer"},
                "passingPeriodDuration": {"type": "integer"},
                "schoolEnd": {"type": "integer"},
                "lunchEnabled": {"type": "boolean"},
                "lunchStart": {"type": "integer"},
                "lunchDuration": {"type": "integer"},
                "schoolDays": {"type": "array", "items": {"type": "integer"}}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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

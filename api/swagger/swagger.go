package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EEEFLIX Contacts API",
        "description": "Student contact directory of the EEEFLIX portal",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "ApiKey": {"type": "apiKey", "in": "header", "name": "X-API-Key"},
        "Bearer": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Contacts", "description": "Student phone numbers and facebook links"},
        {"name": "Exports", "description": "CSV and PDF copies of the directory"},
        {"name": "Backups", "description": "Snapshots taken before each write"},
        {"name": "Auth", "description": "Administrator login"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/assets/contacts_2301001_to_2301060.json": {
            "get": {
                "tags": ["Contacts"],
                "summary": "Raw contact store",
                "parameters": [
                    {"name": "If-None-Match", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Store document", "schema": {"type": "array", "items": {"$ref": "#/definitions/Contact"}}},
                    "304": {"description": "Unchanged since the given ETag"},
                    "404": {"description": "Store file missing"}
                }
            }
        },
        "/api/updateContacts": {
            "post": {
                "tags": ["Contacts"],
                "summary": "Update student contacts",
                "description": "Patches one student when studentId is set, or replaces the whole store when updateAll is true and allStudents is an array.",
                "security": [{"ApiKey": []}, {"Bearer": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "If-Match", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateContactsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/Outcome"}},
                    "400": {"description": "Invalid request parameters", "schema": {"$ref": "#/definitions/Failure"}},
                    "401": {"description": "Missing credentials", "schema": {"$ref": "#/definitions/Failure"}},
                    "404": {"description": "Unknown student when unknown ids are rejected", "schema": {"$ref": "#/definitions/Failure"}},
                    "405": {"description": "Method not allowed", "schema": {"$ref": "#/definitions/Failure"}},
                    "412": {"description": "Store changed since it was read", "schema": {"$ref": "#/definitions/Failure"}},
                    "500": {"description": "Failed to update contacts", "schema": {"$ref": "#/definitions/Failure"}}
                }
            }
        },
        "/api/contacts": {
            "get": {
                "tags": ["Contacts"],
                "summary": "Search contacts",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer", "enum": [5, 10, 20, 50]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/contacts/{id}": {
            "get": {
                "tags": ["Contacts"],
                "summary": "Get one student's contact",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export the contact directory",
                "security": [{"ApiKey": []}, {"Bearer": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "201": {"description": "Signed download link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/backups": {
            "get": {
                "tags": ["Backups"],
                "summary": "List store backups",
                "security": [{"ApiKey": []}, {"Bearer": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Administrator login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Describe the presented credentials",
                "security": [{"ApiKey": []}, {"Bearer": []}],
                "responses": {
                    "200": {"description": "Identity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "No valid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/metrics": {
            "get": {
                "summary": "Metrics snapshot",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "Contact": {
            "type": "object",
            "properties": {
                "No": {"type": "integer"},
                "Contact No": {"type": "string"},
                "FB ID Link": {"type": "string"}
            }
        },
        "UpdateContactsRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "integer"},
                "contactNo": {"type": "string"},
                "fbLink": {"type": "string"},
                "updateAll": {"type": "boolean"},
                "allStudents": {"type": "array", "items": {"$ref": "#/definitions/Contact"}}
            }
        },
        "Outcome": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "Failure": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
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

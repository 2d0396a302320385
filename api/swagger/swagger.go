package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Department Scheduler API",
        "description": "Term scheduling for an academic department: sections, room conflicts, faculty requests and auto-assignment",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and current user"},
        {"name": "Sections", "description": "Department schedule and room conflicts"},
        {"name": "Faculty", "description": "Preference requests and instructor roster"},
        {"name": "AutoAssign", "description": "Preference matcher and schedule assistant"},
        {"name": "Reports", "description": "Utilisation and asynchronous exports"},
        {"name": "System", "description": "Service counters"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections with room conflicts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "term", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["course", "time", "room", "faculty", "status"]},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "faculty", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Create section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {"201": {"description": "Created; conflicts returned as warnings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get section",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found"}}
            },
            "patch": {
                "tags": ["Sections"],
                "summary": "Update section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Remove section permanently",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/sections/{id}/delete-mark": {
            "post": {
                "tags": ["Sections"],
                "summary": "Mark section for deletion",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/{id}/conflicts": {
            "get": {
                "tags": ["Sections"],
                "summary": "Room conflicts of a section",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/{id}/free-rooms": {
            "get": {
                "tags": ["Sections"],
                "summary": "Rooms free during the section's meeting time",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/import": {
            "post": {
                "tags": ["Sections"],
                "summary": "Import a schedule CSV",
                "consumes": ["text/csv", "multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "term", "in": "query", "type": "string"},
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {"201": {"description": "Imported", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/replay": {
            "post": {
                "tags": ["Sections"],
                "summary": "Copy a previous term into a new one",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplayArchiveRequest"}}
                ],
                "responses": {"201": {"description": "Copied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections/options": {
            "get": {
                "tags": ["Sections"],
                "summary": "Room, time and faculty pickers",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "department_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/requests": {
            "get": {
                "tags": ["Faculty"],
                "summary": "List faculty requests",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "term", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Faculty"],
                "summary": "Submit or replace a faculty request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Replaced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Get faculty request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Faculty"],
                "summary": "Delete faculty request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/instructors": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Instructor roster",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "department_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Faculty"],
                "summary": "Add instructor",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/instructors/{id}": {
            "put": {
                "tags": ["Faculty"],
                "summary": "Update instructor profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Faculty"],
                "summary": "Remove instructor",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/instructors/{id}/approval/{action}": {
            "post": {
                "tags": ["Faculty"],
                "summary": "Move an instructor through schedule sign-off",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "action", "in": "path", "required": true, "type": "string", "enum": ["send", "approve", "reject", "reset"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auto-assign": {
            "get": {
                "tags": ["AutoAssign"],
                "summary": "Auto-assign status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "department_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["AutoAssign"],
                "summary": "Enable or disable auto-assign",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AutoAssignToggleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Feature disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auto-assign/run": {
            "post": {
                "tags": ["AutoAssign"],
                "summary": "Run the matcher now",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "department_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/assistant/ask": {
            "post": {
                "tags": ["AutoAssign"],
                "summary": "Ask the schedule assistant",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssistantAskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream failure"},
                    "503": {"description": "Not configured"}
                }
            }
        },
        "/reports/utilization": {
            "get": {
                "tags": ["Reports"],
                "summary": "Room utilisation for a term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "term", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue an export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {"202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File"}, "403": {"description": "Invalid or expired token"}}
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Service counters",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateSectionRequest": {
            "type": "object",
            "properties": {
                "department_id": {"type": "string"},
                "term": {"type": "string"},
                "subject": {"type": "string"},
                "course_number": {"type": "string"},
                "section": {"type": "string"},
                "title": {"type": "string"},
                "method": {"type": "string"},
                "meeting_days": {"type": "string"},
                "begin_time": {"type": "string"},
                "end_time": {"type": "string"},
                "room": {"type": "string"},
                "faculty": {"type": "string"}
            },
            "required": ["term", "subject", "course_number", "section"]
        },
        "ReplayArchiveRequest": {
            "type": "object",
            "properties": {
                "department_id": {"type": "string"},
                "from_term": {"type": "string"},
                "to_term": {"type": "string"}
            },
            "required": ["from_term", "to_term"]
        },
        "AutoAssignToggleRequest": {
            "type": "object",
            "properties": {
                "department_id": {"type": "string"},
                "enabled": {"type": "boolean"}
            },
            "required": ["enabled"]
        },
        "AssistantAskRequest": {
            "type": "object",
            "properties": {
                "department_id": {"type": "string"},
                "term": {"type": "string"},
                "question": {"type": "string"}
            },
            "required": ["question"]
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "department_id": {"type": "string"},
                "type": {"type": "string", "enum": ["schedule", "utilization", "conflicts", "faculty_load"]},
                "term": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf", "html", "xlsx"]},
                "sort": {"type": "string"}
            },
            "required": ["type", "term", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FieldOps API",
        "description": "Field operations management: role permissions, form approvals, project-scoped field data",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, password management"},
        {"name": "Users", "description": "Application user administration"},
        {"name": "Permissions", "description": "Role permission matrix"},
        {"name": "Workflows", "description": "Approval workflow configuration"},
        {"name": "Approvals", "description": "Pending approval feeds"},
        {"name": "Timesheets", "description": "Daily labor timesheets"},
        {"name": "MaterialLogs", "description": "Material usage logs"},
        {"name": "SafetyForms", "description": "JSA, toolbox talk and incident forms"},
        {"name": "Projects", "description": "Project roster and assignments"},
        {"name": "GlobalData", "description": "Companies, employees and lookup tables"},
        {"name": "Exports", "description": "Asynchronous CSV/PDF exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials or worker account"}
                }
            }
        },
        "/permissions/{role}": {
            "get": {
                "tags": ["Permissions"],
                "summary": "Get the permission record for one role",
                "responses": {
                    "200": {"description": "Stored or default record"}
                }
            },
            "put": {
                "tags": ["Permissions"],
                "summary": "Persist the full permission record for a role",
                "responses": {
                    "200": {"description": "Normalized saved record"}
                }
            }
        },
        "/timesheets/{id}/submit": {
            "post": {
                "tags": ["Timesheets"],
                "summary": "Submit a timesheet into its approval workflow",
                "responses": {
                    "200": {"description": "Pending at level one"},
                    "409": {"description": "Already submitted or no active workflow"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an export job",
                "responses": {
                    "202": {"description": "Job queued"}
                }
            }
        }
    },
    "definitions": {
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

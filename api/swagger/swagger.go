package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "OSMS API",
        "description": "Online student management: students, faculty, courses, attendance, grades and announcements",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Authentication", "description": "Sign in, registration and password recovery"},
        {"name": "Dashboard", "description": "Per role landing pages"},
        {"name": "Students", "description": "Student records"},
        {"name": "Faculty", "description": "Faculty records and teaching pages"},
        {"name": "Courses", "description": "Course catalogue and enrollments"},
        {"name": "Student", "description": "Signed in student pages"},
        {"name": "Announcements", "description": "Notice board"},
        {"name": "Reports", "description": "Downloadable exports"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness probe", "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is down"}}}
        },
        "/auth/login": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Login page state",
                "parameters": [
                    {"name": "error", "in": "query", "type": "string"},
                    {"name": "message", "in": "query", "type": "string"},
                    {"name": "redirect", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign in with email and password",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignInRequest"}}],
                "responses": {
                    "200": {"description": "Signed in; session cookies set", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid email or password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Create a student or faculty account",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignUpRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {"tags": ["Authentication"], "summary": "Sign out", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/forgot-password": {
            "post": {"tags": ["Authentication"], "summary": "Send a password reset link", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/reset-password": {
            "post": {"tags": ["Authentication"], "summary": "Set a new password", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid or expired link"}}}
        },
        "/auth/oauth/{provider}": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Start an OAuth sign in",
                "parameters": [{"name": "provider", "in": "path", "required": true, "type": "string", "enum": ["google", "github"]}],
                "responses": {"302": {"description": "Redirect to the provider"}}
            }
        },
        "/auth/callback": {
            "get": {"tags": ["Authentication"], "summary": "Finish an OAuth sign in", "responses": {"302": {"description": "Redirect to the role dashboard"}}}
        },
        "/admin/dashboard": {
            "get": {"tags": ["Dashboard"], "summary": "Admin dashboard", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/admin/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "per_page", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {"tags": ["Students"], "summary": "Create student", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ActionResult"}}}}
        },
        "/admin/students/{id}": {
            "get": {"tags": ["Students"], "summary": "Get student", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Students"], "summary": "Update student", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Students"], "summary": "Delete student", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/faculty": {
            "get": {"tags": ["Faculty"], "summary": "List faculty", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Faculty"], "summary": "Create faculty member", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ActionResult"}}}}
        },
        "/admin/courses": {
            "get": {"tags": ["Courses"], "summary": "List courses", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Courses"], "summary": "Create course", "responses": {"201": {"description": "Created"}}}
        },
        "/admin/enrollments": {
            "post": {"tags": ["Courses"], "summary": "Enroll a student", "responses": {"201": {"description": "Created"}, "409": {"description": "Already enrolled or course full"}}}
        },
        "/admin/announcements": {
            "get": {"tags": ["Announcements"], "summary": "List announcements", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Announcements"], "summary": "Publish announcement", "responses": {"201": {"description": "Created"}}}
        },
        "/admin/activity": {
            "get": {"tags": ["Dashboard"], "summary": "Recent activity", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/reports/{report}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the student roster",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [{"name": "report", "in": "path", "required": true, "type": "string", "enum": ["students.csv", "students.pdf", "students.xlsx"]}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/faculty/dashboard": {
            "get": {"tags": ["Dashboard"], "summary": "Faculty dashboard", "responses": {"200": {"description": "OK"}}}
        },
        "/faculty/attendance": {
            "post": {"tags": ["Faculty"], "summary": "Mark attendance", "responses": {"200": {"description": "OK"}, "403": {"description": "Not your course"}}}
        },
        "/faculty/grades": {
            "post": {"tags": ["Faculty"], "summary": "Record assessment marks", "responses": {"201": {"description": "Created"}}}
        },
        "/student/dashboard": {
            "get": {"tags": ["Dashboard"], "summary": "Student dashboard", "responses": {"200": {"description": "OK"}}}
        },
        "/student/attendance": {
            "get": {"tags": ["Student"], "summary": "Attendance per course", "responses": {"200": {"description": "OK"}}}
        },
        "/student/grades": {
            "get": {"tags": ["Student"], "summary": "Grades and CGPA", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "SignInRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "redirect": {"type": "string"}
            }
        },
        "SignUpRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirm_password": {"type": "string"},
                "full_name": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "faculty"]},
                "department": {"type": "string"}
            }
        },
        "ActionResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "enrollment_number": {"type": "string"},
                "employee_id": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "per_page": {"type": "integer"},
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Pickup API",
        "description": "Backend for the school child-pickup tracking mini-program and console",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "WeChat", "description": "Mini-program login and platform callbacks"},
        {"name": "Profile", "description": "Authenticated actor profile"},
        {"name": "Pickups", "description": "Pickup event log"},
        {"name": "Console", "description": "Admin session management"},
        {"name": "Children", "description": "Child roster management"},
        {"name": "Roster", "description": "Guardians, staff and authorization links"}
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
                    "503": {"description": "Unavailable"}
                }
            }
        },
        "/auth/wechat/login": {
            "post": {
                "tags": ["WeChat"],
                "summary": "Mini-program login",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/WeChatLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthenticated"}
                }
            }
        },
        "/wechat/callback": {
            "get": {
                "tags": ["WeChat"],
                "summary": "Callback URL verification",
                "parameters": [
                    {"name": "signature", "in": "query", "type": "string"},
                    {"name": "timestamp", "in": "query", "type": "string"},
                    {"name": "nonce", "in": "query", "type": "string"},
                    {"name": "echostr", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Echo string"},
                    "403": {"description": "Invalid signature"}
                }
            },
            "post": {
                "tags": ["WeChat"],
                "summary": "Official-account event callback",
                "responses": {
                    "200": {"description": "Acknowledged"}
                }
            }
        },
        "/me": {
            "get": {
                "tags": ["Profile"],
                "summary": "Current actor profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthenticated"}
                }
            }
        },
        "/me/avatar": {
            "post": {
                "tags": ["Profile"],
                "summary": "Upload an avatar",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "avatar", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/children": {
            "get": {
                "tags": ["Pickups"],
                "summary": "List children (staff view)",
                "parameters": [
                    {"name": "class", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/pickups": {
            "get": {
                "tags": ["Pickups"],
                "summary": "List recent pickups",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Pickups"],
                "summary": "Record a pickup",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "child_id", "in": "formData", "type": "string", "required": true},
                    {"name": "notes", "in": "formData", "type": "string"},
                    {"name": "photo", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "404": {"description": "Child not found"}
                }
            }
        },
        "/parent/children": {
            "get": {
                "tags": ["Pickups"],
                "summary": "List linked children",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/parent/pickups": {
            "get": {
                "tags": ["Pickups"],
                "summary": "List pickups of linked children",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/parent/pickups/{id}": {
            "get": {
                "tags": ["Pickups"],
                "summary": "Get one pickup of a linked child",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Console"],
                "summary": "Authenticate console admin",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdminLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/admin/logout": {
            "post": {
                "tags": ["Console"],
                "summary": "Logout console session",
                "responses": {
                    "204": {"description": "No content"},
                    "401": {"description": "Unauthenticated"}
                }
            }
        },
        "/admin/children": {
            "get": {
                "tags": ["Children"],
                "summary": "List children",
                "parameters": [
                    {"name": "class", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Children"],
                "summary": "Enroll a child",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateChildRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Enrollment number already used"}
                }
            }
        },
        "/admin/children/{id}": {
            "get": {
                "tags": ["Children"],
                "summary": "Get child detail",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Children"],
                "summary": "Update a child",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateChildRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Children"],
                "summary": "Remove a child",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No content"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/guardians": {
            "get": {
                "tags": ["Roster"],
                "summary": "List guardians",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Roster"],
                "summary": "Register a guardian",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGuardianRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "OpenID already registered"}
                }
            }
        },
        "/admin/staff": {
            "get": {
                "tags": ["Roster"],
                "summary": "List staff",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Roster"],
                "summary": "Register a staff member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStaffRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "OpenID already registered"}
                }
            }
        },
        "/admin/links": {
            "post": {
                "tags": ["Roster"],
                "summary": "Link a guardian to a child",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BindRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "404": {"description": "Guardian or child not found"},
                    "409": {"description": "Already linked"}
                }
            },
            "delete": {
                "tags": ["Roster"],
                "summary": "Unlink a guardian from a child",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BindRequest"}}
                ],
                "responses": {
                    "204": {"description": "No content"},
                    "404": {"description": "Link not found"}
                }
            }
        },
        "/admin/pickups/export": {
            "get": {
                "tags": ["Roster"],
                "summary": "Download the pickup log",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "WeChatLoginRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"}
            }
        },
        "AdminLoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateChildRequest": {
            "type": "object",
            "required": ["name", "enrollment_number", "class_name"],
            "properties": {
                "name": {"type": "string"},
                "enrollment_number": {"type": "string"},
                "class_name": {"type": "string"},
                "grade": {"type": "string"},
                "avatar_url": {"type": "string"}
            }
        },
        "UpdateChildRequest": {
            "type": "object",
            "required": ["name", "class_name"],
            "properties": {
                "name": {"type": "string"},
                "class_name": {"type": "string"},
                "grade": {"type": "string"},
                "avatar_url": {"type": "string"}
            }
        },
        "CreateGuardianRequest": {
            "type": "object",
            "required": ["openid"],
            "properties": {
                "openid": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "CreateStaffRequest": {
            "type": "object",
            "required": ["openid", "name"],
            "properties": {
                "openid": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "BindRequest": {
            "type": "object",
            "required": ["guardian_id", "child_id"],
            "properties": {
                "guardian_id": {"type": "string"},
                "child_id": {"type": "string"},
                "relationship": {"type": "string"}
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

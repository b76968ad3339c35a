// Package docs holds the swagger spec served under /swagger
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
        "/api/v1/auth/login": {
            "post": {
                "description": "Verify credentials, set the session cookie and return a bearer token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/auth/signup": {
            "post": {
                "description": "Create an account with role user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a user",
                "parameters": [
                    {"description": "Profile", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.SignupInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "description": "Clear the session cookie",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the user of the current session",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/public/offers": {
            "get": {
                "description": "List active offers in creation order, optionally filtered by exact category",
                "produces": ["application/json"],
                "tags": ["offers"],
                "summary": "List offers",
                "parameters": [
                    {"type": "string", "description": "Category (Spa, Restaurantes, Ocio, Viajes, Belleza)", "name": "category", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Offer"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/public/offers/{id}": {
            "get": {
                "description": "Get a single active offer. Deleted offers are reported as not found.",
                "produces": ["application/json"],
                "tags": ["offers"],
                "summary": "Get offer by ID",
                "parameters": [
                    {"type": "string", "description": "Offer ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Offer"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/protected/admin/offers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "List offers in creation order. Deleted offers are included when includeDeleted is true.",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List offers for administration",
                "parameters": [
                    {"type": "string", "description": "Category", "name": "category", "in": "query"},
                    {"type": "boolean", "description": "Include soft-deleted offers", "name": "includeDeleted", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Offer"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Create an active offer owned by the authenticated admin",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a new offer",
                "parameters": [
                    {"description": "Offer payload", "name": "offer", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.OfferInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Offer"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/protected/admin/offers/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Get a single offer whether or not it has been deleted",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Get any offer by ID",
                "parameters": [
                    {"type": "string", "description": "Offer ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Offer"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Change selected fields of an offer. Unknown fields are rejected. An explicit isDeleted of null restores a deleted offer.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Update an offer",
                "parameters": [
                    {"type": "string", "description": "Offer ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "offer", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.OfferPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Offer"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Soft-delete an offer. Deleting an already deleted offer succeeds and keeps the original timestamp.",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Delete an offer",
                "parameters": [
                    {"type": "string", "description": "Offer ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Offer"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/protected/admin/upload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Store an offer image. The stored name is random, so uploads never overwrite each other.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Upload an image",
                "parameters": [
                    {"type": "file", "description": "Image (jpeg, png, gif or webp)", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/protected/admin/clients": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Get all OAuth2 clients owned by the authenticated admin",
                "produces": ["application/json"],
                "tags": ["OAuth2 Clients"],
                "summary": "List OAuth2 clients",
                "responses": {
                    "200": {"description": "List of clients", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.OAuthClient"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Register a machine client that can obtain tokens with the client_credentials grant. The secret is only returned here.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["OAuth2 Clients"],
                "summary": "Create OAuth2 client",
                "parameters": [
                    {"description": "Client details", "name": "client", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.ClientInput"}}
                ],
                "responses": {
                    "201": {"description": "Client created with client_id and client_secret", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/models.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/api/v1/protected/admin/clients/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Delete an OAuth2 client owned by the authenticated admin",
                "tags": ["OAuth2 Clients"],
                "summary": "Delete OAuth2 client",
                "parameters": [
                    {"type": "string", "description": "Client ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Client deleted successfully"},
                    "404": {"description": "Client not found", "schema": {"$ref": "#/definitions/models.APIError"}}
                }
            }
        },
        "/oauth/token": {
            "post": {
                "description": "Obtain an access token for a machine client using the client credentials grant",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["OAuth2"],
                "summary": "Token Endpoint",
                "parameters": [
                    {"type": "string", "description": "Grant type: client_credentials", "name": "grant_type", "in": "formData", "required": true},
                    {"type": "string", "description": "Client ID", "name": "client_id", "in": "formData", "required": true},
                    {"type": "string", "description": "Client Secret", "name": "client_secret", "in": "formData", "required": true},
                    {"type": "string", "description": "Space separated scopes", "name": "scope", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Check if the service and its database are reachable",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "controllers.LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "controllers.LoginResponse": {
            "type": "object",
            "properties": {
                "expires_in": {"type": "integer"},
                "message": {"type": "string"},
                "token": {"type": "string"},
                "token_type": {"type": "string"},
                "user": {"$ref": "#/definitions/models.User"}
            }
        },
        "models.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "message": {"type": "string"}
            }
        },
        "models.Location": {
            "type": "object",
            "properties": {"lat": {"type": "number"}, "lng": {"type": "number"}}
        },
        "models.Offer": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "discount": {"type": "integer"},
                "id": {"type": "string"},
                "images": {"type": "array", "items": {"type": "string"}},
                "isDeleted": {"type": "string"},
                "location": {"$ref": "#/definitions/models.Location"},
                "placeName": {"type": "string"},
                "price": {"type": "number"},
                "shortDescription": {"type": "string"},
                "title": {"type": "string"},
                "updatedAt": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "models.OAuthClient": {
            "type": "object",
            "properties": {
                "client_id": {"type": "string"},
                "created_at": {"type": "string"},
                "domain": {"type": "string"},
                "grant_types": {"type": "string"},
                "name": {"type": "string"},
                "redirect_uri": {"type": "string"},
                "scopes": {"type": "string"},
                "updated_at": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "isla": {"type": "string"},
                "lastName": {"type": "string"},
                "name": {"type": "string"},
                "newsletter": {"type": "boolean"},
                "role": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "services.ClientInput": {
            "type": "object",
            "properties": {
                "domain": {"type": "string"},
                "name": {"type": "string"},
                "redirect_uri": {"type": "string"},
                "scopes": {"type": "string"}
            }
        },
        "services.OfferInput": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "description": {"type": "string"},
                "discount": {"type": "integer"},
                "images": {"type": "array", "items": {"type": "string"}},
                "location": {"$ref": "#/definitions/models.Location"},
                "placeName": {"type": "string"},
                "price": {"type": "number"},
                "shortDescription": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "services.OfferPatch": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "description": {"type": "string"},
                "discount": {"type": "integer"},
                "images": {"type": "array", "items": {"type": "string"}},
                "isDeleted": {"type": "string"},
                "location": {"$ref": "#/definitions/models.Location"},
                "placeName": {"type": "string"},
                "price": {"type": "number"},
                "shortDescription": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "services.SignupInput": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "isla": {"type": "string"},
                "lastName": {"type": "string"},
                "name": {"type": "string"},
                "newsletter": {"type": "boolean"},
                "password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Bonos API",
	Description:      "Discounted local offers: public storefront, authentication and offer administration",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

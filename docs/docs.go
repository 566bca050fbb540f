// Package docs holds the swagger document of the book catalog api. It is
// maintained by hand alongside the handler annotations and registered
// with swag so the router can serve it under /swagger/.
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
        "/v1/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List all books of the catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.APIResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Validate and add a new book to the catalog",
                "parameters": [
                    {"description": "raw book form values", "name": "book", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.BookInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/main.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            }
        },
        "/v1/books/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Fetch a single book",
                "parameters": [
                    {"type": "string", "description": "book id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Validate and replace an existing book",
                "parameters": [
                    {"type": "string", "description": "book id", "name": "id", "in": "path", "required": true},
                    {"description": "raw book form values", "name": "book", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.BookInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Remove a book from the catalog",
                "parameters": [
                    {"type": "string", "description": "book id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            }
        },
        "/v1/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Fetch the whole catalog view",
                "parameters": [
                    {"type": "string", "description": "publicationYear (default) or rating", "name": "by", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            }
        },
        "/v1/catalog/groups": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Group books by publication year or rating",
                "parameters": [
                    {"type": "string", "description": "publicationYear (default) or rating", "name": "by", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            }
        },
        "/v1/catalog/recommendation": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Recommend a good book",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.APIResponse"}}
                }
            }
        },
        "/v1/isbn/{isbn}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Check an ISBN-10 or ISBN-13 checksum",
                "parameters": [
                    {"type": "string", "description": "identifier to check", "name": "isbn", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "main.APIError": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "requestid": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "main.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "requestid": {"type": "string"},
                "status": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "main.BookInput": {
            "type": "object",
            "properties": {
                "authors": {"type": "string"},
                "isbn": {"type": "string"},
                "name": {"type": "string"},
                "publicationYear": {"type": "string"},
                "rating": {"type": "string"}
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
	Title:            "Book Catalog API",
	Description:      "Validates, stores, groups and recommends books.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

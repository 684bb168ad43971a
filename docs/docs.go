// Package docs holds the OpenAPI document served under /swagger/.
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
        "/health": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Health Check",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "available"
                    },
                    "503": {
                        "description": "degraded"
                    }
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Register a worker",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created"
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.RegisterRequest"
                        }
                    }
                ]
            }
        },
        "/auth/login": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Log in",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.LoginResponse"
                        }
                    },
                    "401": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.LoginRequest"
                        }
                    }
                ]
            }
        },
        "/auth/me": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "Current user",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/users/me/push-token": {
            "put": {
                "tags": [
                    "Auth"
                ],
                "summary": "Register push token",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.PushTokenRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/journeys/start": {
            "post": {
                "tags": [
                    "Journeys"
                ],
                "summary": "Start a journey",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/dto.JourneyResponse"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/dto.StartRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/journeys/auto-start": {
            "post": {
                "tags": [
                    "Journeys"
                ],
                "summary": "Start a journey once the worker moves",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "already_started",
                        "schema": {
                            "$ref": "#/definitions/dto.AutoStartResponse"
                        }
                    },
                    "201": {
                        "description": "started",
                        "schema": {
                            "$ref": "#/definitions/dto.AutoStartResponse"
                        }
                    },
                    "202": {
                        "description": "waiting",
                        "schema": {
                            "$ref": "#/definitions/dto.AutoStartResponse"
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.AutoStartRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/journeys/samples": {
            "post": {
                "tags": [
                    "Journeys"
                ],
                "summary": "Append a telemetry sample",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.JourneyResponse"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.SampleRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/journeys/finalize": {
            "post": {
                "tags": [
                    "Journeys"
                ],
                "summary": "Finalize the open journey",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.JourneyResponse"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/journeys/current": {
            "get": {
                "tags": [
                    "Journeys"
                ],
                "summary": "Open journey",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.JourneyResponse"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/journeys/history": {
            "get": {
                "tags": [
                    "Journeys"
                ],
                "summary": "Journey history",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Page",
                        "name": "page",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Page size",
                        "name": "limit",
                        "in": "query",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/admin/reports/daily": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Daily report",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Day, YYYY-MM-DD (default today)",
                        "name": "date",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "string",
                        "description": "Risaralda, Caldas or Quindío",
                        "name": "region",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Page",
                        "name": "page",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "description": "Page size",
                        "name": "limit",
                        "in": "query",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/admin/reports/monthly": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Monthly report",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "422": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Month, YYYY-MM",
                        "name": "month",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Risaralda, Caldas or Quindío",
                        "name": "region",
                        "in": "query",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/ws/admin/journeys": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Live journey feed (websocket)",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "101": {
                        "description": "Switching Protocols"
                    },
                    "401": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "$ref": "#/definitions/handler.errorBody"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "JWT when headers cannot be set",
                        "name": "access_token",
                        "in": "query",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "handler.errorBody": {
            "type": "object",
            "properties": {
                "error": {}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": [
                "email",
                "password"
            ],
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "dto.LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {
                    "type": "string"
                },
                "expires_at": {
                    "type": "string"
                },
                "user": {
                    "type": "object"
                }
            }
        },
        "dto.RegisterRequest": {
            "type": "object",
            "required": [
                "name",
                "email",
                "password",
                "role",
                "region",
                "transport"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string",
                    "minLength": 6
                },
                "role": {
                    "type": "string",
                    "enum": [
                        "ingeniero",
                        "inspector"
                    ]
                },
                "region": {
                    "type": "string",
                    "enum": [
                        "Risaralda",
                        "Caldas",
                        "Quindío"
                    ]
                },
                "transport": {
                    "type": "string",
                    "enum": [
                        "moto",
                        "carro"
                    ]
                }
            }
        },
        "dto.PushTokenRequest": {
            "type": "object",
            "required": [
                "token"
            ],
            "properties": {
                "token": {
                    "type": "string",
                    "example": "ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"
                }
            }
        },
        "dto.PositionRequest": {
            "type": "object",
            "required": [
                "lat",
                "lng"
            ],
            "properties": {
                "lat": {
                    "type": "number"
                },
                "lng": {
                    "type": "number"
                }
            }
        },
        "dto.SampleRequest": {
            "type": "object",
            "required": [
                "speed",
                "position"
            ],
            "properties": {
                "speed": {
                    "type": "number"
                },
                "position": {
                    "$ref": "#/definitions/dto.PositionRequest"
                },
                "timestamp": {
                    "type": "string"
                }
            }
        },
        "dto.AutoStartRequest": {
            "type": "object",
            "required": [
                "speed"
            ],
            "properties": {
                "speed": {
                    "type": "number"
                },
                "position": {
                    "$ref": "#/definitions/dto.PositionRequest"
                },
                "timestamp": {
                    "type": "string"
                }
            }
        },
        "dto.StartRequest": {
            "type": "object",
            "properties": {
                "sample": {
                    "$ref": "#/definitions/dto.SampleRequest"
                }
            }
        },
        "models.JourneyView": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "state": {
                    "type": "string"
                },
                "started_at": {
                    "type": "string"
                },
                "ended_at": {
                    "type": "string"
                },
                "distance_km": {
                    "type": "number"
                },
                "average_speed": {
                    "type": "number"
                },
                "max_speed": {
                    "type": "number"
                }
            }
        },
        "dto.JourneyResponse": {
            "type": "object",
            "properties": {
                "journey": {
                    "$ref": "#/definitions/models.JourneyView"
                }
            }
        },
        "dto.AutoStartResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "journey": {
                    "$ref": "#/definitions/models.JourneyView"
                }
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
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "fieldtrack Journey API",
	Description:      "Journey tracking for field engineers and inspectors.",
	InfoInstanceName: "fieldtrack",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

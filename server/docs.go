package server

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// The OpenAPI description is built from maps rather than structs: it's only
// ever marshaled, and the field names are OpenAPI's, not ours.
type object = map[string]interface{}

func openAPI(serverURL string) object {
	text := object{"type": "string"}
	notFound := object{"description": "Note not found"}
	badRequest := object{"description": "Invalid note name"}
	nameParam := []object{{
		"in":          "path",
		"name":        "note_name",
		"required":    true,
		"schema":      text,
		"description": "Name of the note",
	}}
	return object{
		"openapi": "3.0.0",
		"info": object{
			"title":       "Notes API",
			"version":     "1.0.0",
			"description": "API for managing notes",
		},
		"servers": []object{{"url": serverURL}},
		"paths": object{
			"/notes/{note_name}": object{
				"get": object{
					"summary":    "Get a note by name",
					"parameters": nameParam,
					"responses": object{
						"200": object{
							"description": "Note content",
							"content":     object{"application/octet-stream": object{"schema": text}},
						},
						"400": badRequest,
						"404": notFound,
					},
				},
				"put": object{
					"summary":    "Update a note",
					"parameters": nameParam,
					"requestBody": object{
						"description": "New note content",
						"required":    true,
						"content":     object{"text/plain": object{"schema": text}},
					},
					"responses": object{
						"200": object{"description": "Note updated"},
						"400": badRequest,
						"404": notFound,
						"413": object{"description": "Note too large"},
					},
				},
				"delete": object{
					"summary":    "Delete a note",
					"parameters": nameParam,
					"responses": object{
						"200": object{"description": "Note deleted"},
						"400": badRequest,
						"404": notFound,
					},
				},
			},
			"/notes": object{
				"get": object{
					"summary": "Get a list of all notes",
					"parameters": []object{{
						"in":          "query",
						"name":        "match",
						"required":    false,
						"schema":      text,
						"description": "Only list notes whose name matches this glob pattern",
					}},
					"responses": object{
						"200": object{
							"description": "List of notes",
							"content": object{"application/json": object{"schema": object{
								"type": "array",
								"items": object{
									"type": "object",
									"properties": object{
										"name": text,
										"text": text,
									},
								},
							}}},
						},
						"400": object{"description": "Invalid pattern"},
					},
				},
			},
			"/write": object{
				"post": object{
					"summary": "Create a new note",
					"requestBody": object{
						"required": true,
						"content": object{
							"application/x-www-form-urlencoded": object{"schema": object{
								"type": "object",
								"properties": object{
									"note_name": text,
									"note":      text,
								},
								"required": []string{"note_name", "note"},
							}},
						},
					},
					"responses": object{
						"201": object{"description": "Note created"},
						"400": object{"description": "Bad request"},
					},
				},
			},
		},
	}
}

func serveDocsYAML(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	body, err := yaml.Marshal(openAPI("http://" + r.Host))
	if err != nil {
		return failure(logger, err)
	}
	w.Header().Set("Content-Type", "application/yaml")
	return http.StatusOK, body
}

func serveDocsJSON(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	body, err := json.Marshal(openAPI("http://" + r.Host))
	if err != nil {
		return failure(logger, err)
	}
	w.Header().Set("Content-Type", "application/json")
	return http.StatusOK, body
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Ashisharjun12/devfinder-final/internal/apperr"
)

// Request bodies are checked against these schemas before they are decoded.
var (
	createProjectSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"title":          {"type": "string"},
			"description":    {"type": "string"},
			"requiredSkills": {"type": "array", "items": {"type": "string"}},
			"stage":          {"type": "string"},
			"githubUrl":      {"type": ["string", "null"]},
			"whatsappNumber": {"type": ["string", "null"]}
		},
		"required": ["title", "description"]
	}`)
	// null is rejected on update; an empty string clears githubUrl or whatsappNumber
	updateProjectSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"title":          {"type": "string"},
			"description":    {"type": "string"},
			"requiredSkills": {"type": "array", "items": {"type": "string"}},
			"stage":          {"type": "string"},
			"githubUrl":      {"type": "string"},
			"whatsappNumber": {"type": "string"}
		}
	}`)
	connectSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"message": {"type": ["string", "null"]}
		}
	}`)
	resolveSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"requestId": {"type": "string", "minLength": 1},
			"action":    {"type": "string"}
		},
		"required": ["requestId", "action"]
	}`)
	profileSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"name":      {"type": "string", "maxLength": 100},
			"bio":       {"type": "string", "maxLength": 1000},
			"skills":    {"type": "array", "items": {"type": "string"}, "maxItems": 50},
			"languages": {"type": "array", "items": {"type": "string"}, "maxItems": 50}
		}
	}`)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

const maxBodyBytes = 64 << 10

// bindBody reads at most maxBodyBytes of the request body and hands it to decodeBody.
func bindBody(c *gin.Context, schema *gojsonschema.Schema, dst any, allowEmpty bool) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("request body too large")
		}
		return apperr.Validation("could not read request body")
	}
	return decodeBody(raw, schema, dst, allowEmpty)
}

// decodeBody validates raw against schema and unmarshals it into dst. An empty body
// is treated as {} when allowEmpty is set.
func decodeBody(raw []byte, schema *gojsonschema.Schema, dst any, allowEmpty bool) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		if !allowEmpty {
			return apperr.Validation("invalid json")
		}
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		return apperr.Validation("invalid json")
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return apperr.Validation("invalid json")
	}
	if !res.Valid() {
		var errs []string
		for _, d := range res.Errors() {
			errs = append(errs, d.String())
		}
		return apperr.Validation(strings.Join(errs, "; "))
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Validation("invalid json")
	}
	return nil
}

package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document builds the OpenAPI 3 description of the REST API exposed by the
// generated API controllers.
func Document(title string, tables []tableView) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       fmt.Sprintf("%s API", title),
			Description: fmt.Sprintf("CRUD endpoints for the %d tables scaffolded into %s.", len(tables), title),
			Version:     "1.0.0",
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	doc.Components = &components

	doc.Components.Schemas["ProblemDetails"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"type":   openapi3.NewStringSchema().NewRef(),
				"title":  openapi3.NewStringSchema().NewRef(),
				"status": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
				"detail": openapi3.NewStringSchema().NewRef(),
			},
		},
	}

	doc.Paths = openapi3.NewPaths()
	for _, t := range tables {
		addTablePaths(doc, t)
	}
	return doc
}

// addTablePaths registers the component schema and the collection and item
// paths of one table.
func addTablePaths(doc *openapi3.T, t tableView) {
	doc.Components.Schemas[t.Type] = fieldsToSchema(t.Fields)
	schemaRef := fmt.Sprintf("#/components/schemas/%s", t.Type)

	collection := fmt.Sprintf("/api/%s", t.Route)
	item := collection + "/{id}"

	doc.Paths.Set(collection, &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{t.Type},
			Summary:     fmt.Sprintf("List %s records", t.Name),
			OperationID: fmt.Sprintf("list%s", t.Type),
			Responses: newResponses("200", fmt.Sprintf("All %s records", t.Name), &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type:  &openapi3.Types{"array"},
					Items: openapi3.NewSchemaRef(schemaRef, nil),
				},
			}),
		},
		Post: &openapi3.Operation{
			Tags:        []string{t.Type},
			Summary:     fmt.Sprintf("Create a %s record", t.Name),
			OperationID: fmt.Sprintf("create%s", t.Type),
			RequestBody: jsonBody(schemaRef),
			Responses:   newResponses("201", "Created", openapi3.NewSchemaRef(schemaRef, nil)),
		},
	})

	idParam := openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: openapi3.NewPathParameter("id").
				WithDescription(fmt.Sprintf("Value of %s.", t.Key.Name)).
				WithSchema(kindSchema(t.Key.Kind).Value),
		},
	}

	doc.Paths.Set(item, &openapi3.PathItem{
		Parameters: idParam,
		Get: &openapi3.Operation{
			Tags:        []string{t.Type},
			Summary:     fmt.Sprintf("Get a %s record", t.Name),
			OperationID: fmt.Sprintf("get%s", t.Type),
			Responses:   newResponses("200", "The record", openapi3.NewSchemaRef(schemaRef, nil)),
		},
		Put: &openapi3.Operation{
			Tags:        []string{t.Type},
			Summary:     fmt.Sprintf("Replace a %s record", t.Name),
			OperationID: fmt.Sprintf("update%s", t.Type),
			RequestBody: jsonBody(schemaRef),
			Responses:   newResponses("204", "Updated", nil),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{t.Type},
			Summary:     fmt.Sprintf("Delete a %s record", t.Name),
			OperationID: fmt.Sprintf("delete%s", t.Type),
			Responses:   newResponses("204", "Deleted", nil),
		},
	})
}

// fieldsToSchema converts model fields to an object schema. Non-nullable
// fields are required.
func fieldsToSchema(fields []fieldView) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	var required []string
	for _, f := range fields {
		s := kindSchema(f.Kind)
		s.Value.Nullable = f.Nullable
		props[jsonName(f.Name)] = s
		if !f.Nullable {
			required = append(required, jsonName(f.Name))
		}
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
			Required:   required,
		},
	}
}

func kindSchema(k Kind) *openapi3.SchemaRef {
	typ, format := k.OpenAPI()
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{typ}, Format: format}}
}

func jsonBody(schemaRef string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(schemaRef, nil)),
		},
	}
}

// newResponses builds a Responses map with the success response plus the
// 400 and 404 problem responses ASP.NET Core returns.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	success := &openapi3.Response{Description: &description}
	if schema != nil {
		success.Content = openapi3.NewContentWithJSONSchemaRef(schema)
	}
	responses.Set(statusCode, &openapi3.ResponseRef{Value: success})

	problem := openapi3.NewSchemaRef("#/components/schemas/ProblemDetails", nil)
	for _, r := range []struct{ code, desc string }{{"400", "Bad request"}, {"404", "Not found"}} {
		desc := r.desc
		responses.Set(r.code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(problem),
			},
		})
	}
	return responses
}

func renderOpenAPI(p projectView) (string, error) {
	doc := Document(p.Namespace, p.Tables)
	if err := doc.Validate(context.Background()); err != nil {
		return "", fmt.Errorf("invalid openapi document: %w", err)
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal openapi document: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("indent openapi document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

type appSettings struct {
	ConnectionStrings connectionStrings `json:"ConnectionStrings"`
	Logging           loggingSettings   `json:"Logging"`
	AllowedHosts      string            `json:"AllowedHosts"`
}

type connectionStrings struct {
	DefaultConnection string `json:"DefaultConnection"`
}

type loggingSettings struct {
	LogLevel logLevels `json:"LogLevel"`
}

type logLevels struct {
	Default             string `json:"Default"`
	MicrosoftAspNetCore string `json:"Microsoft.AspNetCore"`
}

func renderAppSettings(connectionString string) (string, error) {
	s := appSettings{
		ConnectionStrings: connectionStrings{DefaultConnection: connectionString},
		Logging:           loggingSettings{LogLevel: logLevels{Default: "Information", MicrosoftAspNetCore: "Warning"}},
		AllowedHosts:      "*",
	}
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal appsettings: %w", err)
	}
	return string(out) + "\n", nil
}

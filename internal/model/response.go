package model

// GeneratedFile is one artifact of a generation run. Its path is relative and
// uses forward slashes.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// AnalyzeRequest is the body of the schema analysis endpoint.
type AnalyzeRequest struct {
	ConnectionString string `json:"connectionString"`
	Driver           string `json:"driver,omitempty"`
}

// AnalyzeResponse is the result envelope of the schema analysis endpoint.
// On failure only Success and Error are set.
type AnalyzeResponse struct {
	Success          bool              `json:"success"`
	Driver           string            `json:"driver,omitempty"`
	Demo             bool              `json:"demo,omitempty"`
	ConnectionString string            `json:"connectionString,omitempty"`
	Tables           []TableDefinition `json:"tables,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// GenerateRequest is the body of the stateless generation endpoint.
type GenerateRequest struct {
	Tables   []TableDefinition `json:"tables"`
	Selected []string          `json:"selected"`
	Project  string            `json:"project,omitempty"`
}

// GenerateResponse carries the generated bundle as a path to content map.
type GenerateResponse struct {
	Success bool              `json:"success"`
	Files   map[string]string `json:"files,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// DriverInfo describes a registered schema provider.
type DriverInfo struct {
	Name string `json:"name"`
	Live bool   `json:"live"`
}

// ErrorResponse is the standard envelope for error responses outside the
// analyze/generate endpoints.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

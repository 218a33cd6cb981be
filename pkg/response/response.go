package response

// Response represents a standard API response format
type Response struct {
	Status     string        `json:"status"`      // "success" or "error"
	StatusCode int           `json:"status_code"` // HTTP status code
	Data       interface{}   `json:"data,omitempty"`
	Meta       *Meta         `json:"meta,omitempty"`
	Error      string        `json:"error,omitempty"`
	Detail     []FieldDetail `json:"detail,omitempty"`
}

// Meta describes the page a list response holds.
type Meta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// FieldDetail points an error message at one request field, e.g. loc ["body","lines","0","quantity"].
type FieldDetail struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Page returns a success response for one page of a list
func Page(statusCode int, data interface{}, meta Meta) Response {
	r := Success(statusCode, data)
	r.Meta = &meta
	return r
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Invalid returns an error response carrying field-level details
func Invalid(statusCode int, err string, detail ...FieldDetail) Response {
	r := Error(statusCode, err)
	r.Detail = detail
	return r
}

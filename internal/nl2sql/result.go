package nl2sql

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ExecutionResult is the outcome of running one extracted statement.
// Columns keeps the cursor order of the result set; it is not serialized.
type ExecutionResult struct {
	Status       string
	SQL          string
	Results      []map[string]any
	Columns      []string
	ErrorMessage string
}

// Success builds the success variant. Rows is never nil in the result.
func Success(sql string, columns []string, rows []map[string]any) ExecutionResult {
	if rows == nil {
		rows = []map[string]any{}
	}
	return ExecutionResult{
		Status:  StatusSuccess,
		SQL:     sql,
		Results: rows,
		Columns: columns,
	}
}

// Failure builds the error variant from any failure
func Failure(sql string, err error) ExecutionResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ExecutionResult{
		Status:       StatusError,
		SQL:          sql,
		ErrorMessage: msg,
	}
}

func (r ExecutionResult) OK() bool {
	return r.Status == StatusSuccess
}

// MarshalJSON emits results only on success and error_message only on error
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	if r.OK() {
		results := r.Results
		if results == nil {
			results = []map[string]any{}
		}
		return json.Marshal(struct {
			Status  string           `json:"status"`
			SQL     string           `json:"sql"`
			Results []map[string]any `json:"results"`
		}{r.Status, r.SQL, results})
	}
	return json.Marshal(struct {
		Status       string `json:"status"`
		SQL          string `json:"sql"`
		ErrorMessage string `json:"error_message"`
	}{r.Status, r.SQL, r.ErrorMessage})
}

// UnmarshalJSON accepts either variant
func (r *ExecutionResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Status       string           `json:"status"`
		SQL          string           `json:"sql"`
		Results      []map[string]any `json:"results"`
		ErrorMessage string           `json:"error_message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = ExecutionResult{
		Status:       wire.Status,
		SQL:          wire.SQL,
		Results:      wire.Results,
		ErrorMessage: wire.ErrorMessage,
	}
	return nil
}

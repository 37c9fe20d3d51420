package domain

// ResultKind tags the shape of a Result.
type ResultKind string

const (
	ResultData    ResultKind = "data"
	ResultEmpty   ResultKind = "empty"
	ResultMessage ResultKind = "message"
)

// Result is the output of a single action execution.
type Result struct {
	Kind         ResultKind `json:"kind"`
	Task         *Task      `json:"-"`
	Data         *Dataset   `json:"data,omitempty"`
	Message      string     `json:"message,omitempty"`
	DataModified bool       `json:"data_modified"`
}

// NewDataResult creates a result carrying an output dataset.
func NewDataResult(task *Task, data *Dataset, modified bool) *Result {
	return &Result{Kind: ResultData, Task: task, Data: data, DataModified: modified}
}

// NewEmptyResult creates a placeholder result without data or message.
func NewEmptyResult(task *Task) *Result {
	return &Result{Kind: ResultEmpty, Task: task}
}

// NewMessageResult creates a result carrying only a human readable message.
func NewMessageResult(task *Task, message string) *Result {
	return &Result{Kind: ResultMessage, Task: task, Message: message}
}

// HasData reports whether the result carries an output dataset.
func (r *Result) HasData() bool {
	return r != nil && r.Kind == ResultData && r.Data != nil
}

// IsEmpty reports whether the result is an empty placeholder.
func (r *Result) IsEmpty() bool {
	return r == nil || r.Kind == ResultEmpty
}

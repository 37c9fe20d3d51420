package domain

// Task is the input envelope of an action.
// Only InputData changes while a chain runs; Surface and Object are read-only references
// inherited by every step.
type Task struct {
	InputData *Dataset
	Surface   *Surface
	Object    *MetaObject
}

// NewTask creates a task for the given input data.
func NewTask(data *Dataset) *Task {
	return &Task{InputData: data}
}

// Clone returns a copy of the task sharing the read-only references.
func (t *Task) Clone() *Task {
	if t == nil {
		return &Task{}
	}
	c := *t
	return &c
}

// WithInputData returns a copy of the task carrying the given data.
func (t *Task) WithInputData(data *Dataset) *Task {
	c := t.Clone()
	c.InputData = data
	return c
}

package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const timeLayout = "2006-01-02 15:04:05.000000000"

// ExecInfo is a property of the program run.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how the program was run in the exec_info table.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// ExecInfoTable is the table the ExecRecorder writes to.
const ExecInfoTable = "exec_info"

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(ExecInfoTable, ExecInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start remembers the start time, the command, and the working directory.
func (e *ExecRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", time.Now().Format(timeLayout)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	wd, err := os.Getwd()
	if err == nil {
		e.entries = append(e.entries,
			ExecInfo{"Working Directory", filepath.Clean(wd)})
	}
}

// Set records an additional property of the run.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes the remembered properties along with the end time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecInfoTable, entry)
	}

	e.recorder.InsertData(ExecInfoTable,
		ExecInfo{"End Time", time.Now().Format(timeLayout)})

	e.entries = nil

	e.recorder.Flush()
}

package tracing

import (
	"fmt"
	"os"
	"sync"

	"github.com/sarchlab/ringnet/sim"
	"github.com/tebeka/atexit"
)

// CSVTracer writes completed tasks into a CSV file.
type CSVTracer struct {
	timeTeller sim.TimeTeller
	path       string
	file       *os.File

	lock          sync.Mutex
	inflightTasks map[string]Task
}

// NewCSVTracer creates a CSVTracer that writes to the file at the given
// path. An existing file is overwritten.
func NewCSVTracer(timeTeller sim.TimeTeller, path string) *CSVTracer {
	file, err := os.Create(path)
	if err != nil {
		panic(err)
	}

	t := &CSVTracer{
		timeTeller:    timeTeller,
		path:          path,
		file:          file,
		inflightTasks: make(map[string]Task),
	}

	fmt.Fprintf(file, "ID, ParentID, Kind, What, Where, Start, End\n")

	atexit.Register(func() {
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})

	return t
}

// StartTask records the start time of the task.
func (t *CSVTracer) StartTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	t.inflightTasks[task.ID] = task
}

// StepTask does nothing.
func (t *CSVTracer) StepTask(_ Task) {
	// Steps are not recorded in the CSV output.
}

// EndTask writes the completed task as one CSV row.
func (t *CSVTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	startedTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	startedTask.EndTime = t.timeTeller.CurrentTime()
	delete(t.inflightTasks, task.ID)

	fmt.Fprintf(t.file, "%s, %s, %s, %s, %s, %.10f, %.10f\n",
		startedTask.ID,
		startedTask.ParentID,
		startedTask.Kind,
		startedTask.What,
		startedTask.Where,
		startedTask.StartTime,
		startedTask.EndTime,
	)
}

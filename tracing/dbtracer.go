package tracing

import (
	"sync"

	"github.com/sarchlab/ringnet/datarecording"
	"github.com/sarchlab/ringnet/sim"
)

// taskTableName is the table that stores completed tasks.
const taskTableName = "trace"

type taskRow struct {
	ID       string
	ParentID string
	Kind     string
	What     string
	Where    string
	Start    float64
	End      float64
}

// DBTracer stores completed tasks in a data recorder, one row per task.
type DBTracer struct {
	timeTeller sim.TimeTeller
	recorder   datarecording.DataRecorder

	lock          sync.Mutex
	inflightTasks map[string]Task
}

// NewDBTracer creates a DBTracer recording into the given data recorder.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	recorder datarecording.DataRecorder,
) *DBTracer {
	t := &DBTracer{
		timeTeller:    timeTeller,
		recorder:      recorder,
		inflightTasks: make(map[string]Task),
	}

	recorder.CreateTable(taskTableName, taskRow{})

	return t
}

// StartTask records the start time of the task.
func (t *DBTracer) StartTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	t.inflightTasks[task.ID] = task
}

// StepTask does nothing.
func (t *DBTracer) StepTask(_ Task) {
	// Steps are not persisted.
}

// EndTask inserts the completed task into the database.
func (t *DBTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	startedTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	startedTask.EndTime = t.timeTeller.CurrentTime()
	delete(t.inflightTasks, task.ID)

	t.recorder.InsertData(taskTableName, taskRow{
		ID:       startedTask.ID,
		ParentID: startedTask.ParentID,
		Kind:     startedTask.Kind,
		What:     startedTask.What,
		Where:    startedTask.Where,
		Start:    float64(startedTask.StartTime),
		End:      float64(startedTask.EndTime),
	})
}

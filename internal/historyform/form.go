package historyform

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-sensor-history/internal/sensorapi"
	"github.com/i474232898/weather-sensor-history/internal/weather"
)

const (
	SuccessMessage = "Sensor history successfully added"
	FailureMessage = "Failed to add Sensor history!"
)

var (
	// ErrNoSensor is returned when the draft is edited without a selected sensor.
	ErrNoSensor = errors.New("no sensor selected")
	// ErrSubmitDisabled is returned when submit is not currently available.
	ErrSubmitDisabled = errors.New("submit is disabled")
	// ErrSubmitting is returned for changes attempted while a submission is in flight.
	ErrSubmitting = errors.New("submission in progress")
)

// State is the lifecycle state of the form.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Creator performs the history create request.
type Creator interface {
	CreateHistory(ctx context.Context, sensorID string, payload weather.HistoryRequest) (weather.HistoryRecord, error)
}

// Snapshot is a read-only view of the form.
type Snapshot struct {
	State      State
	Sensor     *weather.Sensor
	Draft      Draft
	Validation Validation
	CanSubmit  bool
	// Message is the banner text; empty when no banner is shown.
	Message string
}

// Form is the history form controller. It is safe for concurrent use; at most one
// submission is in flight at a time.
type Form struct {
	api Creator
	now func() time.Time

	mu             sync.Mutex
	state          State
	sensor         *weather.Sensor
	draft          Draft
	validation     Validation
	submitDisabled bool
	message        string
}

func New(api Creator) *Form {
	f := &Form{
		api: api,
		now: time.Now,
	}
	f.validation = Validate(f.draft, f.now())
	return f
}

// Snapshot returns the current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sensor *weather.Sensor
	if f.sensor != nil {
		s := *f.sensor
		sensor = &s
	}
	return Snapshot{
		State:      f.state,
		Sensor:     sensor,
		Draft:      f.draft.Clone(),
		Validation: f.validation,
		CanSubmit:  f.canSubmitLocked(),
		Message:    f.message,
	}
}

// SelectSensor binds the form to sensor. Selecting a different sensor resets the draft to
// {sensorId}; nil empties the form.
func (f *Form) SelectSensor(sensor *weather.Sensor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return ErrSubmitting
	}

	if sensor == nil {
		f.sensor = nil
		f.draft = Draft{}
		f.state = StateEmpty
		f.revalidateLocked()
		return nil
	}

	picked := *sensor
	f.sensor = &picked
	if f.draft.SensorID != picked.ID {
		f.draft = Draft{SensorID: picked.ID}
		f.state = StateEditing
	} else if f.state == StateEmpty || f.state == StateSucceeded {
		f.state = StateEditing
	}
	f.revalidateLocked()
	return nil
}

// Edit replaces the draft with fn's result. The sensor id always follows the selected
// sensor, whatever fn returns.
func (f *Form) Edit(fn func(Draft) Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return ErrSubmitting
	}
	if f.sensor == nil {
		return ErrNoSensor
	}

	next := fn(f.draft.Clone())
	next.SensorID = f.sensor.ID
	f.draft = next
	f.state = StateEditing
	f.revalidateLocked()
	return nil
}

// Set parses raw into field. See Draft.Set.
func (f *Form) Set(field Field, raw string) error {
	var parseErr error
	err := f.Edit(func(d Draft) Draft {
		next, err := d.Set(field, raw)
		if err != nil {
			parseErr = err
			return d
		}
		return next
	})
	if err != nil {
		return err
	}
	return parseErr
}

// Submit validates the draft and, when it passes, sends it. Submit is disabled while the
// request is in flight and after a success until Dismiss.
func (f *Form) Submit(ctx context.Context) (weather.HistoryRecord, error) {
	f.mu.Lock()
	if !f.submitEnabledLocked() {
		f.mu.Unlock()
		return weather.HistoryRecord{}, ErrSubmitDisabled
	}
	if f.sensor == nil {
		f.mu.Unlock()
		return weather.HistoryRecord{}, ErrNoSensor
	}

	f.revalidateLocked()
	if !f.validation.Submittable() {
		err := &ValidationError{Fields: f.validation.Messages()}
		f.mu.Unlock()
		return weather.HistoryRecord{}, err
	}
	payload, err := f.draft.Payload()
	if err != nil {
		f.mu.Unlock()
		return weather.HistoryRecord{}, err
	}

	sensorID := f.draft.SensorID
	f.state = StateSubmitting
	f.submitDisabled = true
	f.message = ""
	f.mu.Unlock()

	record, err := f.api.CreateHistory(ctx, sensorID, payload)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		var reqErr *sensorapi.RequestError
		if !errors.As(err, &reqErr) {
			reqErr = &sensorapi.RequestError{Err: err}
		}
		log.Printf("ERROR: failed to add history for sensor %s: %v", sensorID, err)

		f.state = StateFailed
		f.submitDisabled = false
		f.message = FailureMessage
		if reqErr.Message != "" {
			f.message = reqErr.Message
		}
		return weather.HistoryRecord{}, reqErr
	}

	f.state = StateSucceeded
	f.sensor = nil
	f.draft = Draft{}
	f.message = SuccessMessage
	f.revalidateLocked()
	return record, nil
}

// Dismiss hides the banner and re-enables submit. A succeeded form returns to empty, a
// failed one to editing with its draft intact.
func (f *Form) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.message = ""
	if f.state == StateSubmitting {
		return
	}
	f.submitDisabled = false

	switch f.state {
	case StateSucceeded:
		f.state = StateEmpty
	case StateFailed:
		f.state = StateEditing
	}
}

func (f *Form) submitEnabledLocked() bool {
	if f.submitDisabled {
		return false
	}
	return f.state == StateEditing || f.state == StateFailed
}

func (f *Form) canSubmitLocked() bool {
	return f.submitEnabledLocked() && f.sensor != nil && f.validation.Submittable()
}

func (f *Form) revalidateLocked() {
	f.validation = Validate(f.draft, f.now())
}

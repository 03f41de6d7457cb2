package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"autoapply/models"
)

func passingStep(name string) step {
	return step{name: name, run: func(j *JobContext) StepResult {
		return stepOK(name)
	}}
}

func failingStep(name string) step {
	return step{name: name, run: func(j *JobContext) StepResult {
		return stepFail(name, fmt.Errorf("%s control never appeared", name))
	}}
}

func workflowWith(steps ...step) *Orchestrator {
	return &Orchestrator{steps: steps}
}

func TestRunSteps_AllStepsPassIsSuccess(t *testing.T) {
	o := workflowWith(
		passingStep(StepLogin),
		passingStep(StepSearch),
		passingStep(StepApply),
		passingStep(StepQuestions),
		step{name: StepSubmit, incompleteOnFail: true, run: func(j *JobContext) StepResult {
			return stepOK(StepSubmit)
		}},
	)

	status, reached, err := o.runSteps(&JobContext{JobID: "123456"})
	assert.Equal(t, models.StatusSuccess, status)
	assert.Equal(t, StepSubmit, reached)
	assert.NoError(t, err)
}

func TestRunSteps_ApplyFailureAbandonsJob(t *testing.T) {
	questionsRan := false
	o := workflowWith(
		passingStep(StepLogin),
		passingStep(StepSearch),
		failingStep(StepApply),
		step{name: StepQuestions, run: func(j *JobContext) StepResult {
			questionsRan = true
			return stepOK(StepQuestions)
		}},
	)

	status, reached, err := o.runSteps(&JobContext{JobID: "123456"})
	assert.Equal(t, models.StatusFailed, status)
	assert.Equal(t, StepApply, reached)
	assert.Error(t, err)
	assert.False(t, questionsRan, "no further steps may run after a failed step")
}

func TestRunSteps_SubmitFailureIsIncomplete(t *testing.T) {
	o := workflowWith(
		passingStep(StepLogin),
		passingStep(StepSearch),
		passingStep(StepApply),
		passingStep(StepDisclosures),
		step{name: StepSubmit, incompleteOnFail: true, run: func(j *JobContext) StepResult {
			return stepFail(StepSubmit, fmt.Errorf("submit control not found"))
		}},
	)

	status, reached, err := o.runSteps(&JobContext{JobID: "123456"})
	assert.Equal(t, models.StatusIncomplete, status)
	assert.Equal(t, StepSubmit, reached)
	assert.Error(t, err)
}

func TestRunSteps_PanicIsCaughtAtJobBoundary(t *testing.T) {
	o := workflowWith(
		passingStep(StepLogin),
		step{name: StepSearch, run: func(j *JobContext) StepResult {
			panic("page crashed")
		}},
	)

	status, _, err := o.runSteps(&JobContext{JobID: "123456"})
	assert.Equal(t, models.StatusFailed, status)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "page crashed")
}

func TestRunSteps_RecordedOutcomesAreTerminal(t *testing.T) {
	ledger := NewOutcomeLedger()
	o := workflowWith(passingStep(StepLogin))
	o.ledger = ledger

	status, reached, _ := o.runSteps(&JobContext{JobID: "123456"})
	attempt := models.NewJobAttempt("123456")
	attempt.Status = status
	attempt.StepReached = reached
	assert.NoError(t, ledger.Record(attempt))

	summary := ledger.Summary()
	assert.Equal(t, []string{"123456"}, summary.Successful)
}

func TestApplicationSteps_OrderAndSubmitClassification(t *testing.T) {
	steps := applicationSteps()

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	assert.Equal(t, []string{
		StepLogin, StepSearch, StepApply,
		StepMyInformation, StepMyExperience,
		StepQuestions, StepDisclosures, StepSubmit,
	}, names)

	// Only the submit step downgrades a failure to INCOMPLETE.
	for _, s := range steps {
		assert.Equal(t, s.name == StepSubmit, s.incompleteOnFail, "step %s", s.name)
	}
}

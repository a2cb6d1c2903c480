package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateSnapshot(t *testing.T) {
	valid := func() *RollbackSnapshot {
		return &RollbackSnapshot{
			StepType:    "dedupe",
			ExecutionId: "exec-1",
			CreatedAt:   time.Now(),
		}
	}

	t.Run("valid snapshot", func(t *testing.T) {
		if err := ValidateSnapshot(valid()); err != nil {
			t.Errorf("ValidateSnapshot() = %v, want nil", err)
		}
	})

	t.Run("nil snapshot", func(t *testing.T) {
		err := ValidateSnapshot(nil)
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("ValidateSnapshot(nil) = %v, want ErrInvalidSnapshot", err)
		}
	})

	t.Run("empty step type", func(t *testing.T) {
		s := valid()
		s.StepType = ""
		err := ValidateSnapshot(s)
		if !errors.Is(err, ErrEmptyStepType) {
			t.Errorf("ValidateSnapshot() = %v, want ErrEmptyStepType", err)
		}
	})

	t.Run("empty execution ID", func(t *testing.T) {
		s := valid()
		s.ExecutionId = ""
		err := ValidateSnapshot(s)
		if !errors.Is(err, ErrEmptyExecutionID) {
			t.Errorf("ValidateSnapshot() = %v, want ErrEmptyExecutionID", err)
		}
	})

	t.Run("future timestamp", func(t *testing.T) {
		s := valid()
		s.CreatedAt = time.Now().Add(time.Hour)
		err := ValidateSnapshot(s)
		if !errors.Is(err, ErrInvalidTimestamp) {
			t.Errorf("ValidateSnapshot() = %v, want ErrInvalidTimestamp", err)
		}
	})
}

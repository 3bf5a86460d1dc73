package models

import "testing"

func TestActionProducesTarget(t *testing.T) {
	tests := []struct {
		action   Action
		expected bool
	}{
		{ActionCopy, true},
		{ActionRelink, true},
		{ActionSkip, false},
		{ActionReview, false},
		{ActionDelete, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.ProducesTarget(); got != tt.expected {
				t.Errorf("ProducesTarget(%s) = %v, want %v", tt.action, got, tt.expected)
			}
		})
	}
}

func TestRunValidate(t *testing.T) {
	valid := func() *Run {
		return &Run{
			RunID:         "run-1",
			SourceAccount: "alice@example.com",
			TargetAccount: "backup@example.com",
			Status:        StatusPending,
		}
	}

	t.Run("valid run", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		r := valid()
		r.RunID = ""
		if err := r.Validate(); err == nil {
			t.Error("expected error for missing id")
		}
	})

	t.Run("missing accounts", func(t *testing.T) {
		r := valid()
		r.SourceAccount = ""
		if err := r.Validate(); err == nil {
			t.Error("expected error for missing source account")
		}

		r = valid()
		r.TargetAccount = ""
		if err := r.Validate(); err == nil {
			t.Error("expected error for missing target account")
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		r := valid()
		r.Status = Status("bogus")
		if err := r.Validate(); err == nil {
			t.Error("expected error for invalid status")
		}
	})
}

func TestTaskRecordValidate(t *testing.T) {
	valid := func() *TaskRecord {
		return &TaskRecord{
			RecordID: "rec-1",
			RunID:    "run-1",
			SourceID: "src-1",
			Name:     "report.txt",
			Kind:     KindFile,
			Action:   ActionCopy,
			Status:   StatusPending,
		}
	}

	t.Run("valid record", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing required fields", func(t *testing.T) {
		rec := valid()
		rec.RecordID = ""
		if err := rec.Validate(); err == nil {
			t.Error("expected error for missing record id")
		}

		rec = valid()
		rec.RunID = ""
		if err := rec.Validate(); err == nil {
			t.Error("expected error for missing run id")
		}

		rec = valid()
		rec.SourceID = ""
		if err := rec.Validate(); err == nil {
			t.Error("expected error for missing source id")
		}
	})

	t.Run("invalid action", func(t *testing.T) {
		rec := valid()
		rec.Action = Action("teleport")
		if err := rec.Validate(); err == nil {
			t.Error("expected error for invalid action")
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := valid()
		rec.Status = Status("paused")
		if err := rec.Validate(); err == nil {
			t.Error("expected error for invalid status")
		}
	})
}

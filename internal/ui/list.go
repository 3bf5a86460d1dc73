package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/drivemig/internal/models"
)

var _ list.Item = taskItem{}

// taskItem wraps [models.MigrationTask] to implement [list.Item].
type taskItem struct {
	task models.MigrationTask
}

func (i taskItem) FilterValue() string { return i.task.Name }
func (i taskItem) Title() string {
	return fmt.Sprintf("%s %s '%s'", i.task.Action, i.task.Kind, i.task.Name)
}
func (i taskItem) Description() string {
	desc := i.task.Reason
	if i.task.TargetID != "" {
		desc = fmt.Sprintf("%s • target %s", desc, i.task.TargetID)
	}
	return desc
}

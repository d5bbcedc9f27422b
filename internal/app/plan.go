package app

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aquasecurity/table"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/scheduler"
	"github.com/vk/rendergraph/internal/statechange"
)

// PrintPlan writes the task list as a table: one row per step with its
// resolved resources and the state changes it reverts and applies.
func PrintPlan(w io.Writer, list *scheduler.TaskList) {
	tbl := table.New(w)
	tbl.SetColumnMaxWidth(48)
	tbl.SetHeaders("#", "Node", "Inputs", "Outputs", "Revert", "Apply")

	for i, step := range list.Steps {
		tbl.AddRow(
			fmt.Sprint(i+1),
			step.Node.ID(),
			formatResources(step.Inputs),
			formatResources(step.Outputs),
			joinChanges(step.Transition.Revert),
			joinChanges(step.Transition.Apply),
		)
	}
	if !list.Tail.Empty() {
		tbl.AddRow("", "(tail)", "", "", joinChanges(list.Tail.Revert), "")
	}
	tbl.Render()
	fmt.Fprintf(w, "%d steps, digest %016x\n", list.Len(), list.Digest())
}

func formatResources(res map[int]connection.Resource) string {
	slots := make([]int, 0, len(res))
	for slot := range res {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	parts := make([]string, len(slots))
	for i, slot := range slots {
		parts[i] = fmt.Sprintf("%d:%s", slot, res[slot])
	}
	return strings.Join(parts, "\n")
}

func joinChanges(changes []statechange.StateChange) string {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	return strings.Join(parts, "\n")
}
